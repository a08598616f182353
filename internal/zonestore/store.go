// Package zonestore is the zone store (§4.2): CRUD over Zone records and
// per-camera background blobs, backed by an opaque row store.
package zonestore

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"webserver/internal/core"
	"webserver/internal/imaging"
	"webserver/internal/model"
)

const (
	DefaultMinArea        = 500
	DefaultMaxArea        = 50000
	DefaultAlarmThreshold = 1
)

// Repository is the persistence contract the store needs from the row
// store driver (§6 "zones", "background_frames" tables).
type Repository interface {
	InsertZone(z *model.Zone) error
	GetZone(id string) (*model.Zone, error)
	ListZones() ([]model.Zone, error)
	UpdateZone(z *model.Zone) error
	DeleteZone(id string) error

	SaveBackground(bg *model.BackgroundFrame) error
	GetBackground(cameraID string) (*model.BackgroundFrame, error)
}

// EventPurger removes event rows and any open session for a deleted zone, satisfying
// the cascade-delete requirement in §3. The zone store depends on this
// narrow capability rather than the full event logger to avoid a cycle.
type EventPurger interface {
	PurgeZone(zoneID string) error
}

// Store is the zone store: validates and persists zones and background
// frames, assigning opaque ids and filling in field defaults.
type Store struct {
	mu     sync.RWMutex
	repo   Repository
	purger EventPurger
}

// New creates a Store over the given repository. purger may be nil if
// cascade-delete of event rows is not needed (e.g. tests).
func New(repo Repository, purger EventPurger) *Store {
	return &Store{repo: repo, purger: purger}
}

// Create validates input and persists a new zone with a fresh opaque id.
func (s *Store) Create(input model.ZoneInput) (*model.Zone, error) {
	if err := validatePolygon(input.Polygon); err != nil {
		return nil, err
	}

	minArea := input.MinArea
	if minArea == 0 {
		minArea = DefaultMinArea
	}
	maxArea := input.MaxArea
	if maxArea == 0 {
		maxArea = DefaultMaxArea
	}
	if minArea > maxArea {
		return nil, fmt.Errorf("%w: min_area %d > max_area %d", core.ErrInvalidZone, minArea, maxArea)
	}
	alarmThreshold := input.AlarmThreshold
	if alarmThreshold == 0 {
		alarmThreshold = DefaultAlarmThreshold
	}
	if alarmThreshold < 1 {
		return nil, fmt.Errorf("%w: alarm_threshold must be >= 1", core.ErrInvalidZone)
	}

	now := time.Now()
	zone := &model.Zone{
		ID:             uuid.NewString(),
		Name:           input.Name,
		CameraID:       input.CameraID,
		Polygon:        input.Polygon,
		MinArea:        minArea,
		MaxArea:        maxArea,
		AlarmThreshold: alarmThreshold,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.repo.InsertZone(zone); err != nil {
		return nil, fmt.Errorf("zonestore: create: %w", err)
	}
	return zone, nil
}

// Get returns the zone with id, or ErrNotFound.
func (s *Store) Get(id string) (*model.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	z, err := s.repo.GetZone(id)
	if err != nil {
		return nil, fmt.Errorf("zonestore: get: %w", err)
	}
	if z == nil {
		return nil, core.ErrNotFound
	}
	return z, nil
}

// List returns all zones sorted by created_at descending.
func (s *Store) List() ([]model.Zone, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	zones, err := s.repo.ListZones()
	if err != nil {
		return nil, fmt.Errorf("zonestore: list: %w", err)
	}
	sort.Slice(zones, func(i, j int) bool {
		return zones[i].CreatedAt.After(zones[j].CreatedAt)
	})
	return zones, nil
}

// ListForCamera returns zones assigned to cameraID plus unassigned
// (wildcard) zones, which apply to every camera (used by the scheduler
// and the frame renderer).
func (s *Store) ListForCamera(cameraID string) ([]model.Zone, error) {
	all, err := s.List()
	if err != nil {
		return nil, err
	}
	var out []model.Zone
	for _, z := range all {
		if z.CameraID == cameraID || z.CameraID == "" {
			out = append(out, z)
		}
	}
	return out, nil
}

// Update applies a partial patch to the zone with id, touching updated_at.
func (s *Store) Update(id string, patch model.ZonePatch) (*model.Zone, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	zone, err := s.repo.GetZone(id)
	if err != nil {
		return nil, fmt.Errorf("zonestore: update: %w", err)
	}
	if zone == nil {
		return nil, core.ErrNotFound
	}

	if patch.Name != nil {
		zone.Name = *patch.Name
	}
	if patch.CameraID != nil {
		zone.CameraID = *patch.CameraID
	}
	if patch.Polygon != nil {
		if err := validatePolygon(patch.Polygon); err != nil {
			return nil, err
		}
		zone.Polygon = patch.Polygon
	}
	if patch.MinArea != nil {
		zone.MinArea = *patch.MinArea
	}
	if patch.MaxArea != nil {
		zone.MaxArea = *patch.MaxArea
	}
	if zone.MinArea > zone.MaxArea {
		return nil, fmt.Errorf("%w: min_area %d > max_area %d", core.ErrInvalidZone, zone.MinArea, zone.MaxArea)
	}
	if patch.AlarmThreshold != nil {
		if *patch.AlarmThreshold < 1 {
			return nil, fmt.Errorf("%w: alarm_threshold must be >= 1", core.ErrInvalidZone)
		}
		zone.AlarmThreshold = *patch.AlarmThreshold
	}
	zone.UpdatedAt = time.Now()

	if err := s.repo.UpdateZone(zone); err != nil {
		return nil, fmt.Errorf("zonestore: update: %w", err)
	}
	return zone, nil
}

// Delete removes the zone with id, cascading to its event rows (through
// the EventPurger) first to satisfy referential integrity. The live
// occupancy entry is not touched here; callers drop it. Returns whether a
// row was actually removed.
func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.repo.GetZone(id)
	if err != nil {
		return false, fmt.Errorf("zonestore: delete: %w", err)
	}
	if existing == nil {
		return false, nil
	}

	if s.purger != nil {
		if err := s.purger.PurgeZone(id); err != nil {
			return false, fmt.Errorf("zonestore: delete: purge events: %w", err)
		}
	}

	if err := s.repo.DeleteZone(id); err != nil {
		return false, fmt.Errorf("zonestore: delete: %w", err)
	}
	return true, nil
}

// SaveBackground upserts the background frame for a camera.
func (s *Store) SaveBackground(cameraID string, pix []byte, w, h int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	bg := &model.BackgroundFrame{
		CameraID:  cameraID,
		Blob:      pix,
		Width:     w,
		Height:    h,
		UpdatedAt: time.Now(),
	}
	if err := s.repo.SaveBackground(bg); err != nil {
		return fmt.Errorf("zonestore: save background: %w", err)
	}
	return nil
}

// GetBackground returns the background frame for a camera, or nil if none
// has been seeded yet.
func (s *Store) GetBackground(cameraID string) (*model.BackgroundFrame, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bg, err := s.repo.GetBackground(cameraID)
	if err != nil {
		return nil, fmt.Errorf("zonestore: get background: %w", err)
	}
	return bg, nil
}

func validatePolygon(polygon []model.Point) error {
	if len(polygon) < 3 {
		return fmt.Errorf("%w: polygon needs at least 3 points, got %d", core.ErrInvalidZone, len(polygon))
	}
	pts := make([]imaging.Point, len(polygon))
	for i, p := range polygon {
		pts[i] = imaging.Point{X: p.X, Y: p.Y}
	}
	if imaging.PolygonArea(pts) <= 0 {
		return fmt.Errorf("%w: polygon is degenerate (zero area)", core.ErrInvalidZone)
	}
	return nil
}
