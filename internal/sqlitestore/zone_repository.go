package sqlitestore

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"webserver/internal/model"
)

// ZoneRepository implements zonestore.Repository over SQLite. Polygons are
// stored as a serialized JSON string, per §6.
type ZoneRepository struct {
	db *DB
}

// NewZoneRepository creates a SQLite-backed zone repository.
func NewZoneRepository(db *DB) *ZoneRepository {
	return &ZoneRepository{db: db}
}

func (r *ZoneRepository) InsertZone(z *model.Zone) error {
	polygon, err := json.Marshal(z.Polygon)
	if err != nil {
		return fmt.Errorf("marshal polygon: %w", err)
	}

	r.db.Lock()
	defer r.db.Unlock()
	_, err = r.db.Conn().Exec(`
		INSERT INTO zones (id, name, camera_id, polygon, min_area, max_area, alarm_threshold, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, z.ID, z.Name, z.CameraID, string(polygon), z.MinArea, z.MaxArea, z.AlarmThreshold, z.CreatedAt, z.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert zone: %w", err)
	}
	return nil
}

func (r *ZoneRepository) GetZone(id string) (*model.Zone, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	row := r.db.Conn().QueryRow(`
		SELECT id, name, camera_id, polygon, min_area, max_area, alarm_threshold, created_at, updated_at
		FROM zones WHERE id = ?
	`, id)
	z, err := scanZone(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get zone: %w", err)
	}
	return z, nil
}

func (r *ZoneRepository) ListZones() ([]model.Zone, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, name, camera_id, polygon, min_area, max_area, alarm_threshold, created_at, updated_at
		FROM zones
	`)
	if err != nil {
		return nil, fmt.Errorf("list zones: %w", err)
	}
	defer rows.Close()

	var zones []model.Zone
	for rows.Next() {
		z, err := scanZone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan zone: %w", err)
		}
		zones = append(zones, *z)
	}
	return zones, rows.Err()
}

func (r *ZoneRepository) UpdateZone(z *model.Zone) error {
	polygon, err := json.Marshal(z.Polygon)
	if err != nil {
		return fmt.Errorf("marshal polygon: %w", err)
	}

	r.db.Lock()
	defer r.db.Unlock()
	_, err = r.db.Conn().Exec(`
		UPDATE zones SET name = ?, camera_id = ?, polygon = ?, min_area = ?, max_area = ?, alarm_threshold = ?, updated_at = ?
		WHERE id = ?
	`, z.Name, z.CameraID, string(polygon), z.MinArea, z.MaxArea, z.AlarmThreshold, z.UpdatedAt, z.ID)
	if err != nil {
		return fmt.Errorf("update zone: %w", err)
	}
	return nil
}

func (r *ZoneRepository) DeleteZone(id string) error {
	r.db.Lock()
	defer r.db.Unlock()
	_, err := r.db.Conn().Exec(`DELETE FROM zones WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete zone: %w", err)
	}
	return nil
}

func (r *ZoneRepository) SaveBackground(bg *model.BackgroundFrame) error {
	r.db.Lock()
	defer r.db.Unlock()
	_, err := r.db.Conn().Exec(`
		INSERT INTO background_frames (camera_id, blob, width, height, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(camera_id) DO UPDATE SET blob = excluded.blob, width = excluded.width, height = excluded.height, updated_at = excluded.updated_at
	`, bg.CameraID, bg.Blob, bg.Width, bg.Height, bg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("save background: %w", err)
	}
	return nil
}

func (r *ZoneRepository) GetBackground(cameraID string) (*model.BackgroundFrame, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var bg model.BackgroundFrame
	err := r.db.Conn().QueryRow(`
		SELECT camera_id, blob, width, height, updated_at FROM background_frames WHERE camera_id = ?
	`, cameraID).Scan(&bg.CameraID, &bg.Blob, &bg.Width, &bg.Height, &bg.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get background: %w", err)
	}
	return &bg, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanZone(row rowScanner) (*model.Zone, error) {
	var z model.Zone
	var polygon string
	if err := row.Scan(&z.ID, &z.Name, &z.CameraID, &polygon, &z.MinArea, &z.MaxArea, &z.AlarmThreshold, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(polygon), &z.Polygon); err != nil {
		return nil, fmt.Errorf("unmarshal polygon: %w", err)
	}
	return &z, nil
}
