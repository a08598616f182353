// Package scheduler implements the round-robin camera scheduler
// (§4.6): cycles a fixed camera list at a configured cadence, driving a
// detector pass across every zone assigned to each camera in turn.
package scheduler

import (
	"sync"
	"time"

	"webserver/internal/detector"
	"webserver/internal/model"
	"webserver/internal/occupancy"
)

// SnapshotFetcher fetches the latest JPEG frame for a camera.
type SnapshotFetcher interface {
	FetchFrame(cameraID string) ([]byte, error)
}

// ZoneSource supplies the zones and background for a camera tick.
type ZoneSource interface {
	ListForCamera(cameraID string) ([]model.Zone, error)
	GetBackground(cameraID string) (*model.BackgroundFrame, error)
}

// DetectorSource returns the currently active detector backend.
type DetectorSource interface {
	Current() detector.Detector
}

// Logger receives a line per tick failure; satisfied by internal/logger.
type Logger interface {
	Warning(format string, args ...interface{})
}

// Status is a snapshot of the scheduler's run state.
type Status struct {
	Running    bool     `json:"running"`
	Cameras    []string `json:"cameras"`
	IntervalMS int      `json:"interval_ms"`
	Cursor     int      `json:"cursor"`
}

// Scheduler is the Stopped/Running state machine driving round-robin
// analysis ticks.
type Scheduler struct {
	mu       sync.Mutex
	running  bool
	cameras  []string
	interval time.Duration
	cursor   int
	stopCh   chan struct{}

	snapshot  SnapshotFetcher
	zones     ZoneSource
	detectors DetectorSource
	occ       *occupancy.Tracker
	log       Logger
}

// New creates a stopped Scheduler.
func New(snapshot SnapshotFetcher, zones ZoneSource, detectors DetectorSource, occ *occupancy.Tracker, log Logger) *Scheduler {
	return &Scheduler{snapshot: snapshot, zones: zones, detectors: detectors, occ: occ, log: log}
}

// Start begins round-robin ticking over cameras at intervalMS. Calling
// Start while already running restarts it with the new parameters.
func (s *Scheduler) Start(cameras []string, intervalMS int) {
	s.mu.Lock()
	if s.running {
		close(s.stopCh)
	}
	s.cameras = cameras
	s.interval = time.Duration(intervalMS) * time.Millisecond
	s.cursor = 0
	s.running = true
	s.stopCh = make(chan struct{})
	stopCh := s.stopCh
	interval := s.interval
	s.mu.Unlock()

	go s.loop(stopCh, interval)
}

// Stop halts ticking. Safe to call when already stopped.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

// Status reports the current run state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Running:    s.running,
		Cameras:    append([]string(nil), s.cameras...),
		IntervalMS: int(s.interval / time.Millisecond),
		Cursor:     s.cursor,
	}
}

func (s *Scheduler) loop(stopCh chan struct{}, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}

	select {
	case <-stopCh:
		return
	default:
		s.tick()
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick analyzes every zone on the current cursor's camera, then
// advances the cursor modulo the camera count. A no-op on an empty
// camera list.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if len(s.cameras) == 0 {
		s.mu.Unlock()
		return
	}
	camera := s.cameras[s.cursor%len(s.cameras)]
	s.cursor = (s.cursor + 1) % len(s.cameras)
	s.mu.Unlock()

	frame, err := s.snapshot.FetchFrame(camera)
	if err != nil {
		if s.log != nil {
			s.log.Warning("scheduler: fetch frame for %s: %v", camera, err)
		}
		return
	}

	zones, err := s.zones.ListForCamera(camera)
	if err != nil {
		if s.log != nil {
			s.log.Warning("scheduler: list zones for %s: %v", camera, err)
		}
		return
	}

	background, err := s.zones.GetBackground(camera)
	if err != nil && s.log != nil {
		s.log.Warning("scheduler: get background for %s: %v", camera, err)
	}

	det := s.detectors.Current()
	for i := range zones {
		zone := &zones[i]
		result, err := det.Analyze(frame, background, zone, model.DetectOptions{
			MinArea: zone.MinArea,
			MaxArea: zone.MaxArea,
		})
		if err != nil {
			if s.log != nil {
				s.log.Warning("scheduler: analyze zone %s: %v", zone.ID, err)
			}
			continue
		}

		blobs := make([]model.Blob, len(result.Detections))
		for j, d := range result.Detections {
			blobs[j] = d.Blob
		}
		s.occ.Update(zone, blobs)
	}
}
