package detector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"webserver/internal/core"
	"webserver/internal/model"
)

// Selector holds the currently active Detector and lets callers switch
// between the built-in blob backend and an external backend, probing
// reachability before committing to a switch (§6 "/detection/mode").
type Selector struct {
	mu      sync.RWMutex
	active  Detector
	blob    *BlobDetector
	yolo    *ExternalDetector
	ssd     *ExternalDetector
	onMode  func(model.Mode)
}

// NewSelector starts in blob mode.
func NewSelector(blob *BlobDetector, yolo, ssd *ExternalDetector) *Selector {
	return &Selector{active: blob, blob: blob, yolo: yolo, ssd: ssd}
}

// OnModeChange registers a callback invoked whenever SetMode succeeds,
// used to fan out a ModeChanged update.
func (s *Selector) OnModeChange(fn func(model.Mode)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onMode = fn
}

// Current returns the active detector.
func (s *Selector) Current() Detector {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// AvailableModes reports blob plus every external mode that has a
// configured backend. External backends are not probed here, so SetMode
// can still reject a listed mode if its backend is unreachable.
func (s *Selector) AvailableModes() []model.Mode {
	modes := []model.Mode{model.ModeBlob}
	if s.yolo != nil {
		modes = append(modes, model.ModeExternalYOLO)
	}
	if s.ssd != nil {
		modes = append(modes, model.ModeExternalSSD)
	}
	return modes
}

// SetMode switches the active detector, probing an external backend's
// reachability first. Blob mode is always available since it has no
// external dependency.
func (s *Selector) SetMode(ctx context.Context, mode model.Mode) error {
	var next Detector
	switch mode {
	case model.ModeBlob:
		next = s.blob
	case model.ModeExternalYOLO:
		if s.yolo == nil {
			return fmt.Errorf("%w: external yolo backend not configured", core.ErrUnknownMode)
		}
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.yolo.Probe(probeCtx); err != nil {
			return err
		}
		next = s.yolo
	case model.ModeExternalSSD:
		if s.ssd == nil {
			return fmt.Errorf("%w: external ssd backend not configured", core.ErrUnknownMode)
		}
		probeCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		defer cancel()
		if err := s.ssd.Probe(probeCtx); err != nil {
			return err
		}
		next = s.ssd
	default:
		return fmt.Errorf("%w: %s", core.ErrUnknownMode, mode)
	}

	s.mu.Lock()
	s.active = next
	cb := s.onMode
	s.mu.Unlock()

	if cb != nil {
		cb(next.Mode())
	}
	return nil
}
