// Package detector implements the pluggable detection backends (§4.3):
// a built-in background-subtraction blob detector and an external HTTP
// detector, both satisfying the same Detector interface so the scheduler
// never needs to know which one is active.
package detector

import (
	"webserver/internal/model"
)

// Detector analyzes a single camera frame against a zone's polygon and
// area gate, returning whatever it found inside that zone.
type Detector interface {
	Analyze(frame []byte, background *model.BackgroundFrame, zone *model.Zone, opts model.DetectOptions) (*model.DetectionResult, error)
	Mode() model.Mode
}
