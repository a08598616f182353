// Package core holds the small set of sentinel errors shared across the
// zone-occupancy monitor's components, per the error taxonomy in the spec.
package core

import "errors"

var (
	// ErrInvalidZone is returned when a zone input fails validation
	// (fewer than 3 points or zero-area polygon, min_area above max_area,
	// alarm_threshold below 1).
	ErrInvalidZone = errors.New("invalid zone")

	// ErrInvalidImage is returned when image bytes cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")

	// ErrUnknownMode is returned when a detector mode string is not one
	// of the valid modes.
	ErrUnknownMode = errors.New("unknown detection mode")

	// ErrNotFound is returned when a requested zone or resource does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDimensionMismatch is returned when a frame's dimensions differ
	// from its background's.
	ErrDimensionMismatch = errors.New("frame and background dimensions do not match")

	// ErrBackendUnavailable is returned when switching to a non-blob
	// detection mode while the external detector cannot be reached.
	ErrBackendUnavailable = errors.New("detection backend unavailable")
)
