package model

import "time"

// Point is an image-pixel-space coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Zone is a named polygonal region of interest on one camera's image plane.
type Zone struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	CameraID       string    `json:"camera_id,omitempty"` // empty = applies to all cameras
	Polygon        []Point   `json:"polygon"`
	MinArea        int       `json:"min_area"`
	MaxArea        int       `json:"max_area"`
	AlarmThreshold int       `json:"alarm_threshold"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ZoneInput is the caller-supplied payload for creating a zone.
type ZoneInput struct {
	Name           string
	CameraID       string
	Polygon        []Point
	MinArea        int
	MaxArea        int
	AlarmThreshold int
}

// ZonePatch is a partial update; nil fields are left untouched.
type ZonePatch struct {
	Name           *string
	CameraID       *string
	Polygon        []Point // nil means "don't touch"
	MinArea        *int
	MaxArea        *int
	AlarmThreshold *int
}

// BackgroundFrame is the per-camera reference grayscale image used for
// difference-based detection.
type BackgroundFrame struct {
	CameraID  string    `json:"camera_id"`
	Blob      []byte    `json:"-"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	UpdatedAt time.Time `json:"updated_at"`
}
