package model

import "time"

// OccupancyEntry is the current published state of one zone.
type OccupancyEntry struct {
	ZoneID      string    `json:"zone_id"`
	ZoneName    string    `json:"zone_name"`
	CameraID    string    `json:"camera_id,omitempty"`
	Count       int       `json:"count"`
	Blobs       []Blob    `json:"blobs,omitempty"`
	Alarm       bool      `json:"alarm"`
	LastUpdated time.Time `json:"last_updated"`
}

// ZoneSession tracks the open dwell interval for a zone that is currently
// occupied (count > 0). Exists iff the zone's last published count is positive.
type ZoneSession struct {
	ZoneID      string
	EntryTime   time.Time
	CountAtEntry int
}

// EventKind classifies a ParkingEvent.
type EventKind string

const (
	EventEntry            EventKind = "entry"
	EventExit             EventKind = "exit"
	EventOccupancyChange  EventKind = "occupancy_change"
)

// ParkingEvent is an append-only record of an occupancy transition.
type ParkingEvent struct {
	ID              int64      `json:"id"`
	ZoneID          string     `json:"zone_id"`
	ZoneName        string     `json:"zone_name"`
	CameraID        string     `json:"camera_id,omitempty"`
	Kind            EventKind  `json:"kind"`
	CountBefore     int        `json:"count_before"`
	CountAfter      int        `json:"count_after"`
	DurationSeconds *float64   `json:"duration_seconds,omitempty"`
	EntryTime       *time.Time `json:"entry_time,omitempty"`
	ExitTime        *time.Time `json:"exit_time,omitempty"`
	Timestamp       time.Time  `json:"timestamp"`
}

// EventFilter narrows an event query (§6 GET /events).
type EventFilter struct {
	ZoneID    string
	CameraID  string
	EventType EventKind
	Since     time.Time
	Until     time.Time
	Limit     int
	Offset    int
}

// EventStats aggregates entry/exit totals over a time window.
type EventStats struct {
	TotalEntries       int             `json:"total_entries"`
	TotalExits         int             `json:"total_exits"`
	CurrentOccupied    int             `json:"current_occupied"`
	AvgDurationSeconds float64         `json:"avg_duration_seconds"`
	ByZone             []ZoneEventStat `json:"by_zone"`
}

// ZoneEventStat is the per-zone breakdown within EventStats.
type ZoneEventStat struct {
	ZoneID     string `json:"zone_id"`
	ZoneName   string `json:"zone_name"`
	Entries    int    `json:"entries"`
	Exits      int    `json:"exits"`
}
