// Package events implements the entry/exit/occupancy_change state
// machine (§4.5): it watches occupancy transitions, attributes dwell
// time to open zone sessions, persists the resulting event log, and
// aggregates stats from it.
package events

import (
	"fmt"
	"sync"
	"time"

	"webserver/internal/model"
)

// Repository is the persistence contract the logger needs from the row
// store driver.
type Repository interface {
	Insert(e *model.ParkingEvent) (int64, error)
	Query(filter model.EventFilter) ([]model.ParkingEvent, error)
	Count(filter model.EventFilter) (int, error)
}

// Publisher fans out a freshly recorded event to live subscribers.
// Optional: a nil Publisher simply skips the broadcast.
type Publisher interface {
	PublishEvent(e model.ParkingEvent)
}

// Logger is the occupancy.Listener implementation that turns count
// transitions into a persisted, classified event log.
type Logger struct {
	mu       sync.Mutex
	sessions map[string]model.ZoneSession
	repo     Repository
	pub      Publisher
}

// NewLogger creates a Logger over repo, optionally publishing through
// pub (nil disables live fan-out).
func NewLogger(repo Repository, pub Publisher) *Logger {
	return &Logger{sessions: make(map[string]model.ZoneSession), repo: repo, pub: pub}
}

// OnOccupancyChange implements occupancy.Listener. It classifies the
// transition, opens or closes the zone's session as needed, and
// persists the resulting event.
func (l *Logger) OnOccupancyChange(zone *model.Zone, prevCount, newCount int, blobs []model.Blob) {
	now := time.Now()

	var kind model.EventKind
	var entryTime, exitTime *time.Time
	var duration *float64

	l.mu.Lock()
	switch {
	case prevCount == 0 && newCount > 0:
		kind = model.EventEntry
		l.sessions[zone.ID] = model.ZoneSession{ZoneID: zone.ID, EntryTime: now, CountAtEntry: newCount}
		entryTime = &now
	case prevCount > 0 && newCount == 0:
		kind = model.EventExit
		if session, ok := l.sessions[zone.ID]; ok {
			et := session.EntryTime
			entryTime = &et
			d := now.Sub(session.EntryTime).Seconds()
			duration = &d
			delete(l.sessions, zone.ID)
		}
		xt := now
		exitTime = &xt
	default:
		kind = model.EventOccupancyChange
	}
	l.mu.Unlock()

	event := &model.ParkingEvent{
		ZoneID:          zone.ID,
		ZoneName:        zone.Name,
		CameraID:        zone.CameraID,
		Kind:            kind,
		CountBefore:     prevCount,
		CountAfter:      newCount,
		DurationSeconds: duration,
		EntryTime:       entryTime,
		ExitTime:        exitTime,
		Timestamp:       now,
	}

	id, err := l.repo.Insert(event)
	if err != nil {
		// Persistence failures must not take down the scheduler tick that
		// produced this event; the occupancy map itself already advanced.
		return
	}
	event.ID = id

	if l.pub != nil {
		l.pub.PublishEvent(*event)
	}
}

// CurrentOccupied returns the number of zones with an open (unclosed)
// session right now, read live from memory rather than the row store.
func (l *Logger) CurrentOccupied() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sessions)
}

// rowPurger is satisfied by repositories that can drop persisted event
// rows for a zone (sqlitestore.EventRepository). Checked via a type
// assertion so Repository itself can stay narrow.
type rowPurger interface {
	PurgeZone(zoneID string) error
}

// PurgeZone forgets any open session for a deleted zone and, if the
// underlying repository supports it, deletes its persisted event rows
// too. Implements zonestore.EventPurger.
func (l *Logger) PurgeZone(zoneID string) error {
	l.mu.Lock()
	delete(l.sessions, zoneID)
	l.mu.Unlock()

	if rp, ok := l.repo.(rowPurger); ok {
		if err := rp.PurgeZone(zoneID); err != nil {
			return fmt.Errorf("events: purge zone: %w", err)
		}
	}
	return nil
}

// Query returns events matching filter.
func (l *Logger) Query(filter model.EventFilter) ([]model.ParkingEvent, error) {
	events, err := l.repo.Query(filter)
	if err != nil {
		return nil, fmt.Errorf("events: query: %w", err)
	}
	return events, nil
}

// Stats aggregates entry/exit counts, average completed-session
// duration, and a per-zone breakdown, honoring filter.Since as a lower
// bound. CurrentOccupied always reflects the live session map, not the
// filtered window.
func (l *Logger) Stats(filter model.EventFilter) (*model.EventStats, error) {
	entriesFilter := filter
	entriesFilter.EventType = model.EventEntry
	totalEntries, err := l.repo.Count(entriesFilter)
	if err != nil {
		return nil, fmt.Errorf("events: stats: count entries: %w", err)
	}

	exitsFilter := filter
	exitsFilter.EventType = model.EventExit
	totalExits, err := l.repo.Count(exitsFilter)
	if err != nil {
		return nil, fmt.Errorf("events: stats: count exits: %w", err)
	}

	exits, err := l.repo.Query(exitsFilter)
	if err != nil {
		return nil, fmt.Errorf("events: stats: query exits: %w", err)
	}
	var totalDuration float64
	var durationCount int
	byZone := make(map[string]*model.ZoneEventStat)
	for _, e := range exits {
		if e.DurationSeconds != nil {
			totalDuration += *e.DurationSeconds
			durationCount++
		}
		zs := zoneStat(byZone, e.ZoneID, e.ZoneName)
		zs.Exits++
	}

	entries, err := l.repo.Query(entriesFilter)
	if err != nil {
		return nil, fmt.Errorf("events: stats: query entries: %w", err)
	}
	for _, e := range entries {
		zs := zoneStat(byZone, e.ZoneID, e.ZoneName)
		zs.Entries++
	}

	var avgDuration float64
	if durationCount > 0 {
		avgDuration = totalDuration / float64(durationCount)
	}

	byZoneList := make([]model.ZoneEventStat, 0, len(byZone))
	for _, zs := range byZone {
		byZoneList = append(byZoneList, *zs)
	}

	return &model.EventStats{
		TotalEntries:       totalEntries,
		TotalExits:         totalExits,
		CurrentOccupied:    l.CurrentOccupied(),
		AvgDurationSeconds: avgDuration,
		ByZone:             byZoneList,
	}, nil
}

func zoneStat(byZone map[string]*model.ZoneEventStat, zoneID, zoneName string) *model.ZoneEventStat {
	zs, ok := byZone[zoneID]
	if !ok {
		zs = &model.ZoneEventStat{ZoneID: zoneID, ZoneName: zoneName}
		byZone[zoneID] = zs
	}
	return zs
}
