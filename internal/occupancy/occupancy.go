// Package occupancy holds the live per-zone occupancy map (§4.4): the
// last detection count and blob list for every zone, updated on each
// scheduler tick. A Listener is notified of every count change so the
// event logger can derive entry/exit/occupancy_change events without
// occupancy needing to import it back.
package occupancy

import (
	"sync"
	"time"

	"webserver/internal/model"
)

// Listener is notified whenever a zone's count changes, carrying both
// the count before and after the update so the receiver can classify
// the transition itself.
type Listener interface {
	OnOccupancyChange(zone *model.Zone, prevCount, newCount int, blobs []model.Blob)
}

// Publisher is notified of every tick's occupancy entry, whether or not
// the count changed, so live subscribers see a steady OccupancyUpdate
// stream rather than only change events.
type Publisher interface {
	PublishOccupancy(entry model.OccupancyEntry)
}

// Tracker is the process-wide occupancy map.
type Tracker struct {
	mu        sync.RWMutex
	entries   map[string]model.OccupancyEntry
	listeners []Listener
	publisher Publisher
}

// New creates an empty Tracker.
func New() *Tracker {
	return &Tracker{entries: make(map[string]model.OccupancyEntry)}
}

// AddListener registers a listener notified of every occupancy change.
// Not safe to call concurrently with Update.
func (t *Tracker) AddListener(l Listener) {
	t.listeners = append(t.listeners, l)
}

// SetPublisher registers the fan-out sink that receives an
// OccupancyUpdate for every zone processed on a tick. Not safe to call
// concurrently with Update.
func (t *Tracker) SetPublisher(p Publisher) {
	t.publisher = p
}

// Update records a new detection result for a zone, returning the count
// observed before this update. Alarm is set when newCount crosses at or
// above the zone's configured alarm threshold.
func (t *Tracker) Update(zone *model.Zone, blobs []model.Blob) (prevCount int) {
	newCount := len(blobs)
	alarm := newCount >= zone.AlarmThreshold

	t.mu.Lock()
	if prev, existed := t.entries[zone.ID]; existed {
		prevCount = prev.Count
	}
	entry := model.OccupancyEntry{
		ZoneID:      zone.ID,
		ZoneName:    zone.Name,
		CameraID:    zone.CameraID,
		Count:       newCount,
		Blobs:       blobs,
		Alarm:       alarm,
		LastUpdated: time.Now(),
	}
	t.entries[zone.ID] = entry
	listeners := t.listeners
	publisher := t.publisher
	t.mu.Unlock()

	if publisher != nil {
		publisher.PublishOccupancy(entry)
	}
	if prevCount != newCount {
		for _, l := range listeners {
			l.OnOccupancyChange(zone, prevCount, newCount, blobs)
		}
	}
	return prevCount
}

// Get returns the current entry for a zone, and whether one exists yet.
func (t *Tracker) Get(zoneID string) (model.OccupancyEntry, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	e, ok := t.entries[zoneID]
	return e, ok
}

// All returns a snapshot of every tracked zone's occupancy entry.
func (t *Tracker) All() []model.OccupancyEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]model.OccupancyEntry, 0, len(t.entries))
	for _, e := range t.entries {
		out = append(out, e)
	}
	return out
}

// Remove drops a zone from the occupancy map, used when a zone is
// deleted.
func (t *Tracker) Remove(zoneID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, zoneID)
}
