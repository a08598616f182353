package sqlitestore

import (
	"database/sql"
	"fmt"
	"time"

	"webserver/internal/model"
)

// EventRepository implements the events package's persistence contract
// over SQLite.
type EventRepository struct {
	db *DB
}

// NewEventRepository creates a SQLite-backed event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{db: db}
}

func (r *EventRepository) Insert(e *model.ParkingEvent) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO events (zone_id, zone_name, camera_id, kind, count_before, count_after, duration_seconds, entry_time, exit_time, timestamp)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ZoneID, e.ZoneName, e.CameraID, string(e.Kind), e.CountBefore, e.CountAfter,
		nullFloat(e.DurationSeconds), nullTime(e.EntryTime), nullTime(e.ExitTime), e.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("insert event: %w", err)
	}
	return result.LastInsertId()
}

func (r *EventRepository) Query(filter model.EventFilter) ([]model.ParkingEvent, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT id, zone_id, zone_name, camera_id, kind, count_before, count_after, duration_seconds, entry_time, exit_time, timestamp FROM events WHERE 1=1`
	var args []interface{}

	if filter.ZoneID != "" {
		query += " AND zone_id = ?"
		args = append(args, filter.ZoneID)
	}
	if filter.CameraID != "" {
		query += " AND camera_id = ?"
		args = append(args, filter.CameraID)
	}
	if filter.EventType != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.EventType))
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.Until)
	}
	query += " ORDER BY timestamp DESC"
	if filter.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query += " OFFSET ?"
		args = append(args, filter.Offset)
	}

	rows, err := r.db.Conn().Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.ParkingEvent
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (r *EventRepository) Count(filter model.EventFilter) (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	query := `SELECT COUNT(*) FROM events WHERE 1=1`
	var args []interface{}
	if filter.ZoneID != "" {
		query += " AND zone_id = ?"
		args = append(args, filter.ZoneID)
	}
	if filter.CameraID != "" {
		query += " AND camera_id = ?"
		args = append(args, filter.CameraID)
	}
	if filter.EventType != "" {
		query += " AND kind = ?"
		args = append(args, string(filter.EventType))
	}
	if !filter.Since.IsZero() {
		query += " AND timestamp >= ?"
		args = append(args, filter.Since)
	}
	if !filter.Until.IsZero() {
		query += " AND timestamp <= ?"
		args = append(args, filter.Until)
	}

	var count int
	err := r.db.Conn().QueryRow(query, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}

func (r *EventRepository) PurgeZone(zoneID string) error {
	r.db.Lock()
	defer r.db.Unlock()
	_, err := r.db.Conn().Exec(`DELETE FROM events WHERE zone_id = ?`, zoneID)
	if err != nil {
		return fmt.Errorf("purge zone events: %w", err)
	}
	return nil
}

func nullFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}

func scanEvent(row rowScanner) (*model.ParkingEvent, error) {
	var e model.ParkingEvent
	var kind string
	var duration sql.NullFloat64
	var entryTime, exitTime sql.NullTime

	if err := row.Scan(&e.ID, &e.ZoneID, &e.ZoneName, &e.CameraID, &kind, &e.CountBefore, &e.CountAfter,
		&duration, &entryTime, &exitTime, &e.Timestamp); err != nil {
		return nil, err
	}
	e.Kind = model.EventKind(kind)
	if duration.Valid {
		e.DurationSeconds = &duration.Float64
	}
	if entryTime.Valid {
		e.EntryTime = &entryTime.Time
	}
	if exitTime.Valid {
		e.ExitTime = &exitTime.Time
	}
	return &e, nil
}
