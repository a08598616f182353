// Package sqlitestore is the row store driver (§6 "Persisted state"): a
// small embedded relational store used as a plain key-value/row store for
// zones, background frames, and events. Grounded on the teacher's
// internal/repository/sqlite package (same driver, same connection
// settings, same migrate-on-open idiom), generalized to this spec's
// three tables.
package sqlitestore

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection with the single-writer locking the
// teacher's row store uses (SQLite allows only one writer at a time; a
// single RWMutex keeps callers from tripping over SQLITE_BUSY).
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// Open creates and migrates a new SQLite-backed row store at path.
func Open(path string) (*DB, error) {
	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("sqlitestore: migrate: %w", err)
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS zones (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		camera_id TEXT NOT NULL DEFAULT '',
		polygon TEXT NOT NULL,
		min_area INTEGER NOT NULL,
		max_area INTEGER NOT NULL,
		alarm_threshold INTEGER NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS background_frames (
		camera_id TEXT PRIMARY KEY,
		blob BLOB NOT NULL,
		width INTEGER NOT NULL,
		height INTEGER NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		zone_id TEXT NOT NULL,
		zone_name TEXT NOT NULL,
		camera_id TEXT NOT NULL DEFAULT '',
		kind TEXT NOT NULL,
		count_before INTEGER NOT NULL,
		count_after INTEGER NOT NULL,
		duration_seconds REAL,
		entry_time DATETIME,
		exit_time DATETIME,
		timestamp DATETIME NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp);
	CREATE INDEX IF NOT EXISTS idx_events_zone_id ON events(zone_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the underlying connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying *sql.DB for repository use.
func (db *DB) Conn() *sql.DB { return db.conn }

func (db *DB) Lock()    { db.mu.Lock() }
func (db *DB) Unlock()  { db.mu.Unlock() }
func (db *DB) RLock()   { db.mu.RLock() }
func (db *DB) RUnlock() { db.mu.RUnlock() }
