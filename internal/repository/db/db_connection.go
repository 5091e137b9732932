package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// InitDB opens/creates a SQLite DB file and ensures tables exist.
func InitDB(path string) (*sql.DB, error) {
	db, err := sql.Open(sqliteDriverName, path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite at %q: %w", path, err)
	}

	// Conservative pool settings for SQLite
	db.SetMaxOpenConns(1) // SQLite is not great with many writers
	db.SetMaxIdleConns(1)

	// Pragmas to improve reliability
	if _, err := db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA journal_mode=WAL: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA foreign_keys=ON: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout = 5000;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set PRAGMA busy_timeout=5000: %w", err)
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Fail fast if the DB cannot be reached
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return db, nil
}

const sqliteDriverName = "sqlite"

const schemaWeekSchedule = `
CREATE TABLE IF NOT EXISTS week_schedule (
    week INTEGER PRIMARY KEY CHECK (week BETWEEN 1 AND 52),
    uv1_start TEXT NOT NULL,
    uv1_end TEXT NOT NULL,
    uv2_start TEXT NOT NULL,
    uv2_end TEXT NOT NULL,
    heat_start TEXT NOT NULL,
    heat_end TEXT NOT NULL,
    led_r INTEGER NOT NULL,
    led_g INTEGER NOT NULL,
    led_b INTEGER NOT NULL,
    led_ww INTEGER NOT NULL,
    led_cw INTEGER NOT NULL
);
`

const schemaLightPresets = `
CREATE TABLE IF NOT EXISTS light_presets (
    name TEXT PRIMARY KEY CHECK (name IN ('morning', 'noon', 'evening')),
    r INTEGER NOT NULL,
    g INTEGER NOT NULL,
    b INTEGER NOT NULL,
    ww INTEGER NOT NULL,
    cw INTEGER NOT NULL
);
`

const schemaLEDSettings = `
CREATE TABLE IF NOT EXISTS led_settings (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    power BOOLEAN NOT NULL,
    mode TEXT NOT NULL,
    r INTEGER NOT NULL,
    g INTEGER NOT NULL,
    b INTEGER NOT NULL,
    ww INTEGER NOT NULL,
    cw INTEGER NOT NULL,
    season_weight REAL NOT NULL,
    updated_at TIMESTAMP NOT NULL
);
`

const schemaEvents = `
CREATE TABLE IF NOT EXISTS events (
    id TEXT PRIMARY KEY,
    occurred_at TIMESTAMP NOT NULL,
    type TEXT NOT NULL,
    severity TEXT NOT NULL DEFAULT 'info',
    message TEXT NOT NULL,
    meta TEXT
);
CREATE INDEX IF NOT EXISTS idx_events_occurred_at ON events (occurred_at);
`

const schemaSensorHistory = `
CREATE TABLE IF NOT EXISTS sensor_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    taken_at TIMESTAMP NOT NULL,
    basking_c REAL NOT NULL,
    basking2_c REAL NOT NULL,
    cool_c REAL NOT NULL,
    humidity_pct REAL NOT NULL,
    uv1 REAL NOT NULL,
    uv1_on BOOLEAN NOT NULL,
    uv2 REAL NOT NULL,
    uv2_on BOOLEAN NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_sensor_history_taken_at ON sensor_history (taken_at);
`

const schemaUsers = `
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT UNIQUE NOT NULL,
    password_hash TEXT NOT NULL
);
`

func ensureSchema(db *sql.DB) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin schema transaction: %w", err)
	}
	defer func() {
		// In case of panic, rollback to avoid leaving an open transaction
		_ = tx.Rollback()
	}()

	for i, stmt := range []string{
		schemaWeekSchedule,
		schemaLightPresets,
		schemaLEDSettings,
		schemaEvents,
		schemaSensorHistory,
		schemaUsers,
	} {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply schema statement %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema transaction: %w", err)
	}
	return nil
}
