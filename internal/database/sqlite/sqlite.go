package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/kozaktomas/attendance-cam/internal/database"
	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite attendance database with thread-safe access.
type DB struct {
	conn *sql.DB
	mu   sync.RWMutex
}

// New opens (creating if needed) the SQLite database at path.
func New(path string) (*DB, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	conn, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(0)

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return db, nil
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS attendance (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		day TEXT NOT NULL,
		identity TEXT NOT NULL,
		time_of_day TEXT NOT NULL,
		confidence REAL NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (day, identity)
	);

	CREATE INDEX IF NOT EXISTS idx_attendance_day ON attendance(day);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// HasRecord checks if the identity already has a record for the date.
func (db *DB) HasRecord(ctx context.Context, identity, date string) (bool, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	var one int
	err := db.conn.QueryRowContext(ctx,
		`SELECT 1 FROM attendance WHERE day = ? AND identity = ? LIMIT 1`,
		date, identity,
	).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check attendance record: %w", err)
	}
	return true, nil
}

// Records returns all records of a date in insertion order.
func (db *DB) Records(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx,
		`SELECT identity, time_of_day, confidence FROM attendance WHERE day = ? ORDER BY id`,
		date,
	)
	if err != nil {
		return nil, fmt.Errorf("query attendance records: %w", err)
	}
	defer rows.Close()

	var records []database.AttendanceRecord
	for rows.Next() {
		rec := database.AttendanceRecord{Date: date}
		if err := rows.Scan(&rec.Identity, &rec.Time, &rec.Confidence); err != nil {
			return nil, fmt.Errorf("scan attendance record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Append stores a new record, returning ErrDuplicateRecord when the
// identity was already recorded that day.
func (db *DB) Append(ctx context.Context, rec database.AttendanceRecord) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	result, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO attendance (day, identity, time_of_day, confidence) VALUES (?, ?, ?, ?)`,
		rec.Date, rec.Identity, rec.Time, rec.Confidence,
	)
	if err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("insert attendance record: %w", err)
	}
	if n == 0 {
		return database.ErrDuplicateRecord
	}
	return nil
}
