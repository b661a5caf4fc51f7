package mariadb

import (
	"context"
	"fmt"

	"github.com/kozaktomas/attendance-cam/internal/database"
)

// AttendanceRepository provides MySQL/MariaDB-backed attendance storage.
type AttendanceRepository struct {
	pool *Pool
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(pool *Pool) *AttendanceRepository {
	return &AttendanceRepository{pool: pool}
}

// HasRecord checks if the identity already has a record for the date
func (r *AttendanceRepository) HasRecord(ctx context.Context, identity, date string) (bool, error) {
	var exists bool
	err := r.pool.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM attendance WHERE day = ? AND `identity` = ?)",
		date, identity,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check attendance record: %w", err)
	}
	return exists, nil
}

// Records returns all records of a date in insertion order
func (r *AttendanceRepository) Records(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	rows, err := r.pool.db.QueryContext(ctx,
		"SELECT `identity`, time_of_day, confidence FROM attendance WHERE day = ? ORDER BY id",
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
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attendance records: %w", err)
	}
	return records, nil
}

// Append stores a new record. INSERT IGNORE leaves the table untouched on a
// (day, identity) collision, which is reported as ErrDuplicateRecord.
func (r *AttendanceRepository) Append(ctx context.Context, rec database.AttendanceRecord) error {
	result, err := r.pool.db.ExecContext(ctx,
		"INSERT IGNORE INTO attendance (day, `identity`, time_of_day, confidence) VALUES (?, ?, ?, ?)",
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
