// Package attendance keeps the daily attendance log: the first accepted
// match of an identity on a calendar day is recorded, later ones are not.
package attendance

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/database"
	"github.com/kozaktomas/attendance-cam/internal/decision"
)

// Ledger enforces one record per identity per day on top of an
// AttendanceStore.
type Ledger struct {
	store database.AttendanceStore

	mu   sync.Mutex
	day  string
	seen map[string]bool
}

// NewLedger creates a ledger writing to store.
func NewLedger(store database.AttendanceStore) *Ledger {
	return &Ledger{store: store}
}

// Record logs identity for the calendar day of at unless it already has a
// record that day. It returns whether a new record was written and the
// confidence derived from distance, rounded as persisted. Persistence
// failures are returned.
func (l *Ledger) Record(ctx context.Context, identity string, distance float64, at time.Time) (bool, float64, error) {
	rec := database.NewAttendanceRecord(identity, at, decision.Confidence(distance))

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.startDay(ctx, rec.Date); err != nil {
		return false, rec.Confidence, err
	}
	if l.seen[identity] {
		return false, rec.Confidence, nil
	}

	has, err := l.store.HasRecord(ctx, identity, rec.Date)
	if err != nil {
		return false, rec.Confidence, fmt.Errorf("check attendance of %s: %w", identity, err)
	}
	if has {
		l.seen[identity] = true
		return false, rec.Confidence, nil
	}

	if err := l.store.Append(ctx, rec); err != nil {
		if errors.Is(err, database.ErrDuplicateRecord) {
			l.seen[identity] = true
			return false, rec.Confidence, nil
		}
		return false, rec.Confidence, fmt.Errorf("record attendance of %s: %w", identity, err)
	}

	l.seen[identity] = true
	return true, rec.Confidence, nil
}

// startDay switches to a fresh seen set seeded from the store when the
// date differs from the current one.
func (l *Ledger) startDay(ctx context.Context, date string) error {
	if date == l.day && l.seen != nil {
		return nil
	}

	records, err := l.store.Records(ctx, date)
	if err != nil {
		return fmt.Errorf("load attendance of %s: %w", date, err)
	}

	l.day = date
	l.seen = make(map[string]bool, len(records))
	for _, r := range records {
		l.seen[r.Identity] = true
	}
	return nil
}

// Records returns the records of a date.
func (l *Ledger) Records(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	return l.store.Records(ctx, date)
}
