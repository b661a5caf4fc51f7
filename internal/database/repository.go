package database

import (
	"context"
)

// AttendanceReader provides read-only access to the daily attendance log
type AttendanceReader interface {
	// HasRecord checks if the identity already has a record for the date
	HasRecord(ctx context.Context, identity, date string) (bool, error)
	// Records returns all records of a date in insertion order
	Records(ctx context.Context, date string) ([]AttendanceRecord, error)
}

// AttendanceStore is the durable per-day attendance log. It is append-only:
// records are never updated or deleted.
type AttendanceStore interface {
	AttendanceReader

	// Append stores a new record. Returns ErrDuplicateRecord if the identity
	// already has a record for rec.Date.
	Append(ctx context.Context, rec AttendanceRecord) error
}

// ReferenceCache keeps precomputed reference representations between runs
type ReferenceCache interface {
	// Load returns the cached representations for the key, or nil if none are cached
	Load(ctx context.Context, key CacheKey) ([]StoredReference, error)
	// Save replaces the cached representations for the key
	Save(ctx context.Context, key CacheKey, refs []StoredReference) error
	// Reset removes every cached representation regardless of key
	Reset(ctx context.Context) error
}
