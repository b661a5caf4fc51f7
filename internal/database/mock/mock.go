// Package mock provides mock implementations of database interfaces for testing.
package mock

import (
	"context"
	"sync"

	"github.com/kozaktomas/attendance-cam/internal/database"
)

// MockAttendanceStore is an in-memory implementation of database.AttendanceStore
type MockAttendanceStore struct {
	mu      sync.RWMutex
	records []database.AttendanceRecord

	// Error injection
	HasRecordError error
	RecordsError   error
	AppendError    error

	// Call tracking
	AppendCalls    int
	HasRecordCalls int
	RecordsCalls   int
}

// NewMockAttendanceStore creates a new mock attendance store
func NewMockAttendanceStore() *MockAttendanceStore {
	return &MockAttendanceStore{}
}

// Seed adds records without going through Append
func (m *MockAttendanceStore) Seed(records ...database.AttendanceRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, records...)
}

// All returns a copy of every stored record
func (m *MockAttendanceStore) All() []database.AttendanceRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]database.AttendanceRecord, len(m.records))
	copy(out, m.records)
	return out
}

// HasRecord implements database.AttendanceReader
func (m *MockAttendanceStore) HasRecord(ctx context.Context, identity, date string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HasRecordCalls++
	if m.HasRecordError != nil {
		return false, m.HasRecordError
	}
	for _, r := range m.records {
		if r.Date == date && r.Identity == identity {
			return true, nil
		}
	}
	return false, nil
}

// Records implements database.AttendanceReader
func (m *MockAttendanceStore) Records(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RecordsCalls++
	if m.RecordsError != nil {
		return nil, m.RecordsError
	}
	var out []database.AttendanceRecord
	for _, r := range m.records {
		if r.Date == date {
			out = append(out, r)
		}
	}
	return out, nil
}

// Append implements database.AttendanceStore
func (m *MockAttendanceStore) Append(ctx context.Context, rec database.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AppendCalls++
	if m.AppendError != nil {
		return m.AppendError
	}
	for _, r := range m.records {
		if r.Date == rec.Date && r.Identity == rec.Identity {
			return database.ErrDuplicateRecord
		}
	}
	m.records = append(m.records, rec)
	return nil
}

// MockReferenceCache is an in-memory implementation of database.ReferenceCache
type MockReferenceCache struct {
	mu      sync.RWMutex
	entries map[database.CacheKey][]database.StoredReference

	// Error injection
	LoadError  error
	SaveError  error
	ResetError error

	// Call tracking
	LoadCalls  int
	SaveCalls  int
	ResetCalls int
}

// NewMockReferenceCache creates a new mock reference cache
func NewMockReferenceCache() *MockReferenceCache {
	return &MockReferenceCache{
		entries: make(map[database.CacheKey][]database.StoredReference),
	}
}

// Load implements database.ReferenceCache
func (m *MockReferenceCache) Load(ctx context.Context, key database.CacheKey) ([]database.StoredReference, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LoadCalls++
	if m.LoadError != nil {
		return nil, m.LoadError
	}
	refs, ok := m.entries[key]
	if !ok {
		return nil, nil
	}
	out := make([]database.StoredReference, len(refs))
	copy(out, refs)
	return out, nil
}

// Save implements database.ReferenceCache
func (m *MockReferenceCache) Save(ctx context.Context, key database.CacheKey, refs []database.StoredReference) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if m.SaveError != nil {
		return m.SaveError
	}
	stored := make([]database.StoredReference, len(refs))
	copy(stored, refs)
	m.entries[key] = stored
	return nil
}

// Reset implements database.ReferenceCache
func (m *MockReferenceCache) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ResetCalls++
	if m.ResetError != nil {
		return m.ResetError
	}
	m.entries = make(map[database.CacheKey][]database.StoredReference)
	return nil
}

// Entries returns the number of cached keys
func (m *MockReferenceCache) Entries() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

var (
	_ database.AttendanceStore = (*MockAttendanceStore)(nil)
	_ database.ReferenceCache  = (*MockReferenceCache)(nil)
)
