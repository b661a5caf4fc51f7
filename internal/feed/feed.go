// Package feed keeps the in-memory activity feed of newly logged attendance.
package feed

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/kozaktomas/attendance-cam/internal/gallery"
)

// Entry is one newly created attendance record as shown on the dashboard.
type Entry struct {
	ID         string    `json:"id"`
	Identity   string    `json:"identity"`
	Confidence float64   `json:"confidence"`
	At         time.Time `json:"at"`
	Line       string    `json:"line"`
}

// NewEntry builds an entry with its display line.
func NewEntry(identity string, confidence float64, at time.Time) Entry {
	return Entry{
		ID:         uuid.NewString(),
		Identity:   identity,
		Confidence: confidence,
		At:         at,
		Line:       FormatLine(identity, confidence),
	}
}

// FormatLine renders the feed line of a logged identity.
func FormatLine(identity string, confidence float64) string {
	return fmt.Sprintf("✅ %s (%.2f%%)", gallery.DisplayName(identity), confidence)
}

// Feed is a bounded newest-first list of entries. It lives as long as the
// frame loop that owns it.
type Feed struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	events   *Broadcaster
}

// New creates a feed keeping at most capacity entries. events may be nil.
func New(capacity int, events *Broadcaster) *Feed {
	if capacity <= 0 {
		capacity = 1
	}
	return &Feed{capacity: capacity, events: events}
}

// Push prepends an entry, dropping the oldest beyond capacity.
func (f *Feed) Push(e Entry) {
	f.mu.Lock()
	f.entries = append([]Entry{e}, f.entries...)
	if len(f.entries) > f.capacity {
		f.entries = f.entries[:f.capacity]
	}
	f.mu.Unlock()

	if f.events != nil {
		f.events.Send(Event{Type: EventAttendance, Message: e.Line, Data: e})
	}
}

// Recent returns up to n entries, newest first.
func (f *Feed) Recent(n int) []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if n < 0 {
		n = 0
	}
	n = min(n, len(f.entries))
	out := make([]Entry, n)
	copy(out, f.entries[:n])
	return out
}

// Len returns the number of retained entries.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
