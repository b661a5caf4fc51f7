package feed

import (
	"fmt"
	"testing"
	"time"
)

func TestFeed_NewestFirst(t *testing.T) {
	f := New(100, nil)
	for i := range 12 {
		f.Push(NewEntry(fmt.Sprintf("person %d", i), 80, time.Now()))
	}

	recent := f.Recent(10)
	if len(recent) != 10 {
		t.Fatalf("Recent(10) returned %d entries", len(recent))
	}
	if recent[0].Identity != "person 11" || recent[9].Identity != "person 2" {
		t.Errorf("unexpected order: first %q, last %q", recent[0].Identity, recent[9].Identity)
	}
}

func TestFeed_Capacity(t *testing.T) {
	f := New(3, nil)
	for i := range 5 {
		f.Push(NewEntry(fmt.Sprintf("p%d", i), 90, time.Now()))
	}
	if f.Len() != 3 {
		t.Errorf("Len() = %d, want 3", f.Len())
	}
	if got := f.Recent(100); len(got) != 3 || got[2].Identity != "p2" {
		t.Errorf("Recent(100) = %+v", got)
	}
	if got := f.Recent(-1); len(got) != 0 {
		t.Errorf("Recent(-1) = %+v", got)
	}
}

func TestFeed_RecentIsACopy(t *testing.T) {
	f := New(10, nil)
	f.Push(NewEntry("alice", 80, time.Now()))
	got := f.Recent(1)
	got[0].Identity = "mallory"
	if f.Recent(1)[0].Identity != "alice" {
		t.Error("Recent exposed internal state")
	}
}

func TestFormatLine(t *testing.T) {
	if got := FormatLine("john smith", 80); got != "✅ JOHN SMITH (80.00%)" {
		t.Errorf("FormatLine() = %q", got)
	}
	if got := FormatLine("Zoé", 71.257); got != "✅ ZOÉ (71.26%)" {
		t.Errorf("FormatLine() = %q", got)
	}
}

func TestFeed_BroadcastsEntries(t *testing.T) {
	b := NewBroadcaster()
	ch := b.AddListener()
	defer b.RemoveListener(ch)

	f := New(10, b)
	f.Push(NewEntry("alice", 80, time.Now()))

	select {
	case ev := <-ch:
		if ev.Type != EventAttendance {
			t.Errorf("event type = %q", ev.Type)
		}
		if e, ok := ev.Data.(Entry); !ok || e.Identity != "alice" {
			t.Errorf("event data = %#v", ev.Data)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestBroadcaster_Close(t *testing.T) {
	b := NewBroadcaster()
	ch := b.AddListener()
	b.Close()
	b.Close()

	if _, ok := <-ch; ok {
		t.Error("listener channel not closed")
	}
	if _, ok := <-b.AddListener(); ok {
		t.Error("listener added after close is open")
	}
	if b.Listeners() != 0 {
		t.Errorf("Listeners() = %d", b.Listeners())
	}
	// Removing after close must not double close.
	b.RemoveListener(ch)
}

func TestBroadcaster_SlowListenerDoesNotBlock(t *testing.T) {
	b := NewBroadcaster()
	ch := b.AddListener()
	defer b.RemoveListener(ch)

	done := make(chan struct{})
	go func() {
		for range 1000 {
			b.Send(Event{Type: EventStatus})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Send blocked on a full listener")
	}
}
