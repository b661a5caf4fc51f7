package attendance

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/attendance/csvfile"
	"github.com/kozaktomas/attendance-cam/internal/database"
	"github.com/kozaktomas/attendance-cam/internal/database/mock"
)

var (
	dayD     = time.Date(2024, 3, 9, 8, 15, 0, 0, time.Local)
	dayDNext = time.Date(2024, 3, 10, 7, 30, 0, 0, time.Local)
)

func TestRecord_FirstMatchPerDayWins(t *testing.T) {
	store := mock.NewMockAttendanceStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	isNew, conf, err := ledger.Record(ctx, "Alice", 0.20, dayD)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !isNew || conf != 80.0 {
		t.Errorf("first record = (%v, %v), want (true, 80)", isNew, conf)
	}

	isNew, conf, err = ledger.Record(ctx, "Alice", 0.30, dayD.Add(time.Hour))
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if isNew || conf != 70.0 {
		t.Errorf("second record = (%v, %v), want (false, 70)", isNew, conf)
	}

	records := store.All()
	if len(records) != 1 {
		t.Fatalf("expected 1 persisted row, got %d", len(records))
	}
	if records[0].Time != "08:15:00" || records[0].Confidence != 80 {
		t.Errorf("persisted %+v", records[0])
	}
	if store.AppendCalls != 1 {
		t.Errorf("duplicate triggered a write: AppendCalls=%d", store.AppendCalls)
	}
}

func TestRecord_NextDayIndependent(t *testing.T) {
	store := mock.NewMockAttendanceStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	if _, _, err := ledger.Record(ctx, "Alice", 0.20, dayD); err != nil {
		t.Fatal(err)
	}

	isNew, conf, err := ledger.Record(ctx, "Alice", 0.10, dayDNext)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if !isNew || conf != 90.0 {
		t.Errorf("next day record = (%v, %v), want (true, 90)", isNew, conf)
	}

	dayRecords, _ := store.Records(ctx, "2024-03-09")
	if len(dayRecords) != 1 || dayRecords[0].Confidence != 80 {
		t.Errorf("day D records changed: %+v", dayRecords)
	}
}

func TestRecord_SeededFromStore(t *testing.T) {
	store := mock.NewMockAttendanceStore()
	store.Seed(database.AttendanceRecord{Date: "2024-03-09", Identity: "Alice", Time: "07:00:00", Confidence: 95})
	ledger := NewLedger(store)

	isNew, _, err := ledger.Record(context.Background(), "Alice", 0.1, dayD)
	if err != nil {
		t.Fatal(err)
	}
	if isNew {
		t.Error("identity recorded before restart was logged again")
	}
	if store.AppendCalls != 0 {
		t.Errorf("AppendCalls = %d, want 0", store.AppendCalls)
	}
}

func TestRecord_PersistenceErrors(t *testing.T) {
	ctx := context.Background()

	t.Run("append", func(t *testing.T) {
		store := mock.NewMockAttendanceStore()
		store.AppendError = errors.New("disk full")
		ledger := NewLedger(store)

		isNew, conf, err := ledger.Record(ctx, "Alice", 0.2, dayD)
		if err == nil {
			t.Fatal("expected persistence error")
		}
		if isNew {
			t.Error("failed write reported as new")
		}
		if conf != 80 {
			t.Errorf("confidence = %v, want 80", conf)
		}

		// The identity is not marked as seen, a later call retries the write.
		store.AppendError = nil
		isNew, _, err = ledger.Record(ctx, "Alice", 0.2, dayD)
		if err != nil || !isNew {
			t.Errorf("retry = (%v, %v), want (true, nil)", isNew, err)
		}
	})

	t.Run("load day", func(t *testing.T) {
		store := mock.NewMockAttendanceStore()
		store.RecordsError = errors.New("permission denied")
		if _, _, err := NewLedger(store).Record(ctx, "Alice", 0.2, dayD); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("has record", func(t *testing.T) {
		store := mock.NewMockAttendanceStore()
		store.HasRecordError = errors.New("io error")
		if _, _, err := NewLedger(store).Record(ctx, "Alice", 0.2, dayD); err == nil {
			t.Error("expected error")
		}
	})
}

func TestRecord_ConcurrentWriterDuplicate(t *testing.T) {
	store := mock.NewMockAttendanceStore()
	ledger := NewLedger(store)
	ctx := context.Background()

	// Open the day, then let another writer record Alice behind the ledger's back.
	if _, _, err := ledger.Record(ctx, "Bob", 0.2, dayD); err != nil {
		t.Fatal(err)
	}
	store.Seed(database.AttendanceRecord{Date: "2024-03-09", Identity: "Alice", Time: "08:00:00", Confidence: 88})

	isNew, _, err := ledger.Record(ctx, "Alice", 0.2, dayD)
	if err != nil {
		t.Fatal(err)
	}
	if isNew {
		t.Error("existing record overwritten")
	}
}

func TestRecord_CSVStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	store := csvfile.New(dir)
	ledger := NewLedger(store)
	ctx := context.Background()

	if isNew, _, err := ledger.Record(ctx, "Alice", 0.20, dayD); err != nil || !isNew {
		t.Fatalf("first = (%v, %v)", isNew, err)
	}
	if isNew, _, err := ledger.Record(ctx, "Alice", 0.30, dayD); err != nil || isNew {
		t.Fatalf("second = (%v, %v)", isNew, err)
	}

	// A restarted process sees the same day file.
	restarted := NewLedger(csvfile.New(dir))
	if isNew, _, err := restarted.Record(ctx, "Alice", 0.25, dayD); err != nil || isNew {
		t.Fatalf("after restart = (%v, %v)", isNew, err)
	}

	records, err := store.Records(ctx, "2024-03-09")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Errorf("expected 1 row, got %+v", records)
	}
}
