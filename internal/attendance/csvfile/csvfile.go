// Package csvfile stores the attendance log as one CSV file per day.
package csvfile

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/kozaktomas/attendance-cam/internal/database"
)

// Header is the first row of every daily file.
var Header = []string{"Name", "Time", "Accuracy (%)"}

// Store writes <dir>/attendance_YYYY-MM-DD.csv files.
type Store struct {
	dir string
	mu  sync.Mutex
}

// New creates a CSV store in dir. The directory is created on first write.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Path returns the file holding the records of date.
func (s *Store) Path(date string) string {
	return filepath.Join(s.dir, "attendance_"+date+".csv")
}

// HasRecord checks if the identity already has a record for the date
func (s *Store) HasRecord(ctx context.Context, identity, date string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(date)
	if err != nil {
		return false, err
	}
	return contains(records, identity), nil
}

// Records returns all records of a date in file order
func (s *Store) Records(ctx context.Context, date string) ([]database.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(date)
}

// Append adds a row to the day's file, creating it with a header if needed.
func (s *Store) Append(ctx context.Context, rec database.AttendanceRecord) error {
	if !database.ValidDate(rec.Date) {
		return fmt.Errorf("invalid attendance date %q", rec.Date)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.read(rec.Date)
	if err != nil {
		return err
	}
	if contains(records, rec.Identity) {
		return database.ErrDuplicateRecord
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create attendance directory: %w", err)
	}

	f, err := os.OpenFile(s.Path(rec.Date), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open attendance file: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat attendance file: %w", err)
	}

	w := csv.NewWriter(f)
	if info.Size() == 0 {
		if err := w.Write(Header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
	}
	row := []string{rec.Identity, rec.Time, strconv.FormatFloat(rec.Confidence, 'f', 2, 64)}
	if err := w.Write(row); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("failed to write record: %w", err)
	}
	return f.Close()
}

// read parses the day's file. A missing file has no records.
func (s *Store) read(date string) ([]database.AttendanceRecord, error) {
	f, err := os.Open(s.Path(date))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open attendance file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var records []database.AttendanceRecord
	for line := 1; ; line++ {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(s.Path(date)), err)
		}
		if line == 1 && len(row) > 0 && row[0] == Header[0] {
			continue
		}
		if len(row) < 3 {
			return nil, fmt.Errorf("%s line %d: expected 3 columns, got %d", filepath.Base(s.Path(date)), line, len(row))
		}
		conf, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: invalid accuracy %q", filepath.Base(s.Path(date)), line, row[2])
		}
		records = append(records, database.AttendanceRecord{
			Date:       date,
			Identity:   row[0],
			Time:       row[1],
			Confidence: conf,
		})
	}
	return records, nil
}

func contains(records []database.AttendanceRecord, identity string) bool {
	for _, r := range records {
		if r.Identity == identity {
			return true
		}
	}
	return false
}

var _ database.AttendanceStore = (*Store)(nil)
