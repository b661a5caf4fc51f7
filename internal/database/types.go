package database

import (
	"errors"
	"math"
	"time"
)

// Layouts used for the attendance date and time-of-day columns.
const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04:05"
)

// ErrDuplicateRecord is returned by AttendanceStore.Append when the identity
// already has a record for that date.
var ErrDuplicateRecord = errors.New("attendance record already exists for this date")

// AttendanceRecord is one row of a day's attendance log.
// At most one record exists per (Date, Identity).
type AttendanceRecord struct {
	Date       string  `json:"date"`       // calendar date, YYYY-MM-DD
	Identity   string  `json:"identity"`   // display identity derived from the gallery
	Time       string  `json:"time"`       // time of day, HH:MM:SS
	Confidence float64 `json:"confidence"` // percentage, rounded to two decimals
}

// NewAttendanceRecord builds a record for the given instant using local date and time.
func NewAttendanceRecord(identity string, at time.Time, confidence float64) AttendanceRecord {
	return AttendanceRecord{
		Date:       at.Format(DateLayout),
		Identity:   identity,
		Time:       at.Format(TimeLayout),
		Confidence: RoundConfidence(confidence),
	}
}

// RoundConfidence rounds a confidence percentage to two decimals, the
// precision kept in the attendance log.
func RoundConfidence(c float64) float64 {
	return math.Round(c*100) / 100
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// StoredReference is the precomputed representation of one reference image.
type StoredReference struct {
	FileName  string    // path relative to the gallery root, slash separated
	Identity  string    // identity the image belongs to
	Embedding []float32 // face embedding of the first face found in the image
	Model     string
	Detector  string
	CreatedAt time.Time
}

// CacheKey addresses one set of cached representations. Representations
// computed by different models or detectors are never mixed.
type CacheKey struct {
	Model    string
	Detector string
}
