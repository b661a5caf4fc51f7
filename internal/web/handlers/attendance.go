package handlers

import (
	"net/http"
	"time"

	"github.com/kozaktomas/attendance-cam/internal/database"
)

// AttendanceHandler serves the daily attendance log.
type AttendanceHandler struct {
	store database.AttendanceReader
	now   func() time.Time
}

// NewAttendanceHandler creates a new attendance handler
func NewAttendanceHandler(store database.AttendanceReader) *AttendanceHandler {
	return &AttendanceHandler{store: store, now: time.Now}
}

// AttendanceResponse is the body of GET /api/v1/attendance
type AttendanceResponse struct {
	Date    string                      `json:"date"`
	Records []database.AttendanceRecord `json:"records"`
}

// List handles GET /api/v1/attendance?date=YYYY-MM-DD, defaulting to today.
func (h *AttendanceHandler) List(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = h.now().Format(database.DateLayout)
	}
	if !database.ValidDate(date) {
		respondError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	records, err := h.store.Records(r.Context(), date)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to read attendance")
		return
	}
	if records == nil {
		records = []database.AttendanceRecord{}
	}
	respondJSON(w, http.StatusOK, AttendanceResponse{Date: date, Records: records})
}
