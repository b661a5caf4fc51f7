package pipeline

import "time"

// Status is a snapshot of the loop counters.
type Status struct {
	RunID             string     `json:"run_id"`
	State             State      `json:"state"`
	Threshold         float64    `json:"threshold"`
	StartedAt         time.Time  `json:"started_at"`
	StoppedAt         *time.Time `json:"stopped_at,omitempty"`
	StopReason        string     `json:"stop_reason,omitempty"`
	Error             string     `json:"error,omitempty"`
	Frames            int64      `json:"frames"`
	Faces             int64      `json:"faces"`
	NoFace            int64      `json:"no_face"`
	EmptyGallery      int64      `json:"empty_gallery"`
	AnalysisErrors    int64      `json:"analysis_errors"`
	LastAnalysisError string     `json:"last_analysis_error,omitempty"`
	Accepted          int64      `json:"accepted"`
	Logged            int64      `json:"logged"`
	GalleryResets     int64      `json:"gallery_resets"`
}

// Status returns a snapshot of the loop state.
func (l *Loop) Status() Status {
	l.mu.RLock()
	defer l.mu.RUnlock()
	st := l.status
	if st.StoppedAt != nil {
		t := *st.StoppedAt
		st.StoppedAt = &t
	}
	return st
}

func (l *Loop) update(fn func(*Status)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.status)
}
