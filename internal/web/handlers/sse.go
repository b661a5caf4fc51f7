package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/kozaktomas/attendance-cam/internal/feed"
)

// EventsHandler streams loop events as server-sent events.
type EventsHandler struct {
	events *feed.Broadcaster
	loop   LoopController
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(events *feed.Broadcaster, loop LoopController) *EventsHandler {
	return &EventsHandler{events: events, loop: loop}
}

// setupSSEConnection sets up SSE headers.
// Returns the flusher and true on success. On failure, writes an error response and returns false.
func setupSSEConnection(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		respondError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return flusher, true
}

// Stream handles GET /api/v1/events. It sends the current status, then
// every event until the client disconnects or the broadcaster closes.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	flusher, ok := setupSSEConnection(w)
	if !ok {
		return
	}

	eventCh := h.events.AddListener()
	defer h.events.RemoveListener(eventCh)

	w.WriteHeader(http.StatusOK)
	sendSSEEvent(w, flusher, feed.EventStatus, h.loop.Status())

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			sendSSEEvent(w, flusher, event.Type, event)
		}
	}
}

func sendSSEEvent(w http.ResponseWriter, flusher http.Flusher, eventType string, data any) {
	jsonData, _ := json.Marshal(data)
	_, _ = io.WriteString(w, "event: "+eventType+"\n")
	_, _ = io.WriteString(w, "data: ")
	_, _ = io.Copy(w, bytes.NewReader(jsonData))
	_, _ = io.WriteString(w, "\n\n")
	flusher.Flush()
}
