package handlers

import (
	"context"
	"image"
	"log"
	"net/http"
	"strconv"

	"github.com/kozaktomas/attendance-cam/internal/camera"
	"github.com/kozaktomas/attendance-cam/internal/constants"
	"github.com/kozaktomas/attendance-cam/internal/feed"
	"github.com/kozaktomas/attendance-cam/internal/pipeline"
)

// LoopController is the part of the frame loop exposed over HTTP.
type LoopController interface {
	Status() pipeline.Status
	Feed() *feed.Feed
	Stop()
	RequestReset(ctx context.Context) error
	LatestFrame() *image.RGBA
}

// ControlHandler serves the frame loop status and control endpoints.
type ControlHandler struct {
	loop LoopController
}

// NewControlHandler creates a new control handler
func NewControlHandler(loop LoopController) *ControlHandler {
	return &ControlHandler{loop: loop}
}

// Status handles GET /api/v1/status
func (h *ControlHandler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.loop.Status())
}

// FeedResponse is the body of GET /api/v1/feed
type FeedResponse struct {
	Entries []feed.Entry `json:"entries"`
	Total   int          `json:"total"`
}

// Feed handles GET /api/v1/feed?n=
func (h *ControlHandler) Feed(w http.ResponseWriter, r *http.Request) {
	n := constants.FeedDisplaySize
	if s := r.URL.Query().Get("n"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil || v < 1 || v > constants.FeedCapacity {
			respondError(w, http.StatusBadRequest, "n must be between 1 and "+strconv.Itoa(constants.FeedCapacity))
			return
		}
		n = v
	}

	f := h.loop.Feed()
	respondJSON(w, http.StatusOK, FeedResponse{Entries: f.Recent(n), Total: f.Len()})
}

// Stop handles POST /api/v1/stop. The loop stops at its next iteration
// boundary; the response does not wait for it.
func (h *ControlHandler) Stop(w http.ResponseWriter, r *http.Request) {
	st := h.loop.Status()
	if st.State == pipeline.StateStopped {
		respondJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
		return
	}
	log.Printf("Stop requested for run %s", st.RunID)
	h.loop.Stop()
	respondJSON(w, http.StatusAccepted, map[string]string{"status": "stopping"})
}

// ResetGallery handles POST /api/v1/gallery/reset
func (h *ControlHandler) ResetGallery(w http.ResponseWriter, r *http.Request) {
	if err := h.loop.RequestReset(r.Context()); err != nil {
		log.Printf("Gallery reset failed: %s", sanitizeForLog(err.Error()))
		respondError(w, http.StatusInternalServerError, "gallery reset failed")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// Frame handles GET /api/v1/frame.jpg, the last annotated frame.
func (h *ControlHandler) Frame(w http.ResponseWriter, r *http.Request) {
	img := h.loop.LatestFrame()
	if img == nil {
		respondError(w, http.StatusNotFound, "no frame captured yet")
		return
	}

	data, err := camera.EncodeJPEG(img)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to encode frame")
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}
