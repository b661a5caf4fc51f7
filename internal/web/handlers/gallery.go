package handlers

import (
	"net/http"

	"github.com/kozaktomas/attendance-cam/internal/gallery"
)

// GalleryLister lists the known identities.
type GalleryLister interface {
	Identities() ([]gallery.IdentitySummary, error)
}

// GalleryHandler serves the gallery contents.
type GalleryHandler struct {
	gallery GalleryLister
}

// NewGalleryHandler creates a new gallery handler
func NewGalleryHandler(g GalleryLister) *GalleryHandler {
	return &GalleryHandler{gallery: g}
}

// GalleryResponse is the body of GET /api/v1/gallery
type GalleryResponse struct {
	Identities []gallery.IdentitySummary `json:"identities"`
	Images     int                       `json:"images"`
}

// List handles GET /api/v1/gallery
func (h *GalleryHandler) List(w http.ResponseWriter, r *http.Request) {
	ids, err := h.gallery.Identities()
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to scan gallery")
		return
	}

	resp := GalleryResponse{Identities: ids}
	if resp.Identities == nil {
		resp.Identities = []gallery.IdentitySummary{}
	}
	for _, id := range ids {
		resp.Images += id.References
	}
	respondJSON(w, http.StatusOK, resp)
}
