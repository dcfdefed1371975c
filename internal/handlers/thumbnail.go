package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"mediasweep/internal/logging"
)

// GetThumbnail serves a cached JPEG thumbnail. Any failure to render is a
// 404 so clients fall back to a placeholder.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]
	if ref == "" {
		writeJSONError(w, "missing reference", http.StatusBadRequest)
		return
	}

	entry, err := h.cleaner.Thumbnail(r.Context(), ref)
	if err != nil {
		logging.Debug("Thumbnail unavailable for %s: %v", ref, err)
		writeJSONError(w, "thumbnail unavailable", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Length", strconv.Itoa(len(entry.JPEG)))
	w.Header().Set("Cache-Control", "private, max-age=300")
	if entry.DurationLabel != "" {
		w.Header().Set("X-Duration", entry.DurationLabel)
	}
	if _, err := w.Write(entry.JPEG); err != nil {
		logging.Debug("Failed to write thumbnail for %s: %v", ref, err)
	}
}
