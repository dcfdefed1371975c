package handlers

import (
	"net/http"

	"mediasweep/internal/media"
)

// StartScan starts a background scan: 202 when started, 409 when one is
// already running.
func (h *Handlers) StartScan(w http.ResponseWriter, _ *http.Request) {
	if !h.cleaner.StartScan() {
		writeJSONError(w, "scan already in progress", http.StatusConflict)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "started"})
}

// ScanProgress returns the scan status.
func (h *Handlers) ScanProgress(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, h.cleaner.Status())
}

type itemsResponse struct {
	Items []media.Item `json:"items"`
	Count int          `json:"count"`
}

func newItemsResponse(items []media.Item) itemsResponse {
	if items == nil {
		items = []media.Item{}
	}
	return itemsResponse{Items: items, Count: len(items)}
}

// ListDuplicates returns the current results, photos first.
func (h *Handlers) ListDuplicates(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newItemsResponse(h.cleaner.Results()))
}

// RecycleItems moves {"ids": [...]} from the results into the bin.
func (h *Handlers) RecycleItems(w http.ResponseWriter, r *http.Request) {
	ids, err := decodeIDs(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	n, err := h.cleaner.Recycle(r.Context(), ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"recycled": n})
}

// KeepItems marks {"ids": [...]} as kept.
func (h *Handlers) KeepItems(w http.ResponseWriter, r *http.Request) {
	ids, err := decodeIDs(r)
	if err != nil {
		writeJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	kept, err := h.cleaner.Keep(r.Context(), ids)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, keepResponse{Kept: len(kept), Items: kept})
}

type keepResponse struct {
	Kept  int          `json:"kept"`
	Items []media.Item `json:"items"`
}

// ListFiles returns audio and document files, largest first.
func (h *Handlers) ListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := h.cleaner.Files(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newItemsResponse(files))
}
