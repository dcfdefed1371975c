package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"mediasweep/internal/media"
	"mediasweep/internal/recyclebin"
)

type binResponse struct {
	Items     []media.Item `json:"items"`
	Count     int          `json:"count"`
	TotalSize int64        `json:"totalSize"`
}

// ListBin returns the recycle bin contents and totals.
func (h *Handlers) ListBin(w http.ResponseWriter, _ *http.Request) {
	items := h.bin.Items()
	if items == nil {
		items = []media.Item{}
	}
	writeJSON(w, http.StatusOK, binResponse{Items: items, Count: len(items), TotalSize: h.bin.TotalSize()})
}

// RestoreItem takes an item out of the bin.
func (h *Handlers) RestoreItem(w http.ResponseWriter, r *http.Request) {
	item, err := h.bin.Restore(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

// DeleteItem permanently deletes one item.
func (h *Handlers) DeleteItem(w http.ResponseWriter, r *http.Request) {
	if err := h.bin.PermanentlyDelete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type deleteAllResponse struct {
	recyclebin.DeleteReport
	Remaining int    `json:"remaining"`
	Error     string `json:"error,omitempty"`
}

// DeleteAll permanently deletes everything in the bin. A partial failure
// answers 207 with the number of entries left to retry.
func (h *Handlers) DeleteAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.bin.PermanentlyDeleteAll(r.Context())
	if err == nil {
		writeJSON(w, http.StatusOK, deleteAllResponse{DeleteReport: report})
		return
	}

	var batchErr *recyclebin.BatchError
	if errors.As(err, &batchErr) {
		writeJSON(w, http.StatusMultiStatus, deleteAllResponse{
			DeleteReport: report,
			Remaining:    batchErr.Remaining,
			Error:        batchErr.Err.Error(),
		})
		return
	}
	writeError(w, err)
}

// EmptyBin forgets every entry without deleting any file.
func (h *Handlers) EmptyBin(w http.ResponseWriter, r *http.Request) {
	h.bin.EmptyRecycleBin(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "emptied"})
}
