package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"mediasweep/internal/catalog"
	"mediasweep/internal/cleaner"
	"mediasweep/internal/logging"
	"mediasweep/internal/recyclebin"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

// writeJSON encodes v as JSON with the given status code. Encoding errors
// are logged since the header is already sent.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("failed to encode JSON response: %v", err)
	}
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeError maps err to a status code.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, recyclebin.ErrNotFound), errors.Is(err, cleaner.ErrUnknownItem):
		status = http.StatusNotFound
	case errors.Is(err, recyclebin.ErrNoHandle):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, catalog.ErrProviderUnavailable):
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError {
		logging.Error("request failed: %v", err)
	}
	writeJSONError(w, err.Error(), status)
}

// idsRequest is the body of the recycle and keep endpoints.
type idsRequest struct {
	IDs []string `json:"ids"`
}

func decodeIDs(r *http.Request) ([]string, error) {
	var req idsRequest
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return nil, fmt.Errorf("invalid request body: %w", err)
	}
	if len(req.IDs) == 0 {
		return nil, errors.New("ids must not be empty")
	}
	return req.IDs, nil
}
