package handlers

import (
	"net/http"
	"runtime"
	"time"

	"mediasweep/internal/startup"
)

// HealthResponse is the liveness payload.
type HealthResponse struct {
	Status         string `json:"status"`
	Version        string `json:"version"`
	Uptime         string `json:"uptime"`
	Scanning       bool   `json:"scanning"`
	LastScan       string `json:"lastScan,omitempty"`
	LastScanError  string `json:"lastScanError,omitempty"`
	RecycleBinSize int    `json:"recycleBinItems"`
	GoVersion      string `json:"goVersion"`
	NumGoroutine   int    `json:"numGoroutine"`
}

// HealthCheck reports liveness. A failed last scan marks the service
// degraded but still answers 200.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	status := h.cleaner.Status()

	resp := HealthResponse{
		Status:         "healthy",
		Version:        startup.Version,
		Uptime:         time.Since(h.startedAt).Round(time.Second).String(),
		Scanning:       status.Scanning,
		LastScanError:  status.Error,
		RecycleBinSize: h.bin.Count(),
		GoVersion:      runtime.Version(),
		NumGoroutine:   runtime.NumGoroutine(),
	}
	if !status.LastScan.IsZero() {
		resp.LastScan = status.LastScan.Format(time.RFC3339)
	}
	if status.Error != "" {
		resp.Status = "degraded"
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetVersion returns the application version and build information
func (h *Handlers) GetVersion(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Cache-Control", "no-cache")
	writeJSON(w, http.StatusOK, startup.GetBuildInfo())
}
