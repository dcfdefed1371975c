package handlers

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"mediasweep/internal/middleware"
)

// RouterConfig controls request logging.
type RouterConfig struct {
	LogHealthChecks bool
}

// NewRouter registers every API route on a new router.
func NewRouter(h *Handlers, config RouterConfig) *mux.Router {
	r := mux.NewRouter()

	logCfg := middleware.DefaultLoggingConfig()
	logCfg.LogHealthChecks = config.LogHealthChecks
	r.Use(middleware.Logger(logCfg), middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet, http.MethodHead).Name("health")
	r.HandleFunc("/version", h.GetVersion).Methods(http.MethodGet).Name("version")

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/scan", h.StartScan).Methods(http.MethodPost).Name("scan")
	api.HandleFunc("/scan/progress", h.ScanProgress).Methods(http.MethodGet).Name("scan-progress")

	api.HandleFunc("/duplicates", h.ListDuplicates).Methods(http.MethodGet).Name("duplicates")
	api.HandleFunc("/duplicates/recycle", h.RecycleItems).Methods(http.MethodPost).Name("recycle")
	api.HandleFunc("/duplicates/keep", h.KeepItems).Methods(http.MethodPost).Name("keep")
	api.HandleFunc("/files", h.ListFiles).Methods(http.MethodGet).Name("files")

	api.HandleFunc("/bin", h.ListBin).Methods(http.MethodGet).Name("bin")
	api.HandleFunc("/bin", h.DeleteAll).Methods(http.MethodDelete).Name("bin-delete-all")
	api.HandleFunc("/bin/empty", h.EmptyBin).Methods(http.MethodPost).Name("bin-empty")
	api.HandleFunc("/bin/{id}/restore", h.RestoreItem).Methods(http.MethodPost).Name("bin-restore")
	api.HandleFunc("/bin/{id}", h.DeleteItem).Methods(http.MethodDelete).Name("bin-delete")

	api.HandleFunc("/thumbnail/{ref:.*}", h.GetThumbnail).Methods(http.MethodGet).Name("thumbnail")

	return r
}

// NewMetricsRouter serves Prometheus metrics for the separate metrics
// listener.
func NewMetricsRouter() *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}
