package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediasweep_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_http_requests_in_flight",
			Help: "Number of HTTP requests currently being processed",
		},
	)
)

// Database metrics
var (
	DBQueryTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_db_queries_total",
			Help: "Total number of database queries",
		},
		[]string{"operation", "status"},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediasweep_db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)

	DBTransactionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediasweep_db_transaction_duration_seconds",
			Help:    "Database transaction duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"result"},
	)

	DBConnectionsOpen = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_db_connections_open",
			Help: "Number of open database connections",
		},
	)
)

// Catalog metrics
var (
	CatalogAssetsListed = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediasweep_catalog_assets",
			Help: "Number of assets returned by the last catalog listing, by kind",
		},
		[]string{"kind"},
	)

	CatalogListDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediasweep_catalog_list_duration_seconds",
			Help:    "Duration of catalog listings in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	CatalogWalkWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_catalog_walk_workers",
			Help: "Number of parallel workers used by the last catalog walk",
		},
	)

	CatalogErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_catalog_errors_total",
			Help: "Total number of catalog errors by operation",
		},
		[]string{"operation"},
	)

	CatalogWatchedDirectories = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_catalog_watched_directories",
			Help: "Number of library directories being watched for changes",
		},
	)

	CatalogWatcherEventsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_catalog_watcher_events_total",
			Help: "Total number of library change events by type",
		},
		[]string{"type"},
	)

	CatalogWatcherErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediasweep_catalog_watcher_errors_total",
			Help: "Total number of library watcher errors",
		},
	)
)

// Detector metrics
var (
	DetectorRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_detector_runs_total",
			Help: "Total number of duplicate detection runs",
		},
		[]string{"status"}, // "complete", "cancelled"
	)

	DetectorRunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mediasweep_detector_run_duration_seconds",
			Help:    "Duplicate detection run duration in seconds",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)

	DetectorIsRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_detector_running",
			Help: "Whether a detection run is in progress (1 = running, 0 = idle)",
		},
	)

	DetectorProgress = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_detector_progress_ratio",
			Help: "Progress of the current detection run between 0 and 1",
		},
	)

	DetectorPairsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_detector_pairs_total",
			Help: "Total number of item pairs considered by the detector",
		},
		[]string{"kind", "result"}, // result: "filtered", "below_threshold", "flagged"
	)

	DetectorDuplicatesFound = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediasweep_detector_duplicates",
			Help: "Number of duplicates found by the last detection run, by kind",
		},
		[]string{"kind"},
	)

	DetectorWorkers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_detector_workers",
			Help: "Number of batch workers used by the detector",
		},
	)
)

// Thumbnail metrics
var (
	ThumbnailCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediasweep_thumbnail_cache_hits_total",
			Help: "Total number of thumbnail cache hits",
		},
	)

	ThumbnailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediasweep_thumbnail_cache_misses_total",
			Help: "Total number of thumbnail cache misses",
		},
	)

	ThumbnailCacheCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_thumbnail_cache_count",
			Help: "Number of thumbnails in the cache",
		},
	)

	ThumbnailCacheDurationCount = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_thumbnail_cache_duration_labels",
			Help: "Number of cached thumbnails carrying a duration label",
		},
	)

	ThumbnailCacheClears = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_thumbnail_cache_clears_total",
			Help: "Total number of thumbnail cache clears by reason",
		},
		[]string{"reason"}, // "manual", "memory_pressure"
	)

	ThumbnailGenerationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_thumbnail_generations_total",
			Help: "Total number of thumbnail generations",
		},
		[]string{"type", "status"},
	)

	ThumbnailGenerationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediasweep_thumbnail_generation_duration_seconds",
			Help:    "Thumbnail generation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"type"},
	)

	ThumbnailPrewarmFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediasweep_thumbnail_prewarm_failures_total",
			Help: "Total number of thumbnails that failed to load during prewarm",
		},
	)
)

// Cleaner metrics
var (
	CleanerDuplicatesPending = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_cleaner_duplicates_pending",
			Help: "Duplicates from the last scan still awaiting a decision",
		},
	)

	CleanerKeptItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_cleaner_kept_items",
			Help: "Number of items on the keep list",
		},
	)

	CleanerLastScanTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_cleaner_last_scan_timestamp_seconds",
			Help: "Unix time of the last completed scan, 0 before the first",
		},
	)

	CleanerScanning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_cleaner_scanning",
			Help: "Whether a scan is in progress (1 = yes, 0 = no)",
		},
	)
)

// Recycle bin metrics
var (
	RecycleBinItems = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_recycle_bin_items",
			Help: "Number of items in the recycle bin",
		},
	)

	RecycleBinBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_recycle_bin_bytes",
			Help: "Total size of the items in the recycle bin in bytes",
		},
	)

	RecycleBinOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_recycle_bin_operations_total",
			Help: "Total number of recycle bin operations",
		},
		[]string{"operation", "status"},
	)

	RecycleBinDeleteFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_recycle_bin_delete_failures_total",
			Help: "Total number of items that failed permanent deletion",
		},
		[]string{"backend"}, // "catalog", "filesystem"
	)

	RecycleBinLoadDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediasweep_recycle_bin_load_dropped_total",
			Help: "Persisted entries dropped on load because they could not be resolved",
		},
	)

	RecycleBinEventsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediasweep_recycle_bin_events_dropped_total",
			Help: "Events not delivered because a subscriber was not keeping up",
		},
	)
)

// Filesystem metrics
var (
	FilesystemOperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediasweep_filesystem_operation_duration_seconds",
			Help:    "Filesystem operation duration in seconds",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
		[]string{"volume", "operation"},
	)

	FilesystemOperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_filesystem_operation_errors_total",
			Help: "Total number of filesystem operation errors",
		},
		[]string{"volume", "operation"},
	)

	FilesystemRetryAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_filesystem_retry_attempts_total",
			Help: "Total number of filesystem retry attempts",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetrySuccess = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_filesystem_retry_success_total",
			Help: "Total number of filesystem operations that succeeded after retrying",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_filesystem_retry_failures_total",
			Help: "Total number of filesystem operations that failed after all retries",
		},
		[]string{"operation", "volume"},
	)

	FilesystemRetryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediasweep_filesystem_retry_duration_seconds",
			Help:    "Duration of filesystem operations that hit a stale handle, including retries",
			Buckets: []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2},
		},
		[]string{"operation", "volume"},
	)

	FilesystemStaleErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediasweep_filesystem_stale_errors_total",
			Help: "Total number of NFS stale file handle errors",
		},
		[]string{"operation", "volume"},
	)
)

// Memory metrics
var (
	MemoryUsageRatio = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_memory_usage_ratio",
			Help: "Heap usage as a ratio of the configured memory limit",
		},
	)

	MemoryPaused = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediasweep_memory_paused",
			Help: "Whether memory pressure is critical (1 = critical, 0 = normal)",
		},
	)

	MemoryGCPauses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mediasweep_memory_gc_pauses_total",
			Help: "Total number of times critical memory pressure was reached",
		},
	)
)

// Application info metric
var (
	AppInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediasweep_app_info",
			Help: "Application information",
		},
		[]string{"version", "commit", "go_version"},
	)
)

// SetAppInfo sets the application info metric
func SetAppInfo(version, commit, goVersion string) {
	AppInfo.WithLabelValues(version, commit, goVersion).Set(1)
}
