// Package metrics provides Prometheus instrumentation for mediasweep.
//
// All metrics are registered with promauto at package initialization and are
// prefixed with "mediasweep_".
//
// # Metric Categories
//
// ## HTTP Metrics
//
//   - HTTPRequestsTotal: Counter of requests by method, path, and status
//   - HTTPRequestDuration: Histogram of request duration by method and path
//   - HTTPRequestsInFlight: Gauge of currently processing requests
//
// ## Database Metrics
//
//   - DBQueryTotal / DBQueryDuration: per-operation query counters and latency
//   - DBTransactionDuration: Histogram of transaction duration by result
//
// ## Detector Metrics
//
//   - DetectorRunsTotal: Counter of detection runs by status
//   - DetectorRunDuration: Histogram of run duration
//   - DetectorPairsTotal: Counter of pairs by kind and result (filtered,
//     below_threshold, flagged)
//   - DetectorDuplicatesFound: Gauge of duplicates from the last run by kind
//
// ## Thumbnail Metrics
//
//   - ThumbnailCacheHits / ThumbnailCacheMisses
//   - ThumbnailCacheCount: Gauge of cached thumbnails
//   - ThumbnailCacheClears: Counter of cache clears by reason
//   - ThumbnailPrewarmFailures: Counter of thumbnails that failed to prewarm
//
// ## Cleaner Metrics
//
//   - CleanerDuplicatesPending, CleanerKeptItems, CleanerScanning
//   - CleanerLastScanTimestamp: unix seconds of the last completed scan
//
// ## Recycle Bin Metrics
//
//   - RecycleBinItems / RecycleBinBytes: current bin contents
//   - RecycleBinOperationsTotal: Counter by operation and status
//   - RecycleBinDeleteFailures: items whose permanent deletion failed
//
// ## Filesystem Metrics
//
// Per-volume latency plus NFS stale handle and retry counters. The
// filesystem package reports one Operation per call; ObserveFilesystem, via
// NewFilesystemObserver, turns it into these series.
//
// # Usage
//
//	metrics.DetectorRunsTotal.WithLabelValues("complete").Inc()
//	timer := prometheus.NewTimer(metrics.DetectorRunDuration)
//	defer timer.ObserveDuration()
//
// A Collector refreshes the gauges that mirror cleaner, recycle bin and
// thumbnail cache state on a fixed interval:
//
//	collector := metrics.NewCollector(provider, time.Minute)
//	collector.Start()
//	defer collector.Stop()
package metrics
