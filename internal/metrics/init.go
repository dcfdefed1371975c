package metrics

// InitializeMetrics pre-populates all expected label combinations so that
// every metric is exported from the first Prometheus scrape.
// Call this once at startup after metric registration.
func InitializeMetrics() {
	volumes := []string{"library", "files", "database", "unknown"}

	for _, vol := range volumes {
		for _, op := range []string{"stat", "remove"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, kind := range []string{"photo", "video"} {
		CatalogAssetsListed.WithLabelValues(kind)
		DetectorDuplicatesFound.WithLabelValues(kind)
		for _, result := range []string{"filtered", "below_threshold", "flagged"} {
			DetectorPairsTotal.WithLabelValues(kind, result)
		}
		ThumbnailGenerationsTotal.WithLabelValues(kind, "success")
		ThumbnailGenerationsTotal.WithLabelValues(kind, "error")
		ThumbnailGenerationDuration.WithLabelValues(kind)
	}

	for _, op := range []string{"create", "write", "remove", "rename", "chmod"} {
		CatalogWatcherEventsTotal.WithLabelValues(op)
	}

	for _, status := range []string{"complete", "cancelled"} {
		DetectorRunsTotal.WithLabelValues(status)
	}

	for _, reason := range []string{"manual", "memory_pressure"} {
		ThumbnailCacheClears.WithLabelValues(reason)
	}

	for _, op := range []string{"recycle", "restore", "delete", "delete_all", "empty", "keep"} {
		RecycleBinOperationsTotal.WithLabelValues(op, "success")
		RecycleBinOperationsTotal.WithLabelValues(op, "error")
	}

	for _, backend := range []string{"catalog", "filesystem"} {
		RecycleBinDeleteFailures.WithLabelValues(backend)
	}

	for _, op := range []string{"initialize_schema", "load_recycle_bin", "replace_recycle_bin",
		"add_kept", "remove_kept", "list_kept", "get_metadata", "set_metadata"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}

	for _, r := range []string{"commit", "rollback"} {
		DBTransactionDuration.WithLabelValues(r)
	}
}
