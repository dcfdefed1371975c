package metrics

import (
	"os"

	"mediasweep/internal/filesystem"
)

// NewFilesystemObserver returns the observer installed at startup so retried
// filesystem calls land in the Filesystem* collectors.
func NewFilesystemObserver() filesystem.Observer {
	return filesystem.ObserverFunc(ObserveFilesystem)
}

// ObserveFilesystem records one finished filesystem operation. A missing file
// is an expected answer for stat and is not counted as an error.
func ObserveFilesystem(op filesystem.Operation) {
	FilesystemOperationDuration.WithLabelValues(op.Volume, op.Name).Observe(op.Elapsed.Seconds())
	if op.Err != nil && !(op.Name == "stat" && os.IsNotExist(op.Err)) {
		FilesystemOperationErrors.WithLabelValues(op.Volume, op.Name).Inc()
	}

	if op.Stale == 0 {
		return
	}
	FilesystemStaleErrors.WithLabelValues(op.Name, op.Volume).Add(float64(op.Stale))
	FilesystemRetryAttempts.WithLabelValues(op.Name, op.Volume).Add(float64(op.Retries))
	FilesystemRetryDuration.WithLabelValues(op.Name, op.Volume).Observe(op.Elapsed.Seconds())
	switch {
	case op.Recovered():
		FilesystemRetrySuccess.WithLabelValues(op.Name, op.Volume).Inc()
	case op.Exhausted:
		FilesystemRetryFailures.WithLabelValues(op.Name, op.Volume).Inc()
	}
}
