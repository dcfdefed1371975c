package metrics

import (
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediasweep/internal/filesystem"
)

func TestInitializeMetricsPopulatesLabels(t *testing.T) {
	InitializeMetrics()

	tests := []struct {
		name  string
		count int
		min   int
	}{
		{"DetectorPairsTotal", testutil.CollectAndCount(DetectorPairsTotal), 6},
		{"DetectorRunsTotal", testutil.CollectAndCount(DetectorRunsTotal), 2},
		{"RecycleBinOperationsTotal", testutil.CollectAndCount(RecycleBinOperationsTotal), 12},
		{"ThumbnailCacheClears", testutil.CollectAndCount(ThumbnailCacheClears), 2},
		{"FilesystemRetryAttempts", testutil.CollectAndCount(FilesystemRetryAttempts), 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.GreaterOrEqual(t, tt.count, tt.min)
		})
	}
}

func TestDetectorPairCounter(t *testing.T) {
	c := DetectorPairsTotal.WithLabelValues("photo", "flagged")
	before := testutil.ToFloat64(c)
	c.Inc()
	assert.InDelta(t, before+1, testutil.ToFloat64(c), 1e-9)
}

func TestSetAppInfo(t *testing.T) {
	SetAppInfo("1.0.0", "abc123", "go1.25")
	assert.InDelta(t, 1.0, testutil.ToFloat64(AppInfo.WithLabelValues("1.0.0", "abc123", "go1.25")), 1e-9)
}

func TestObserveFilesystem(t *testing.T) {
	observer := NewFilesystemObserver()
	require.NotNil(t, observer)

	errs := FilesystemOperationErrors.WithLabelValues("library", "stat")
	errBefore := testutil.ToFloat64(errs)
	observer.Observe(filesystem.Operation{Name: "stat", Volume: "library", Elapsed: 5 * time.Millisecond})
	observer.Observe(filesystem.Operation{Name: "stat", Volume: "library", Err: os.ErrNotExist})
	observer.Observe(filesystem.Operation{Name: "stat", Volume: "library", Err: errors.New("boom")})
	assert.InDelta(t, errBefore+1, testutil.ToFloat64(errs), 1e-9, "missing files are not errors")

	stale := FilesystemStaleErrors.WithLabelValues("remove", "files")
	attempts := FilesystemRetryAttempts.WithLabelValues("remove", "files")
	success := FilesystemRetrySuccess.WithLabelValues("remove", "files")
	failures := FilesystemRetryFailures.WithLabelValues("remove", "files")
	staleBefore, attemptsBefore := testutil.ToFloat64(stale), testutil.ToFloat64(attempts)
	successBefore, failuresBefore := testutil.ToFloat64(success), testutil.ToFloat64(failures)

	observer.Observe(filesystem.Operation{Name: "remove", Volume: "files", Stale: 2, Retries: 2})
	observer.Observe(filesystem.Operation{Name: "remove", Volume: "files", Stale: 4, Retries: 3, Exhausted: true, Err: syscall.ESTALE})

	assert.InDelta(t, staleBefore+6, testutil.ToFloat64(stale), 1e-9)
	assert.InDelta(t, attemptsBefore+5, testutil.ToFloat64(attempts), 1e-9)
	assert.InDelta(t, successBefore+1, testutil.ToFloat64(success), 1e-9)
	assert.InDelta(t, failuresBefore+1, testutil.ToFloat64(failures), 1e-9)
}
