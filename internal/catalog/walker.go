package catalog

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"mediasweep/internal/logging"
	"mediasweep/internal/metrics"
	"mediasweep/internal/workers"
)

// WalkerConfig configures the parallel directory walker.
type WalkerConfig struct {
	// NumWorkers is the number of parallel workers (0 = auto)
	NumWorkers int
	// ChannelBuffer is the size of the job and result channel buffers
	ChannelBuffer int
	// SkipHidden skips files and directories starting with "."
	SkipHidden bool
}

// DefaultWalkerConfig returns defaults sized for NFS-backed libraries.
// INDEX_WORKERS overrides the worker count.
func DefaultWalkerConfig() WalkerConfig {
	return WalkerConfig{
		NumWorkers:    workers.ForIO(8),
		ChannelBuffer: 1000,
		SkipHidden:    true,
	}
}

// walkJob is a regular file found by the walk.
type walkJob struct {
	path    string
	relPath string
	info    fs.FileInfo
}

// processFunc turns a file into a result. ok is false for files that should
// be left out without counting as an error.
type processFunc[T any] func(ctx context.Context, job walkJob) (result T, ok bool, err error)

// walker walks a directory tree and processes regular files on a pool of
// workers. Results are collected in no particular order.
type walker[T any] struct {
	root    string
	config  WalkerConfig
	process processFunc[T]

	filesProcessed atomic.Int64
	filesSkipped   atomic.Int64
	errorsCount    atomic.Int64
}

func newWalker[T any](root string, config WalkerConfig, process processFunc[T]) *walker[T] {
	if config.NumWorkers <= 0 {
		config.NumWorkers = 1
	}
	if config.ChannelBuffer <= 0 {
		config.ChannelBuffer = 1
	}
	return &walker[T]{root: root, config: config, process: process}
}

type walkResult[T any] struct {
	value T
	ok    bool
	err   error
}

// Walk enumerates the tree and returns every processed result. Per-file
// errors are logged and counted; only cancellation is returned.
func (w *walker[T]) Walk(ctx context.Context) ([]T, error) {
	logging.Debug("Starting parallel walk of %s with %d workers", w.root, w.config.NumWorkers)
	startTime := time.Now()
	metrics.CatalogWalkWorkers.Set(float64(w.config.NumWorkers))

	jobs := make(chan walkJob, w.config.ChannelBuffer)
	results := make(chan walkResult[T], w.config.ChannelBuffer)

	var wg sync.WaitGroup
	for i := 0; i < w.config.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				v, ok, err := w.process(ctx, job)
				results <- walkResult[T]{value: v, ok: ok, err: err}
			}
		}()
	}

	var out []T
	done := make(chan struct{})
	go func() {
		defer close(done)
		for r := range results {
			switch {
			case r.err != nil:
				w.errorsCount.Add(1)
				logging.Debug("Error processing file: %v", r.err)
			case r.ok:
				w.filesProcessed.Add(1)
				out = append(out, r.value)
			default:
				w.filesSkipped.Add(1)
			}
		}
	}()

	err := w.enqueue(ctx, jobs)
	close(jobs)
	wg.Wait()
	close(results)
	<-done

	logging.Debug("Parallel walk of %s complete: %d files, %d skipped in %v (errors: %d)",
		w.root, w.filesProcessed.Load(), w.filesSkipped.Load(), time.Since(startTime), w.errorsCount.Load())

	if err != nil {
		return out, err
	}
	return out, ctx.Err()
}

func (w *walker[T]) enqueue(ctx context.Context, jobs chan<- walkJob) error {
	return filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return fs.SkipAll
		}

		if err != nil {
			if path == w.root {
				return err
			}
			logging.Warn("Error accessing path %s: %v", path, err)
			return nil
		}

		if path == w.root {
			return nil
		}

		if w.config.SkipHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		if !d.Type().IsRegular() {
			return nil
		}

		relPath, err := filepath.Rel(w.root, path)
		if err != nil {
			return nil //nolint:nilerr // skip this entry, keep walking
		}

		info, err := d.Info()
		if err != nil {
			logging.Warn("Error getting info for %s: %v", path, err)
			return nil
		}

		select {
		case jobs <- walkJob{path: path, relPath: filepath.ToSlash(relPath), info: info}:
		case <-ctx.Done():
			return fs.SkipAll
		}
		return nil
	})
}

// Stats returns processed, skipped and error counts.
func (w *walker[T]) Stats() (processed, skipped, errors int64) {
	return w.filesProcessed.Load(), w.filesSkipped.Load(), w.errorsCount.Load()
}
