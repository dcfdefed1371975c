package workers

import (
	"os"
	"runtime"
	"strconv"
)

// Environment variables that override the computed worker counts.
const (
	EnvCPU = "DETECTOR_WORKERS"
	EnvIO  = "INDEX_WORKERS"
)

// Count returns the number of workers for a task, scaled from GOMAXPROCS
// (which follows the container CPU limit on Go 1.19+).
//
// The multiplier adjusts for task characteristics: 1.0 for CPU-bound work
// such as similarity scoring, 2.0 for I/O-bound work such as directory walks
// and thumbnail loading. A positive integer in envVar replaces the computed
// value. The limit caps the result; use 0 for no limit.
func Count(envVar string, multiplier float64, limit int) int {
	if envVar != "" {
		if override := os.Getenv(envVar); override != "" {
			if count, err := strconv.Atoi(override); err == nil && count > 0 {
				return capAt(count, limit)
			}
		}
	}

	workers := int(float64(runtime.GOMAXPROCS(0)) * multiplier)
	if workers < 1 {
		workers = 1
	}
	return capAt(workers, limit)
}

func capAt(n, limit int) int {
	if limit > 0 && n > limit {
		return limit
	}
	return n
}

// ForCPU returns the worker count for CPU-bound tasks (1 per CPU).
// Overridden by DETECTOR_WORKERS.
func ForCPU(limit int) int {
	return Count(EnvCPU, 1.0, limit)
}

// ForIO returns the worker count for I/O-bound tasks (2 per CPU).
// Overridden by INDEX_WORKERS.
func ForIO(limit int) int {
	return Count(EnvIO, 2.0, limit)
}
