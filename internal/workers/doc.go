/*
Package workers sizes worker pools from GOMAXPROCS rather than
runtime.NumCPU, so pools respect container CPU limits.

Consider a pod limited to 2 CPUs on a 64-core node:

	runtime.NumCPU()      // 64, the host
	runtime.GOMAXPROCS(0) // 2, the cgroup limit (Go 1.19+)

# Usage

	// Duplicate detection batches: one worker per CPU, at most 8
	n := workers.ForCPU(8)

	// Directory walks and thumbnail prewarm: two per CPU, at most 16
	n := workers.ForIO(16)

	// Custom multiplier without an override variable
	n := workers.Count("", 3.0, 24)

# Overrides

DETECTOR_WORKERS overrides ForCPU and INDEX_WORKERS overrides ForIO. The
override is still capped by the limit argument. Non-numeric or non-positive
values are ignored.

All functions are safe for concurrent use.
*/
package workers
