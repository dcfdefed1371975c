// Package memory keeps the process inside its container memory budget.
//
// ConfigureLimit derives GOMEMLIMIT from the container limit (MEMORY_LIMIT,
// usually injected by the Kubernetes Downward API) and a heap ratio
// (MEMORY_RATIO, default 0.85). An explicit GOMEMLIMIT always takes
// precedence.
//
// Monitor samples heap usage against that limit. Crossing the critical mark
// pauses background work until usage falls below the high mark, and runs
// the registered OnCritical callbacks; the server uses one to drop the
// thumbnail cache:
//
//	monitor := memory.NewMonitor(memory.DefaultConfig())
//	monitor.OnCritical(cache.ClearUnderPressure)
//	monitor.Start()
//	defer monitor.Stop()
package memory
