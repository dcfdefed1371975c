package memory

import (
	"math"
	"runtime"
	"runtime/debug"
	"sync"
	"time"

	"mediasweep/internal/logging"
	"mediasweep/internal/metrics"
)

// Config holds the monitor thresholds.
type Config struct {
	// LimitBytes is the heap budget. 0 means use GOMEMLIMIT, if any.
	LimitBytes int64

	// HighWaterMark is the usage ratio below which a pause is lifted.
	HighWaterMark float64

	// CriticalWaterMark is the usage ratio that pauses background work and
	// fires the OnCritical callbacks.
	CriticalWaterMark float64

	CheckInterval time.Duration
}

// DefaultConfig returns the thresholds used by the server.
func DefaultConfig() Config {
	return Config{
		HighWaterMark:     0.7,
		CriticalWaterMark: 0.85,
		CheckInterval:     5 * time.Second,
	}
}

// Monitor samples heap usage and signals pressure. Background work such as
// thumbnail prewarming checks IsPaused; caches register OnCritical to shed
// memory when the critical mark is crossed.
type Monitor struct {
	config Config
	limit  int64
	sample func() uint64

	mu         sync.RWMutex
	current    uint64
	paused     bool
	resumed    chan struct{}
	onCritical []func()

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMonitor creates a monitor. Without an explicit limit or GOMEMLIMIT the
// monitor never pauses.
func NewMonitor(config Config) *Monitor {
	limit := config.LimitBytes
	if limit == 0 {
		if l := debug.SetMemoryLimit(-1); l > 0 && l < math.MaxInt64 {
			limit = l
			logging.Info("Memory monitor using GOMEMLIMIT: %s", formatBytes(limit))
		}
	}
	if limit == 0 {
		logging.Warn("Memory monitor: no memory limit configured, backpressure disabled")
	}

	return &Monitor{
		config:  config,
		limit:   limit,
		sample:  heapAlloc,
		resumed: make(chan struct{}),
		stop:    make(chan struct{}),
	}
}

func heapAlloc() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	return stats.Alloc
}

// OnCritical registers fn to run each time usage crosses the critical mark.
// Callbacks run on the monitor goroutine and must not block.
func (m *Monitor) OnCritical(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onCritical = append(m.onCritical, fn)
}

// Start begins sampling. It is a no-op without a limit.
func (m *Monitor) Start() {
	if m.limit == 0 {
		return
	}
	go m.loop()
}

// Stop ends sampling and releases anyone blocked in WaitIfPaused. It is
// safe to call more than once.
func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stop) })
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check(m.sample())
		case <-m.stop:
			return
		}
	}
}

func (m *Monitor) check(alloc uint64) {
	if m.limit <= 0 {
		return
	}
	usage := float64(alloc) / float64(m.limit)
	metrics.MemoryUsageRatio.Set(usage)

	var callbacks []func()

	m.mu.Lock()
	m.current = alloc
	switch {
	case usage >= m.config.CriticalWaterMark && !m.paused:
		logging.Warn("Memory critical (%.1f%% of limit), pausing background work", usage*100)
		m.paused = true
		metrics.MemoryPaused.Set(1)
		metrics.MemoryGCPauses.Inc()
		callbacks = append(callbacks, m.onCritical...)
	case usage < m.config.HighWaterMark && m.paused:
		logging.Info("Memory recovered (%.1f%% of limit), resuming", usage*100)
		m.paused = false
		metrics.MemoryPaused.Set(0)
		close(m.resumed)
		m.resumed = make(chan struct{})
	}
	m.mu.Unlock()

	if len(callbacks) > 0 {
		for _, fn := range callbacks {
			fn()
		}
		go runtime.GC()
	}
}

// WaitIfPaused blocks while memory is critical. It returns false if the
// monitor was stopped while waiting.
func (m *Monitor) WaitIfPaused() bool {
	m.mu.RLock()
	if !m.paused {
		m.mu.RUnlock()
		return true
	}
	resumed := m.resumed
	m.mu.RUnlock()

	select {
	case <-resumed:
		return true
	case <-m.stop:
		return false
	}
}

// IsPaused reports whether usage is above the critical mark.
func (m *Monitor) IsPaused() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.paused
}

// Usage returns the last sampled heap size, the limit, and their ratio.
func (m *Monitor) Usage() (current, limit int64, ratio float64) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	current = math.MaxInt64
	if m.current <= math.MaxInt64 {
		current = int64(m.current)
	}
	if m.limit > 0 {
		ratio = float64(m.current) / float64(m.limit)
	}
	return current, m.limit, ratio
}
