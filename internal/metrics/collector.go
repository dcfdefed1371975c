package metrics

import (
	"sync"
	"sync/atomic"
	"time"

	"mediasweep/internal/logging"
)

// StatsProvider is polled by the Collector. *cleaner.Cleaner implements it.
type StatsProvider interface {
	GetStats() Stats
}

// Stats is a point-in-time snapshot of engine state that is cheaper to poll
// than to track on every mutation.
type Stats struct {
	Duplicates          int
	KeptItems           int
	Scanning            bool
	LastScan            time.Time
	RecycleBinItems     int
	RecycleBinBytes     int64
	ThumbnailsCached    int
	ThumbnailsDurations int
}

// Collector copies a StatsProvider snapshot into the gauges on an interval.
type Collector struct {
	provider StatsProvider
	interval time.Duration

	stop     chan struct{}
	done     chan struct{}
	started  atomic.Bool
	stopOnce sync.Once
}

// NewCollector creates a collector. Nothing runs until Start.
func NewCollector(provider StatsProvider, interval time.Duration) *Collector {
	return &Collector{
		provider: provider,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start collects once immediately and then on every tick.
func (c *Collector) Start() {
	if c.started.CompareAndSwap(false, true) {
		go c.loop()
	}
}

// Stop ends the loop and waits for an in-flight collection. It is safe to
// call more than once, and before Start.
func (c *Collector) Stop() {
	c.stopOnce.Do(func() { close(c.stop) })
	if c.started.Load() {
		<-c.done
	}
}

func (c *Collector) loop() {
	defer close(c.done)
	c.collect()

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.collect()
		case <-c.stop:
			return
		}
	}
}

func (c *Collector) collect() {
	if c.provider == nil {
		return
	}
	s := c.provider.GetStats()

	CleanerDuplicatesPending.Set(float64(s.Duplicates))
	CleanerKeptItems.Set(float64(s.KeptItems))
	CleanerScanning.Set(boolGauge(s.Scanning))
	if s.LastScan.IsZero() {
		CleanerLastScanTimestamp.Set(0)
	} else {
		CleanerLastScanTimestamp.Set(float64(s.LastScan.Unix()))
	}

	RecycleBinItems.Set(float64(s.RecycleBinItems))
	RecycleBinBytes.Set(float64(s.RecycleBinBytes))
	ThumbnailCacheCount.Set(float64(s.ThumbnailsCached))
	ThumbnailCacheDurationCount.Set(float64(s.ThumbnailsDurations))

	logging.Debug("Metrics collected: %d pending, %d kept, bin=%d items (%d bytes), thumbnails=%d",
		s.Duplicates, s.KeptItems, s.RecycleBinItems, s.RecycleBinBytes, s.ThumbnailsCached)
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
