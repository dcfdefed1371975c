package thumbnail

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/metrics"
	"mediasweep/internal/workers"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Default lifetime settings for cached thumbnails.
const (
	DefaultTTL             = 30 * time.Minute
	DefaultCleanupInterval = 10 * time.Minute
)

// Entry is a decoded thumbnail ready to serve.
type Entry struct {
	// JPEG holds the encoded thumbnail
	JPEG   []byte
	Width  int
	Height int
	// DurationLabel is set for videos, e.g. "1:05" or "1:02:03"
	DurationLabel string
}

// NewEntry encodes img and attaches a duration label for videos.
func NewEntry(img image.Image, kind media.Kind, duration time.Duration, quality int) (Entry, error) {
	data, err := EncodeJPEG(img, quality)
	if err != nil {
		return Entry{}, err
	}
	e := Entry{JPEG: data, Width: img.Bounds().Dx(), Height: img.Bounds().Dy()}
	if kind == media.KindVideo {
		e.DurationLabel = FormatDuration(duration)
	}
	return e, nil
}

// FormatDuration renders d as m:ss, or h:mm:ss from one hour up.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// FetchFunc loads the thumbnail for a reference.
type FetchFunc func(ctx context.Context, ref string) (Entry, error)

// Pauser reports memory pressure. *memory.Monitor implements it.
type Pauser interface {
	IsPaused() bool
}

// Cache holds decoded thumbnails keyed by item reference. All access goes
// through one mutex, so a Put that races a Clear either lands before the
// Clear (and is dropped) or after it (and is kept).
type Cache struct {
	mu     sync.Mutex
	store  *gocache.Cache
	loads  singleflight.Group
	pauser Pauser
}

// NewCache creates a cache whose entries expire after ttl.
func NewCache(ttl, cleanupInterval time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if cleanupInterval <= 0 {
		cleanupInterval = DefaultCleanupInterval
	}
	return &Cache{store: gocache.New(ttl, cleanupInterval)}
}

// SetPauser makes Prewarm stop starting new loads while p reports pressure.
func (c *Cache) SetPauser(p Pauser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pauser = p
}

func (c *Cache) paused() bool {
	c.mu.Lock()
	p := c.pauser
	c.mu.Unlock()
	return p != nil && p.IsPaused()
}

func (c *Cache) peek(ref string) (Entry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.store.Get(ref)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry), true
}

// Get returns the cached entry for ref.
func (c *Cache) Get(ref string) (Entry, bool) {
	c.mu.Lock()
	v, ok := c.store.Get(ref)
	c.mu.Unlock()

	if !ok {
		metrics.ThumbnailCacheMisses.Inc()
		return Entry{}, false
	}
	metrics.ThumbnailCacheHits.Inc()
	return v.(Entry), true
}

// Put stores an entry, replacing any previous one for ref.
func (c *Cache) Put(ref string, e Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.SetDefault(ref, e)
}

// Invalidate drops the entry for ref if present.
func (c *Cache) Invalidate(ref string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store.Delete(ref)
}

// Clear drops every entry. Safe to call repeatedly.
func (c *Cache) Clear() {
	c.clear("manual")
}

// ClearUnderPressure drops every entry in response to memory pressure.
func (c *Cache) ClearUnderPressure() {
	c.clear("memory_pressure")
}

func (c *Cache) clear(reason string) {
	c.mu.Lock()
	n := c.store.ItemCount()
	c.store.Flush()
	c.mu.Unlock()

	metrics.ThumbnailCacheClears.WithLabelValues(reason).Inc()
	metrics.ThumbnailCacheCount.Set(0)
	logging.Debug("Thumbnail cache cleared (%s): %d entries dropped", reason, n)
}

// Status returns the number of live entries and how many of them carry a
// duration label.
func (c *Cache) Status() (count, durationCount int) {
	c.mu.Lock()
	items := c.store.Items()
	c.mu.Unlock()

	for _, it := range items {
		count++
		if e, ok := it.Object.(Entry); ok && e.DurationLabel != "" {
			durationCount++
		}
	}
	return count, durationCount
}

// GetOrFetch returns the cached entry for ref or loads and caches it.
// Concurrent misses for the same ref share one fetch, run with the context
// of the caller that started it.
func (c *Cache) GetOrFetch(ctx context.Context, ref string, fetch FetchFunc) (Entry, error) {
	if e, ok := c.Get(ref); ok {
		return e, nil
	}
	return c.load(ctx, ref, fetch)
}

func (c *Cache) load(ctx context.Context, ref string, fetch FetchFunc) (Entry, error) {
	v, err, _ := c.loads.Do(ref, func() (any, error) {
		if e, ok := c.peek(ref); ok {
			return e, nil
		}
		e, err := fetch(ctx, ref)
		if err != nil {
			return Entry{}, err
		}
		c.Put(ref, e)
		return e, nil
	})
	if err != nil {
		return Entry{}, err
	}
	return v.(Entry), nil
}

// Prewarm loads thumbnails for refs that are not cached yet on a bounded
// pool. Failures are logged and skipped. Prewarm returns once every ref has
// been attempted, ctx is done, or the pauser reports memory pressure; refs
// not reached by then are left for GetOrFetch.
func (c *Cache) Prewarm(ctx context.Context, refs []string, fetch FetchFunc) {
	if len(refs) == 0 {
		return
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers.ForIO(16))

	var mu sync.Mutex
	loaded, failed := 0, 0
	paused := false

	for _, ref := range refs {
		if gctx.Err() != nil {
			break
		}
		if c.paused() {
			paused = true
			break
		}
		if _, cached := c.peek(ref); cached {
			continue
		}

		g.Go(func() error {
			if gctx.Err() != nil || c.paused() {
				return nil
			}
			_, err := c.load(gctx, ref, fetch)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				metrics.ThumbnailPrewarmFailures.Inc()
				logging.Debug("Thumbnail prewarm skipped %s: %v", ref, err)
				return nil
			}
			loaded++
			return nil
		})
	}
	_ = g.Wait()

	if paused {
		logging.Debug("Thumbnail prewarm stopped under memory pressure")
	}
	logging.Debug("Thumbnail prewarm: %d loaded, %d failed of %d in %v", loaded, failed, len(refs), time.Since(start))
}
