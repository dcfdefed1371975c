package cleaner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"mediasweep/internal/catalog"
	"mediasweep/internal/detector"
	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/mediatypes"
	"mediasweep/internal/metrics"
	"mediasweep/internal/recyclebin"
	"mediasweep/internal/thumbnail"
)

// ErrUnknownItem is returned when an ID is not in the current results.
var ErrUnknownItem = errors.New("cleaner: item not in current results")

// Detector finds duplicates among items. *detector.Detector implements it.
type Detector interface {
	Detect(ctx context.Context, items []media.Item, progress func(float64)) ([]media.Item, error)
}

// Bin is the part of *recyclebin.Store the cleaner uses.
type Bin interface {
	Items() []media.Item
	Count() int
	TotalSize() int64
	IsKept(ref string) bool
	KeptCount() int
	RecycleMany(ctx context.Context, items []media.Item) (int, error)
	MarkKept(ctx context.Context, item media.Item) (media.Item, error)
	Subscribe(buffer int) (<-chan recyclebin.Event, func())
}

// ScanState records when the last scan completed. *database.Database
// implements it.
type ScanState interface {
	SetLastScan(ctx context.Context, t time.Time) error
}

// Pauser reports memory pressure. *memory.Monitor implements it.
type Pauser interface {
	IsPaused() bool
}

// Options holds the optional collaborators of a Cleaner.
type Options struct {
	Thumbnails    *thumbnail.Cache
	ThumbnailSize int
	State         ScanState
	Memory        Pauser
	// FilesDir is scanned by Files for audio and document files.
	FilesDir string
}

// Status is a snapshot of the scan state.
type Status struct {
	Progress   float64   `json:"progress"`
	Scanning   bool      `json:"scanning"`
	Duplicates int       `json:"duplicates"`
	LastScan   time.Time `json:"lastScan,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// Cleaner runs scans and applies the user's decisions.
type Cleaner struct {
	provider catalog.Provider
	detector Detector
	bin      Bin
	opts     Options

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu            sync.Mutex
	scanning      bool
	gen           uint64
	cancelScan    context.CancelFunc
	rescanPending bool
	progress      float64
	results       []media.Item
	files         []media.Item
	durations     map[string]time.Duration
	lastScan      time.Time
	lastErr       error

	subMu   sync.Mutex
	subs    map[int]chan float64
	nextSub int

	unsubscribe func()
}

// New creates a Cleaner. Call Start to follow recycle-bin restores and
// Close to stop background work.
func New(provider catalog.Provider, det Detector, bin Bin, opts Options) *Cleaner {
	if opts.ThumbnailSize <= 0 {
		opts.ThumbnailSize = thumbnail.DefaultSize
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Cleaner{
		provider: provider,
		detector: det,
		bin:      bin,
		opts:     opts,
		ctx:      ctx,
		cancel:   cancel,
		subs:     make(map[int]chan float64),
	}
}

// Start watches the recycle bin and rescans after each restore.
func (c *Cleaner) Start() {
	events, unsubscribe := c.bin.Subscribe(16)
	c.unsubscribe = unsubscribe

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		for ev := range events {
			if ev.Type == recyclebin.EventRestored {
				logging.Debug("Restored %d items, scheduling rescan", len(ev.Items))
				c.RequestRescan()
			}
		}
	}()
}

// Close cancels any running scan and waits for background work.
func (c *Cleaner) Close() {
	c.cancel()
	if c.unsubscribe != nil {
		c.unsubscribe()
	}
	c.wg.Wait()
}

// RequestRescan starts a background scan, or schedules one to follow the
// scan in progress. Repeated requests during a scan collapse into one.
func (c *Cleaner) RequestRescan() {
	c.mu.Lock()
	if c.scanning {
		c.rescanPending = true
		c.mu.Unlock()
		return
	}
	c.mu.Unlock()

	if !c.StartScan() {
		c.mu.Lock()
		c.rescanPending = true
		c.mu.Unlock()
	}
}

// begin claims the busy flag. With onlyIfIdle it fails when a scan is
// running; otherwise it cancels that scan.
func (c *Cleaner) begin(parent context.Context, onlyIfIdle bool) (context.Context, uint64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if onlyIfIdle && c.scanning {
		return nil, 0, false
	}
	if c.cancelScan != nil {
		logging.Debug("Superseding scan %d", c.gen)
		c.cancelScan()
	}

	ctx, cancel := context.WithCancel(parent)
	c.gen++
	c.cancelScan = cancel
	c.scanning = true
	c.progress = 0
	c.lastErr = nil
	return ctx, c.gen, true
}

func (c *Cleaner) finish(gen uint64, results []media.Item, err error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.scanning = false
	c.cancelScan()
	c.cancelScan = nil
	if err == nil {
		c.results = results
		c.lastScan = time.Now()
	}
	c.lastErr = err
	pending := c.rescanPending
	c.rescanPending = false
	c.mu.Unlock()

	if pending && c.ctx.Err() == nil {
		c.StartScan()
	}
}

// Scan lists the catalog, detects duplicates among assets that are neither
// recycled nor kept, and stores the sorted result. A scan already running is
// cancelled. Catalog failures are returned and leave the previous results in
// place.
func (c *Cleaner) Scan(ctx context.Context) ([]media.Item, error) {
	sctx, gen, _ := c.begin(ctx, false)
	c.broadcast(0)
	return c.run(sctx, gen)
}

// StartScan runs a scan in the background. It returns false without doing
// anything if a scan is already running.
func (c *Cleaner) StartScan() bool {
	sctx, gen, ok := c.begin(c.ctx, true)
	if !ok {
		return false
	}
	c.broadcast(0)

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		if _, err := c.run(sctx, gen); err != nil && !errors.Is(err, context.Canceled) {
			logging.Error("Background scan failed: %v", err)
		}
	}()
	return true
}

func (c *Cleaner) run(ctx context.Context, gen uint64) ([]media.Item, error) {
	start := time.Now()

	assets, err := c.provider.ListAssets(ctx)
	if err != nil {
		err = fmt.Errorf("list assets: %w", err)
		c.finish(gen, nil, err)
		return nil, err
	}

	items := c.candidates(assets)
	c.rememberDurations(gen, assets)
	logging.Info("Scanning %d assets (%d in catalog)", len(items), len(assets))

	found, err := c.detector.Detect(ctx, items, func(p float64) { c.setProgress(gen, p) })
	if err != nil {
		c.finish(gen, nil, err)
		return nil, err
	}

	results := detector.SortForPresentation(found)
	c.finish(gen, results, nil)

	if c.opts.State != nil {
		if err := c.opts.State.SetLastScan(c.ctx, time.Now()); err != nil {
			logging.Warn("Failed to record last scan time: %v", err)
		}
	}
	logging.Info("Scan found %d duplicates in %v", len(results), time.Since(start).Round(time.Millisecond))

	c.prewarm(results)
	return slices.Clone(results), nil
}

// candidates turns descriptors into items, skipping assets already in the
// bin or on the keep list.
func (c *Cleaner) candidates(assets []media.AssetDescriptor) []media.Item {
	binned := make(map[string]bool)
	for _, it := range c.bin.Items() {
		binned[it.Ref()] = true
	}

	items := make([]media.Item, 0, len(assets))
	for _, a := range assets {
		if binned[a.Handle] || c.bin.IsKept(a.Handle) {
			continue
		}
		items = append(items, media.NewFromAsset(a))
	}
	return items
}

func (c *Cleaner) setProgress(gen uint64, p float64) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.progress = p
	c.mu.Unlock()
	c.broadcast(p)
}

func (c *Cleaner) prewarm(results []media.Item) {
	if c.opts.Thumbnails == nil || len(results) == 0 {
		return
	}
	if c.opts.Memory != nil && c.opts.Memory.IsPaused() {
		logging.Debug("Skipping thumbnail prewarm under memory pressure")
		return
	}

	refs := make([]string, 0, len(results))
	for _, it := range results {
		refs = append(refs, it.Ref())
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		c.opts.Thumbnails.Prewarm(c.ctx, refs, c.fetchThumbnail)
	}()
}

// Thumbnail returns the cached thumbnail for ref, rendering it on a miss.
func (c *Cleaner) Thumbnail(ctx context.Context, ref string) (thumbnail.Entry, error) {
	if c.opts.Thumbnails == nil {
		return c.fetchThumbnail(ctx, ref)
	}
	return c.opts.Thumbnails.GetOrFetch(ctx, ref, c.fetchThumbnail)
}

func (c *Cleaner) fetchThumbnail(ctx context.Context, ref string) (thumbnail.Entry, error) {
	kind, _ := mediatypes.KindForExt(strings.ToLower(filepath.Ext(ref)))
	if !kind.IsAsset() {
		return thumbnail.Entry{}, fmt.Errorf("no thumbnail for %s: %w", ref, thumbnail.ErrUnsupportedKind)
	}
	img, err := c.provider.RequestThumbnail(ctx, ref, c.opts.ThumbnailSize)
	if err != nil {
		return thumbnail.Entry{}, err
	}
	return thumbnail.NewEntry(img, kind, c.duration(ref), thumbnail.DefaultQuality)
}

func (c *Cleaner) rememberDurations(gen uint64, assets []media.AssetDescriptor) {
	durations := make(map[string]time.Duration)
	for _, a := range assets {
		if a.Duration > 0 {
			durations[a.Handle] = a.Duration
		}
	}
	c.mu.Lock()
	if gen == c.gen {
		c.durations = durations
	}
	c.mu.Unlock()
}

// duration looks up the video length for a thumbnail label, from the last
// catalog listing or the recycle bin.
func (c *Cleaner) duration(ref string) time.Duration {
	c.mu.Lock()
	d, ok := c.durations[ref]
	c.mu.Unlock()
	if ok {
		return d
	}
	for _, it := range c.bin.Items() {
		if it.Ref() == ref {
			return it.Duration
		}
	}
	return 0
}

// Status returns the scan state.
func (c *Cleaner) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s := Status{
		Progress:   c.progress,
		Scanning:   c.scanning,
		Duplicates: len(c.results),
		LastScan:   c.lastScan,
	}
	if c.lastErr != nil {
		s.Error = c.lastErr.Error()
	}
	return s
}

// Progress returns the detector progress of the current or last scan.
func (c *Cleaner) Progress() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.progress
}

// Results returns a copy of the current duplicate list.
func (c *Cleaner) Results() []media.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.results)
}

// SubscribeProgress returns a channel of progress values. Values are
// dropped for a subscriber that is not keeping up.
func (c *Cleaner) SubscribeProgress(buffer int) (<-chan float64, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan float64, buffer)

	c.subMu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.subMu.Lock()
			delete(c.subs, id)
			close(ch)
			c.subMu.Unlock()
		})
	}
}

func (c *Cleaner) broadcast(p float64) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for _, ch := range c.subs {
		select {
		case ch <- p:
		default:
		}
	}
}

// Recycle moves the given result or file items into the recycle bin and
// drops them from the results. Unknown IDs fail the whole call.
func (c *Cleaner) Recycle(ctx context.Context, ids []string) (int, error) {
	picked, err := c.take(ids)
	if err != nil {
		return 0, err
	}

	n, err := c.bin.RecycleMany(ctx, picked)
	if err != nil {
		return 0, err
	}

	c.drop(ids)
	if c.opts.Thumbnails != nil {
		for _, it := range picked {
			c.opts.Thumbnails.Invalidate(it.Ref())
		}
	}
	return n, nil
}

// Keep puts the given result items on the keep list, drops them from the
// results and returns them with MarkedForKeeping set. If an item cannot be
// kept, the ones before it stay kept and are still returned.
func (c *Cleaner) Keep(ctx context.Context, ids []string) ([]media.Item, error) {
	picked, err := c.take(ids)
	if err != nil {
		return nil, err
	}

	kept := make([]media.Item, 0, len(picked))
	keptIDs := make([]string, 0, len(picked))
	for _, it := range picked {
		marked, err := c.bin.MarkKept(ctx, it)
		if err != nil {
			c.drop(keptIDs)
			return kept, fmt.Errorf("keep %s: %w", it.FileName, err)
		}
		kept = append(kept, marked)
		keptIDs = append(keptIDs, it.ID)
	}
	c.drop(keptIDs)
	return kept, nil
}

func (c *Cleaner) take(ids []string) ([]media.Item, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	byID := make(map[string]media.Item, len(c.results)+len(c.files))
	for _, it := range c.results {
		byID[it.ID] = it
	}
	for _, it := range c.files {
		byID[it.ID] = it
	}

	picked := make([]media.Item, 0, len(ids))
	for _, id := range ids {
		it, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownItem, id)
		}
		picked = append(picked, it)
	}
	return picked, nil
}

func (c *Cleaner) drop(ids []string) {
	gone := make(map[string]bool, len(ids))
	for _, id := range ids {
		gone[id] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	remove := func(it media.Item) bool { return gone[it.ID] }
	c.results = slices.DeleteFunc(c.results, remove)
	c.files = slices.DeleteFunc(c.files, remove)
}

// Files lists audio and document files under the configured directory that
// are not already in the recycle bin. The listing is remembered so its
// items can be passed to Recycle.
func (c *Cleaner) Files(ctx context.Context) ([]media.Item, error) {
	if c.opts.FilesDir == "" {
		return nil, nil
	}

	found, err := catalog.ScanFiles(ctx, c.opts.FilesDir)
	if err != nil {
		return nil, err
	}

	binned := make(map[string]bool)
	for _, it := range c.bin.Items() {
		binned[it.Ref()] = true
	}
	found = slices.DeleteFunc(found, func(it media.Item) bool {
		return binned[it.Ref()] || c.bin.IsKept(it.Ref())
	})
	detector.SortVideos(found)

	c.mu.Lock()
	c.files = found
	c.mu.Unlock()
	return slices.Clone(found), nil
}

// GetStats implements metrics.StatsProvider.
func (c *Cleaner) GetStats() metrics.Stats {
	c.mu.Lock()
	s := metrics.Stats{
		Duplicates: len(c.results),
		LastScan:   c.lastScan,
		Scanning:   c.scanning,
	}
	c.mu.Unlock()

	s.RecycleBinItems = c.bin.Count()
	s.RecycleBinBytes = c.bin.TotalSize()
	s.KeptItems = c.bin.KeptCount()
	if c.opts.Thumbnails != nil {
		s.ThumbnailsCached, s.ThumbnailsDurations = c.opts.Thumbnails.Status()
	}
	return s
}
