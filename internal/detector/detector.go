package detector

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/metrics"
	"mediasweep/internal/similarity"
	"mediasweep/internal/workers"

	"golang.org/x/sync/errgroup"
)

// Scorer computes a similarity score in [0,1] for two items of the same kind.
type Scorer interface {
	Score(a, b media.Item) float64
}

// Config controls thresholds, pre-filtering and batching.
type Config struct {
	// PhotoThreshold is the score a photo pair must exceed to be flagged
	PhotoThreshold float64
	// VideoThreshold is the score a video pair must exceed to be flagged
	VideoThreshold float64
	// MaxSizeDelta is the largest relative size difference a photo pair may
	// have before it is skipped without scoring
	MaxSizeDelta float64
	// MaxTimeDelta is the largest capture time difference for photo pairs
	MaxTimeDelta time.Duration
	// MaxBatchSize caps the number of photos handed to a single worker
	MaxBatchSize int
	// NumWorkers is the number of parallel batch workers (0 = auto)
	NumWorkers int
}

// DefaultConfig returns the standard thresholds with a CPU-sized pool.
func DefaultConfig() Config {
	return Config{
		PhotoThreshold: 0.85,
		VideoThreshold: 0.80,
		MaxSizeDelta:   0.5,
		MaxTimeDelta:   time.Hour,
		MaxBatchSize:   50,
		NumWorkers:     workers.ForCPU(8),
	}
}

// Stats summarizes a single detection run.
type Stats struct {
	Photos          int
	Videos          int
	PairsConsidered int64
	PairsFiltered   int64
	PairsScored     int64
	PairsFlagged    int64
	Duplicates      int
	Duration        time.Duration
	Cancelled       bool
}

// Detector finds near-duplicate photos and videos.
type Detector struct {
	scorer Scorer
	config Config

	mu   sync.Mutex
	last Stats
}

// New creates a detector. A nil scorer uses the default similarity scorer.
func New(scorer Scorer, config Config) *Detector {
	if scorer == nil {
		scorer = similarity.NewScorer()
	}
	defaults := DefaultConfig()
	if config.MaxBatchSize <= 0 {
		config.MaxBatchSize = defaults.MaxBatchSize
	}
	if config.NumWorkers <= 0 {
		config.NumWorkers = defaults.NumWorkers
	}
	return &Detector{scorer: scorer, config: config}
}

// Config returns the detector configuration.
func (d *Detector) Config() Config {
	return d.config
}

// LastStats returns the statistics of the most recently finished run.
func (d *Detector) LastStats() Stats {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.last
}

// pairCounters tracks per-kind pair outcomes for one run.
type pairCounters struct {
	considered atomic.Int64
	filtered   atomic.Int64
	scored     atomic.Int64
	flagged    atomic.Int64
}

type run struct {
	d        *Detector
	ctx      context.Context
	progress func(float64)

	photo pairCounters
	video pairCounters

	mu      sync.Mutex
	flagged map[string]media.Item

	total        int64
	done         atomic.Int64
	progressMu   sync.Mutex
	lastReported float64
}

// Detect compares every same-kind pair of photos and videos and returns a
// copy of each item judged to be the duplicate side of a similar pair, with
// IsDuplicate set and SimilarityScore holding the highest score it received.
// Results are sorted by ID.
//
// progress, when non-nil, receives monotonically increasing fractions in
// [0,1]; 1.0 is reported once when the run completes. If ctx is cancelled the
// duplicates found so far are returned together with ctx.Err().
func (d *Detector) Detect(ctx context.Context, items []media.Item, progress func(float64)) ([]media.Item, error) {
	start := time.Now()
	metrics.DetectorIsRunning.Set(1)
	metrics.DetectorProgress.Set(0)
	defer metrics.DetectorIsRunning.Set(0)

	var photos, videos []media.Item
	for _, it := range items {
		switch it.Kind {
		case media.KindPhoto:
			photos = append(photos, it)
		case media.KindVideo:
			videos = append(videos, it)
		}
	}

	r := &run{
		d:        d,
		ctx:      ctx,
		progress: progress,
		flagged:  make(map[string]media.Item),
	}
	if len(photos) > 1 {
		r.total += int64(len(d.batches(len(photos))))
	}
	if len(videos) > 1 {
		r.total += int64(len(videos) - 1)
	}

	logging.Info("Starting duplicate detection: %d photos, %d videos", len(photos), len(videos))

	var g errgroup.Group
	if len(photos) > 1 {
		g.Go(func() error { return r.detectPhotos(photos) })
	}
	if len(videos) > 1 {
		g.Go(func() error { return r.detectVideos(videos) })
	}
	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}

	result := make([]media.Item, 0, len(r.flagged))
	for _, it := range r.flagged {
		result = append(result, it)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	stats := Stats{
		Photos:          len(photos),
		Videos:          len(videos),
		PairsConsidered: r.photo.considered.Load() + r.video.considered.Load(),
		PairsFiltered:   r.photo.filtered.Load() + r.video.filtered.Load(),
		PairsScored:     r.photo.scored.Load() + r.video.scored.Load(),
		PairsFlagged:    r.photo.flagged.Load() + r.video.flagged.Load(),
		Duplicates:      len(result),
		Duration:        time.Since(start),
		Cancelled:       err != nil,
	}
	d.mu.Lock()
	d.last = stats
	d.mu.Unlock()

	r.recordMetrics(result, stats)

	if err != nil {
		logging.Warn("Duplicate detection cancelled after %v: %d duplicates so far", stats.Duration, len(result))
		return result, err
	}

	r.finish()
	logging.Info("Duplicate detection complete in %v: %d pairs considered, %d filtered, %d scored, %d duplicates",
		stats.Duration, stats.PairsConsidered, stats.PairsFiltered, stats.PairsScored, len(result))
	return result, nil
}

// batch is a half-open index range into the photo group.
type batch struct {
	start, end int
}

// batches splits n photos into contiguous ranges of clamp(n/4, 1, MaxBatchSize).
func (d *Detector) batches(n int) []batch {
	size := n / 4
	if size < 1 {
		size = 1
	}
	if size > d.config.MaxBatchSize {
		size = d.config.MaxBatchSize
	}

	out := make([]batch, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		out = append(out, batch{start: start, end: end})
	}
	return out
}

func (r *run) detectPhotos(photos []media.Item) error {
	batches := r.d.batches(len(photos))
	numWorkers := r.d.config.NumWorkers
	if numWorkers > len(batches) {
		numWorkers = len(batches)
	}
	metrics.DetectorWorkers.Set(float64(numWorkers))

	jobs := make(chan batch, len(batches))
	for _, b := range batches {
		jobs <- b
	}
	close(jobs)

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for b := range jobs {
				if r.ctx.Err() != nil {
					return
				}
				for i := b.start; i < b.end; i++ {
					for j := i + 1; j < len(photos); j++ {
						r.compare(&r.photo, photos[i], photos[j], r.d.config.PhotoThreshold)
					}
				}
				r.step()
			}
		}()
	}
	wg.Wait()

	return r.ctx.Err()
}

func (r *run) detectVideos(videos []media.Item) error {
	for i := 0; i < len(videos)-1; i++ {
		if err := r.ctx.Err(); err != nil {
			return err
		}
		for j := i + 1; j < len(videos); j++ {
			r.compare(&r.video, videos[i], videos[j], r.d.config.VideoThreshold)
		}
		r.step()
	}
	return nil
}

func (r *run) compare(c *pairCounters, a, b media.Item, threshold float64) {
	c.considered.Add(1)

	if a.Kind == media.KindPhoto && !r.d.PassesPreFilter(a, b) {
		c.filtered.Add(1)
		return
	}

	score := r.d.scorer.Score(a, b)
	c.scored.Add(1)
	if score <= threshold {
		return
	}
	c.flagged.Add(1)

	dup := pickDuplicate(a, b)
	dup.IsDuplicate = true
	dup.SimilarityScore = score

	r.mu.Lock()
	if prev, ok := r.flagged[dup.ID]; !ok || score > prev.SimilarityScore {
		r.flagged[dup.ID] = dup
	}
	r.mu.Unlock()
}

// step marks one comparison unit done and reports progress below 1.0.
func (r *run) step() {
	done := r.done.Add(1)
	if r.total == 0 {
		return
	}
	frac := float64(done) / float64(r.total)
	if frac >= 1 {
		return
	}

	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	if frac <= r.lastReported {
		return
	}
	r.lastReported = frac
	metrics.DetectorProgress.Set(frac)
	if r.progress != nil {
		r.progress(frac)
	}
}

func (r *run) finish() {
	r.progressMu.Lock()
	defer r.progressMu.Unlock()
	r.lastReported = 1
	metrics.DetectorProgress.Set(1)
	if r.progress != nil {
		r.progress(1)
	}
}

func (r *run) recordMetrics(result []media.Item, stats Stats) {
	for kind, c := range map[string]*pairCounters{"photo": &r.photo, "video": &r.video} {
		metrics.DetectorPairsTotal.WithLabelValues(kind, "filtered").Add(float64(c.filtered.Load()))
		metrics.DetectorPairsTotal.WithLabelValues(kind, "below_threshold").Add(float64(c.scored.Load() - c.flagged.Load()))
		metrics.DetectorPairsTotal.WithLabelValues(kind, "flagged").Add(float64(c.flagged.Load()))
	}

	var photoDups, videoDups int
	for _, it := range result {
		if it.Kind == media.KindPhoto {
			photoDups++
		} else {
			videoDups++
		}
	}
	metrics.DetectorDuplicatesFound.WithLabelValues("photo").Set(float64(photoDups))
	metrics.DetectorDuplicatesFound.WithLabelValues("video").Set(float64(videoDups))

	status := "complete"
	if stats.Cancelled {
		status = "cancelled"
	}
	metrics.DetectorRunsTotal.WithLabelValues(status).Inc()
	metrics.DetectorRunDuration.Observe(stats.Duration.Seconds())
}

// PassesPreFilter reports whether a photo pair is close enough in file size
// and capture time to be worth scoring. Two zero sizes pass the size check.
func (d *Detector) PassesPreFilter(a, b media.Item) bool {
	larger := a.Size
	if b.Size > larger {
		larger = b.Size
	}
	if larger > 0 {
		delta := a.Size - b.Size
		if delta < 0 {
			delta = -delta
		}
		if float64(delta)/float64(larger) > d.config.MaxSizeDelta {
			return false
		}
	}

	dt := a.CreatedAt.Sub(b.CreatedAt)
	if dt < 0 {
		dt = -dt
	}
	return dt <= d.config.MaxTimeDelta
}

// pickDuplicate returns the side of a pair to flag: the smaller file, or on
// equal size the item whose ID sorts greater.
func pickDuplicate(a, b media.Item) media.Item {
	switch {
	case a.Size < b.Size:
		return a
	case b.Size < a.Size:
		return b
	case a.ID > b.ID:
		return a
	default:
		return b
	}
}
