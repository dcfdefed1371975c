package similarity

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"mediasweep/internal/media"
)

// Photo weights. They add up to photoWeightTotal; the same-kind bonus is
// always earned because only items of one kind are compared.
const (
	photoAspectWeight     = 0.25
	photoResolutionWeight = 0.05
	photoSizeWeight       = 0.35
	photoTimeWeight       = 0.20
	photoKindBonus        = 0.10
	photoWeightTotal      = photoAspectWeight + photoResolutionWeight + photoSizeWeight + photoTimeWeight + photoKindBonus

	photoTimeWindow = 300 * time.Second
)

// Video weights.
const (
	videoDurationWeight = 0.35
	videoFrameWeight    = 0.25
	videoSizeWeight     = 0.25
	videoTimeWeight     = 0.15

	videoTimeWindow = 1800 * time.Second
)

// Noise post-processes a clamped score. The result is clamped again.
type Noise func(score float64) float64

// Identity leaves scores untouched. It is the default.
func Identity(score float64) float64 { return score }

// UniformNoise multiplies each score by a factor drawn uniformly from
// [lo, hi] using a seeded source, so runs with the same seed and call order
// are reproducible. Safe for concurrent use.
func UniformNoise(seed int64, lo, hi float64) Noise {
	if hi < lo {
		lo, hi = hi, lo
	}
	var mu sync.Mutex
	rng := rand.New(rand.NewSource(seed)) //nolint:gosec // not used for security
	return func(score float64) float64 {
		mu.Lock()
		f := lo + rng.Float64()*(hi-lo)
		mu.Unlock()
		return score * f
	}
}

// Scorer computes 0..1 similarity between two items of the same kind.
type Scorer struct {
	noise Noise
}

// Option configures a Scorer.
type Option func(*Scorer)

// WithNoise sets the noise strategy applied after the weighted score.
func WithNoise(n Noise) Option {
	return func(s *Scorer) {
		if n != nil {
			s.noise = n
		}
	}
}

// NewScorer returns a scorer. Without options it is deterministic.
func NewScorer(opts ...Option) *Scorer {
	s := &Scorer{noise: Identity}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Score returns the similarity of a and b after noise.
func (s *Scorer) Score(a, b media.Item) float64 {
	base := s.Base(a, b)
	if base == 0 {
		return 0
	}
	return clamp01(s.noise(base))
}

// Base returns the deterministic weighted score before noise. Items of
// different kinds, or of kinds other than photo and video, score 0.
func (s *Scorer) Base(a, b media.Item) float64 {
	if a.Kind != b.Kind {
		return 0
	}
	switch a.Kind {
	case media.KindPhoto:
		return photoScore(a, b)
	case media.KindVideo:
		return videoScore(a, b)
	default:
		return 0
	}
}

func photoScore(a, b media.Item) float64 {
	sum := photoAspectWeight*aspectSimilarity(a, b) +
		photoResolutionWeight*ratioSimilarity(float64(a.Pixels()), float64(b.Pixels())) +
		photoSizeWeight*ratioSimilarity(float64(a.Size), float64(b.Size)) +
		photoTimeWeight*timeSimilarity(a.CreatedAt, b.CreatedAt, photoTimeWindow) +
		photoKindBonus

	// Normalised so an item compared with itself scores exactly 1.
	return clamp01(sum / photoWeightTotal)
}

func videoScore(a, b media.Item) float64 {
	frame := (aspectSimilarity(a, b) + ratioSimilarity(float64(a.Pixels()), float64(b.Pixels()))) / 2

	sum := videoDurationWeight*ratioSimilarity(a.Duration.Seconds(), b.Duration.Seconds()) +
		videoFrameWeight*frame +
		videoSizeWeight*ratioSimilarity(float64(a.Size), float64(b.Size)) +
		videoTimeWeight*timeSimilarity(a.CreatedAt, b.CreatedAt, videoTimeWindow)

	return clamp01(sum)
}

// aspectSimilarity is 1 - |ar(a) - ar(b)|, floored at 0.
func aspectSimilarity(a, b media.Item) float64 {
	return clamp01(1 - math.Abs(a.AspectRatio()-b.AspectRatio()))
}

// ratioSimilarity is 1 - |x - y| / max(x, y). Two zeros are identical.
func ratioSimilarity(x, y float64) float64 {
	hi := math.Max(x, y)
	if hi <= 0 {
		return 1
	}
	return clamp01(1 - math.Abs(x-y)/hi)
}

// timeSimilarity decays linearly to 0 at window.
func timeSimilarity(a, b time.Time, window time.Duration) float64 {
	delta := a.Sub(b)
	if delta < 0 {
		delta = -delta
	}
	return math.Max(0, 1-delta.Seconds()/window.Seconds())
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
