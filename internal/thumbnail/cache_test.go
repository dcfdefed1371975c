package thumbnail

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "0:00"},
		{5 * time.Second, "0:05"},
		{65 * time.Second, "1:05"},
		{59*time.Minute + 59*time.Second, "59:59"},
		{time.Hour, "1:00:00"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{1500 * time.Millisecond, "0:02"},
		{-time.Second, "0:00"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDuration(tt.in))
		})
	}
}

func TestCacheGetPutInvalidate(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute, time.Minute)

	_, ok := c.Get("a")
	assert.False(t, ok)

	c.Put("a", Entry{JPEG: []byte{1}})
	got, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, []byte{1}, got.JPEG)

	c.Put("a", Entry{JPEG: []byte{2}})
	got, _ = c.Get("a")
	assert.Equal(t, []byte{2}, got.JPEG)

	c.Invalidate("a")
	_, ok = c.Get("a")
	assert.False(t, ok)

	c.Invalidate("missing")
}

func TestCacheStatusAndClear(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute, time.Minute)
	c.Put("photo", Entry{JPEG: []byte{1}})
	c.Put("video-1", Entry{JPEG: []byte{1}, DurationLabel: "0:10"})
	c.Put("video-2", Entry{JPEG: []byte{1}, DurationLabel: "1:00:00"})

	count, durations := c.Status()
	assert.Equal(t, 3, count)
	assert.Equal(t, 2, durations)

	c.Clear()
	c.Clear()
	count, durations = c.Status()
	assert.Zero(t, count)
	assert.Zero(t, durations)

	c.Put("after", Entry{})
	c.ClearUnderPressure()
	count, _ = c.Status()
	assert.Zero(t, count)
}

func TestCacheEntriesExpire(t *testing.T) {
	t.Parallel()

	c := NewCache(20*time.Millisecond, time.Hour)
	c.Put("a", Entry{})

	assert.Eventually(t, func() bool {
		_, ok := c.Get("a")
		return !ok
	}, time.Second, 5*time.Millisecond)

	count, _ := c.Status()
	assert.Zero(t, count)
}

func TestCachePutAfterClearIsRetained(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute, time.Minute)
	c.Put("a", Entry{})
	c.Clear()
	c.Put("b", Entry{})

	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)
}

func TestCacheConcurrentPutAndClear(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c.Put(fmt.Sprintf("%d-%d", i, j), Entry{DurationLabel: "0:01"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.Clear()
				c.Status()
			}
		}()
	}
	wg.Wait()

	count, durations := c.Status()
	assert.Equal(t, count, durations)
	assert.LessOrEqual(t, count, 8*200)
}

func TestGetOrFetch(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute, time.Minute)
	var calls atomic.Int32
	fetch := func(_ context.Context, ref string) (Entry, error) {
		calls.Add(1)
		if ref == "bad" {
			return Entry{}, errors.New("decode failed")
		}
		return Entry{JPEG: []byte(ref)}, nil
	}

	e, err := c.GetOrFetch(context.Background(), "good", fetch)
	require.NoError(t, err)
	assert.Equal(t, []byte("good"), e.JPEG)

	_, err = c.GetOrFetch(context.Background(), "good", fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 1, calls.Load())

	_, err = c.GetOrFetch(context.Background(), "bad", fetch)
	require.Error(t, err)
	_, ok := c.Get("bad")
	assert.False(t, ok)
}

func TestGetOrFetchSharesConcurrentLoads(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute, time.Minute)
	release := make(chan struct{})
	var calls atomic.Int32
	fetch := func(_ context.Context, ref string) (Entry, error) {
		calls.Add(1)
		<-release
		return Entry{JPEG: []byte(ref)}, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	var started sync.WaitGroup
	results := make([]Entry, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		started.Add(1)
		go func() {
			defer wg.Done()
			started.Done()
			e, err := c.GetOrFetch(context.Background(), "clip.mp4", fetch)
			assert.NoError(t, err)
			results[i] = e
		}()
	}
	started.Wait()
	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.EqualValues(t, 1, calls.Load())
	for _, e := range results {
		assert.Equal(t, []byte("clip.mp4"), e.JPEG)
	}
}

type fakePauser struct{ paused atomic.Bool }

func (p *fakePauser) IsPaused() bool { return p.paused.Load() }

func TestPrewarmStopsUnderMemoryPressure(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute, time.Minute)
	p := &fakePauser{}
	p.paused.Store(true)
	c.SetPauser(p)

	var calls atomic.Int32
	fetch := func(_ context.Context, ref string) (Entry, error) {
		calls.Add(1)
		return Entry{JPEG: []byte(ref)}, nil
	}

	c.Prewarm(context.Background(), []string{"a", "b", "c"}, fetch)
	assert.Zero(t, calls.Load())
	count, _ := c.Status()
	assert.Zero(t, count)

	p.paused.Store(false)
	c.Prewarm(context.Background(), []string{"a", "b", "c"}, fetch)
	assert.EqualValues(t, 3, calls.Load())

	// GetOrFetch serves on demand regardless of pressure.
	p.paused.Store(true)
	_, err := c.GetOrFetch(context.Background(), "d", fetch)
	require.NoError(t, err)
	assert.EqualValues(t, 4, calls.Load())
}

func TestPrewarmSkipsFailuresAndCachedEntries(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute, time.Minute)
	c.Put("cached", Entry{JPEG: []byte("old")})

	var mu sync.Mutex
	fetched := map[string]int{}
	fetch := func(_ context.Context, ref string) (Entry, error) {
		mu.Lock()
		fetched[ref]++
		mu.Unlock()
		if ref == "corrupt" {
			return Entry{}, errors.New("decode failed")
		}
		return Entry{JPEG: []byte(ref)}, nil
	}

	c.Prewarm(context.Background(), []string{"a", "b", "corrupt", "cached"}, fetch)

	count, _ := c.Status()
	assert.Equal(t, 3, count)
	_, ok := c.Get("corrupt")
	assert.False(t, ok)
	e, _ := c.Get("cached")
	assert.Equal(t, []byte("old"), e.JPEG)
	assert.Zero(t, fetched["cached"])
	assert.Equal(t, 1, fetched["a"])
}

func TestPrewarmStopsOnCancel(t *testing.T) {
	t.Parallel()

	c := NewCache(time.Minute, time.Minute)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	c.Prewarm(ctx, []string{"a", "b", "c"}, func(context.Context, string) (Entry, error) {
		calls.Add(1)
		return Entry{}, nil
	})

	assert.Zero(t, calls.Load())
}
