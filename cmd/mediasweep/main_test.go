package main

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mediasweep/internal/media"
	"mediasweep/internal/recyclebin"
	"mediasweep/internal/startup"
)

type testEnv struct {
	library  string
	database string
	config   string
}

// newTestEnv writes a config file pointing at a temporary library that holds
// two identical photos and one unrelated photo.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	for _, k := range []string{
		"LIBRARY_DIR", "FILES_DIR", "DATABASE_DIR", "PHOTO_THRESHOLD", "VIDEO_THRESHOLD",
		"SIMILARITY_NOISE", "DETECTOR_WORKERS", "INDEX_WORKERS", "LOG_LEVEL", "DEBUG", "CONFIG_PATH",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}

	env := &testEnv{
		library:  filepath.Join(t.TempDir(), "library"),
		database: filepath.Join(t.TempDir(), "db"),
	}
	writePNG(t, filepath.Join(env.library, "2024", "beach.png"), 64, 48)
	writePNG(t, filepath.Join(env.library, "2024", "beach copy.png"), 64, 48)
	writePNG(t, filepath.Join(env.library, "2023", "tower.png"), 10, 80)

	env.config = filepath.Join(t.TempDir(), "config.yaml")
	body := "library_dir: " + env.library + "\ndatabase_dir: " + env.database + "\n"
	require.NoError(t, os.WriteFile(env.config, []byte(body), 0o600))
	return env
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	require.NoError(t, png.Encode(f, img))
}

func (e *testEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", e.config}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (e *testEnv) binItems(t *testing.T) []media.Item {
	t.Helper()
	out, err := e.run(t, "bin", "list", "--json")
	require.NoError(t, err)
	var items []media.Item
	require.NoError(t, json.Unmarshal([]byte(out), &items))
	return items
}

func countFiles(t *testing.T, root string) int {
	t.Helper()
	n := 0
	require.NoError(t, filepath.WalkDir(root, func(_ string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			n++
		}
		return err
	}))
	return n
}

func TestVersionCommand(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "mediasweep "))

	out, err = env.run(t, "version", "--json")
	require.NoError(t, err)
	var info startup.BuildInfo
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, startup.Version, info.Version)
}

func TestScanFindsDuplicates(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "scan", "--json")
	require.NoError(t, err)

	var results []media.Item
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, media.KindPhoto, results[0].Kind)
	assert.Contains(t, results[0].Handle, "beach")
	assert.True(t, results[0].IsDuplicate)

	out, err = env.run(t, "scan")
	require.NoError(t, err)
	assert.Contains(t, out, "SCORE")
	assert.Contains(t, out, "beach")
	assert.NotContains(t, out, "tower")
}

func TestRecycleRestoreDeleteLifecycle(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "scan", "--recycle")
	require.NoError(t, err)
	assert.Contains(t, out, "Moved 1 items to the recycle bin")

	items := env.binItems(t)
	require.Len(t, items, 1)
	assert.True(t, items[0].InRecycleBin)

	out, err = env.run(t, "scan", "--json")
	require.NoError(t, err)
	assert.Equal(t, "[]", strings.TrimSpace(out), "recycled items are not scanned again")

	out, err = env.run(t, "bin", "restore", items[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Restored "+items[0].Handle)

	out, err = env.run(t, "bin", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Recycle bin is empty")

	_, err = env.run(t, "scan", "--recycle")
	require.NoError(t, err)

	_, err = env.run(t, "bin", "delete-all")
	require.ErrorIs(t, err, errConfirmationRequired)
	assert.Equal(t, 3, countFiles(t, env.library))

	out, err = env.run(t, "bin", "delete-all", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted 1 of 1 items")
	assert.Equal(t, 2, countFiles(t, env.library))
	assert.Empty(t, env.binItems(t))
}

func TestBinDeleteOne(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "scan", "--recycle")
	require.NoError(t, err)
	items := env.binItems(t)
	require.Len(t, items, 1)

	out, err := env.run(t, "bin", "delete", items[0].ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted "+items[0].ID)
	assert.NoFileExists(t, filepath.Join(env.library, filepath.FromSlash(items[0].Handle)))

	_, err = env.run(t, "bin", "delete", items[0].ID)
	require.ErrorIs(t, err, recyclebin.ErrNotFound)
}

func TestBinEmptyKeepsFiles(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "scan", "--recycle")
	require.NoError(t, err)

	_, err = env.run(t, "bin", "empty")
	require.ErrorIs(t, err, errConfirmationRequired)

	out, err := env.run(t, "bin", "empty", "--yes")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed 1 entries")
	assert.Empty(t, env.binItems(t))
	assert.Equal(t, 3, countFiles(t, env.library))
}

func TestBinRestoreUnknownID(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "bin", "restore", "missing")
	require.ErrorIs(t, err, recyclebin.ErrNotFound)

	_, err = env.run(t, "bin", "restore")
	require.Error(t, err, "at least one id is required")
}

func TestMissingConfigFile(t *testing.T) {
	env := newTestEnv(t)
	env.config = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := env.run(t, "scan")
	require.Error(t, err)
}

func TestEngineConfig(t *testing.T) {
	t.Parallel()

	cfg := &startup.Config{
		PhotoThreshold:  0.9,
		VideoThreshold:  0.7,
		DetectorWorkers: 3,
		IndexWorkers:    5,
	}

	dc := detectorConfig(cfg)
	assert.Equal(t, 0.9, dc.PhotoThreshold)
	assert.Equal(t, 0.7, dc.VideoThreshold)
	assert.Equal(t, 3, dc.NumWorkers)
	assert.Equal(t, 5, walkerConfig(cfg).NumWorkers)

	cfg.DetectorWorkers, cfg.IndexWorkers = 0, 0
	assert.Positive(t, detectorConfig(cfg).NumWorkers)
	assert.Positive(t, walkerConfig(cfg).NumWorkers)
}

func TestNewScorer(t *testing.T) {
	t.Parallel()

	a := media.Item{ID: "a", Kind: media.KindPhoto, Width: 4000, Height: 3000, Size: 1_000_000}
	b := a
	b.ID = "b"

	plain := newScorer(&startup.Config{})
	assert.Equal(t, 1.0, plain.Score(a, b))

	noisy := newScorer(&startup.Config{SimilarityNoise: true, NoiseSeed: 7})
	score := noisy.Score(a, b)
	assert.GreaterOrEqual(t, score, noiseLow)
	assert.LessOrEqual(t, score, noiseHigh)
	assert.Equal(t, 1.0, noisy.Base(a, b))
}

func TestHumanSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		bytes    int64
		expected string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 * 1024 * 1024, "5.0 MiB"},
		{3 * 1024 * 1024 * 1024, "3.0 GiB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, humanSize(tt.bytes))
	}
}

func TestRunEvery(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		runEvery(ctx, 5*time.Millisecond, func() { calls.Add(1) })
		close(done)
	}()

	assert.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("runEvery did not stop after cancel")
	}
}

func TestServerTimeouts(t *testing.T) {
	t.Parallel()

	api := newAPIServer(":0", http.NotFoundHandler())
	assert.Equal(t, 15*time.Second, api.ReadTimeout)
	assert.NotZero(t, api.ReadHeaderTimeout)
	assert.NotZero(t, api.WriteTimeout)
	assert.Equal(t, 60*time.Second, api.IdleTimeout)

	m := newMetricsServer(":0")
	assert.Equal(t, 10*time.Second, m.WriteTimeout)
	assert.NotNil(t, m.Handler)
}

func TestRootCommandTree(t *testing.T) {
	t.Parallel()

	root := newRootCmd()
	for _, path := range [][]string{
		{"serve"}, {"scan"}, {"version"},
		{"bin", "list"}, {"bin", "restore"}, {"bin", "delete"}, {"bin", "delete-all"}, {"bin", "empty"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}
