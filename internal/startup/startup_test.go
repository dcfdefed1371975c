package startup

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv isolates Read from the process environment and any config.yaml
// in the working directory.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LIBRARY_DIR", "FILES_DIR", "DATABASE_DIR", "PORT", "METRICS_PORT",
		"METRICS_ENABLED", "LOG_HEALTH_CHECKS", "PHOTO_THRESHOLD", "VIDEO_THRESHOLD",
		"SIMILARITY_NOISE", "NOISE_SEED", "SCAN_INTERVAL", "WATCH_LIBRARY", "WATCH_DEBOUNCE", "THUMBNAIL_SIZE",
		"THUMBNAIL_TTL", "DETECTOR_WORKERS", "INDEX_WORKERS", "MEMORY_LIMIT", "MEMORY_RATIO",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "config.yaml"))
}

func writeConfig(t *testing.T, body string) {
	t.Helper()
	path := os.Getenv("CONFIG_PATH")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestReadDefaults(t *testing.T) {
	clearEnv(t)
	writeConfig(t, "{}\n")

	cfg, err := Read()
	require.NoError(t, err)
	assert.Equal(t, "/library", cfg.LibraryDir)
	assert.Equal(t, "/database", cfg.DatabaseDir)
	assert.Equal(t, "/database/mediasweep.db", cfg.DatabasePath)
	assert.Equal(t, "8080", cfg.Port)
	assert.True(t, cfg.MetricsEnabled)
	assert.Equal(t, 0.85, cfg.PhotoThreshold)
	assert.Equal(t, 0.80, cfg.VideoThreshold)
	assert.False(t, cfg.SimilarityNoise)
	assert.Equal(t, 200, cfg.ThumbnailSize)
	assert.Equal(t, 30*time.Minute, cfg.ThumbnailTTL)
	assert.Equal(t, time.Duration(0), cfg.ScanInterval)
	assert.False(t, cfg.WatchLibrary)
	assert.Equal(t, 10*time.Second, cfg.WatchDebounce)
	assert.Equal(t, 0.85, cfg.MemoryRatio)
}

func TestReadFileAndEnvOverride(t *testing.T) {
	clearEnv(t)
	writeConfig(t, `
library_dir: /photos
photo_threshold: 0.9
thumbnail_ttl: 5m
similarity_noise: true
`)
	t.Setenv("PHOTO_THRESHOLD", "0.95")
	t.Setenv("DETECTOR_WORKERS", "3")

	cfg, err := Read()
	require.NoError(t, err)
	assert.Equal(t, "/photos", cfg.LibraryDir)
	assert.Equal(t, 0.95, cfg.PhotoThreshold, "env wins over file")
	assert.Equal(t, 5*time.Minute, cfg.ThumbnailTTL)
	assert.True(t, cfg.SimilarityNoise)
	assert.Equal(t, 3, cfg.DetectorWorkers)
}

func TestReadMissingExplicitFile(t *testing.T) {
	clearEnv(t)

	_, err := Read()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config: file")
}

func TestValidate(t *testing.T) {
	t.Parallel()

	valid := func() Config {
		return Config{
			LibraryDir: "/l", DatabaseDir: "/d", Port: "8080", MetricsPort: "9090", MetricsEnabled: true,
			PhotoThreshold: 0.85, VideoThreshold: 0.8, ThumbnailSize: 200, ThumbnailTTL: time.Minute,
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "threshold above one", mutate: func(c *Config) { c.PhotoThreshold = 1.5 }, wantErr: "PHOTO_THRESHOLD"},
		{name: "zero video threshold", mutate: func(c *Config) { c.VideoThreshold = 0 }, wantErr: "VIDEO_THRESHOLD"},
		{name: "no port", mutate: func(c *Config) { c.Port = "" }, wantErr: "PORT"},
		{name: "metrics without port", mutate: func(c *Config) { c.MetricsPort = "" }, wantErr: "METRICS_PORT"},
		{name: "metrics disabled without port", mutate: func(c *Config) { c.MetricsEnabled = false; c.MetricsPort = "" }},
		{name: "bad thumbnail size", mutate: func(c *Config) { c.ThumbnailSize = 0 }, wantErr: "THUMBNAIL_SIZE"},
		{name: "negative workers", mutate: func(c *Config) { c.IndexWorkers = -1 }, wantErr: "worker"},
		{name: "negative interval", mutate: func(c *Config) { c.ScanInterval = -time.Second }, wantErr: "SCAN_INTERVAL"},
		{name: "watch without debounce", mutate: func(c *Config) { c.WatchLibrary = true }, wantErr: "WATCH_DEBOUNCE"},
		{name: "debounce ignored when not watching", mutate: func(c *Config) { c.WatchDebounce = 0 }},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadConfigPreparesDatabaseDir(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	library := filepath.Join(root, "library")
	require.NoError(t, os.Mkdir(library, 0o755))
	t.Setenv("LIBRARY_DIR", library)
	t.Setenv("DATABASE_DIR", filepath.Join(root, "db", "nested"))
	writeConfig(t, "{}\n")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.DirExists(t, cfg.DatabaseDir)
	assert.Equal(t, filepath.Join(root, "db", "nested", "mediasweep.db"), cfg.DatabasePath)
}

func TestLoadConfigDatabaseDirIsFile(t *testing.T) {
	clearEnv(t)
	file := filepath.Join(t.TempDir(), "not-a-dir")
	require.NoError(t, os.WriteFile(file, nil, 0o600))
	t.Setenv("DATABASE_DIR", file)
	writeConfig(t, "{}\n")

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database directory error")
}

func TestGetRouteGroup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"/health", "health"},
		{"/api/bin", "api/bin"},
		{"/api/bin/{id}/restore", "api/bin"},
		{"/api", "api"},
		{"/", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, getRouteGroup(tt.path), tt.path)
	}
}

func TestGetRoutes(t *testing.T) {
	t.Parallel()

	r := mux.NewRouter()
	noop := func(http.ResponseWriter, *http.Request) {}
	r.HandleFunc("/api/bin", noop).Methods(http.MethodGet, http.MethodDelete).Name("bin")
	r.HandleFunc("/health", noop)

	routes, err := GetRoutes(r)
	require.NoError(t, err)
	assert.ElementsMatch(t, []RouteInfo{
		{Method: http.MethodGet, Path: "/api/bin", Name: "bin"},
		{Method: http.MethodDelete, Path: "/api/bin", Name: "bin"},
		{Method: "*", Path: "/health"},
	}, routes)
}

func TestDirectoryHelpers(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	assert.NoError(t, checkDirectory(dir, "test"))
	assert.Error(t, checkDirectory(filepath.Join(dir, "missing"), "test"))

	created := filepath.Join(dir, "a", "b")
	require.NoError(t, ensureDirectory(created, "test"))
	assert.DirExists(t, created)
	assert.NoError(t, testWriteAccess(created))
	assert.NoFileExists(t, filepath.Join(created, ".write-test"))
}

func TestGetBuildInfo(t *testing.T) {
	t.Parallel()

	info := GetBuildInfo()
	assert.Equal(t, Version, info.Version)
	assert.NotEmpty(t, info.GoVersion)
	assert.NotEmpty(t, info.OS)
}
