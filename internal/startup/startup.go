package startup

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"mediasweep/internal/logging"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// LoadConfig reads the configuration, logs it, and prepares directories.
// The database directory must be writable; the library directory only has
// to exist.
func LoadConfig() (*Config, error) {
	printBanner()
	logSystemInfo()

	cfg, err := Read()
	if err != nil {
		return nil, err
	}

	section("CONFIGURATION")
	logging.Info("  LIBRARY_DIR:         %s", cfg.LibraryDir)
	logging.Info("  FILES_DIR:           %s", valueOr(cfg.FilesDir, "(disabled)"))
	logging.Info("  DATABASE_DIR:        %s", cfg.DatabaseDir)
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  PHOTO_THRESHOLD:     %.2f", cfg.PhotoThreshold)
	logging.Info("  VIDEO_THRESHOLD:     %.2f", cfg.VideoThreshold)
	logging.Info("  SIMILARITY_NOISE:    %v (seed %d)", cfg.SimilarityNoise, cfg.NoiseSeed)
	logging.Info("  SCAN_INTERVAL:       %s", durationOr(cfg.ScanInterval, "(manual only)"))
	logging.Info("  WATCH_LIBRARY:       %v (debounce %s)", cfg.WatchLibrary, cfg.WatchDebounce)
	logging.Info("  THUMBNAIL_SIZE:      %d", cfg.ThumbnailSize)
	logging.Info("  THUMBNAIL_TTL:       %s", cfg.ThumbnailTTL)
	logging.Info("  DETECTOR_WORKERS:    %s", workersString(cfg.DetectorWorkers))
	logging.Info("  INDEX_WORKERS:       %s", workersString(cfg.IndexWorkers))
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	logging.Info("")
	section("DIRECTORY SETUP")

	if cfg.LibraryDir, err = filepath.Abs(cfg.LibraryDir); err != nil {
		return nil, fmt.Errorf("failed to resolve library directory path: %w", err)
	}
	logging.Info("  Library directory (absolute): %s", cfg.LibraryDir)

	if cfg.DatabaseDir, err = filepath.Abs(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}
	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "mediasweep.db")
	logging.Info("  Database directory (absolute): %s", cfg.DatabaseDir)

	if cfg.FilesDir != "" {
		if cfg.FilesDir, err = filepath.Abs(cfg.FilesDir); err != nil {
			return nil, fmt.Errorf("failed to resolve files directory path: %w", err)
		}
		if err := checkDirectory(cfg.FilesDir, "files"); err != nil {
			logging.Warn("  Files directory issue: %v", err)
		}
	}

	// The library is mounted, never created.
	if err := checkDirectory(cfg.LibraryDir, "library"); err != nil {
		logging.Warn("  Library directory issue: %v", err)
	}

	if err := ensureDirectory(cfg.DatabaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	logging.Debug("  Testing database directory write access...")
	if err := testWriteAccess(cfg.DatabaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database directory is writable")

	return cfg, nil
}

func section(title string) {
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func durationOr(d time.Duration, fallback string) string {
	if d <= 0 {
		return fallback
	}
	return d.String()
}

func workersString(n int) string {
	if n <= 0 {
		return "auto"
	}
	return fmt.Sprintf("%d", n)
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	logging.Info("")
	section("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogRecycleBinInit logs the recycle bin state loaded from the database.
func LogRecycleBinInit(count int, totalBytes int64) {
	logging.Info("")
	section("RECYCLE BIN")
	logging.Info("  Items:       %d", count)
	logging.Info("  Total size:  %.1f MB", float64(totalBytes)/(1024*1024))
}

// LogThumbnailInit logs decoder availability for thumbnails.
func LogThumbnailInit(vipsAvailable bool) {
	logging.Info("")
	section("THUMBNAIL INITIALIZATION")
	if vipsAvailable {
		logging.Info("  [OK] libvips is available")
	} else {
		logging.Info("  libvips unavailable, using pure Go decoders")
	}
	if err := checkFFmpeg(); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Video thumbnails and durations will be unavailable")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs the registered routes at debug level, grouped by
// prefix.
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	section("HTTP SERVER SETUP")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}

		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")

	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with all endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	section("SERVER STARTED")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("")
	logging.Info("  Endpoints:")
	logging.Info("    API:           http://0.0.0.0:%s/api", config.Port)
	if config.MetricsEnabled {
		logging.Info("    Metrics:       http://0.0.0.0:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("    Metrics:       DISABLED")
	}
	logging.Info("")
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
	logging.Info("")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	section(fmt.Sprintf("SHUTDOWN INITIATED (received %s)", signal))
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
                  _ _
  _ __  ___ _ __| (_)__ _   ____ __ _____ ___ _ __
 | '  \/ -_) _' | / _' | (_-< V  V / -_) -_) '_ \
 |_|_|_\___\__,_|_\__,_| /__/\_/\_/\___\___| .__/
                                           |_|
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
	logging.Info("")
}

// checkDirectory verifies path is an existing directory without creating it.
func checkDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}
	logging.Debug("    [OK] Directory exists")
	return nil
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, "ffmpeg", "-version").Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	if first, _, _ := strings.Cut(string(output), "\n"); first != "" {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(first))
	}
	return nil
}
