package startup

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all application configuration. Values come from an optional
// YAML file (CONFIG_PATH, default ./config.yaml) overridden by environment
// variables.
type Config struct {
	LibraryDir  string `yaml:"library_dir"  env:"LIBRARY_DIR"  env-default:"/library"`
	FilesDir    string `yaml:"files_dir"    env:"FILES_DIR"`
	DatabaseDir string `yaml:"database_dir" env:"DATABASE_DIR" env-default:"/database"`

	Port            string `yaml:"port"              env:"PORT"              env-default:"8080"`
	MetricsPort     string `yaml:"metrics_port"      env:"METRICS_PORT"      env-default:"9090"`
	MetricsEnabled  bool   `yaml:"metrics_enabled"   env:"METRICS_ENABLED"   env-default:"true"`
	LogHealthChecks bool   `yaml:"log_health_checks" env:"LOG_HEALTH_CHECKS" env-default:"false"`

	PhotoThreshold  float64       `yaml:"photo_threshold"  env:"PHOTO_THRESHOLD"  env-default:"0.85"`
	VideoThreshold  float64       `yaml:"video_threshold"  env:"VIDEO_THRESHOLD"  env-default:"0.80"`
	SimilarityNoise bool          `yaml:"similarity_noise" env:"SIMILARITY_NOISE" env-default:"false"`
	NoiseSeed       int64         `yaml:"noise_seed"       env:"NOISE_SEED"       env-default:"1"`
	ScanInterval    time.Duration `yaml:"scan_interval"    env:"SCAN_INTERVAL"    env-default:"0s"`
	WatchLibrary    bool          `yaml:"watch_library"    env:"WATCH_LIBRARY"    env-default:"false"`
	WatchDebounce   time.Duration `yaml:"watch_debounce"   env:"WATCH_DEBOUNCE"   env-default:"10s"`

	ThumbnailSize int           `yaml:"thumbnail_size" env:"THUMBNAIL_SIZE" env-default:"200"`
	ThumbnailTTL  time.Duration `yaml:"thumbnail_ttl"  env:"THUMBNAIL_TTL"  env-default:"30m"`

	// Zero means derive from GOMAXPROCS.
	DetectorWorkers int `yaml:"detector_workers" env:"DETECTOR_WORKERS"`
	IndexWorkers    int `yaml:"index_workers"    env:"INDEX_WORKERS"`

	MemoryLimit int64   `yaml:"memory_limit" env:"MEMORY_LIMIT"`
	MemoryRatio float64 `yaml:"memory_ratio" env:"MEMORY_RATIO" env-default:"0.85"`

	// DatabasePath is derived from DatabaseDir.
	DatabasePath string `yaml:"-" env:"-"`
}

// Read loads configuration without logging or touching directories.
// An explicit CONFIG_PATH that does not exist is an error; a missing
// default file is not.
func Read() (*Config, error) {
	var cfg Config

	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "./config.yaml"
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	} else if explicit {
		return nil, fmt.Errorf("config: file %s: %w", path, err)
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("config: read env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validate: %w", err)
	}
	cfg.DatabasePath = filepath.Join(cfg.DatabaseDir, "mediasweep.db")
	return &cfg, nil
}

// Validate checks value ranges.
func (c *Config) Validate() error {
	var errs []error
	if c.LibraryDir == "" {
		errs = append(errs, errors.New("LIBRARY_DIR is required"))
	}
	if c.DatabaseDir == "" {
		errs = append(errs, errors.New("DATABASE_DIR is required"))
	}
	if c.Port == "" {
		errs = append(errs, errors.New("PORT is required"))
	}
	if c.MetricsEnabled && c.MetricsPort == "" {
		errs = append(errs, errors.New("METRICS_PORT is required when metrics are enabled"))
	}
	if c.PhotoThreshold <= 0 || c.PhotoThreshold > 1 {
		errs = append(errs, fmt.Errorf("PHOTO_THRESHOLD must be in (0, 1], got %v", c.PhotoThreshold))
	}
	if c.VideoThreshold <= 0 || c.VideoThreshold > 1 {
		errs = append(errs, fmt.Errorf("VIDEO_THRESHOLD must be in (0, 1], got %v", c.VideoThreshold))
	}
	if c.ThumbnailSize <= 0 {
		errs = append(errs, fmt.Errorf("THUMBNAIL_SIZE must be positive, got %d", c.ThumbnailSize))
	}
	if c.ThumbnailTTL <= 0 {
		errs = append(errs, fmt.Errorf("THUMBNAIL_TTL must be positive, got %v", c.ThumbnailTTL))
	}
	if c.DetectorWorkers < 0 || c.IndexWorkers < 0 {
		errs = append(errs, errors.New("worker counts must not be negative"))
	}
	if c.WatchLibrary && c.WatchDebounce <= 0 {
		errs = append(errs, fmt.Errorf("WATCH_DEBOUNCE must be positive, got %v", c.WatchDebounce))
	}
	if c.ScanInterval < 0 {
		errs = append(errs, fmt.Errorf("SCAN_INTERVAL must not be negative, got %v", c.ScanInterval))
	}
	return errors.Join(errs...)
}
