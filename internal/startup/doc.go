// Package startup loads configuration and produces the startup and
// shutdown log sections.
//
// # Configuration
//
// [Read] fills [Config] with cleanenv: an optional YAML file named by
// CONFIG_PATH (default ./config.yaml) supplies values, environment variables
// override them, and env-default tags fill the rest. [LoadConfig] adds the
// banner, logs every setting and prepares directories.
//
//   - LIBRARY_DIR: photo and video library root (default: /library)
//   - FILES_DIR: directory of audio and document files (optional)
//   - DATABASE_DIR: SQLite directory, must be writable (default: /database)
//   - PORT, METRICS_PORT, METRICS_ENABLED: HTTP listeners
//   - PHOTO_THRESHOLD, VIDEO_THRESHOLD: duplicate score thresholds
//   - SIMILARITY_NOISE, NOISE_SEED: seeded score jitter, off by default
//   - SCAN_INTERVAL: periodic rescan, 0 disables
//   - THUMBNAIL_SIZE, THUMBNAIL_TTL: thumbnail cache
//   - DETECTOR_WORKERS, INDEX_WORKERS: worker pool sizes, 0 means auto
//   - MEMORY_LIMIT, MEMORY_RATIO: GOMEMLIMIT derivation
//   - LOG_HEALTH_CHECKS: log /health requests
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
