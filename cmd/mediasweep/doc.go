// Package main provides the mediasweep command.
//
// mediasweep finds near-duplicate photos and videos in a media library and
// manages a recycle bin of items the user chose to remove. Nothing is deleted
// until an item is permanently deleted from the bin.
//
// # Commands
//
//   - serve: runs the JSON HTTP API and, optionally, periodic scans
//   - scan: runs one scan and prints the duplicates found
//   - bin list|restore|delete|delete-all|empty: manages the recycle bin
//   - version: prints build information
//
// # Application Lifecycle (serve)
//
//  1. Configuration Loading: reads CONFIG_PATH and environment variables and
//     validates directories
//  2. Memory Configuration: sets GOMEMLIMIT from MEMORY_LIMIT
//  3. Database Initialization: opens the SQLite recycle bin store
//  4. Component Initialization:
//     - Memory Monitor: clears the thumbnail cache under pressure
//     - Thumbnail Generator: libvips with an imaging fallback
//     - Library: the catalog provider over LIBRARY_DIR
//     - Recycle Bin: reloads entries, dropping those that no longer resolve
//     - Cleaner: scans, results and user decisions
//     - Metrics Collector: Prometheus gauges every minute
//  5. HTTP Server Setup: routes, middleware and the metrics server
//  6. Graceful Shutdown: SIGINT/SIGTERM stop scans and servers cleanly
//
// # Environment Variables
//
//   - LIBRARY_DIR: root of the photo and video library (default: /library)
//   - FILES_DIR: optional directory of audio and document files
//   - DATABASE_DIR: directory for the SQLite database (default: /database)
//   - PORT: API server port (default: 8080)
//   - METRICS_PORT: metrics server port (default: 9090)
//   - METRICS_ENABLED: enable the metrics server (default: true)
//   - PHOTO_THRESHOLD, VIDEO_THRESHOLD: similarity thresholds
//   - SIMILARITY_NOISE, NOISE_SEED: seeded score noise
//   - SCAN_INTERVAL: periodic scan interval, 0 disables (default: 0s)
//   - WATCH_LIBRARY, WATCH_DEBOUNCE: rescan when the library changes
//   - THUMBNAIL_SIZE, THUMBNAIL_TTL: thumbnail cache settings
//   - DETECTOR_WORKERS, INDEX_WORKERS: worker pool sizes
//   - MEMORY_LIMIT, MEMORY_RATIO: GOMEMLIMIT configuration
//   - LOG_LEVEL: debug, info, warn or error
//
// # Build Requirements
//
// CGO is required for SQLite and libvips. FFmpeg and ffprobe are used for
// video frames and durations when present.
//
//	go build -o mediasweep ./cmd/mediasweep
package main
