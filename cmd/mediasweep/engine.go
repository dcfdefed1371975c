package main

import (
	"context"
	"fmt"
	"time"

	"mediasweep/internal/catalog"
	"mediasweep/internal/cleaner"
	"mediasweep/internal/database"
	"mediasweep/internal/detector"
	"mediasweep/internal/filesystem"
	"mediasweep/internal/logging"
	"mediasweep/internal/memory"
	"mediasweep/internal/metrics"
	"mediasweep/internal/recyclebin"
	"mediasweep/internal/similarity"
	"mediasweep/internal/startup"
	"mediasweep/internal/thumbnail"
)

// Noise bounds used when SIMILARITY_NOISE is enabled.
const (
	noiseLow  = 0.5
	noiseHigh = 1.0
)

// engine holds the components shared by every command.
type engine struct {
	config  *startup.Config
	db      *database.Database
	library *catalog.Library
	thumbs  *thumbnail.Cache
	bin     *recyclebin.Store
	cleaner *cleaner.Cleaner
}

// engineOptions selects the optional parts of the engine.
type engineOptions struct {
	// Thumbnails enables the thumbnail cache and prewarming after scans.
	Thumbnails bool
	// Monitor pauses thumbnail prewarming under memory pressure.
	Monitor *memory.Monitor
}

func newScorer(cfg *startup.Config) *similarity.Scorer {
	if !cfg.SimilarityNoise {
		return similarity.NewScorer()
	}
	logging.Info("Similarity noise enabled (seed %d)", cfg.NoiseSeed)
	return similarity.NewScorer(similarity.WithNoise(similarity.UniformNoise(cfg.NoiseSeed, noiseLow, noiseHigh)))
}

func detectorConfig(cfg *startup.Config) detector.Config {
	dc := detector.DefaultConfig()
	dc.PhotoThreshold = cfg.PhotoThreshold
	dc.VideoThreshold = cfg.VideoThreshold
	if cfg.DetectorWorkers > 0 {
		dc.NumWorkers = cfg.DetectorWorkers
	}
	return dc
}

func walkerConfig(cfg *startup.Config) catalog.WalkerConfig {
	wc := catalog.DefaultWalkerConfig()
	if cfg.IndexWorkers > 0 {
		wc.NumWorkers = cfg.IndexWorkers
	}
	return wc
}

// openEngine opens the database and builds the catalog, recycle bin and
// cleaner. Close releases them.
func openEngine(ctx context.Context, cfg *startup.Config, opts engineOptions) (*engine, error) {
	filesystem.SetDefaultVolumeResolver(filesystem.NewVolumeResolver(map[string]string{
		"library":  cfg.LibraryDir,
		"files":    cfg.FilesDir,
		"database": cfg.DatabaseDir,
	}))
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	dbStart := time.Now()
	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	startup.LogDatabaseInit(time.Since(dbStart))

	generator := thumbnail.NewGenerator(cfg.ThumbnailSize)
	library := catalog.NewLibrary(cfg.LibraryDir, generator, catalog.WithWalkerConfig(walkerConfig(cfg)))
	thumbs := thumbnail.NewCache(cfg.ThumbnailTTL, thumbnail.DefaultCleanupInterval)

	bin := recyclebin.Open(ctx, library, db, recyclebin.WithThumbnailCache(thumbs))
	startup.LogRecycleBinInit(bin.Count(), bin.TotalSize())

	copts := cleaner.Options{
		ThumbnailSize: cfg.ThumbnailSize,
		State:         db,
		FilesDir:      cfg.FilesDir,
	}
	if opts.Thumbnails {
		copts.Thumbnails = thumbs
	}
	if opts.Monitor != nil {
		copts.Memory = opts.Monitor
		thumbs.SetPauser(opts.Monitor)
	}
	c := cleaner.New(library, detector.New(newScorer(cfg), detectorConfig(cfg)), bin, copts)
	c.Start()

	return &engine{
		config:  cfg,
		db:      db,
		library: library,
		thumbs:  thumbs,
		bin:     bin,
		cleaner: c,
	}, nil
}

// Close stops background work and closes the database.
func (e *engine) Close() {
	e.cleaner.Close()
	if err := e.db.Close(); err != nil {
		logging.Warn("Failed to close database: %v", err)
	}
}
