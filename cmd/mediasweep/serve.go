package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"mediasweep/internal/catalog"
	"mediasweep/internal/handlers"
	"mediasweep/internal/logging"
	"mediasweep/internal/memory"
	"mediasweep/internal/metrics"
	"mediasweep/internal/startup"
	"mediasweep/internal/thumbnail"
)

const (
	shutdownTimeout   = 30 * time.Second
	metricsInterval   = time.Minute
	dbMetricsInterval = time.Minute
)

func newServeCmd() *cobra.Command {
	var scanOnStart bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Run the JSON HTTP API used by the UI, plus a Prometheus metrics server.

Examples:
  mediasweep serve
  mediasweep serve --scan        # start a scan as soon as the server is up
  SCAN_INTERVAL=6h mediasweep serve`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext(cmd.Context())
			defer stop()
			return serve(ctx, scanOnStart)
		},
	}

	cmd.Flags().BoolVar(&scanOnStart, "scan", false, "Start a scan immediately")
	return cmd
}

func newAPIServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

func newMetricsServer(addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handlers.NewMetricsRouter(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
	}
}

func serve(ctx context.Context, scanOnStart bool) error {
	startTime := time.Now()

	config, err := startup.LoadConfig()
	if err != nil {
		return err
	}

	memory.ConfigureLimit(config.MemoryLimit, config.MemoryRatio)
	metrics.InitializeMetrics()
	info := startup.GetBuildInfo()
	metrics.SetAppInfo(info.Version, info.Commit, info.GoVersion)

	if err := thumbnail.InitVips(); err != nil {
		logging.Warn("libvips initialization failed: %v", err)
	}
	defer thumbnail.ShutdownVips()
	startup.LogThumbnailInit(thumbnail.IsVipsAvailable())

	monitor := memory.NewMonitor(memory.DefaultConfig())

	eng, err := openEngine(ctx, config, engineOptions{Thumbnails: true, Monitor: monitor})
	if err != nil {
		return err
	}
	defer eng.Close()

	monitor.OnCritical(eng.thumbs.ClearUnderPressure)
	monitor.Start()

	collector := metrics.NewCollector(eng.cleaner, metricsInterval)
	collector.Start()

	var wg sync.WaitGroup
	bgCtx, cancelBackground := context.WithCancel(ctx)
	defer cancelBackground()

	wg.Add(1)
	go func() {
		defer wg.Done()
		runEvery(bgCtx, dbMetricsInterval, eng.db.UpdateDBMetrics)
	}()

	if config.ScanInterval > 0 {
		logging.Info("Periodic scans every %v", config.ScanInterval)
		wg.Add(1)
		go func() {
			defer wg.Done()
			runEvery(bgCtx, config.ScanInterval, func() {
				if !eng.cleaner.StartScan() {
					logging.Debug("Periodic scan skipped, a scan is already running")
				}
			})
		}()
	}

	if config.WatchLibrary {
		watcher, err := catalog.NewWatcher(config.LibraryDir, config.WatchDebounce, eng.cleaner.RequestRescan)
		if err != nil {
			logging.Warn("Library watcher disabled: %v", err)
		} else {
			logging.Info("Watching library for changes (debounce %v)", config.WatchDebounce)
			wg.Add(1)
			go func() {
				defer wg.Done()
				watcher.Run(bgCtx)
			}()
		}
	}

	router := handlers.NewRouter(handlers.New(eng.cleaner, eng.bin), handlers.RouterConfig{
		LogHealthChecks: config.LogHealthChecks,
	})
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	srv := newAPIServer(":"+config.Port, router)
	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = newMetricsServer(":" + config.MetricsPort)
		go func() {
			if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logging.Error("Metrics server error: %v", err)
			}
		}()
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})

	if scanOnStart {
		eng.cleaner.StartScan()
	}

	select {
	case err := <-serveErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		startup.LogShutdownInitiated(context.Cause(ctx).Error())
	}

	shutdown(srv, metricsSrv, collector, monitor, eng)
	cancelBackground()
	wg.Wait()
	startup.LogShutdownComplete()
	return nil
}

func shutdown(srv, metricsSrv *http.Server, collector *metrics.Collector, monitor *memory.Monitor, eng *engine) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Stopping metrics collector")
	collector.Stop()
	startup.LogShutdownStepComplete("Metrics collector stopped")

	startup.LogShutdownStep("Stopping memory monitor")
	monitor.Stop()
	startup.LogShutdownStepComplete("Memory monitor stopped")

	startup.LogShutdownStep("Cancelling scans")
	eng.cleaner.Close()
	startup.LogShutdownStepComplete("Scans cancelled")
}

// runEvery calls fn every interval until ctx is done.
func runEvery(ctx context.Context, interval time.Duration, fn func()) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}
