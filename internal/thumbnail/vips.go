package thumbnail

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"sync"

	"mediasweep/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/disintegration/imaging"
)

// ErrVipsUnavailable is returned by LoadWithVips before InitVips has run.
var ErrVipsUnavailable = errors.New("libvips not available")

var (
	vipsMu        sync.Mutex
	vipsStarted   bool
	vipsAvailable bool
)

// vipsLogSettings maps the application log level to the minimum libvips
// level that is forwarded.
func vipsLogSettings(level logging.LogLevel) vips.LogLevel {
	switch level {
	case logging.LevelDebug:
		return vips.LogLevelInfo
	case logging.LevelInfo:
		return vips.LogLevelWarning
	case logging.LevelWarn:
		return vips.LogLevelError
	default:
		return vips.LogLevelCritical
	}
}

func forwardVipsLog(domain string, level vips.LogLevel, msg string) {
	switch level {
	case vips.LogLevelError, vips.LogLevelCritical:
		logging.Error("[%s] %s", domain, msg)
	case vips.LogLevelWarning:
		logging.Warn("[%s] %s", domain, msg)
	default:
		logging.Debug("[%s] %s", domain, msg)
	}
}

// InitVips starts libvips once per process. Logging is configured before
// startup so LOG_LEVEL also governs libvips output.
func InitVips() error {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsStarted {
		return nil
	}

	vips.LoggingSettings(forwardVipsLog, vipsLogSettings(logging.GetLevel()))

	// Thumbnails are small; keep the libvips operation cache tight.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsStarted = true
	vipsAvailable = true
	logging.Info("libvips initialized (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips. govips cannot be restarted afterwards.
func ShutdownVips() {
	vipsMu.Lock()
	defer vipsMu.Unlock()

	if vipsStarted {
		vips.Shutdown()
		vipsStarted = false
		vipsAvailable = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable reports whether InitVips has run.
func IsVipsAvailable() bool {
	vipsMu.Lock()
	defer vipsMu.Unlock()
	return vipsAvailable
}

// LoadWithVips decodes path with decode-time shrinking so that the full
// resolution bitmap is never materialized, and returns an image no larger
// than size x size.
func LoadWithVips(path string, size int) (image.Image, error) {
	if !IsVipsAvailable() {
		return nil, ErrVipsUnavailable
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	logging.Debug("Vips loaded %s: %dx%d, shrinking to %d", filepath.Base(path), ref.Width(), ref.Height(), size)

	if err := ref.Thumbnail(size, size, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	buf, _, err := ref.ExportJpeg(&vips.JpegExportParams{Quality: 95, OptimizeCoding: true})
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	img, err := imaging.Decode(bytes.NewReader(buf), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to decode vips output: %w", err)
	}
	return img, nil
}
