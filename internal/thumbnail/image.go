package thumbnail

import (
	"fmt"
	"image"
	"math"

	"mediasweep/internal/filesystem"
	"mediasweep/internal/logging"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxImageDimension is the largest edge decoded at full size by the
	// imaging fallback. Larger images are downscaled right after decode.
	MaxImageDimension = 4096

	// MaxImagePixels bounds the decoded bitmap (~80MB in RGBA).
	MaxImagePixels = 20_000_000
)

// Dimensions returns the pixel size of an image file by reading only its
// header. Formats without a registered decoder return an error.
func Dimensions(path string) (width, height int, err error) {
	file, err := filesystem.OpenWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return 0, 0, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			logging.Warn("failed to close image file %s: %v", path, cerr)
		}
	}()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return 0, 0, err
	}
	return cfg.Width, cfg.Height, nil
}

// constrainedSize scales width x height down to fit both limits, keeping the
// aspect ratio. ok is false when no scaling is needed.
func constrainedSize(width, height, maxDimension, maxPixels int) (w, h int, ok bool) {
	if width <= maxDimension && height <= maxDimension && width*height <= maxPixels {
		return width, height, false
	}

	w, h = width, height
	if w > maxDimension || h > maxDimension {
		if w > h {
			h = h * maxDimension / w
			w = maxDimension
		} else {
			w = w * maxDimension / h
			h = maxDimension
		}
	}

	if w*h > maxPixels {
		scale := math.Sqrt(float64(maxPixels) / float64(w*h))
		w = int(float64(w) * scale)
		h = int(float64(h) * scale)
	}
	return max(w, 1), max(h, 1), true
}

// loadConstrained opens an image with EXIF auto-orientation and downscales
// it when it exceeds maxDimension or maxPixels.
func loadConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	b := img.Bounds()
	if w, h, ok := constrainedSize(b.Dx(), b.Dy(), maxDimension, maxPixels); ok {
		logging.Debug("Constraining large image %s from %dx%d to %dx%d", path, b.Dx(), b.Dy(), w, h)
		return imaging.Resize(img, w, h, imaging.Lanczos), nil
	}
	return img, nil
}
