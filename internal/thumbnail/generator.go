package thumbnail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"os/exec"
	"time"

	"mediasweep/internal/filesystem"
	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/metrics"

	"github.com/disintegration/imaging"
)

const (
	// DefaultSize is the edge length thumbnails are fitted into.
	DefaultSize = 200

	// DefaultQuality is the JPEG quality of cached thumbnails.
	DefaultQuality = 80
)

// ErrUnsupportedKind is returned for kinds that have no visual thumbnail.
var ErrUnsupportedKind = errors.New("thumbnail: unsupported kind")

// Generator decodes photos and video frames into thumbnails.
type Generator struct {
	size    int
	quality int
	// ffmpeg is the resolved ffmpeg binary, empty when not installed
	ffmpeg string
}

// NewGenerator creates a generator that fits thumbnails into size x size.
func NewGenerator(size int) *Generator {
	if size <= 0 {
		size = DefaultSize
	}
	g := &Generator{size: size, quality: DefaultQuality}
	if path, err := exec.LookPath("ffmpeg"); err == nil {
		g.ffmpeg = path
	} else {
		logging.Debug("ffmpeg not found, video thumbnails disabled")
	}
	return g
}

// Size returns the configured thumbnail edge length.
func (g *Generator) Size() int {
	return g.size
}

// Generate returns a thumbnail of the file at path that fits in size x size.
// A non-positive size uses the generator default.
func (g *Generator) Generate(ctx context.Context, path string, kind media.Kind, size int) (image.Image, error) {
	if size <= 0 {
		size = g.size
	}

	if _, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig()); err != nil {
		return nil, fmt.Errorf("file not accessible: %w", err)
	}

	start := time.Now()
	var img image.Image
	var err error
	switch kind {
	case media.KindPhoto:
		img, err = g.decodePhoto(ctx, path, size)
	case media.KindVideo:
		img, err = g.extractFrame(ctx, path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedKind, kind)
	}

	status := "success"
	if err != nil {
		status = "error"
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues(string(kind), status).Inc()
	metrics.ThumbnailGenerationDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		return nil, err
	}
	return imaging.Fit(img, size, size, imaging.Lanczos), nil
}

// Entry builds a cache entry for a file: the JPEG-encoded thumbnail plus a
// duration label for videos.
func (g *Generator) Entry(ctx context.Context, path string, kind media.Kind, duration time.Duration) (Entry, error) {
	img, err := g.Generate(ctx, path, kind, g.size)
	if err != nil {
		return Entry{}, err
	}
	return NewEntry(img, kind, duration, g.quality)
}

// decodePhoto tries libvips, then imaging, then ffmpeg.
func (g *Generator) decodePhoto(ctx context.Context, path string, size int) (image.Image, error) {
	if IsVipsAvailable() {
		img, err := LoadWithVips(path, size)
		if err == nil {
			return img, nil
		}
		logging.Debug("vips decode failed for %s: %v, trying imaging", path, err)
	}

	img, err := loadConstrained(path, MaxImageDimension, MaxImagePixels)
	if err == nil {
		return img, nil
	}
	logging.Debug("imaging decode failed for %s: %v, trying ffmpeg", path, err)

	img, ffErr := g.ffmpegFrame(ctx, path, "")
	if ffErr != nil {
		return nil, fmt.Errorf("all image decode methods failed for %s: %w", path, errors.Join(err, ffErr))
	}
	return img, nil
}

// extractFrame grabs a frame one second in, falling back to the first frame
// for clips shorter than that.
func (g *Generator) extractFrame(ctx context.Context, path string) (image.Image, error) {
	img, err := g.ffmpegFrame(ctx, path, "00:00:01")
	if err == nil {
		return img, nil
	}
	logging.Debug("ffmpeg seek failed for %s: %v, using first frame", path, err)
	return g.ffmpegFrame(ctx, path, "")
}

func (g *Generator) ffmpegFrame(ctx context.Context, path, seek string) (image.Image, error) {
	if g.ffmpeg == "" {
		return nil, errors.New("ffmpeg not found")
	}

	args := []string{"-i", path}
	if seek != "" {
		args = append(args, "-ss", seek)
	}
	args = append(args, "-vframes", "1", "-f", "image2pipe", "-vcodec", "png", "-")

	cmd := exec.CommandContext(ctx, g.ffmpeg, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w, stderr: %s", err, stderr.String())
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("ffmpeg produced no output for %s", path)
	}

	img, _, err := image.Decode(&stdout)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ffmpeg output: %w", err)
	}
	return img, nil
}

// EncodeJPEG encodes img as a JPEG at the given quality.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("failed to encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
