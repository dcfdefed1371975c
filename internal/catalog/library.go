package catalog

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path"
	"path/filepath"
	"strings"
	"time"

	"mediasweep/internal/filesystem"
	"mediasweep/internal/logging"
	"mediasweep/internal/media"
	"mediasweep/internal/mediatypes"
	"mediasweep/internal/metrics"
	"mediasweep/internal/thumbnail"
)

// ErrInvalidHandle is returned for handles that escape the library root.
var ErrInvalidHandle = errors.New("catalog: invalid handle")

// Thumbnailer renders a thumbnail for a file on disk.
type Thumbnailer interface {
	Generate(ctx context.Context, path string, kind media.Kind, size int) (image.Image, error)
}

// Library is a Provider backed by a directory tree. Every photo and video
// under the root is an asset; its handle is the slash-separated path relative
// to the root.
type Library struct {
	root        string
	config      WalkerConfig
	thumbnailer Thumbnailer
	probe       VideoProber
	retry       filesystem.RetryConfig
}

// LibraryOption configures a Library.
type LibraryOption func(*Library)

// WithWalkerConfig overrides the directory walker settings.
func WithWalkerConfig(c WalkerConfig) LibraryOption {
	return func(l *Library) { l.config = c }
}

// WithVideoProber replaces ffprobe, mostly for tests.
func WithVideoProber(p VideoProber) LibraryOption {
	return func(l *Library) { l.probe = p }
}

// NewLibrary creates a library rooted at root.
func NewLibrary(root string, thumbnailer Thumbnailer, opts ...LibraryOption) *Library {
	l := &Library{
		root:        root,
		config:      DefaultWalkerConfig(),
		thumbnailer: thumbnailer,
		probe:       FFProbe,
		retry:       filesystem.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Root returns the library directory.
func (l *Library) Root() string {
	return l.root
}

// ListAssets walks the library and describes every photo and video.
func (l *Library) ListAssets(ctx context.Context) ([]media.AssetDescriptor, error) {
	start := time.Now()
	defer func() {
		metrics.CatalogListDuration.Observe(time.Since(start).Seconds())
	}()

	info, err := filesystem.StatWithRetry(l.root, l.retry)
	if err != nil {
		metrics.CatalogErrors.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}
	if !info.IsDir() {
		metrics.CatalogErrors.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("%w: %s is not a directory", ErrProviderUnavailable, l.root)
	}

	w := newWalker(l.root, l.config, l.describe)
	assets, err := w.Walk(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return assets, ctx.Err()
		}
		metrics.CatalogErrors.WithLabelValues("list").Inc()
		return nil, fmt.Errorf("%w: %w", ErrProviderUnavailable, err)
	}

	var photos, videos int
	for _, a := range assets {
		if a.Kind == media.KindPhoto {
			photos++
		} else {
			videos++
		}
	}
	metrics.CatalogAssetsListed.WithLabelValues("photo").Set(float64(photos))
	metrics.CatalogAssetsListed.WithLabelValues("video").Set(float64(videos))
	logging.Info("Catalog listed %d photos and %d videos in %v", photos, videos, time.Since(start))

	return assets, nil
}

// describe builds the descriptor for one file. Dimensions and durations are
// best effort: an asset whose header cannot be read is still listed.
func (l *Library) describe(ctx context.Context, job walkJob) (media.AssetDescriptor, bool, error) {
	ext := strings.ToLower(filepath.Ext(job.info.Name()))
	kind, known := mediatypes.KindForExt(ext)
	if !known || !kind.IsAsset() {
		return media.AssetDescriptor{}, false, nil
	}

	desc := media.AssetDescriptor{
		Handle:    job.relPath,
		Kind:      kind,
		FileName:  job.info.Name(),
		CreatedAt: job.info.ModTime(),
		Size:      job.info.Size(),
	}

	switch kind {
	case media.KindPhoto:
		w, h, err := thumbnail.Dimensions(job.path)
		if err != nil {
			logging.Debug("No dimensions for %s: %v", job.relPath, err)
		}
		desc.Width, desc.Height = w, h
	case media.KindVideo:
		if l.probe != nil {
			vi, err := l.probe(ctx, job.path)
			if err != nil {
				logging.Debug("No video info for %s: %v", job.relPath, err)
			}
			desc.Width, desc.Height, desc.Duration = vi.Width, vi.Height, vi.Duration
		}
	}
	return desc, true, nil
}

// Path maps a handle to its absolute file path. Handles that are absolute or
// climb out of the root are rejected.
func (l *Library) Path(handle string) (string, error) {
	if handle == "" || path.IsAbs(handle) {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	clean := path.Clean(handle)
	if clean == "." || clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %q", ErrInvalidHandle, handle)
	}
	return filepath.Join(l.root, filepath.FromSlash(clean)), nil
}

// Resolve reports whether handle names an existing regular file.
func (l *Library) Resolve(_ context.Context, handle string) bool {
	p, err := l.Path(handle)
	if err != nil {
		return false
	}
	info, err := filesystem.StatWithRetry(p, l.retry)
	return err == nil && info.Mode().IsRegular()
}

// DeleteAssets removes the files behind handles. Every handle is attempted;
// the returned slice lists those actually removed and err joins the failures.
func (l *Library) DeleteAssets(ctx context.Context, handles []string) ([]string, error) {
	deleted := make([]string, 0, len(handles))
	var errs []error

	for _, h := range handles {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		p, err := l.Path(h)
		if err == nil {
			err = filesystem.RemoveFile(p)
		}
		if err != nil {
			metrics.CatalogErrors.WithLabelValues("delete").Inc()
			errs = append(errs, fmt.Errorf("delete %s: %w", h, err))
			continue
		}
		deleted = append(deleted, h)
	}

	if len(errs) > 0 {
		logging.Warn("Catalog deleted %d of %d assets", len(deleted), len(handles))
	}
	return deleted, errors.Join(errs...)
}

// RequestThumbnail renders the asset through the configured thumbnailer.
func (l *Library) RequestThumbnail(ctx context.Context, handle string, size int) (image.Image, error) {
	if l.thumbnailer == nil {
		return nil, errors.New("catalog: no thumbnailer configured")
	}
	p, err := l.Path(handle)
	if err != nil {
		return nil, err
	}
	kind, _ := mediatypes.KindForExt(strings.ToLower(filepath.Ext(p)))
	if !kind.IsAsset() {
		return nil, fmt.Errorf("%w: %q is not a photo or video", ErrInvalidHandle, handle)
	}
	return l.thumbnailer.Generate(ctx, p, kind, size)
}

var _ Provider = (*Library)(nil)
