package catalog

import (
	"context"
	"errors"
	"image"

	"mediasweep/internal/media"
)

// ErrProviderUnavailable is returned when the catalog cannot be read at all,
// for example because access was denied or the library is not mounted.
var ErrProviderUnavailable = errors.New("catalog: provider unavailable")

// Provider is a media catalog that owns photo and video assets.
type Provider interface {
	// ListAssets returns every photo and video asset in the catalog.
	ListAssets(ctx context.Context) ([]media.AssetDescriptor, error)

	// DeleteAssets deletes the given assets in one request. The returned
	// handles are the ones confirmed deleted, which may be a subset of
	// handles even when err is nil.
	DeleteAssets(ctx context.Context, handles []string) (deleted []string, err error)

	// RequestThumbnail returns an image of the asset fitted into size x size.
	RequestThumbnail(ctx context.Context, handle string, size int) (image.Image, error)

	// Resolve reports whether handle still refers to an existing asset.
	Resolve(ctx context.Context, handle string) bool
}
