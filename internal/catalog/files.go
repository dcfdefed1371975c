package catalog

import (
	"context"
	"fmt"

	"mediasweep/internal/media"
	"mediasweep/internal/mediatypes"
)

// ScanFiles lists the audio and document files under dir as file-backed
// items. Photos and videos are left to the catalog. Sizes come from the
// filesystem and the creation date is the modification time.
func ScanFiles(ctx context.Context, dir string) ([]media.Item, error) {
	w := newWalker(dir, DefaultWalkerConfig(), func(_ context.Context, job walkJob) (media.Item, bool, error) {
		kind := mediatypes.DetectKind(job.path)
		if kind.IsAsset() {
			return media.Item{}, false, nil
		}
		return media.NewFromFile(job.path, kind, job.info.Size(), job.info.ModTime()), true, nil
	})

	items, err := w.Walk(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return items, ctx.Err()
		}
		return nil, fmt.Errorf("scan files in %s: %w", dir, err)
	}
	return items, nil
}
