package detector

import (
	"sort"

	"mediasweep/internal/media"
)

// SortPhotos orders photos by similarity score, highest first.
func SortPhotos(items []media.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].SimilarityScore != items[j].SimilarityScore {
			return items[i].SimilarityScore > items[j].SimilarityScore
		}
		return items[i].ID < items[j].ID
	})
}

// SortVideos orders videos by size, largest first.
func SortVideos(items []media.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Size != items[j].Size {
			return items[i].Size > items[j].Size
		}
		return items[i].ID < items[j].ID
	})
}

// SortForPresentation splits duplicates by kind, sorts each group for display
// and returns photos followed by videos.
func SortForPresentation(items []media.Item) []media.Item {
	var photos, videos []media.Item
	for _, it := range items {
		if it.Kind == media.KindVideo {
			videos = append(videos, it)
		} else {
			photos = append(photos, it)
		}
	}
	SortPhotos(photos)
	SortVideos(videos)
	return append(photos, videos...)
}
