package media

import (
	"math"
	"time"

	"mediasweep/internal/mediatypes"
)

const (
	// Compressed photo bytes per pixel, roughly what a phone JPEG/HEIC lands at.
	photoBytesPerPixel = 0.3

	bitrate1080p = 8_000_000
	bitrate720p  = 5_000_000
	bitrateSD    = 2_500_000
)

// EstimateSize guesses the byte size of an asset from its resolution and
// duration when the catalog does not report one. Non-asset kinds return 0.
func EstimateSize(kind mediatypes.Kind, width, height int, duration time.Duration) int64 {
	if width < 0 || height < 0 || duration < 0 {
		return 0
	}

	switch kind {
	case mediatypes.KindPhoto:
		return int64(math.Round(float64(width) * float64(height) * photoBytesPerPixel))
	case mediatypes.KindVideo:
		return int64(math.Round(duration.Seconds() * float64(videoBitrate(width, height)) / 8))
	default:
		return 0
	}
}

// videoBitrate returns bits per second for the shorter side of the frame.
func videoBitrate(width, height int) int64 {
	short := width
	if height < short {
		short = height
	}
	switch {
	case short >= 1080:
		return bitrate1080p
	case short >= 720:
		return bitrate720p
	default:
		return bitrateSD
	}
}
