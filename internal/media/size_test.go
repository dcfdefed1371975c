package media

import (
	"testing"
	"time"
)

func TestEstimateSize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		kind     Kind
		width    int
		height   int
		duration time.Duration
		want     int64
	}{
		{name: "12MP photo", kind: KindPhoto, width: 4000, height: 3000, want: 3_600_000},
		{name: "1080p minute", kind: KindVideo, width: 1920, height: 1080, duration: time.Minute, want: 60_000_000},
		{name: "720p minute", kind: KindVideo, width: 1280, height: 720, duration: time.Minute, want: 37_500_000},
		{name: "portrait 1080p uses short side", kind: KindVideo, width: 1080, height: 1920, duration: 10 * time.Second, want: 10_000_000},
		{name: "SD minute", kind: KindVideo, width: 640, height: 480, duration: time.Minute, want: 18_750_000},
		{name: "audio not estimated", kind: KindAudio, width: 0, height: 0, duration: time.Minute, want: 0},
		{name: "negative input", kind: KindPhoto, width: -1, height: 10, want: 0},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := EstimateSize(tt.kind, tt.width, tt.height, tt.duration); got != tt.want {
				t.Errorf("EstimateSize() = %d, want %d", got, tt.want)
			}
		})
	}
}
