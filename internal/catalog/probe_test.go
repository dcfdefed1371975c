package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFFProbe(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		want    VideoInfo
		wantErr bool
	}{
		{
			name: "video and audio streams",
			input: `{"streams":[{"codec_type":"audio"},{"codec_type":"video","width":1280,"height":720,"duration":"9.9"}],
				"format":{"duration":"10.500000"}}`,
			want: VideoInfo{Width: 1280, Height: 720, Duration: 10500 * time.Millisecond},
		},
		{
			name:  "stream duration fallback",
			input: `{"streams":[{"codec_type":"video","width":640,"height":480,"duration":"3.0"}],"format":{}}`,
			want:  VideoInfo{Width: 640, Height: 480, Duration: 3 * time.Second},
		},
		{
			name:  "no video stream",
			input: `{"streams":[{"codec_type":"audio"}],"format":{"duration":"N/A"}}`,
			want:  VideoInfo{},
		},
		{
			name:    "not json",
			input:   `ffprobe exploded`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFFProbe([]byte(tt.input))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
