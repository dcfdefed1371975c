package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// VideoInfo is what ffprobe reports about a video file.
type VideoInfo struct {
	Width    int
	Height   int
	Duration time.Duration
}

// VideoProber reads the dimensions and duration of a video file.
type VideoProber func(ctx context.Context, path string) (VideoInfo, error)

type ffprobeOutput struct {
	Streams []struct {
		CodecType string `json:"codec_type"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Duration  string `json:"duration"`
	} `json:"streams"`
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// FFProbe runs ffprobe against path.
func FFProbe(ctx context.Context, path string) (VideoInfo, error) {
	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "quiet",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		path,
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return VideoInfo{}, fmt.Errorf("ffprobe error: %w - %s", err, stderr.String())
	}
	return parseFFProbe(stdout.Bytes())
}

// parseFFProbe extracts the first video stream's size and the container
// duration, falling back to the stream duration.
func parseFFProbe(data []byte) (VideoInfo, error) {
	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return VideoInfo{}, fmt.Errorf("parse ffprobe output: %w", err)
	}

	var info VideoInfo
	streamDuration := ""
	for _, s := range out.Streams {
		if s.CodecType == "video" {
			info.Width, info.Height = s.Width, s.Height
			streamDuration = s.Duration
			break
		}
	}

	for _, d := range []string{out.Format.Duration, streamDuration} {
		if secs, err := strconv.ParseFloat(d, 64); err == nil && secs > 0 {
			info.Duration = time.Duration(secs * float64(time.Second))
			break
		}
	}
	return info, nil
}
