package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"

	"mediasweep/internal/logging"
)

// DefaultMemoryRatio is the share of the container limit given to the Go
// heap. The rest is left for ffmpeg, libvips and goroutine stacks.
const DefaultMemoryRatio = 0.85

// LimitResult describes how GOMEMLIMIT ended up configured.
type LimitResult struct {
	Configured     bool
	Source         string // "GOMEMLIMIT", "MEMORY_LIMIT" or "none"
	ContainerLimit int64
	GoMemLimit     int64
	Ratio          float64
}

// ConfigureLimit sets GOMEMLIMIT to containerLimit*ratio. An explicit
// GOMEMLIMIT environment variable always wins; a zero containerLimit leaves
// the runtime alone. Call it before significant allocations.
func ConfigureLimit(containerLimit int64, ratio float64) LimitResult {
	if env := os.Getenv("GOMEMLIMIT"); env != "" {
		result := LimitResult{Source: "GOMEMLIMIT"}
		if l := debug.SetMemoryLimit(-1); l > 0 && l < math.MaxInt64 {
			result.Configured = true
			result.GoMemLimit = l
		}
		logging.Info("GOMEMLIMIT set via environment: %s", env)
		return result
	}

	if containerLimit <= 0 {
		logging.Debug("MEMORY_LIMIT not set, GOMEMLIMIT will not be configured")
		return LimitResult{Source: "none"}
	}

	if ratio <= 0 || ratio > 1 {
		if ratio != 0 {
			logging.Warn("MEMORY_RATIO %.2f out of range (0.0-1.0), using default %.2f", ratio, DefaultMemoryRatio)
		}
		ratio = DefaultMemoryRatio
	}

	limit := int64(float64(containerLimit) * ratio)
	debug.SetMemoryLimit(limit)

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s container limit)",
		formatBytes(limit), ratio*100, formatBytes(containerLimit))

	return LimitResult{
		Configured:     true,
		Source:         "MEMORY_LIMIT",
		ContainerLimit: containerLimit,
		GoMemLimit:     limit,
		Ratio:          ratio,
	}
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
