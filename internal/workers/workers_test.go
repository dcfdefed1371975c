package workers

import (
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCount(t *testing.T) {
	t.Setenv(EnvCPU, "")
	t.Setenv(EnvIO, "")

	procs := runtime.GOMAXPROCS(0)

	tests := []struct {
		name       string
		multiplier float64
		limit      int
		want       int
	}{
		{"one per CPU", 1.0, 0, procs},
		{"two per CPU", 2.0, 0, procs * 2},
		{"limit caps result", 2.0, 1, 1},
		{"tiny multiplier floors at one", 0.0001, 0, 1},
		{"zero multiplier floors at one", 0, 0, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Count("", tt.multiplier, tt.limit))
		})
	}
}

func TestCountWithEnvOverride(t *testing.T) {
	tests := []struct {
		name  string
		value string
		limit int
		want  int
	}{
		{"valid override", "3", 0, 3},
		{"override capped by limit", "32", 4, 4},
		{"zero ignored", "0", 0, runtime.GOMAXPROCS(0)},
		{"negative ignored", "-2", 0, runtime.GOMAXPROCS(0)},
		{"garbage ignored", "lots", 0, runtime.GOMAXPROCS(0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(EnvCPU, tt.value)
			assert.Equal(t, tt.want, ForCPU(tt.limit))
		})
	}
}

func TestOverridesAreIndependent(t *testing.T) {
	t.Setenv(EnvCPU, "5")
	t.Setenv(EnvIO, "7")

	assert.Equal(t, 5, ForCPU(0))
	assert.Equal(t, 7, ForIO(0))
}

func BenchmarkForCPU(b *testing.B) {
	for i := 0; i < b.N; i++ {
		_ = ForCPU(8)
	}
}
