package config_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajitpratap0/refillpool/pkg/config"
	poolerrors "github.com/ajitpratap0/refillpool/pkg/errors"
)

// ExampleDefault demonstrates the default pool configuration.
func ExampleDefault() {
	cfg := config.Default()

	fmt.Printf("Capacity: %d\n", cfg.Pool.Capacity)
	fmt.Printf("Low water mark: %d\n", cfg.Pool.LowWaterMark)
	fmt.Printf("Retry max: %s\n", cfg.Retry.Max)

	// Output:
	// Capacity: 64
	// Low water mark: 16
	// Retry max: 1s
}

// ExamplePoolConfig_Validate shows the error returned for a pool that could
// never be constructed.
func ExamplePoolConfig_Validate() {
	cfg := config.Default()
	cfg.Pool.LowWaterMark = cfg.Pool.Capacity

	if err := cfg.Validate(); err != nil {
		fmt.Println(err)
	}

	// Output:
	// config: low_water_mark must be less than capacity
}

func TestParse_OverridesDefaults(t *testing.T) {
	t.Setenv("REFILLPOOL_TEST_BUFFER_SIZE", "2048")

	cfg, err := config.Parse([]byte(`
name: audio
pool:
  capacity: 32
  low_water_mark: 8
  buffer_size: ${REFILLPOOL_TEST_BUFFER_SIZE}
retry:
  initial: 5ms
simulation:
  period: 2ms
`))
	require.NoError(t, err)

	assert.Equal(t, "audio", cfg.Name)
	assert.Equal(t, 32, cfg.Pool.Capacity)
	assert.Equal(t, 8, cfg.Pool.LowWaterMark)
	assert.Equal(t, 2048, cfg.Pool.BufferSize)
	assert.Equal(t, 5*time.Millisecond, cfg.Retry.Initial)
	assert.Equal(t, time.Second, cfg.Retry.Max, "unset fields keep defaults")
	assert.Equal(t, 2*time.Millisecond, cfg.Simulation.Period)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		yaml  string
		field string
	}{
		{"low water mark at capacity", "pool: {capacity: 4, low_water_mark: 4}", "pool.low_water_mark"},
		{"zero capacity", "pool: {capacity: 0, low_water_mark: 0}", "pool.capacity"},
		{"empty name", "name: \"\"", "name"},
		{"metrics without address", "metrics: {enabled: true, address: \"\"}", "metrics.address"},
		{"zero period", "simulation: {period: 0s}", "simulation.period"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Parse([]byte(tt.yaml))
			require.Error(t, err)
			assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeConfig))

			var perr *poolerrors.Error
			require.ErrorAs(t, err, &perr)
			assert.Equal(t, tt.field, perr.Details["field"])
		})
	}
}

func TestParse_MalformedYAML(t *testing.T) {
	_, err := config.Parse([]byte("pool: [unclosed"))
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeConfig))
}

func TestLoad_SaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pool.yaml")

	cfg := config.Default()
	cfg.Name = "roundtrip"
	cfg.Pool.Capacity = 128
	cfg.Pool.LowWaterMark = 32
	cfg.Simulation.Period = 3 * time.Millisecond
	require.NoError(t, config.Save(path, cfg))

	loaded, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, poolerrors.IsType(err, poolerrors.ErrorTypeFile))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
