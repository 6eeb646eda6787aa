package cli

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChuLiYu/scanrunner/internal/devscan"
	"github.com/ChuLiYu/scanrunner/internal/logging"
)

func TestRunDemoScan_EndToEnd(t *testing.T) {
	cfg := devscan.ScanConfig{
		ScopeSearchDistance: 3,
		Targets:             []string{"example.com"},
	}

	result, err := RunDemoScan(cfg, logging.Background(), nil)
	require.NoError(t, err)

	assert.Greater(t, result.Stats.Consumed, int64(0), "at least the seed event should have been consumed")
	assert.Greater(t, result.Stats.Produced, int64(0), "the enumerator and resolver should have produced events")
	assert.NotEmpty(t, result.ReportLines, "the report module should have recorded at least one event")
}

func TestRunDemoScan_ExportsTelemetryWhenRegistryGiven(t *testing.T) {
	cfg := devscan.ScanConfig{
		ScopeSearchDistance: 3,
		Targets:             []string{"example.com"},
	}
	reg := prometheus.NewRegistry()

	_, err := RunDemoScan(cfg, logging.Background(), reg)
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families, "module status should have been observed into the registry")
}

func TestRunDemoScan_RespectsModuleConfigOverrides(t *testing.T) {
	cfg := devscan.ScanConfig{
		ScopeSearchDistance: 3,
		Targets:             []string{"example.com"},
		Modules: map[string]map[string]any{
			"report": {"priority": 1},
		},
	}

	result, err := RunDemoScan(cfg, logging.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, result.ReportLines)
}
