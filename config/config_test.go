package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltmesh/bessopt/core/model"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 100.0, cfg.Battery.CapacityKWh)
	assert.Equal(t, 0.95, cfg.Battery.Efficiency)
	assert.Equal(t, 5, cfg.Forecast.Folds)
}

func TestPricesExpandDefaults(t *testing.T) {
	var p PricesConfig
	p.SetDefaults()
	sched, err := p.Expand()
	require.NoError(t, err)
	require.Len(t, sched, model.HorizonHours)

	assert.Equal(t, model.TierValley, sched[3].Tier)
	assert.Equal(t, 0.30, sched[3].Rate)
	assert.Equal(t, model.TierValley, sched[23].Tier)
	assert.Equal(t, model.TierValley, sched[6].Tier)
	assert.Equal(t, model.TierNormal, sched[7].Tier)
	assert.Equal(t, model.TierPeak, sched[12].Tier)
	assert.Equal(t, 1.20, sched[12].Rate)
	assert.Equal(t, model.TierPeak, sched[18].Tier)
	assert.Equal(t, model.TierNormal, sched[21].Tier)
	assert.Equal(t, 0.80, sched[8].Rate)
}

func TestPricesExpandRejectsUnknownTier(t *testing.T) {
	p := PricesConfig{DefaultRate: 0.5, Bands: []PriceBand{{Tier: "super-peak", StartHour: 1, EndHour: 2, Rate: 3}}}
	_, err := p.Expand()
	assert.Error(t, err)
}

func TestLoadYAMLOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  api_token: s3cret
battery:
  capacity_kwh: 50
  max_power_kw: 12
solver:
  time_limit_ms: 2500
metrics:
  prometheus_enabled: true
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Server.APIToken)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 50.0, cfg.Battery.CapacityKWh)
	assert.Equal(t, 12.0, cfg.Battery.MaxPowerKW)
	assert.Equal(t, 0.95, cfg.Battery.Efficiency) // defaulted
	assert.Equal(t, 2500, cfg.Solver.TimeLimitMS)
	assert.True(t, cfg.Metrics.PrometheusEnabled)
	assert.Equal(t, ":9464", cfg.Metrics.PrometheusAddr)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1"), 0o644))
	_, err := Load(path)
	assert.Error(t, err)
}

func TestSolverOptionsConversion(t *testing.T) {
	var s SolverConfig
	s.SetDefaults()
	opts := s.Options()
	assert.Positive(t, opts.TimeLimit)
	assert.Positive(t, opts.GapTolerance)
	assert.Positive(t, opts.MaxNodes)
}
