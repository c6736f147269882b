package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2beens/dailymetrics/internal/recovery"
	"github.com/2beens/dailymetrics/internal/strain"
	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_RepoConfig(t *testing.T) {
	for _, env := range []string{"dev", "development", "prod", "production"} {
		cfg, err := Load(env, "../../config.toml")
		require.NoError(t, err, env)
		assert.NotZero(t, cfg.Port)
	}

	cfg, err := Load("prod", "../../config.toml")
	require.NoError(t, err)
	assert.Equal(t, "production", cfg.Environment)
	assert.True(t, cfg.Reconciler.Enabled)
	assert.Equal(t, 2*time.Minute, cfg.Reconciler.UserTimeout)
	assert.Equal(t, "03:00", cfg.Reconciler.RunAt)
	assert.Equal(t, 10*time.Minute, cfg.Pipeline.LockTTL)
	assert.Equal(t, 168*time.Hour, cfg.SessionTTL)
	assert.Equal(t, recovery.DefaultConfig(), cfg.Recovery)
	assert.Equal(t, strain.DefaultConfig(), cfg.Strain)
}

func TestLoad_DefaultsAndOverrides(t *testing.T) {
	path := writeConfig(t, `
[development]
port = 9100
baseline_cache_ttl = "90s"

  [development.pipeline]
  baseline_metrics = ["hrv_ms", "resting_hr"]

  [development.reconciler]
  window_days = 7

  [development.strain]
  training_load_weight = 12.5
`)

	cfg, err := Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.BaselineCacheTTL)
	assert.Equal(t, 7, cfg.Reconciler.WindowDays)
	// untouched keys keep their defaults
	assert.Equal(t, Default().Reconciler.MaxUsers, cfg.Reconciler.MaxUsers)
	assert.Equal(t, Default().RedisPort, cfg.RedisPort)
	assert.Equal(t, 12.5, cfg.Strain.TrainingLoadWeight)
	assert.Equal(t, strain.DefaultConfig().SaturationRate, cfg.Strain.SaturationRate)

	metrics, err := cfg.BaselineMetrics()
	require.NoError(t, err)
	assert.Equal(t, []wellness.Metric{wellness.MetricHRV, wellness.MetricRestingHR}, metrics)

	// a missing production table decodes into the defaults
	cfg, err = Load("production", path)
	require.NoError(t, err)
	assert.Equal(t, Default().Port, cfg.Port)
}

func TestLoad_Errors(t *testing.T) {
	testCases := []struct {
		name    string
		env     string
		content string
	}{
		{name: "UnknownEnv", env: "staging", content: `[development]`},
		{name: "UnknownKey", env: "dev", content: "[development]\nprot = 9000"},
		{name: "BadDuration", env: "dev", content: "[development]\nbaseline_cache_ttl = \"soon\""},
		{name: "BadPort", env: "dev", content: "[development]\nport = 70000"},
		{name: "BadMetric", env: "dev", content: "[development.pipeline]\nbaseline_metrics = [\"vo2max\"]"},
		{name: "TooManyDefaultDays", env: "dev", content: "[development.pipeline]\ndefault_days = 40"},
		{name: "ZeroRecoveryWeights", env: "dev", content: "[development.recovery]\nweight_hrv = 0.0\nweight_rhr = 0.0\nweight_rr = 0.0\nweight_sleep = 0.0"},
		{name: "BadStrain", env: "dev", content: "[development.strain]\nsaturation_rate = 0.0"},
		{name: "NotToml", env: "dev", content: "port: 9000"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(tc.env, writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}

	_, err := Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}
