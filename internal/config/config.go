// Package config loads the service configuration from a TOML file with one table per
// environment. Secrets never live in the file; they come from env vars.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/2beens/dailymetrics/internal/auth"
	"github.com/2beens/dailymetrics/internal/pipeline"
	"github.com/2beens/dailymetrics/internal/reconciler"
	"github.com/2beens/dailymetrics/internal/recovery"
	"github.com/2beens/dailymetrics/internal/strain"
	"github.com/2beens/dailymetrics/internal/wellness"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string `toml:"-"`

	Host                  string `toml:"host"`
	Port                  int    `toml:"port"`
	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	EnsureSchema   bool   `toml:"ensure_schema"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// http
	AllowedOrigins         []string      `toml:"allowed_origins"`
	MaxRequestBodyBytes    int64         `toml:"max_request_body_bytes"`
	RateLimitAllowedPerMin int           `toml:"rate_limit_allowed_per_min"`
	SessionTTL             time.Duration `toml:"session_ttl"`

	// baseline lookup cache
	BaselineCacheSizeMB int           `toml:"baseline_cache_size_mb"`
	BaselineCacheTTL    time.Duration `toml:"baseline_cache_ttl"`

	Pipeline   PipelineConfig   `toml:"pipeline"`
	Reconciler ReconcilerConfig `toml:"reconciler"`
	Recovery   recovery.Config  `toml:"recovery"`
	Strain     strain.Config    `toml:"strain"`
}

type PipelineConfig struct {
	DefaultDays     int           `toml:"default_days"`
	LockTTL         time.Duration `toml:"lock_ttl"`
	BaselineMetrics []string      `toml:"baseline_metrics"`
}

type ReconcilerConfig struct {
	Enabled bool `toml:"enabled"`
	reconciler.Config
}

// Default is the configuration every environment table is decoded on top of, so an
// unset key keeps its default.
func Default() *Config {
	return &Config{
		Host:                   "localhost",
		Port:                   9000,
		PrometheusMetricsHost:  "localhost",
		PrometheusMetricsPort:  "2112",
		LogLevel:               "info",
		LogToStdout:            true,
		PostgresHost:           "localhost",
		PostgresPort:           "5432",
		PostgresDBName:         "dailymetrics",
		RedisHost:              "localhost",
		RedisPort:              "6379",
		MaxRequestBodyBytes:    1 << 20,
		RateLimitAllowedPerMin: 30,
		SessionTTL:             auth.DefaultTTL,
		BaselineCacheSizeMB:    16,
		BaselineCacheTTL:       10 * time.Minute,
		Pipeline: PipelineConfig{
			DefaultDays: pipeline.DefaultDays,
			LockTTL:     pipeline.DefaultLockTTL,
		},
		Reconciler: ReconcilerConfig{
			Enabled: true,
			Config:  reconciler.DefaultConfig(),
		},
		Recovery: recovery.DefaultConfig(),
		Strain:   strain.DefaultConfig(),
	}
}

type Toml struct {
	Development *Config `toml:"development"`
	Production  *Config `toml:"production"`
}

func (t *Toml) Get(env string) (*Config, error) {
	var cfg *Config
	switch strings.ToLower(env) {
	case "dev", "development":
		cfg, env = t.Development, "development"
	case "prod", "production":
		cfg, env = t.Production, "production"
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
	if cfg == nil {
		return nil, fmt.Errorf("no config for env: %s", env)
	}
	cfg.Environment = env
	return cfg, nil
}

// Load decodes the TOML file at path and returns the validated table for env.
// Unknown keys are rejected.
func Load(env, path string) (*Config, error) {
	t := &Toml{
		Development: Default(),
		Production:  Default(),
	}
	md, err := toml.DecodeFile(path, t)
	if err != nil {
		return nil, fmt.Errorf("decode config [%s]: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		return nil, fmt.Errorf("config [%s] has unknown keys: %s", path, strings.Join(keys, ", "))
	}

	cfg, err := t.Get(env)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", cfg.Environment, err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.PostgresDBName == "" {
		errs = append(errs, errors.New("postgres_db_name is required"))
	}
	if c.Pipeline.DefaultDays <= 0 || c.Pipeline.DefaultDays > pipeline.MaxRecomputeLastDays {
		errs = append(errs, fmt.Errorf("pipeline default_days must be within [1, %d]", pipeline.MaxRecomputeLastDays))
	}
	if c.Pipeline.LockTTL <= 0 {
		errs = append(errs, errors.New("pipeline lock_ttl must be positive"))
	}
	if _, err := c.BaselineMetrics(); err != nil {
		errs = append(errs, err)
	}
	if c.BaselineCacheSizeMB < 0 {
		errs = append(errs, errors.New("baseline_cache_size_mb must not be negative"))
	}
	if err := c.Recovery.Validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Strain.Validate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// BaselineMetrics is the metric set the pipeline refreshes, nil meaning the default.
func (c *Config) BaselineMetrics() ([]wellness.Metric, error) {
	if len(c.Pipeline.BaselineMetrics) == 0 {
		return nil, nil
	}
	metrics, err := wellness.ParseMetrics(c.Pipeline.BaselineMetrics)
	if err != nil {
		return nil, fmt.Errorf("pipeline baseline_metrics: %w", err)
	}
	return metrics, nil
}
