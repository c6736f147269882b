package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvOperatorSecretHash = "OPERATOR_SECRET_HASH"
	EnvRedisPassword      = "REDIS_PASS"
	EnvPostgresPassword   = "PGPASSWORD"
	EnvSentryDSN          = "SENTRY_DSN"
	EnvHoneycombEnabled   = "HONEYCOMB_ENABLED"
	EnvHoneycombAPIKey    = "HONEYCOMB_API_KEY"
)

// Secrets are read from the environment only, never from config.toml.
type Secrets struct {
	OperatorSecretHash string
	RedisPassword      string
	SentryDSN          string
	HoneycombEnabled   bool
	HoneycombAPIKey    string
}

// LoadSecrets reads the secrets from env vars. Variables from envFile, when it exists,
// fill in the ones not already set in the process environment.
func LoadSecrets(envFile string) (*Secrets, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return &Secrets{
		OperatorSecretHash: os.Getenv(EnvOperatorSecretHash),
		RedisPassword:      os.Getenv(EnvRedisPassword),
		SentryDSN:          os.Getenv(EnvSentryDSN),
		HoneycombEnabled:   strings.EqualFold(os.Getenv(EnvHoneycombEnabled), "true"),
		HoneycombAPIKey:    os.Getenv(EnvHoneycombAPIKey),
	}, nil
}

// Missing lists the env vars a production deployment should set but didn't.
func (s *Secrets) Missing() []string {
	var missing []string
	if s.OperatorSecretHash == "" {
		missing = append(missing, EnvOperatorSecretHash)
	}
	if s.RedisPassword == "" {
		missing = append(missing, EnvRedisPassword)
	}
	if s.HoneycombEnabled && s.HoneycombAPIKey == "" {
		missing = append(missing, EnvHoneycombAPIKey)
	}
	return missing
}
