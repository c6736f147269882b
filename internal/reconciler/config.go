package reconciler

import (
	"fmt"
	"time"
)

const MaxWindowDays = 14

type Config struct {
	WindowDays        int           `toml:"window_days"`
	MaxUsers          int           `toml:"max_users"`
	RunAt             string        `toml:"run_at"`
	MaxPerUserResults int           `toml:"max_per_user_results"`
	UserTimeout       time.Duration `toml:"user_timeout"`
}

func DefaultConfig() Config {
	return Config{
		WindowDays:        5,
		MaxUsers:          500,
		RunAt:             "03:00",
		MaxPerUserResults: 50,
		UserTimeout:       2 * time.Minute,
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.WindowDays <= 0 {
		c.WindowDays = defaults.WindowDays
	}
	if c.WindowDays > MaxWindowDays {
		c.WindowDays = MaxWindowDays
	}
	if c.MaxUsers <= 0 {
		c.MaxUsers = defaults.MaxUsers
	}
	if c.RunAt == "" {
		c.RunAt = defaults.RunAt
	}
	if c.MaxPerUserResults <= 0 {
		c.MaxPerUserResults = defaults.MaxPerUserResults
	}
	if c.UserTimeout <= 0 {
		c.UserTimeout = defaults.UserTimeout
	}
	return c
}

// parseRunAt accepts a UTC wall clock time as HH:MM.
func parseRunAt(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid reconciler run_at [%s], expected HH:MM: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
