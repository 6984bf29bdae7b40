package sqlload

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries the environment-driven settings for a Loader: target
// database, mapping directory and retry plan.
type Config struct {
	Driver     string // database/sql driver name: mysql, postgres, sqlite3
	DSN        string
	MappingDir string
	Retry      RetryConfig
}

// DefaultConfig returns a MySQL config with the reference retry plan.
func DefaultConfig() Config {
	return Config{
		Driver: "mysql",
		Retry:  DefaultRetryConfig(),
	}
}

// LoadConfigFromEnv reads SQLLOAD_DRIVER, SQLLOAD_DSN, SQLLOAD_MAPPING_DIR,
// SQLLOAD_RETRY_MAX_ATTEMPTS and SQLLOAD_RETRY_BACKOFF, falling back to
// defaults for anything unset. SQLLOAD_DSN is required.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()

	if v := os.Getenv("SQLLOAD_DRIVER"); v != "" {
		cfg.Driver = v
	}
	cfg.DSN = os.Getenv("SQLLOAD_DSN")
	if cfg.DSN == "" {
		return Config{}, fmt.Errorf("SQLLOAD_DSN is required")
	}
	cfg.MappingDir = os.Getenv("SQLLOAD_MAPPING_DIR")

	if v := os.Getenv("SQLLOAD_RETRY_MAX_ATTEMPTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SQLLOAD_RETRY_MAX_ATTEMPTS %q: %w", v, err)
		}
		cfg.Retry.MaxAttempts = n
		cfg.Retry.Enabled = n > 1
	}
	if v := os.Getenv("SQLLOAD_RETRY_BACKOFF"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("invalid SQLLOAD_RETRY_BACKOFF %q: %w", v, err)
		}
		cfg.Retry.BackoffBase = d
	}

	return cfg, nil
}
