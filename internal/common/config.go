package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/joseph-ayodele/camelot-go/constants"
)

// Config holds all application configuration
type Config struct {
	Camelot CamelotConfig `toml:"camelot"`
	Batch   BatchConfig   `toml:"batch"`
	Logging LoggingConfig `toml:"logging"`
}

// CamelotConfig holds defaults for every invocation
type CamelotConfig struct {
	BinPath        string            `toml:"bin_path"`
	Mode           string            `toml:"mode"`
	Format         string            `toml:"format"`
	Timeout        string            `toml:"timeout"` // e.g. "2m"; empty = no limit
	Debug          bool              `toml:"debug"`
	ValidateTables bool              `toml:"validate_tables"`
	Env            map[string]string `toml:"env"`
}

// BatchConfig holds worker pool configuration
type BatchConfig struct {
	Workers    int    `toml:"workers"`
	QueueSize  int    `toml:"queue_size"`
	JobTimeout string `toml:"job_timeout"`
}

// LoggingConfig holds slog configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // "debug", "info", "warn", "error"
	Format string `toml:"format"` // "json" or "text"
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		Camelot: CamelotConfig{
			BinPath: constants.DefaultBinary,
			Mode:    string(constants.DefaultMode),
			Format:  string(constants.DefaultFormat),
		},
		Batch: BatchConfig{
			Workers:    4,
			QueueSize:  256,
			JobTimeout: "3m",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// LoadConfig reads an optional TOML file over the defaults, then applies
// environment overrides.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, NewAppError("CONFIG_ERROR", "read config file", err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	cfg.Camelot.BinPath = getEnv("CAMELOT_BIN", cfg.Camelot.BinPath)
	cfg.Camelot.Mode = getEnv("CAMELOT_MODE", cfg.Camelot.Mode)
	cfg.Camelot.Format = getEnv("CAMELOT_FORMAT", cfg.Camelot.Format)
	cfg.Camelot.Timeout = getEnv("CAMELOT_TIMEOUT", cfg.Camelot.Timeout)
	cfg.Camelot.Debug = getEnvAsBool("CAMELOT_DEBUG", cfg.Camelot.Debug)
	cfg.Camelot.ValidateTables = getEnvAsBool("CAMELOT_VALIDATE_TABLES", cfg.Camelot.ValidateTables)
	cfg.Batch.Workers = getEnvAsInt("CAMELOT_WORKERS", cfg.Batch.Workers)
	cfg.Batch.QueueSize = getEnvAsInt("CAMELOT_QUEUE_SIZE", cfg.Batch.QueueSize)
	cfg.Batch.JobTimeout = getEnv("CAMELOT_JOB_TIMEOUT", cfg.Batch.JobTimeout)
	cfg.Logging.Level = getEnv("LOG_LEVEL", cfg.Logging.Level)
	cfg.Logging.Format = getEnv("LOG_FORMAT", cfg.Logging.Format)
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, NewAppError("CONFIG_ERROR", field+" is not a duration", ErrInvalidInput)
	}
	if d < 0 {
		return 0, NewAppError("CONFIG_ERROR", field+" must not be negative", ErrInvalidInput)
	}
	return d, nil
}

// TimeoutDuration returns the parsed per-invocation timeout.
func (c CamelotConfig) TimeoutDuration() (time.Duration, error) {
	return parseDuration("camelot.timeout", c.Timeout)
}

// JobTimeoutDuration returns the parsed per-job timeout of the batch queue.
func (c BatchConfig) JobTimeoutDuration() (time.Duration, error) {
	return parseDuration("batch.job_timeout", c.JobTimeout)
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Camelot.BinPath == "" {
		return NewAppError("CONFIG_ERROR", "camelot.bin_path is required", ErrInvalidInput)
	}
	if _, ok := constants.ParseMode(c.Camelot.Mode); !ok {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown camelot.mode %q", c.Camelot.Mode), ErrInvalidInput)
	}
	if _, ok := constants.ParseFormat(c.Camelot.Format); !ok {
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown camelot.format %q", c.Camelot.Format), ErrInvalidInput)
	}
	if _, err := c.Camelot.TimeoutDuration(); err != nil {
		return err
	}
	if _, err := c.Batch.JobTimeoutDuration(); err != nil {
		return err
	}
	if c.Batch.Workers <= 0 {
		return NewAppError("CONFIG_ERROR", "batch.workers must be positive", ErrInvalidInput)
	}
	if _, err := ParseLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}
