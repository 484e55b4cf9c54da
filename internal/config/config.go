package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

// Defaults for the input and output files.
const (
	DefaultInputPath  = "rec_front_1979_01.v26.nc"
	DefaultOutputPath = "out.nc"
	DefaultKafkaTopic = "front-grid-steps"
)

// Config holds all job settings, populated from environment variables.
type Config struct {
	InputPath       string
	OutputPath      string
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Step summary publication. Disabled when KafkaBrokers is empty.
	KafkaBrokers []string
	KafkaTopic   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}

	cfg := &Config{
		InputPath:       sharedcfg.EnvOrDefault("INPUT_PATH", DefaultInputPath),
		OutputPath:      sharedcfg.EnvOrDefault("OUTPUT_PATH", DefaultOutputPath),
		HTTPAddr:        os.Getenv("HTTP_ADDR"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		KafkaBrokers:    brokers,
		KafkaTopic:      sharedcfg.EnvOrDefault("KAFKA_TOPIC", DefaultKafkaTopic),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyArgs overrides the input and then the output path with positional
// command-line arguments, and revalidates.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("expected at most 2 arguments (input, output), got %d", len(args))
	}
	if len(args) > 0 {
		c.InputPath = args[0]
	}
	if len(args) > 1 {
		c.OutputPath = args[1]
	}
	return c.Validate()
}

// Validate checks the settings for consistency.
func (c *Config) Validate() error {
	if c.InputPath == "" {
		return errors.New("INPUT_PATH is required")
	}
	if c.OutputPath == "" {
		return errors.New("OUTPUT_PATH is required")
	}
	if filepath.Clean(c.InputPath) == filepath.Clean(c.OutputPath) {
		return errors.New("OUTPUT_PATH must differ from INPUT_PATH")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("invalid LOG_FORMAT %q: want json or text", c.LogFormat)
	}
	if len(c.KafkaBrokers) > 0 && c.KafkaTopic == "" {
		return errors.New("KAFKA_TOPIC is required when KAFKA_BROKERS is set")
	}
	return nil
}

// NotifyEnabled reports whether step summaries are published to Kafka.
func (c *Config) NotifyEnabled() bool { return len(c.KafkaBrokers) > 0 }

// StatusEnabled reports whether the HTTP status server runs.
func (c *Config) StatusEnabled() bool { return c.HTTPAddr != "" }
