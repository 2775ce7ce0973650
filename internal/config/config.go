// Package config loads the exporter configuration file.
//
// The file is optional. Values it does not set keep the defaults returned by
// Default, and command-line flags that are set explicitly override both.
// String values may reference environment variables as ${VAR} or
// ${VAR:-default}.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"regexp"
	"runtime"

	"gopkg.in/yaml.v3"

	"github.com/rtm0/gribberish/internal/export"
	"github.com/rtm0/gribberish/internal/source"
)

// Config is the exporter configuration.
type Config struct {
	// Log configures logging.
	Log LogConfig `yaml:"log"`

	// Engine configures the GRIB2 decoding engine.
	Engine EngineConfig `yaml:"engine"`

	// S3 configures the client used for s3:// sources.
	S3 source.S3Config `yaml:"s3"`

	// VM configures inserting into Victoria Metrics.
	VM VMConfig `yaml:"vm"`

	// Export configures dataset assembly and file exports.
	Export ExportConfig `yaml:"export"`
}

// LogConfig configures logging.
type LogConfig struct {
	// Level is one of debug, info, warn or error.
	// Default: info
	Level string `yaml:"level"`
}

// EngineConfig configures the GRIB2 decoding engine.
type EngineConfig struct {
	// Binary is the wgrib2 executable, looked up in PATH when not absolute.
	// Default: wgrib2
	Binary string `yaml:"binary"`
}

// VMConfig configures inserting into Victoria Metrics.
type VMConfig struct {
	// InsertURL is the insert endpoint. Empty disables inserting.
	InsertURL string `yaml:"insert_url"`

	// Concurrency is the number of concurrent insert requests.
	// Default: number of CPUs
	Concurrency int `yaml:"concurrency"`

	// RecsPerInsert is the number of records sent in one request.
	// Default: 500
	RecsPerInsert int `yaml:"recs_per_insert"`

	// MetricPrefix prefixes every metric name.
	// Default: grib
	MetricPrefix string `yaml:"metric_prefix"`
}

// ExportConfig configures dataset assembly and file exports.
type ExportConfig struct {
	// DropVariables are left out of the assembled dataset.
	DropVariables []string `yaml:"drop_variables"`

	// Compression compresses JSONL output: none, gzip or zstd.
	// Default: none
	Compression string `yaml:"compression"`

	// ParquetCompression is the internal Parquet compression: none,
	// snappy, gzip or zstd.
	// Default: snappy
	ParquetCompression string `yaml:"parquet_compression"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level: "info",
		},
		Engine: EngineConfig{
			Binary: "wgrib2",
		},
		VM: VMConfig{
			Concurrency:   runtime.NumCPU(),
			RecsPerInsert: 500,
			MetricPrefix:  "grib",
		},
		Export: ExportConfig{
			Compression:        "none",
			ParquetCompression: "snappy",
		},
	}
}

// Load loads configuration from path on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) expandVariables() {
	c.Engine.Binary = expandVars(c.Engine.Binary)
	c.S3.Endpoint = expandVars(c.S3.Endpoint)
	c.S3.AccessKeyID = expandVars(c.S3.AccessKeyID)
	c.S3.SecretAccessKey = expandVars(c.S3.SecretAccessKey)
	c.VM.InsertURL = expandVars(c.VM.InsertURL)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default} patterns from the
// environment.
func expandVars(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if value := os.Getenv(parts[1]); value != "" {
			return value
		}
		return parts[2]
	})
}

// LogLevel returns the configured slog level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return 0, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return level, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Engine.Binary == "" {
		errs = append(errs, errors.New("engine.binary is required"))
	}
	if c.VM.InsertURL != "" {
		if _, err := url.Parse(c.VM.InsertURL); err != nil {
			errs = append(errs, fmt.Errorf("vm.insert_url: %w", err))
		}
	}
	if c.VM.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("vm.concurrency must be positive, got %d", c.VM.Concurrency))
	}
	if c.VM.RecsPerInsert < 1 {
		errs = append(errs, fmt.Errorf("vm.recs_per_insert must be positive, got %d", c.VM.RecsPerInsert))
	}
	if _, err := export.NewCompressor(c.Export.Compression); err != nil {
		errs = append(errs, fmt.Errorf("export.compression: %w", err))
	}
	if _, err := export.ParseParquetCompression(c.Export.ParquetCompression); err != nil {
		errs = append(errs, fmt.Errorf("export.parquet_compression: %w", err))
	}

	return errors.Join(errs...)
}
