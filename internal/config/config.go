package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment variables: DEEPER_CLEANER_LOG_LEVEL -> log_level.
const EnvPrefix = "DEEPER_CLEANER"

// Config holds the settings for every command. Values come from flags, then
// environment variables, then an optional config file, then defaults.
type Config struct {
	LogLevel  string `mapstructure:"log_level"`
	LogFormat string `mapstructure:"log_format"`

	// Report selects the summary printed on success: "text" or "json".
	Report string `mapstructure:"report"`
	// MetricsFile, when set, receives the run's metrics in Prometheus text format.
	MetricsFile string `mapstructure:"metrics_file"`

	Clean CleanConfig `mapstructure:",squash"`
	Strip StripConfig `mapstructure:",squash"`
}

// CleanConfig configures the CSV cleaning command.
type CleanConfig struct {
	Input           string `mapstructure:"input"`
	Output          string `mapstructure:"output"`
	SurfaceAltitude string `mapstructure:"surface_altitude"`
	Basic           bool   `mapstructure:"basic"`
	CRLF            bool   `mapstructure:"crlf"`
}

// StripConfig configures the image metadata stripping command.
type StripConfig struct {
	InputDir    string `mapstructure:"input_dir"`
	OutputDir   string `mapstructure:"output_dir"`
	JPEGQuality int    `mapstructure:"jpeg_quality"`
}

// New returns a viper instance with defaults, environment binding and the
// optional config file at path (skipped when path is empty).
func New(path string) (*viper.Viper, error) {
	v := viper.New()

	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("report", "text")
	v.SetDefault("metrics_file", "")
	v.SetDefault("input", "")
	v.SetDefault("output", "")
	v.SetDefault("surface_altitude", "")
	v.SetDefault("basic", false)
	v.SetDefault("crlf", false)
	v.SetDefault("input_dir", "")
	v.SetDefault("output_dir", "")
	v.SetDefault("jpeg_quality", 100)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return v, nil
}

// Load unmarshals the settings held by v. It does not validate; commands call
// ValidateClean or ValidateStrip for the subset they use.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// ValidateClean checks the settings used by the clean command.
func (c *Config) ValidateClean() error {
	errs := c.validateCommon()

	if c.Clean.Input == "" {
		errs = append(errs, "input is required")
	}
	if c.Clean.Output == "" {
		errs = append(errs, "output is required")
	}
	if c.Clean.Input != "" && c.Clean.Output != "" && samePath(c.Clean.Input, c.Clean.Output) {
		errs = append(errs, "output must differ from input")
	}

	return joinErrors(errs)
}

// ValidateStrip checks the settings used by the strip-metadata command.
func (c *Config) ValidateStrip() error {
	errs := c.validateCommon()

	if c.Strip.InputDir == "" {
		errs = append(errs, "input_dir is required")
	}
	if c.Strip.OutputDir == "" {
		errs = append(errs, "output_dir is required")
	}
	if c.Strip.InputDir != "" && c.Strip.OutputDir != "" && samePath(c.Strip.InputDir, c.Strip.OutputDir) {
		errs = append(errs, "output_dir must differ from input_dir")
	}
	if c.Strip.JPEGQuality < 1 || c.Strip.JPEGQuality > 100 {
		errs = append(errs, fmt.Sprintf("jpeg_quality must be 1-100, got %d", c.Strip.JPEGQuality))
	}

	return joinErrors(errs)
}

func (c *Config) validateCommon() []string {
	var errs []string

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Sprintf("log_level must be debug, info, warn or error, got %q", c.LogLevel))
	}
	switch strings.ToLower(c.LogFormat) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("log_format must be text or json, got %q", c.LogFormat))
	}
	switch strings.ToLower(c.Report) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Sprintf("report must be text or json, got %q", c.Report))
	}

	return errs
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func joinErrors(errs []string) error {
	if len(errs) == 0 {
		return nil
	}
	return errors.New("config validation failed:\n  - " + strings.Join(errs, "\n  - "))
}
