package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/marmos91/appshell/pkg/bridge"
)

// DefaultQuotaBytes is the sandbox quota requested when none is configured.
const DefaultQuotaBytes uint64 = 5 * 1024 * 1024

// Config represents the complete appshell configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (APPSHELL_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
//
// Store Configuration Pattern:
// Each storage backend defines its own configuration type. The Config struct
// holds one untyped section per configurable backend (storage.badger,
// storage.s3) and only the section matching storage.type is decoded. The
// memory backend takes no options.
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Storage selects and configures the sandbox backend
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Seed describes the layout a fresh sandbox is populated with
	Seed SeedConfig `mapstructure:"seed" yaml:"seed"`

	// Shell configures the host-shell stub layer
	Shell ShellConfig `mapstructure:"shell" yaml:"shell"`

	// Limits throttles asynchronous bridge operations
	Limits LimitsConfig `mapstructure:"limits" yaml:"limits"`

	// Metrics configures Prometheus collection
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" yaml:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" yaml:"format" validate:"required,oneof=text json"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" yaml:"output" validate:"required"`
}

// StorageConfig specifies the sandbox backend.
type StorageConfig struct {
	// Type specifies which backend to use
	// Valid values: memory, badger, s3
	Type string `mapstructure:"type" yaml:"type" validate:"required,oneof=memory badger s3"`

	// QuotaBytes is the storage ceiling requested when the sandbox is
	// opened. 0 means unlimited.
	QuotaBytes uint64 `mapstructure:"quota_bytes" yaml:"quota_bytes"`

	// Badger contains BadgerDB-specific configuration
	// Only used when Type = "badger"
	Badger map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`

	// S3 contains S3-specific configuration
	// Only used when Type = "s3"
	S3 map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// SeedConfig describes the sandbox seed layout.
//
// When both Directories and Files are unset the built-in layout is used.
type SeedConfig struct {
	// Strict makes a seed path occupied by the other entry kind fatal
	Strict bool `mapstructure:"strict" yaml:"strict"`

	// Concurrency bounds parallel seed operations (0 = unbounded)
	Concurrency int `mapstructure:"concurrency" yaml:"concurrency" validate:"gte=0"`

	// Directories are created (with their ancestors) on first open
	Directories []string `mapstructure:"directories" yaml:"directories" validate:"dive,startswith=/"`

	// Files are created with their content unless they already exist
	Files []bridge.FileSeed `mapstructure:"files" yaml:"files" validate:"dive"`
}

// ShellConfig configures the shell stub layer.
type ShellConfig struct {
	// Language is reported as the user's UI language
	Language string `mapstructure:"language" yaml:"language" validate:"required"`

	// AppSupportDir is reported as the application support directory
	AppSupportDir string `mapstructure:"app_support_dir" yaml:"app_support_dir" validate:"required,startswith=/"`

	// Native selects the host implementation
	// Valid values: headless, desktop
	Native string `mapstructure:"native" yaml:"native" validate:"required,oneof=headless desktop"`
}

// LimitsConfig throttles bridge dispatch.
type LimitsConfig struct {
	// OpsPerSecond is the sustained operation rate (0 = unlimited)
	OpsPerSecond uint `mapstructure:"ops_per_second" yaml:"ops_per_second"`

	// Burst is the number of operations admitted at once
	Burst uint `mapstructure:"burst" yaml:"burst"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled turns on metrics collection and the HTTP endpoint
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port for the metrics HTTP server
	Port int `mapstructure:"port" yaml:"port" validate:"gte=0,lte=65535"`
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (APPSHELL_*)
//  2. Configuration file
//  3. Default values
//
// A missing configuration file is not an error: the defaults are used.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Environment variables use APPSHELL_ prefix and underscores
	// Example: APPSHELL_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("APPSHELL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// A zero quota is meaningful (unlimited), so its default cannot be
	// applied after unmarshalling.
	v.SetDefault("storage.quota_bytes", DefaultQuotaBytes)

	// AutomaticEnv only sees keys viper already knows about.
	for _, key := range []string{
		"logging.level", "logging.format", "logging.output",
		"storage.type",
		"shell.language", "shell.app_support_dir", "shell.native",
		"limits.ops_per_second", "limits.burst",
		"metrics.enabled", "metrics.port",
	} {
		_ = v.BindEnv(key)
	}

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/appshell/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// readConfigFile reads the configuration file if it exists.
func readConfigFile(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	return nil
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to the
// current directory if the home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "appshell")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "appshell")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// ConfigExists checks if a config file exists at the default location.
func ConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path (exposed for init command).
func GetConfigDir() string {
	return getConfigDir()
}
