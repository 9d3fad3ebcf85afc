package config

import (
	"path/filepath"
	"strings"

	"github.com/marmos91/appshell/pkg/bridge"
	"github.com/marmos91/appshell/pkg/shell"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//   - Backend-specific defaults are handled by the backends themselves
//
// storage.quota_bytes is the exception: 0 means unlimited, so its default
// is applied by Load before unmarshalling.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyStorageDefaults(&cfg.Storage)
	applySeedDefaults(&cfg.Seed)
	applyShellDefaults(&cfg.Shell)
	applyLimitsDefaults(&cfg.Limits)
	applyMetricsDefaults(&cfg.Metrics)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	// Normalize log level to uppercase for consistent internal representation
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyStorageDefaults sets storage defaults.
func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Type == "" {
		cfg.Type = "memory"
	}

	if cfg.Badger == nil {
		cfg.Badger = make(map[string]any)
	}
	if cfg.S3 == nil {
		cfg.S3 = make(map[string]any)
	}

	if _, ok := cfg.Badger["db_path"]; !ok {
		cfg.Badger["db_path"] = defaultBadgerPath()
	}
}

// applySeedDefaults installs the built-in layout when none is configured.
func applySeedDefaults(cfg *SeedConfig) {
	if cfg.Directories == nil && cfg.Files == nil {
		layout := bridge.DefaultLayout()
		cfg.Directories = layout.Directories
		cfg.Files = layout.Files
	}
}

// applyShellDefaults sets shell defaults.
func applyShellDefaults(cfg *ShellConfig) {
	if cfg.Language == "" {
		cfg.Language = shell.DefaultLanguage
	}
	if cfg.AppSupportDir == "" {
		cfg.AppSupportDir = shell.DefaultAppSupportDir
	}
	if cfg.Native == "" {
		cfg.Native = "headless"
	}
}

// applyLimitsDefaults sets dispatch limit defaults.
func applyLimitsDefaults(cfg *LimitsConfig) {
	// OpsPerSecond defaults to 0 (unlimited)

	if cfg.OpsPerSecond > 0 && cfg.Burst == 0 {
		cfg.Burst = cfg.OpsPerSecond
	}
}

// applyMetricsDefaults sets metrics defaults.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Port == 0 {
		cfg.Port = 9091
	}
}

// defaultBadgerPath returns the sandbox database location under the
// configuration directory.
func defaultBadgerPath() string {
	return filepath.Join(GetConfigDir(), "sandbox")
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Storage: StorageConfig{
			QuotaBytes: DefaultQuotaBytes,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
