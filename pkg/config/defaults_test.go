package config

import (
	"testing"

	"github.com/marmos91/appshell/pkg/bridge"
)

func TestApplyDefaults_Empty(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" {
		t.Errorf("Expected level INFO, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Output != "stdout" {
		t.Errorf("Expected output stdout, got %q", cfg.Logging.Output)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("Expected storage type memory, got %q", cfg.Storage.Type)
	}
	if cfg.Storage.QuotaBytes != 0 {
		t.Errorf("ApplyDefaults must not touch the quota, got %d", cfg.Storage.QuotaBytes)
	}
	if cfg.Storage.Badger["db_path"] == "" || cfg.Storage.Badger["db_path"] == nil {
		t.Error("Expected a default badger db_path")
	}
	if cfg.Storage.S3 == nil {
		t.Error("Expected S3 options map to be initialized")
	}
	if cfg.Metrics.Port != 9091 {
		t.Errorf("Expected metrics port 9091, got %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_SeedLayout(t *testing.T) {
	cfg := &Config{}
	ApplyDefaults(cfg)

	layout := bridge.DefaultLayout()
	if len(cfg.Seed.Directories) != len(layout.Directories) {
		t.Errorf("Expected %d default directories, got %d", len(layout.Directories), len(cfg.Seed.Directories))
	}
	if len(cfg.Seed.Files) != len(layout.Files) {
		t.Errorf("Expected %d default files, got %d", len(layout.Files), len(cfg.Seed.Files))
	}
}

func TestApplyDefaults_KeepsCustomSeed(t *testing.T) {
	cfg := &Config{Seed: SeedConfig{Directories: []string{"/work"}}}
	ApplyDefaults(cfg)

	if len(cfg.Seed.Directories) != 1 || cfg.Seed.Directories[0] != "/work" {
		t.Errorf("Custom directories were replaced: %v", cfg.Seed.Directories)
	}
	if len(cfg.Seed.Files) != 0 {
		t.Errorf("Expected no seed files, got %v", cfg.Seed.Files)
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging: LoggingConfig{Level: "warn", Format: "json", Output: "stderr"},
		Storage: StorageConfig{Type: "badger", Badger: map[string]any{"db_path": "/var/lib/appshell"}},
		Shell:   ShellConfig{Language: "de", AppSupportDir: "/opt/appshell", Native: "desktop"},
		Metrics: MetricsConfig{Port: 9200},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" {
		t.Errorf("Expected normalized WARN, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Output != "stderr" {
		t.Errorf("Logging overridden: %+v", cfg.Logging)
	}
	if cfg.Storage.Badger["db_path"] != "/var/lib/appshell" {
		t.Errorf("db_path overridden: %v", cfg.Storage.Badger["db_path"])
	}
	if cfg.Shell.Language != "de" || cfg.Shell.AppSupportDir != "/opt/appshell" || cfg.Shell.Native != "desktop" {
		t.Errorf("Shell overridden: %+v", cfg.Shell)
	}
	if cfg.Metrics.Port != 9200 {
		t.Errorf("Metrics port overridden: %d", cfg.Metrics.Port)
	}
}

func TestApplyDefaults_Limits(t *testing.T) {
	cfg := &Config{Limits: LimitsConfig{OpsPerSecond: 50}}
	ApplyDefaults(cfg)
	if cfg.Limits.Burst != 50 {
		t.Errorf("Expected burst to follow the rate, got %d", cfg.Limits.Burst)
	}

	cfg = &Config{}
	ApplyDefaults(cfg)
	if cfg.Limits.OpsPerSecond != 0 || cfg.Limits.Burst != 0 {
		t.Errorf("Expected unlimited dispatch, got %+v", cfg.Limits)
	}
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()

	if cfg.Storage.QuotaBytes != DefaultQuotaBytes {
		t.Errorf("Expected quota %d, got %d", DefaultQuotaBytes, cfg.Storage.QuotaBytes)
	}
	if err := Validate(cfg); err != nil {
		t.Errorf("Default config should validate: %v", err)
	}
}
