package config

import (
	"github.com/marmos91/appshell/pkg/bridge"
	"github.com/marmos91/appshell/pkg/metrics"
)

// MetricsResult contains all metrics-related components created from configuration.
type MetricsResult struct {
	// Server is the HTTP server exposing Prometheus metrics (nil if disabled)
	Server *metrics.Server

	// Bridge is the bridge metrics collector (nil if disabled, which the
	// bridge treats as no-op)
	Bridge bridge.Metrics
}

// InitializeMetrics creates and initializes all metrics components based on configuration.
//
// If metrics are enabled the global Prometheus registry is initialized and
// the HTTP server created. S3 metrics are picked up by CreateOpener from
// the same registry, so InitializeMetrics must run first.
func InitializeMetrics(cfg *Config) *MetricsResult {
	if !cfg.Metrics.Enabled {
		return &MetricsResult{}
	}

	metrics.InitRegistry()

	return &MetricsResult{
		Server: metrics.NewServer(metrics.ServerConfig{Port: cfg.Metrics.Port}),
		Bridge: metrics.NewBridgeMetrics(),
	}
}
