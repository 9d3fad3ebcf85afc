package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/appshell/pkg/bridge"
	"github.com/marmos91/appshell/pkg/status"
)

// bridgeMetrics is the Prometheus implementation of bridge.Metrics.
type bridgeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	rootOpensTotal    *prometheus.CounterVec
	usedBytes         prometheus.Gauge
	quotaBytes        prometheus.Gauge
}

// NewBridgeMetrics creates a Prometheus-backed bridge.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called), which
// causes the bridge to use its built-in no-op implementation.
func NewBridgeMetrics() bridge.Metrics {
	if !IsEnabled() {
		return nil
	}

	reg := GetRegistry()

	return &bridgeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "appshell_bridge_operations_total",
				Help: "Total number of bridge filesystem operations by operation and result code",
			},
			[]string{"operation", "code"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "appshell_bridge_operation_duration_seconds",
				Help: "Duration of bridge filesystem operations in seconds, including root readiness",
				Buckets: []float64{
					0.0001, // 100µs
					0.001,  // 1ms
					0.01,   // 10ms
					0.1,    // 100ms
					1.0,    // 1s
					10.0,   // 10s
				},
			},
			[]string{"operation"},
		),
		rootOpensTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "appshell_root_opens_total",
				Help: "Total number of attempts to open and seed the storage root by status",
			},
			[]string{"status"},
		),
		usedBytes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "appshell_sandbox_used_bytes",
				Help: "Bytes of file content stored in the sandbox",
			},
		),
		quotaBytes: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "appshell_sandbox_quota_bytes",
				Help: "Sandbox quota in bytes (0 = unlimited)",
			},
		),
	}
}

// RecordOperation implements bridge.Metrics.
func (m *bridgeMetrics) RecordOperation(op string, code status.Code, duration time.Duration) {
	m.operationsTotal.WithLabelValues(op, code.String()).Inc()
	m.operationDuration.WithLabelValues(op).Observe(duration.Seconds())
}

// RecordRootOpen implements bridge.Metrics.
func (m *bridgeMetrics) RecordRootOpen(err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	m.rootOpensTotal.WithLabelValues(result).Inc()
}

// ObserveUsage implements bridge.Metrics.
func (m *bridgeMetrics) ObserveUsage(used, quota uint64) {
	m.usedBytes.Set(float64(used))
	m.quotaBytes.Set(float64(quota))
}
