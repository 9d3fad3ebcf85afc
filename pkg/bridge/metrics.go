package bridge

import (
	"time"

	"github.com/marmos91/appshell/pkg/status"
)

// Metrics receives bridge observations.
//
// A Prometheus implementation lives in pkg/metrics; a nil Metrics passed to
// New selects the no-op implementation below.
type Metrics interface {
	// RecordOperation records one completed filesystem operation.
	RecordOperation(op string, code status.Code, duration time.Duration)

	// RecordRootOpen records one attempt to open and seed the storage root.
	RecordRootOpen(err error)

	// ObserveUsage records current quota consumption.
	ObserveUsage(usedBytes, quotaBytes uint64)
}

type noopMetrics struct{}

func (noopMetrics) RecordOperation(string, status.Code, time.Duration) {}
func (noopMetrics) RecordRootOpen(error)                               {}
func (noopMetrics) ObserveUsage(uint64, uint64)                        {}
