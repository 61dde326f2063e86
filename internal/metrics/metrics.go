// Package metrics provides lightweight hooks for instrumentation.
package metrics

import "time"

// Recorder captures metric events for the application.
// Implementations can expose these to Prometheus, StatsD, etc.
type Recorder interface {
	// Backend call metrics
	IncBackendRequest(outcome string) // outcome: "success", "upstream_error", "transport_error"
	ObserveBackendDuration(duration time.Duration)

	// Session metrics
	IncSessionValidated()
	IncSessionRejected()

	// Identity bridge metrics
	IncIdentityResolved()
	IncIdentityFailed(reason string) // reason: "unauthorized" or "not_provisioned"
}

// Snapshotter exposes a snapshot of current metrics.
type Snapshotter interface {
	Snapshot() Snapshot
}
