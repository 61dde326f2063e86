package metrics

import (
	"sync/atomic"
	"time"
)

// Snapshot captures current in-memory counters.
type Snapshot struct {
	BackendSuccess         uint64
	BackendUpstreamErrors  uint64
	BackendTransportErrors uint64
	BackendDurationCount   uint64
	BackendDurationTotalNs int64
	SessionsValidated      uint64
	SessionsRejected       uint64
	IdentitiesResolved     uint64
	IdentityUnauthorized   uint64
	IdentityNotProvisioned uint64
}

// InMemoryRecorder stores metrics in memory for tests.
type InMemoryRecorder struct {
	backendSuccess         uint64
	backendUpstreamErrors  uint64
	backendTransportErrors uint64
	backendDurationCount   uint64
	backendDurationTotalNs int64
	sessionsValidated      uint64
	sessionsRejected       uint64
	identitiesResolved     uint64
	identityUnauthorized   uint64
	identityNotProvisioned uint64
}

// NewInMemory returns a Recorder that stores counters in memory.
func NewInMemory() *InMemoryRecorder {
	return &InMemoryRecorder{}
}

// Snapshot returns a copy of the counters.
func (m *InMemoryRecorder) Snapshot() Snapshot {
	return Snapshot{
		BackendSuccess:         atomic.LoadUint64(&m.backendSuccess),
		BackendUpstreamErrors:  atomic.LoadUint64(&m.backendUpstreamErrors),
		BackendTransportErrors: atomic.LoadUint64(&m.backendTransportErrors),
		BackendDurationCount:   atomic.LoadUint64(&m.backendDurationCount),
		BackendDurationTotalNs: atomic.LoadInt64(&m.backendDurationTotalNs),
		SessionsValidated:      atomic.LoadUint64(&m.sessionsValidated),
		SessionsRejected:       atomic.LoadUint64(&m.sessionsRejected),
		IdentitiesResolved:     atomic.LoadUint64(&m.identitiesResolved),
		IdentityUnauthorized:   atomic.LoadUint64(&m.identityUnauthorized),
		IdentityNotProvisioned: atomic.LoadUint64(&m.identityNotProvisioned),
	}
}

// IncBackendRequest increments the counter for the given outcome.
func (m *InMemoryRecorder) IncBackendRequest(outcome string) {
	switch outcome {
	case "success":
		atomic.AddUint64(&m.backendSuccess, 1)
	case "upstream_error":
		atomic.AddUint64(&m.backendUpstreamErrors, 1)
	case "transport_error":
		atomic.AddUint64(&m.backendTransportErrors, 1)
	}
}

// ObserveBackendDuration records one backend call duration.
func (m *InMemoryRecorder) ObserveBackendDuration(duration time.Duration) {
	atomic.AddUint64(&m.backendDurationCount, 1)
	atomic.AddInt64(&m.backendDurationTotalNs, duration.Nanoseconds())
}

// IncSessionValidated increments the validated-session counter.
func (m *InMemoryRecorder) IncSessionValidated() {
	atomic.AddUint64(&m.sessionsValidated, 1)
}

// IncSessionRejected increments the rejected-session counter.
func (m *InMemoryRecorder) IncSessionRejected() {
	atomic.AddUint64(&m.sessionsRejected, 1)
}

// IncIdentityResolved increments the resolved-identity counter.
func (m *InMemoryRecorder) IncIdentityResolved() {
	atomic.AddUint64(&m.identitiesResolved, 1)
}

// IncIdentityFailed increments the failure counter for the given reason.
func (m *InMemoryRecorder) IncIdentityFailed(reason string) {
	switch reason {
	case "unauthorized":
		atomic.AddUint64(&m.identityUnauthorized, 1)
	case "not_provisioned":
		atomic.AddUint64(&m.identityNotProvisioned, 1)
	}
}
