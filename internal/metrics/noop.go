package metrics

import "time"

// NoopRecorder implements Recorder with no-op methods.
type NoopRecorder struct{}

// NewNoop returns a Recorder that discards all metrics.
func NewNoop() Recorder {
	return &NoopRecorder{}
}

// IncBackendRequest is a no-op.
func (n *NoopRecorder) IncBackendRequest(outcome string) {}

// ObserveBackendDuration is a no-op.
func (n *NoopRecorder) ObserveBackendDuration(duration time.Duration) {}

// IncSessionValidated is a no-op.
func (n *NoopRecorder) IncSessionValidated() {}

// IncSessionRejected is a no-op.
func (n *NoopRecorder) IncSessionRejected() {}

// IncIdentityResolved is a no-op.
func (n *NoopRecorder) IncIdentityResolved() {}

// IncIdentityFailed is a no-op.
func (n *NoopRecorder) IncIdentityFailed(reason string) {}
