// Package identity bridges the auth provider's session to the internal user
// ID the backend API expects on every call. Resolution happens once per
// request and is never cached across requests, so an identity change on the
// backend takes effect on the very next request.
package identity

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/helpmebudget/web/internal/fault"
	"github.com/helpmebudget/web/internal/metrics"
	"github.com/helpmebudget/web/internal/session"
)

// BackendCaller is the subset of the backend client the resolver needs.
type BackendCaller interface {
	Do(ctx context.Context, method, endpoint string, body any, userID string) (*http.Response, error)
}

// Resolver maps validated sessions to internal user IDs.
type Resolver struct {
	backend  BackendCaller
	recorder metrics.Recorder
}

// NewResolver creates a Resolver.
func NewResolver(backend BackendCaller, recorder metrics.Recorder) *Resolver {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Resolver{backend: backend, recorder: recorder}
}

// ResolveUserID returns the backend's internal user ID for the session's
// user, looked up by email. A session without a user fails Unauthorized
// before any network call; a valid session whose email has no backend record
// fails NotProvisioned.
func (r *Resolver) ResolveUserID(ctx context.Context, sess *session.Session) (string, error) {
	if !sess.Authenticated() || sess.User.Email == "" {
		r.recorder.IncIdentityFailed("unauthorized")
		return "", fault.Unauthorized("Unauthorized")
	}

	endpoint := "/auth/roles/by-email?email=" + url.QueryEscape(sess.User.Email)
	resp, err := r.backend.Do(ctx, http.MethodGet, endpoint, nil, "")
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		r.recorder.IncIdentityFailed("not_provisioned")
		return "", fault.NotProvisioned("User not found in local database")
	}

	var body struct {
		UserID string `json:"user_id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fault.Transport("decoding identity lookup response", err)
	}
	if body.UserID == "" {
		r.recorder.IncIdentityFailed("not_provisioned")
		return "", fault.NotProvisioned("User not found in local database")
	}

	r.recorder.IncIdentityResolved()
	return body.UserID, nil
}
