package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/helpmebudget/web/internal/fault"
	"github.com/helpmebudget/web/internal/metrics"
	"github.com/helpmebudget/web/internal/session"
	"github.com/helpmebudget/web/internal/supabase"
)

// countingBackend fails the test if a network call happens when none should.
type countingBackend struct {
	calls   int32
	status  int
	payload any
}

func (c *countingBackend) Do(ctx context.Context, method, endpoint string, body any, userID string) (*http.Response, error) {
	atomic.AddInt32(&c.calls, 1)

	rec := httptest.NewRecorder()
	rec.WriteHeader(c.status)
	if c.payload != nil {
		json.NewEncoder(rec.Body).Encode(c.payload)
	}
	return rec.Result(), nil
}

func authedSession(email string) *session.Session {
	return &session.Session{User: &supabase.User{ID: "sb-1", Email: email}, AccessToken: "tok"}
}

func TestResolveUserID_NoUserFailsBeforeNetworkCall(t *testing.T) {
	backend := &countingBackend{status: http.StatusOK}
	rec := metrics.NewInMemory()
	r := NewResolver(backend, rec)

	tests := []struct {
		name string
		sess *session.Session
	}{
		{"nil session", nil},
		{"anonymous session", &session.Session{}},
		{"user without email", &session.Session{User: &supabase.User{ID: "sb-1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.ResolveUserID(context.Background(), tt.sess)

			var fe *fault.Error
			if !errors.As(err, &fe) || fe.Kind != fault.KindUnauthorized {
				t.Errorf("error = %v, want KindUnauthorized", err)
			}
		})
	}

	if atomic.LoadInt32(&backend.calls) != 0 {
		t.Errorf("backend called %d times, want 0", backend.calls)
	}
	if rec.Snapshot().IdentityUnauthorized != 3 {
		t.Errorf("unauthorized counter = %d, want 3", rec.Snapshot().IdentityUnauthorized)
	}
}

func TestResolveUserID_Success(t *testing.T) {
	backend := &countingBackend{status: http.StatusOK, payload: map[string]string{"user_id": "local-7"}}
	r := NewResolver(backend, nil)

	id, err := r.ResolveUserID(context.Background(), authedSession("jo@example.com"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "local-7" {
		t.Errorf("user id = %q, want local-7", id)
	}
}

func TestResolveUserID_LookupEscapesEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("email"); got != "jo+budget@example.com" {
			t.Errorf("email = %q", got)
		}
		if r.Header.Get("X-User-ID") != "" {
			t.Error("identity lookup must not carry a user header")
		}
		json.NewEncoder(w).Encode(map[string]string{"user_id": "local-7"})
	}))
	defer srv.Close()

	// Thin real-client wrapper around the test server.
	r := NewResolver(&httpBackend{base: srv.URL}, nil)
	if _, err := r.ResolveUserID(context.Background(), authedSession("jo+budget@example.com")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

type httpBackend struct{ base string }

func (h *httpBackend) Do(ctx context.Context, method, endpoint string, body any, userID string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, h.base+endpoint, nil)
	if err != nil {
		return nil, err
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	return http.DefaultClient.Do(req)
}

func TestResolveUserID_UnprovisionedUser(t *testing.T) {
	backend := &countingBackend{status: http.StatusNotFound}
	rec := metrics.NewInMemory()
	r := NewResolver(backend, rec)

	_, err := r.ResolveUserID(context.Background(), authedSession("new@example.com"))

	var fe *fault.Error
	if !errors.As(err, &fe) || fe.Kind != fault.KindNotProvisioned {
		t.Errorf("error = %v, want KindNotProvisioned", err)
	}
	if fe.Status != http.StatusForbidden {
		t.Errorf("status = %d, want 403", fe.Status)
	}
	if rec.Snapshot().IdentityNotProvisioned != 1 {
		t.Errorf("not_provisioned counter = %d, want 1", rec.Snapshot().IdentityNotProvisioned)
	}
}

func TestResolveUserID_EmptyUserIDInBody(t *testing.T) {
	backend := &countingBackend{status: http.StatusOK, payload: map[string]string{}}
	r := NewResolver(backend, nil)

	_, err := r.ResolveUserID(context.Background(), authedSession("jo@example.com"))
	if fault.KindOf(err) != fault.KindNotProvisioned {
		t.Errorf("error = %v, want KindNotProvisioned", err)
	}
}
