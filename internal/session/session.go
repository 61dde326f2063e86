// Package session establishes the per-request auth context. The middleware
// attaches a lazy session accessor to every request; the session is resolved
// at most once per request, and always by re-validating the access token with
// the auth provider rather than trusting the cookie contents.
package session

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/helpmebudget/web/internal/metrics"
	"github.com/helpmebudget/web/internal/supabase"
)

// Session is the request-scoped view of the authenticated user.
// User is nil for anonymous requests.
type Session struct {
	User        *supabase.User
	AccessToken string
}

// Authenticated reports whether the session carries a validated user.
func (s *Session) Authenticated() bool {
	return s != nil && s.User != nil
}

// AuthClient validates access tokens. Implemented by *supabase.Client.
type AuthClient interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
}

// HealthProber reports backend reachability. Implemented by *backend.Client.
type HealthProber interface {
	Health(ctx context.Context) bool
}

// contextKey is a type for context keys to avoid collisions.
type contextKey string

const sessionKey contextKey = "session"

// lazySession resolves the session on first access and memoizes the result
// for the rest of the request.
type lazySession struct {
	once  sync.Once
	token string
	auth  AuthClient
	rec   metrics.Recorder
	sess  *Session
}

func (l *lazySession) get(ctx context.Context) *Session {
	l.once.Do(func() {
		if l.token == "" {
			l.sess = &Session{}
			return
		}

		user, err := l.auth.GetUser(ctx, l.token)
		if err != nil {
			// An unverifiable token is treated the same as no session.
			l.rec.IncSessionRejected()
			l.sess = &Session{}
			return
		}

		l.rec.IncSessionValidated()
		l.sess = &Session{User: user, AccessToken: l.token}
	})
	return l.sess
}

// Middleware wires the auth provider into every inbound request.
type Middleware struct {
	auth       AuthClient
	prober     HealthProber
	cookieName string
	logger     *slog.Logger
	recorder   metrics.Recorder

	healthOnce sync.Once
}

// NewMiddleware creates the session middleware.
func NewMiddleware(auth AuthClient, prober HealthProber, cookieName string, logger *slog.Logger, recorder metrics.Recorder) *Middleware {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &Middleware{
		auth:       auth,
		prober:     prober,
		cookieName: cookieName,
		logger:     logger,
		recorder:   recorder,
	}
}

// Handler attaches the lazy session accessor to the request context.
// On the first request of the process lifetime it also probes backend
// health; the outcome is logged and never blocks the request.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.healthOnce.Do(func() {
			if m.prober == nil {
				return
			}
			if m.prober.Health(r.Context()) {
				m.logger.Info("backend API is available")
			} else {
				m.logger.Error("backend API is NOT available; pages will degrade until it comes up")
			}
		})

		var token string
		if c, err := r.Cookie(m.cookieName); err == nil {
			token = c.Value
		}

		lazy := &lazySession{
			token: token,
			auth:  m.auth,
			rec:   m.recorder,
		}

		ctx := context.WithValue(r.Context(), sessionKey, lazy)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Get returns the session for the current request, resolving it on first
// call. Requests outside the middleware get an anonymous session.
func Get(ctx context.Context) *Session {
	lazy, ok := ctx.Value(sessionKey).(*lazySession)
	if !ok {
		return &Session{}
	}
	return lazy.get(ctx)
}

// forwardableHeaders are the only upstream response headers passed through
// to the browser, besides the auth provider's own session cookies.
var forwardableHeaders = map[string]bool{
	"content-range":          true,
	"x-supabase-api-version": true,
}

// FilterForwardedHeaders copies the allowlisted headers from an upstream
// response into dst. Set-Cookie values are forwarded only for the auth
// provider's session cookies (sb-* prefix).
func FilterForwardedHeaders(dst http.Header, src http.Header) {
	for name, values := range src {
		lower := strings.ToLower(name)
		switch {
		case forwardableHeaders[lower]:
			for _, v := range values {
				dst.Add(name, v)
			}
		case lower == "set-cookie":
			for _, v := range values {
				if strings.HasPrefix(v, "sb-") {
					dst.Add(name, v)
				}
			}
		}
	}
}
