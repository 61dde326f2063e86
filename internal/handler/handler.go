// Package handler provides the route handlers: page loaders, form actions,
// the auth flow, and the JSON passthrough routes under /api.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/helpmebudget/web/internal/fault"
	"github.com/helpmebudget/web/internal/gateway"
	"github.com/helpmebudget/web/internal/identity"
	"github.com/helpmebudget/web/internal/session"
	"github.com/helpmebudget/web/internal/supabase"
)

// AuthProvider is the subset of the auth client the handlers need.
type AuthProvider interface {
	GetUser(ctx context.Context, accessToken string) (*supabase.User, error)
	ExchangeCode(ctx context.Context, code string) (*supabase.Session, error)
	SignOut(ctx context.Context, accessToken string) error
}

// IdentityResolver maps a session to the backend's internal user ID.
type IdentityResolver interface {
	ResolveUserID(ctx context.Context, sess *session.Session) (string, error)
}

// Handler wraps the dependencies shared by all routes.
type Handler struct {
	logger   *slog.Logger
	auth     AuthProvider
	resolver IdentityResolver
	signer   *identity.CookieSigner
	backend  gateway.Caller

	accounts     *gateway.Accounts
	budgets      *gateway.Budgets
	categories   *gateway.Categories
	transactions *gateway.Transactions
	dashboard    *gateway.Dashboard
	reports      *gateway.Reports
	matching     *gateway.Matching

	sessionCookie string
	secureCookies bool
}

// New creates a Handler. The gateways all share the one backend caller.
func New(logger *slog.Logger, auth AuthProvider, resolver IdentityResolver, signer *identity.CookieSigner, backend gateway.Caller, sessionCookie string, secureCookies bool) *Handler {
	return &Handler{
		logger:        logger,
		auth:          auth,
		resolver:      resolver,
		signer:        signer,
		backend:       backend,
		accounts:      gateway.NewAccounts(backend),
		budgets:       gateway.NewBudgets(backend),
		categories:    gateway.NewCategories(backend),
		transactions:  gateway.NewTransactions(backend),
		dashboard:     gateway.NewDashboard(backend),
		reports:       gateway.NewReports(backend),
		matching:      gateway.NewMatching(backend),
		sessionCookie: sessionCookie,
		secureCookies: secureCookies,
	}
}

// Health is the liveness endpoint.
// GET /healthz
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// NotFound handles 404 responses for unmatched routes.
func (h *Handler) NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, map[string]string{"error": "Not found"})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		_ = err
	}
}

// writeError maps a fault to its JSON error response.
func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, fault.StatusOf(err), map[string]string{"error": fault.MessageOf(err)})
}

// redirect issues a 303 so the browser re-requests with GET regardless of
// the original method.
func redirect(w http.ResponseWriter, r *http.Request, to string) {
	http.Redirect(w, r, to, http.StatusSeeOther)
}

// requireIdentity resolves the session into a backend user ID for page
// routes. No session redirects to the login route; a session without a
// backend record redirects to onboarding. The boolean reports whether the
// caller may proceed.
func (h *Handler) requireIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	sess := session.Get(r.Context())
	if !sess.Authenticated() {
		redirect(w, r, "/auth")
		return "", false
	}

	userID, err := h.resolver.ResolveUserID(r.Context(), sess)
	if err != nil {
		switch fault.KindOf(err) {
		case fault.KindUnauthorized:
			redirect(w, r, "/auth")
		case fault.KindNotProvisioned:
			redirect(w, r, "/onboarding")
		default:
			h.logger.Error("identity resolution failed", "error", err)
			writeError(w, err)
		}
		return "", false
	}
	return userID, true
}

// requireIdentityJSON is the API-route variant: failures become JSON error
// bodies instead of redirects.
func (h *Handler) requireIdentityJSON(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID, err := h.resolver.ResolveUserID(r.Context(), session.Get(r.Context()))
	if err != nil {
		writeError(w, err)
		return "", false
	}
	return userID, true
}
