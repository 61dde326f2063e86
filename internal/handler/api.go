package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/helpmebudget/web/internal/fault"
	"github.com/helpmebudget/web/internal/gateway"
	"github.com/helpmebudget/web/internal/identity"
	"github.com/helpmebudget/web/internal/session"
)

// JSON API routes. These serve the client-side fetches the pages make
// after initial render, plus the admin passthroughs.

// OnboardingAccount creates the user's first account from the onboarding
// flow. JSON body rather than form fields.
// POST /api/onboarding/account
func (h *Handler) OnboardingAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	var body struct {
		Name        string  `json:"name"`
		AccountType string  `json:"account_type"`
		Balance     float64 `json:"balance"`
		Currency    string  `json:"currency"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, fault.Validation("Invalid request body"))
		return
	}
	if body.Name == "" || body.AccountType == "" {
		writeError(w, fault.Validation(msgMissingFields))
		return
	}
	if body.Currency == "" {
		body.Currency = "USD"
	}

	account, err := h.accounts.Create(r.Context(), userID, gateway.CreateAccountRequest{
		Name:        body.Name,
		AccountType: body.AccountType,
		Balance:     body.Balance,
		Currency:    body.Currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "account": account})
}

// OnboardingCategories seeds the default category set.
// POST /api/onboarding/categories
func (h *Handler) OnboardingCategories(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	categories, err := h.categories.Seed(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "categories": categories})
}

// UserRoles looks up backend roles for an email. The session's own email
// is used unless the caller is asking about themselves explicitly.
// GET /api/user/roles
func (h *Handler) UserRoles(w http.ResponseWriter, r *http.Request) {
	sess := session.Get(r.Context())
	if !sess.Authenticated() {
		writeError(w, fault.Unauthorized(""))
		return
	}

	email := r.URL.Query().Get("email")
	if email == "" {
		email = sess.User.Email
	}

	h.proxy(w, r, http.MethodGet, "/auth/roles/by-email?email="+url.QueryEscape(email), "")
}

// adminIdentity authorizes the admin passthroughs. These predate the
// resolver and trust the signed legacy cookie when present; requests
// without one fall back to full per-request resolution.
func (h *Handler) adminIdentity(w http.ResponseWriter, r *http.Request) (string, bool) {
	if c, err := r.Cookie(identity.UserDataCookie); err == nil {
		if claims, err := h.signer.Parse(c.Value); err == nil {
			return claims.UserID, true
		}
	}
	return h.requireIdentityJSON(w, r)
}

// AdminUsers lists all backend users.
// GET /api/admin/users
func (h *Handler) AdminUsers(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.adminIdentity(w, r)
	if !ok {
		return
	}
	h.proxy(w, r, http.MethodGet, "/admin/users", userID)
}

// AdminDeleteUser removes a backend user.
// DELETE /api/admin/users/{userID}
func (h *Handler) AdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.adminIdentity(w, r)
	if !ok {
		return
	}
	h.proxy(w, r, http.MethodDelete, "/admin/users/"+chi.URLParam(r, "userID"), userID)
}

// AdminDeactivateUser suspends a backend user.
// POST /api/admin/users/{userID}/deactivate
func (h *Handler) AdminDeactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.adminIdentity(w, r)
	if !ok {
		return
	}
	h.proxy(w, r, http.MethodPost, "/admin/users/"+chi.URLParam(r, "userID")+"/deactivate", userID)
}

// AdminReactivateUser lifts a suspension.
// POST /api/admin/users/{userID}/reactivate
func (h *Handler) AdminReactivateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.adminIdentity(w, r)
	if !ok {
		return
	}
	h.proxy(w, r, http.MethodPost, "/admin/users/"+chi.URLParam(r, "userID")+"/reactivate", userID)
}

// AdminSessions lists active backend sessions.
// GET /api/admin/sessions
func (h *Handler) AdminSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.adminIdentity(w, r)
	if !ok {
		return
	}
	h.proxy(w, r, http.MethodGet, "/admin/sessions", userID)
}

// AdminAuditLogs lists the backend audit trail.
// GET /api/admin/audit-logs
func (h *Handler) AdminAuditLogs(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.adminIdentity(w, r)
	if !ok {
		return
	}
	h.proxy(w, r, http.MethodGet, "/admin/audit-logs", userID)
}

// proxy relays a backend response as-is: status, body, and the small
// allowlist of forwardable headers.
func (h *Handler) proxy(w http.ResponseWriter, r *http.Request, method, endpoint, userID string) {
	resp, err := h.backend.Do(r.Context(), method, endpoint, nil, userID)
	if err != nil {
		writeError(w, err)
		return
	}
	defer resp.Body.Close()

	session.FilterForwardedHeaders(w.Header(), resp.Header)
	if ct := resp.Header.Get("Content-Type"); ct != "" {
		w.Header().Set("Content-Type", ct)
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	w.WriteHeader(resp.StatusCode)
	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Warn("relaying backend response failed", "error", err)
	}
}
