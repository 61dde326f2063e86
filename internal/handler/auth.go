package handler

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"github.com/helpmebudget/web/internal/identity"
	"github.com/helpmebudget/web/internal/session"
	"github.com/helpmebudget/web/internal/supabase"
)

// Login is the login landing route. The actual credential flow happens on
// the auth provider's side; this route only hands the page its data.
// GET /auth
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	sess := session.Get(r.Context())
	if sess.Authenticated() {
		redirect(w, r, "/dashboard")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"authenticated": false,
		"error":         r.URL.Query().Get("error"),
	})
}

// Callback completes the OAuth/PKCE flow: exchange the code for a session,
// set the session cookie, sync the user to the backend, and send the
// browser on. The sync and legacy-cookie steps are best-effort; a user with
// a valid session must never be bounced back to login because a side call
// failed.
// GET /auth/callback
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	next := sanitizeNext(r.URL.Query().Get("next"))

	sess, err := h.auth.ExchangeCode(r.Context(), code)
	if err != nil {
		h.logger.Warn("code exchange failed", "error", err)
		redirect(w, r, "/auth?error="+url.QueryEscape("Authentication failed"))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionCookie,
		Value:    sess.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   sess.ExpiresIn,
	})

	if sess.User != nil {
		h.syncUser(r.Context(), sess.User)
		h.issueLegacyCookie(r.Context(), w, sess.User)
	}

	redirect(w, r, next)
}

// syncUser tells the backend about a freshly authenticated user so a local
// record exists before the first identity resolution. Failures are logged
// and swallowed.
func (h *Handler) syncUser(ctx context.Context, user *supabase.User) {
	body := map[string]string{
		"email":            user.Email,
		"name":             user.Name(),
		"avatar_url":       user.AvatarURL(),
		"provider":         user.Provider(),
		"provider_user_id": user.ProviderUserID(),
	}

	resp, err := h.backend.Do(ctx, http.MethodPost, "/auth/sync", body, "")
	if err != nil {
		h.logger.Warn("user sync failed", "error", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		h.logger.Warn("user sync rejected", "status", resp.StatusCode)
	}
}

// issueLegacyCookie resolves the backend identity and sets the signed
// user_data cookie read by the admin passthrough routes. Best-effort: a
// brand-new user may not be provisioned yet.
func (h *Handler) issueLegacyCookie(ctx context.Context, w http.ResponseWriter, user *supabase.User) {
	userID, err := h.resolver.ResolveUserID(ctx, &session.Session{User: user, AccessToken: "post-exchange"})
	if err != nil {
		h.logger.Info("skipping legacy cookie", "reason", err)
		return
	}

	cookie, err := h.signer.Issue(identity.UserClaims{
		UserID:    userID,
		Email:     user.Email,
		Name:      user.Name(),
		AvatarURL: user.AvatarURL(),
	})
	if err != nil {
		h.logger.Warn("signing legacy cookie failed", "error", err)
		return
	}
	http.SetCookie(w, cookie)
}

// Logout revokes the session with the auth provider and clears both
// cookies. The revocation is best-effort; the cookies are cleared
// regardless.
// POST /auth/logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(h.sessionCookie); err == nil && c.Value != "" {
		if err := h.auth.SignOut(r.Context(), c.Value); err != nil {
			h.logger.Warn("sign-out call failed", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionCookie,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
	http.SetCookie(w, h.signer.Clear())

	redirect(w, r, "/auth")
}

// Me returns the current session's user for client-side checks.
// GET /api/auth/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	sess := session.Get(r.Context())
	if !sess.Authenticated() {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"user": nil, "error": "Unauthorized"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"user": map[string]string{
			"id":         sess.User.ID,
			"email":      sess.User.Email,
			"name":       sess.User.Name(),
			"avatar_url": sess.User.AvatarURL(),
		},
	})
}

// sanitizeNext keeps post-login redirects on this site. Anything absolute
// or schemeless-external falls back to the dashboard.
func sanitizeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/dashboard"
	}
	return next
}
