package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/helpmebudget/web/internal/fault"
	"github.com/helpmebudget/web/internal/identity"
	"github.com/helpmebudget/web/internal/middleware"
	"github.com/helpmebudget/web/internal/session"
	"github.com/helpmebudget/web/internal/supabase"
)

// routeBackend serves canned responses per endpoint prefix and records
// every call made against it.
type routeBackend struct {
	mu     sync.Mutex
	calls  []string
	routes map[string]backendResponse
}

type backendResponse struct {
	status  int
	payload string
}

func newRouteBackend() *routeBackend {
	return &routeBackend{routes: map[string]backendResponse{}}
}

func (b *routeBackend) on(endpoint string, status int, payload string) {
	b.routes[endpoint] = backendResponse{status: status, payload: payload}
}

func (b *routeBackend) Do(ctx context.Context, method, endpoint string, body any, userID string) (*http.Response, error) {
	b.mu.Lock()
	b.calls = append(b.calls, method+" "+endpoint)
	b.mu.Unlock()

	// Exact match first, then a prefix match so query strings hit.
	resp, ok := b.routes[endpoint]
	if !ok {
		for prefix, candidate := range b.routes {
			if strings.HasPrefix(endpoint, prefix+"?") {
				resp, ok = candidate, true
				break
			}
		}
	}
	if !ok {
		resp = backendResponse{status: http.StatusOK, payload: `{}`}
	}

	return &http.Response{
		StatusCode: resp.status,
		Header:     http.Header{},
		Body:       io.NopCloser(strings.NewReader(resp.payload)),
	}, nil
}

func (b *routeBackend) callCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.calls)
}

func (b *routeBackend) called(want string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, c := range b.calls {
		if c == want {
			return true
		}
	}
	return false
}

// fakeAuth is the auth provider double.
type fakeAuth struct {
	user     *supabase.User
	exchange *supabase.Session
}

func (f *fakeAuth) GetUser(ctx context.Context, accessToken string) (*supabase.User, error) {
	if f.user == nil {
		return nil, fault.Unauthorized("invalid session")
	}
	return f.user, nil
}

func (f *fakeAuth) ExchangeCode(ctx context.Context, code string) (*supabase.Session, error) {
	if f.exchange == nil {
		return nil, fault.Upstream(http.StatusBadRequest, "invalid code")
	}
	return f.exchange, nil
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) error { return nil }

// fakeResolver is the identity bridge double.
type fakeResolver struct {
	id  string
	err error
}

func (f *fakeResolver) ResolveUserID(ctx context.Context, sess *session.Session) (string, error) {
	if !sess.Authenticated() {
		return "", fault.Unauthorized("Unauthorized")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.id, nil
}

const testCookie = "sb-access-token"

func newTestRouter(t *testing.T, auth *fakeAuth, resolver IdentityResolver, backend *routeBackend) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	signer := identity.NewCookieSigner("test-secret", false)
	h := New(logger, auth, resolver, signer, backend, testCookie, false)

	sessMW := session.NewMiddleware(auth, nil, testCookie, logger, nil)
	return h.Router(RouterConfig{
		Logger:             logger,
		Session:            sessMW,
		Security:           middleware.SecurityConfig{IsDevelopment: true},
		CORS:               middleware.DefaultCORSConfig(),
		MaxRequestBodySize: 1 << 20,
	})
}

func authedUser() *supabase.User {
	return &supabase.User{ID: "sb-1", Email: "jo@example.com", UserMetadata: map[string]any{"full_name": "Jo Budgets"}}
}

func withSession(req *http.Request) *http.Request {
	req.AddCookie(&http.Cookie{Name: testCookie, Value: "tok"})
	return req
}

func TestDashboard_NoSessionRedirectsToLogin(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{}, &fakeResolver{}, newRouteBackend())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/auth" {
		t.Errorf("location = %q, want /auth", loc)
	}
}

func TestDashboard_NotProvisionedRedirectsToOnboarding(t *testing.T) {
	resolver := &fakeResolver{err: fault.NotProvisioned("")}
	router := newTestRouter(t, &fakeAuth{user: authedUser()}, resolver, newRouteBackend())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/onboarding" {
		t.Errorf("location = %q, want /onboarding", loc)
	}
}

func TestCreateAccount_ReturnsBackendAccount(t *testing.T) {
	backend := newRouteBackend()
	backend.on("/api/accounts", http.StatusCreated,
		`{"id":"a1","name":"Everyday","account_type":"checking","balance":100,"currency":"USD"}`)
	router := newTestRouter(t, &fakeAuth{user: authedUser()}, &fakeResolver{id: "local-7"}, backend)

	form := url.Values{"name": {"Everyday"}, "account_type": {"checking"}, "balance": {"100"}}
	req := withSession(httptest.NewRequest(http.MethodPost, "/dashboard/accounts", strings.NewReader(form.Encode())))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var body struct {
		Success bool `json:"success"`
		Account struct {
			ID       string  `json:"id"`
			Name     string  `json:"name"`
			Balance  float64 `json:"balance"`
			Currency string  `json:"currency"`
		} `json:"account"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if !body.Success || body.Account.ID != "a1" || body.Account.Balance != 100 {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}
}

func TestBudgetDetail_NotFound(t *testing.T) {
	backend := newRouteBackend()
	backend.on("/api/budgets/nope/full", http.StatusNotFound, `{"error":"no row"}`)
	backend.on("/api/budgets/nope/summary", http.StatusNotFound, `{"error":"no row"}`)
	backend.on("/api/categories", http.StatusOK, `{"categories":[]}`)
	router := newTestRouter(t, &fakeAuth{user: authedUser()}, &fakeResolver{id: "local-7"}, backend)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard/budgets/nope", nil)))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	var body struct {
		Error string `json:"error"`
	}
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body.Error != "Budget not found" {
		t.Errorf("error = %q, want Budget not found", body.Error)
	}
}

func TestCreateTransaction_MissingAmountSkipsBackend(t *testing.T) {
	backend := newRouteBackend()
	router := newTestRouter(t, &fakeAuth{user: authedUser()}, &fakeResolver{id: "local-7"}, backend)

	form := url.Values{
		"account_id":       {"a1"},
		"description":      {"groceries"},
		"transaction_date": {"2026-08-30"},
		"transaction_type": {"debit"},
	}
	req := withSession(httptest.NewRequest(http.MethodPost, "/dashboard/transactions", strings.NewReader(form.Encode())))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Missing required fields") {
		t.Errorf("body = %s", rec.Body.String())
	}
	if backend.callCount() != 0 {
		t.Errorf("backend calls = %d, want 0", backend.callCount())
	}
}

func TestReview_BudgetFailureDegrades(t *testing.T) {
	backend := newRouteBackend()
	backend.on("/api/transactions/unmatched", http.StatusOK,
		`{"transactions":[{"id":"t1","description":"coffee"}]}`)
	backend.on("/api/budgets", http.StatusInternalServerError, `{"error":"db down"}`)
	backend.on("/api/accounts", http.StatusOK, `{"accounts":[]}`)
	backend.on("/api/categories", http.StatusOK, `{"categories":[]}`)
	router := newTestRouter(t, &fakeAuth{user: authedUser()}, &fakeResolver{id: "local-7"}, backend)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard/review", nil)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var page ReviewPage
	if err := json.Unmarshal(rec.Body.Bytes(), &page); err != nil {
		t.Fatalf("decoding page: %v", err)
	}
	if len(page.Unmatched) != 1 {
		t.Errorf("unmatched = %d, want 1", len(page.Unmatched))
	}
	if page.Budget != nil {
		t.Error("budget should be nil after isolated failure")
	}
	if page.Error == "" {
		t.Error("page should carry a degradation message")
	}
}

func TestReports_TwoPhaseProjectionUsesSummedBalances(t *testing.T) {
	backend := newRouteBackend()
	backend.on("/api/reports/spending-trends", http.StatusOK, `[]`)
	backend.on("/api/reports/budget-variance", http.StatusOK, `[]`)
	backend.on("/api/reports/top-expenses", http.StatusOK, `[]`)
	backend.on("/api/reports/cash-flow-projection", http.StatusOK, `[]`)
	backend.on("/api/accounts", http.StatusOK,
		`{"accounts":[{"id":"a1","balance":100.5},{"id":"a2","balance":150}]}`)
	router := newTestRouter(t, &fakeAuth{user: authedUser()}, &fakeResolver{id: "local-7"}, backend)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard/reports", nil)))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !backend.called("GET /api/reports/cash-flow-projection?days=90&starting_balance=250.5") {
		t.Errorf("projection not refetched with summed balance; calls: %v", backend.calls)
	}
}

func TestOnboarding_ProvisionedUserWithAccountsRedirects(t *testing.T) {
	backend := newRouteBackend()
	backend.on("/api/accounts", http.StatusOK, `{"accounts":[{"id":"a1"}]}`)
	backend.on("/api/categories", http.StatusOK, `{"categories":[]}`)
	router := newTestRouter(t, &fakeAuth{user: authedUser()}, &fakeResolver{id: "local-7"}, backend)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/onboarding", nil)))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("location = %q, want /dashboard", loc)
	}
}

func TestCallback_SetsCookiesAndRedirects(t *testing.T) {
	backend := newRouteBackend()
	backend.on("/auth/sync", http.StatusOK, `{}`)
	auth := &fakeAuth{
		user: authedUser(),
		exchange: &supabase.Session{
			AccessToken: "fresh-token",
			ExpiresIn:   3600,
			User:        authedUser(),
		},
	}
	router := newTestRouter(t, auth, &fakeResolver{id: "local-7"}, backend)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("location = %q", loc)
	}

	var gotSession, gotLegacy bool
	for _, c := range rec.Result().Cookies() {
		switch c.Name {
		case testCookie:
			gotSession = c.Value == "fresh-token" && c.HttpOnly
		case identity.UserDataCookie:
			gotLegacy = c.Value != ""
		}
	}
	if !gotSession {
		t.Error("session cookie not set from exchanged token")
	}
	if !gotLegacy {
		t.Error("legacy user_data cookie not issued")
	}
	if !backend.called("POST /auth/sync") {
		t.Error("user sync was not attempted")
	}
}

func TestCallback_BadCodeRedirectsToLoginWithError(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{}, &fakeResolver{}, newRouteBackend())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/auth/callback?code=bad", nil))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); !strings.HasPrefix(loc, "/auth?error=") {
		t.Errorf("location = %q", loc)
	}
}

func TestMe(t *testing.T) {
	router := newTestRouter(t, &fakeAuth{user: authedUser()}, &fakeResolver{id: "local-7"}, newRouteBackend())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "jo@example.com") {
		t.Errorf("body = %s", rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous status = %d, want 401", rec.Code)
	}
}

func TestAdmin_LegacyCookieSkipsResolution(t *testing.T) {
	backend := newRouteBackend()
	backend.on("/admin/users", http.StatusOK, `{"users":[]}`)
	// Resolver would fail; the signed cookie must carry the request.
	router := newTestRouter(t, &fakeAuth{}, &fakeResolver{err: fault.NotProvisioned("")}, backend)

	signer := identity.NewCookieSigner("test-secret", false)
	cookie, err := signer.Issue(identity.UserClaims{UserID: "local-7", Email: "jo@example.com"})
	if err != nil {
		t.Fatalf("issuing cookie: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
	req.AddCookie(cookie)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if !backend.called("GET /admin/users") {
		t.Error("admin passthrough did not reach the backend")
	}
}

func TestDashboard_NoStoreHeader(t *testing.T) {
	backend := newRouteBackend()
	backend.on("/api/dashboard/summary", http.StatusOK, `{}`)
	backend.on("/api/dashboard/recent-activity", http.StatusOK, `{"transactions":[]}`)
	backend.on("/api/dashboard/spending-by-category", http.StatusOK, `{"categories":[]}`)
	router := newTestRouter(t, &fakeAuth{user: authedUser()}, &fakeResolver{id: "local-7"}, backend)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodGet, "/dashboard", nil)))

	if got := rec.Header().Get("Cache-Control"); !strings.Contains(got, "no-store") {
		t.Errorf("cache-control = %q, want no-store", got)
	}
}
