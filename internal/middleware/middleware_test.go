package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRequestID_GeneratesWhenAbsent(t *testing.T) {
	var captured string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = GetRequestID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if captured == "" {
		t.Fatal("request ID missing from context")
	}
	if got := rec.Header().Get(RequestIDHeader); got != captured {
		t.Errorf("header = %q, context = %q", got, captured)
	}
}

func TestRequestID_PreservesIncoming(t *testing.T) {
	h := RequestID(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "upstream-id-1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get(RequestIDHeader); got != "upstream-id-1" {
		t.Errorf("request ID = %q, want upstream-id-1", got)
	}
}

func TestLogger_EmitsStatusAndPath(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Logger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/budgets/x", nil))

	out := buf.String()
	if !strings.Contains(out, `"status_code":404`) {
		t.Errorf("log line missing status: %s", out)
	}
	if !strings.Contains(out, `"path":"/budgets/x"`) {
		t.Errorf("log line missing path: %s", out)
	}
	if !strings.Contains(out, `"level":"WARN"`) {
		t.Errorf("4xx should log at warn: %s", out)
	}
}

func TestRecoverer_Returns500(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	h := Recoverer(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if !strings.Contains(buf.String(), "panic recovered") {
		t.Error("panic not logged")
	}
}

func TestSecurity_SetsHeaders(t *testing.T) {
	h := Security(SecurityConfig{IsDevelopment: true})(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("nosniff header = %q", got)
	}
	if rec.Header().Get("Strict-Transport-Security") != "" {
		t.Error("HSTS must be off in development")
	}
	if csp := rec.Header().Get("Content-Security-Policy"); !strings.Contains(csp, "default-src 'self'") {
		t.Errorf("csp = %q", csp)
	}
}

func TestNoStore(t *testing.T) {
	h := NoStore(okHandler())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/dashboard", nil))

	if got := rec.Header().Get("Cache-Control"); got != "no-store, must-revalidate" {
		t.Errorf("cache-control = %q", got)
	}
}

func TestMaxBodySize_RejectsOversizedDeclaredLength(t *testing.T) {
	h := MaxBodySize(8)(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("way too large a body"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com", "*.preview.example.com"}
	h := CORS(cfg)(okHandler())

	tests := []struct {
		name       string
		origin     string
		method     string
		wantStatus int
		wantAllow  string
	}{
		{"same origin", "", http.MethodGet, http.StatusOK, ""},
		{"allowed origin", "https://app.example.com", http.MethodGet, http.StatusOK, "https://app.example.com"},
		{"wildcard subdomain", "https://pr-42.preview.example.com", http.MethodGet, http.StatusOK, "https://pr-42.preview.example.com"},
		{"wildcard nested subdomain", "https://a.b.preview.example.com", http.MethodGet, http.StatusOK, "https://a.b.preview.example.com"},
		{"wildcard bare domain", "https://preview.example.com", http.MethodGet, http.StatusOK, ""},
		{"wildcard empty label", "https://.preview.example.com", http.MethodGet, http.StatusOK, ""},
		{"disallowed origin", "https://evil.example.net", http.MethodGet, http.StatusOK, ""},
		{"allowed preflight", "https://app.example.com", http.MethodOptions, http.StatusNoContent, "https://app.example.com"},
		{"disallowed preflight", "https://evil.example.net", http.MethodOptions, http.StatusForbidden, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/auth/me", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Header().Get("Access-Control-Allow-Origin"); got != tt.wantAllow {
				t.Errorf("allow-origin = %q, want %q", got, tt.wantAllow)
			}
		})
	}
}

func TestCORS_CredentialsHeader(t *testing.T) {
	cfg := DefaultCORSConfig()
	cfg.AllowedOrigins = []string{"https://app.example.com"}
	h := CORS(cfg)(okHandler())

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Header().Get("Access-Control-Allow-Credentials") != "true" {
		t.Error("credentials header missing for cookie-backed endpoints")
	}
}
