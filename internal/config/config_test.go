package config

import (
	"os"
	"testing"
)

func setRequiredVars(t *testing.T) {
	t.Helper()
	os.Setenv("BACKEND_API_KEY", "svc-secret")
	os.Setenv("SUPABASE_URL", "https://project.supabase.co")
	os.Setenv("SUPABASE_ANON_KEY", "anon-key")
	os.Setenv("USER_COOKIE_SECRET", "cookie-secret")
	t.Cleanup(func() {
		os.Unsetenv("BACKEND_API_KEY")
		os.Unsetenv("SUPABASE_URL")
		os.Unsetenv("SUPABASE_ANON_KEY")
		os.Unsetenv("USER_COOKIE_SECRET")
	})
}

func TestLoad_WithRequiredVars(t *testing.T) {
	setRequiredVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.BackendAPIKey != "svc-secret" {
		t.Errorf("expected BackendAPIKey to be set, got %s", cfg.BackendAPIKey)
	}

	if cfg.SupabaseURL != "https://project.supabase.co" {
		t.Errorf("expected SupabaseURL to be set, got %s", cfg.SupabaseURL)
	}
}

func TestLoad_MissingRequired(t *testing.T) {
	os.Unsetenv("BACKEND_API_KEY")
	os.Unsetenv("SUPABASE_URL")
	os.Unsetenv("SUPABASE_ANON_KEY")
	os.Unsetenv("USER_COOKIE_SECRET")

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for missing required vars, got nil")
	}
}

func TestConfig_Defaults(t *testing.T) {
	setRequiredVars(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if cfg.BackendURL != "http://localhost:3000" {
		t.Errorf("expected default BackendURL, got %s", cfg.BackendURL)
	}

	if cfg.SessionCookie != "sb-access-token" {
		t.Errorf("expected default SessionCookie, got %s", cfg.SessionCookie)
	}

	if cfg.AppPort != 8080 {
		t.Errorf("expected default AppPort 8080, got %d", cfg.AppPort)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default LogLevel 'info', got %s", cfg.LogLevel)
	}

	if cfg.LogFormat != "json" {
		t.Errorf("expected default LogFormat 'json', got %s", cfg.LogFormat)
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	cfg := &Config{AppEnv: "development"}
	if !cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return true")
	}

	cfg.AppEnv = "production"
	if cfg.IsDevelopment() {
		t.Error("expected IsDevelopment to return false")
	}
	if !cfg.IsProduction() {
		t.Error("expected IsProduction to return true")
	}
}

func TestConfig_GetCORSAllowedOrigins(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"empty", "", 0},
		{"single", "https://example.com", 1},
		{"multiple with spaces", "https://a.com, https://b.com ,https://c.com", 3},
		{"trailing comma", "https://a.com,", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{CORSAllowedOrigins: tt.raw}
			got := cfg.GetCORSAllowedOrigins()
			if len(got) != tt.want {
				t.Errorf("got %d origins, want %d", len(got), tt.want)
			}
		})
	}
}
