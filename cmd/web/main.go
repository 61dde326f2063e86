// Package main is the entrypoint for the help-me-budget web server.
package main

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"

	"github.com/helpmebudget/web/internal/backend"
	"github.com/helpmebudget/web/internal/config"
	"github.com/helpmebudget/web/internal/handler"
	"github.com/helpmebudget/web/internal/identity"
	"github.com/helpmebudget/web/internal/metrics"
	"github.com/helpmebudget/web/internal/middleware"
	"github.com/helpmebudget/web/internal/server"
	"github.com/helpmebudget/web/internal/session"
	"github.com/helpmebudget/web/internal/supabase"
)

func main() {
	// A missing .env is fine outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := initLogger(cfg)

	recorder := metrics.NewInMemory()
	backendClient := backend.New(cfg.BackendURL, cfg.BackendAPIKey, logger, recorder)
	authClient := supabase.New(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	resolver := identity.NewResolver(backendClient, recorder)
	signer := identity.NewCookieSigner(cfg.UserCookieSecret, cfg.IsProduction())

	sessionMW := session.NewMiddleware(authClient, backendClient, cfg.SessionCookie, logger, recorder)

	h := handler.New(logger, authClient, resolver, signer, backendClient, cfg.SessionCookie, cfg.IsProduction())

	router := h.Router(handler.RouterConfig{
		Logger:             logger,
		Session:            sessionMW,
		Security:           middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment()},
		CORS:               corsConfig(cfg),
		MaxRequestBodySize: cfg.MaxRequestBodySize,
	})

	srv := server.New(
		router,
		cfg.AppPort,
		cfg.ReadTimeout,
		cfg.WriteTimeout,
		cfg.ShutdownTimeout,
		logger,
	)

	logger.Info("starting server",
		"port", cfg.AppPort,
		"backend_url", cfg.BackendURL,
		"env", cfg.AppEnv,
	)

	if err := srv.Run(); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func corsConfig(cfg *config.Config) middleware.CORSConfig {
	c := middleware.DefaultCORSConfig()
	c.AllowedOrigins = cfg.GetCORSAllowedOrigins()
	return c
}

// initLogger initializes the slog logger based on configuration.
func initLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.LogLevel),
	}

	var h slog.Handler
	if cfg.LogFormat == "json" {
		h = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		h = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(h)
	slog.SetDefault(logger)

	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
