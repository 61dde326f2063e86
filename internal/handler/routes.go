package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/helpmebudget/web/internal/middleware"
	"github.com/helpmebudget/web/internal/session"
)

// RouterConfig carries the router's cross-cutting dependencies.
type RouterConfig struct {
	Logger             *slog.Logger
	Session            *session.Middleware
	Security           middleware.SecurityConfig
	CORS               middleware.CORSConfig
	MaxRequestBodySize int64
}

// Router assembles the full route tree. The session middleware runs on
// every route except the liveness probe, so any handler can ask for the
// (lazily resolved) session without caring where it sits in the tree.
func (h *Handler) Router(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(cfg.Logger))
	r.Use(middleware.Recoverer(cfg.Logger))
	r.Use(middleware.Security(cfg.Security))
	r.Use(middleware.MaxBodySize(cfg.MaxRequestBodySize))

	r.Get("/healthz", h.Health)

	r.Group(func(r chi.Router) {
		r.Use(cfg.Session.Handler)

		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			redirect(w, req, "/dashboard")
		})

		r.Route("/auth", func(r chi.Router) {
			r.Get("/", h.Login)
			r.Get("/callback", h.Callback)
			r.Post("/logout", h.Logout)
		})

		r.Get("/onboarding", h.Onboarding)

		r.Route("/dashboard", func(r chi.Router) {
			r.Use(middleware.NoStore)

			r.Get("/", h.DashboardHome)

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", h.AccountsIndex)
				r.Post("/", h.CreateAccount)
				r.Post("/{accountID}", h.UpdateAccount)
				r.Post("/{accountID}/delete", h.DeleteAccount)
			})

			r.Route("/budgets", func(r chi.Router) {
				r.Get("/", h.BudgetsIndex)
				r.Post("/", h.CreateBudget)
				r.Get("/{budgetID}", h.BudgetDetail)
				r.Post("/{budgetID}", h.UpdateBudget)
				r.Post("/{budgetID}/delete", h.DeleteBudget)
				r.Get("/{budgetID}/projection", h.BudgetProjection)
				r.Post("/{budgetID}/entries", h.CreateBudgetEntry)
				r.Post("/{budgetID}/entries/{entryID}", h.UpdateBudgetEntry)
				r.Post("/{budgetID}/entries/{entryID}/delete", h.DeleteBudgetEntry)
				r.Post("/{budgetID}/entries/{entryID}/matching-rules", h.UpdateEntryMatchingRules)
			})

			r.Route("/categories", func(r chi.Router) {
				r.Get("/", h.CategoriesIndex)
				r.Post("/", h.CreateCategory)
				r.Post("/{categoryID}", h.UpdateCategory)
				r.Post("/{categoryID}/delete", h.DeleteCategory)
			})

			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", h.TransactionsIndex)
				r.Post("/", h.CreateTransaction)
				r.Post("/{transactionID}", h.UpdateTransaction)
				r.Post("/{transactionID}/delete", h.DeleteTransaction)
				r.Post("/{transactionID}/categorize", h.CategorizeTransaction)
				r.Post("/{transactionID}/link", h.LinkTransaction)
			})

			r.Route("/review", func(r chi.Router) {
				r.Get("/", h.Review)
				r.Get("/suggestions/{transactionID}", h.MatchSuggestions)
				r.Post("/auto-match/{transactionID}", h.AutoMatchTransaction)
				r.Post("/bulk-auto-match", h.BulkAutoMatch)
				r.Post("/teach/{transactionID}", h.TeachMatcher)
			})

			r.Get("/reports", h.ReportsIndex)
		})

		r.Route("/api", func(r chi.Router) {
			r.Use(middleware.CORS(cfg.CORS))

			r.Get("/auth/me", h.Me)
			r.Post("/onboarding/account", h.OnboardingAccount)
			r.Post("/onboarding/categories", h.OnboardingCategories)
			r.Get("/user/roles", h.UserRoles)

			r.Route("/admin", func(r chi.Router) {
				r.Get("/users", h.AdminUsers)
				r.Delete("/users/{userID}", h.AdminDeleteUser)
				r.Post("/users/{userID}/deactivate", h.AdminDeactivateUser)
				r.Post("/users/{userID}/reactivate", h.AdminReactivateUser)
				r.Get("/sessions", h.AdminSessions)
				r.Get("/audit-logs", h.AdminAuditLogs)
			})
		})
	})

	r.NotFound(h.NotFound)

	return r
}
