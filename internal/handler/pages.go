package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/helpmebudget/web/internal/fault"
	"github.com/helpmebudget/web/internal/gateway"
	"github.com/helpmebudget/web/internal/session"
)

// Page loaders return the data a page renders from. Loads that need
// several backend resources fan out; whether one failed section sinks the
// whole page or degrades to an empty default is a per-page decision.

// DashboardPage is the home page's data.
type DashboardPage struct {
	Summary        *gateway.DashboardSummary  `json:"summary"`
	RecentActivity []gateway.Transaction      `json:"recent_activity"`
	SpendingByCat  []gateway.CategorySpending `json:"spending_by_category"`
	Error          string                     `json:"error,omitempty"`
}

// DashboardHome loads the home page. Sections degrade independently so a
// single failing aggregation never blanks the whole dashboard.
// GET /dashboard
func (h *Handler) DashboardHome(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	page := DashboardPage{
		RecentActivity: []gateway.Transaction{},
		SpendingByCat:  []gateway.CategorySpending{},
	}

	errs := fetchSettled(r.Context(),
		func(ctx context.Context) error {
			summary, err := h.dashboard.Summary(ctx, userID)
			if err == nil {
				page.Summary = summary
			}
			return err
		},
		func(ctx context.Context) error {
			activity, err := h.dashboard.RecentActivity(ctx, userID, 0)
			if err == nil {
				page.RecentActivity = activity
			}
			return err
		},
		func(ctx context.Context) error {
			spending, err := h.dashboard.SpendingByCategory(ctx, userID)
			if err == nil {
				page.SpendingByCat = spending
			}
			return err
		},
	)

	for _, err := range errs {
		if err != nil {
			h.logger.Warn("dashboard section failed", "error", err)
			page.Error = "Some dashboard data could not be loaded"
			break
		}
	}

	writeJSON(w, http.StatusOK, page)
}

// AccountsPage is the accounts page's data.
type AccountsPage struct {
	Accounts []gateway.Account     `json:"accounts"`
	Total    *gateway.TotalBalance `json:"total"`
}

// AccountsIndex loads the accounts page. Both calls must succeed; the page
// is meaningless without either half.
// GET /dashboard/accounts
func (h *Handler) AccountsIndex(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var page AccountsPage
	err := fetchAll(r.Context(),
		func(ctx context.Context) error {
			accounts, err := h.accounts.List(ctx, userID)
			if err == nil {
				page.Accounts = accounts
			}
			return err
		},
		func(ctx context.Context) error {
			total, err := h.accounts.Total(ctx, userID)
			if err == nil {
				page.Total = total
			}
			return err
		},
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// BudgetsIndex loads the budgets listing.
// GET /dashboard/budgets
func (h *Handler) BudgetsIndex(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	budgets, err := h.budgets.List(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]gateway.Budget{"budgets": budgets})
}

// BudgetDetailPage is a single budget's page data.
type BudgetDetailPage struct {
	Budget     *gateway.BudgetWithEntries     `json:"budget"`
	Summary    *gateway.BudgetSummaryResponse `json:"summary"`
	Categories []gateway.Category             `json:"categories"`
}

// BudgetDetail loads one budget with its entries, summary, and the
// categories needed by the entry form. All three are fetched in parallel
// and the load fails as a whole.
// GET /dashboard/budgets/{budgetID}
func (h *Handler) BudgetDetail(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	budgetID := chi.URLParam(r, "budgetID")

	var page BudgetDetailPage
	err := fetchAll(r.Context(),
		func(ctx context.Context) error {
			budget, err := h.budgets.GetWithEntries(ctx, userID, budgetID)
			if err == nil {
				page.Budget = budget
			}
			return err
		},
		func(ctx context.Context) error {
			summary, err := h.budgets.Summary(ctx, userID, budgetID)
			if err == nil {
				page.Summary = summary
			}
			return err
		},
		func(ctx context.Context) error {
			categories, err := h.categories.List(ctx, userID, "")
			if err == nil {
				page.Categories = categories
			}
			return err
		},
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// BudgetProjection loads a budget's cash flow projection.
// GET /dashboard/budgets/{budgetID}/projection
func (h *Handler) BudgetProjection(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}
	budgetID := chi.URLParam(r, "budgetID")

	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	startingBalance, _ := strconv.ParseFloat(r.URL.Query().Get("starting_balance"), 64)

	projection, err := h.budgets.Projection(r.Context(), userID, budgetID, startingBalance, days)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, projection)
}

// CategoriesPage is the categories page's data, split by type.
type CategoriesPage struct {
	Income  []gateway.Category `json:"income"`
	Expense []gateway.Category `json:"expense"`
}

// CategoriesIndex loads the categories page.
// GET /dashboard/categories
func (h *Handler) CategoriesIndex(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	page := CategoriesPage{Income: []gateway.Category{}, Expense: []gateway.Category{}}
	err := fetchAll(r.Context(),
		func(ctx context.Context) error {
			income, err := h.categories.List(ctx, userID, "income")
			if err == nil {
				page.Income = income
			}
			return err
		},
		func(ctx context.Context) error {
			expense, err := h.categories.List(ctx, userID, "expense")
			if err == nil {
				page.Expense = expense
			}
			return err
		},
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// TransactionsPage is the transactions page's data.
type TransactionsPage struct {
	Transactions []gateway.Transaction `json:"transactions"`
	Accounts     []gateway.Account     `json:"accounts"`
	Categories   []gateway.Category    `json:"categories"`
}

// TransactionsIndex loads the transactions page, applying any filters from
// the query string. The accounts and categories feed the filter dropdowns
// and the create form.
// GET /dashboard/transactions
func (h *Handler) TransactionsIndex(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := gateway.TransactionFilter{
		AccountID:  q.Get("account_id"),
		CategoryID: q.Get("category_id"),
		StartDate:  q.Get("start_date"),
		EndDate:    q.Get("end_date"),
	}

	var page TransactionsPage
	err := fetchAll(r.Context(),
		func(ctx context.Context) error {
			transactions, err := h.transactions.List(ctx, userID, filter)
			if err == nil {
				page.Transactions = transactions
			}
			return err
		},
		func(ctx context.Context) error {
			accounts, err := h.accounts.List(ctx, userID)
			if err == nil {
				page.Accounts = accounts
			}
			return err
		},
		func(ctx context.Context) error {
			categories, err := h.categories.List(ctx, userID, "")
			if err == nil {
				page.Categories = categories
			}
			return err
		},
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// ReviewPage is the transaction review page's data. Budget is nil when no
// active budget could be loaded; the page still renders.
type ReviewPage struct {
	Unmatched  []gateway.Transaction      `json:"unmatched"`
	Budget     *gateway.BudgetWithEntries `json:"budget"`
	Accounts   []gateway.Account          `json:"accounts"`
	Categories []gateway.Category         `json:"categories"`
	Error      string                     `json:"error,omitempty"`
}

// Review loads the matching review page. The budget lookup is isolated: a
// user with no budgets can still review and categorize transactions.
// GET /dashboard/review
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	page := ReviewPage{
		Unmatched:  []gateway.Transaction{},
		Accounts:   []gateway.Account{},
		Categories: []gateway.Category{},
	}

	errs := fetchSettled(r.Context(),
		func(ctx context.Context) error {
			unmatched, err := h.transactions.Unmatched(ctx, userID)
			if err == nil {
				page.Unmatched = unmatched
			}
			return err
		},
		func(ctx context.Context) error {
			budgets, err := h.budgets.List(ctx, userID)
			if err != nil {
				return err
			}
			for _, b := range budgets {
				if b.IsActive {
					full, err := h.budgets.GetWithEntries(ctx, userID, b.ID)
					if err != nil {
						return err
					}
					page.Budget = full
					break
				}
			}
			return nil
		},
		func(ctx context.Context) error {
			accounts, err := h.accounts.List(ctx, userID)
			if err == nil {
				page.Accounts = accounts
			}
			return err
		},
		func(ctx context.Context) error {
			categories, err := h.categories.List(ctx, userID, "")
			if err == nil {
				page.Categories = categories
			}
			return err
		},
	)

	// The unmatched list is the page's reason to exist; its failure is the
	// whole page's failure. Anything else degrades.
	if errs[0] != nil {
		writeError(w, errs[0])
		return
	}
	for _, err := range errs[1:] {
		if err != nil {
			h.logger.Warn("review section failed", "error", err)
			page.Error = "Some review data could not be loaded"
			break
		}
	}

	writeJSON(w, http.StatusOK, page)
}

// ReportsPage is the reports page's data.
type ReportsPage struct {
	SpendingTrends []gateway.SpendingTrend  `json:"spending_trends"`
	Variances      []gateway.BudgetVariance `json:"budget_variance"`
	TopExpenses    []gateway.TopExpense     `json:"top_expenses"`
	CashFlow       []gateway.CashFlowPoint  `json:"cash_flow"`
	TotalBalance   float64                  `json:"total_balance"`
}

// ReportsIndex loads the reports page in two phases: the independent
// reports and the account list fan out first, then the cash flow
// projection is fetched with the summed real balances as its starting
// point. The second phase depends on the first, so it never joins the
// fan-out.
// GET /dashboard/reports
func (h *Handler) ReportsIndex(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentity(w, r)
	if !ok {
		return
	}

	var (
		page     ReportsPage
		accounts []gateway.Account
	)
	month := r.URL.Query().Get("month")

	err := fetchAll(r.Context(),
		func(ctx context.Context) error {
			trends, err := h.reports.SpendingTrends(ctx, userID)
			if err == nil {
				page.SpendingTrends = trends
			}
			return err
		},
		func(ctx context.Context) error {
			variances, err := h.reports.BudgetVariances(ctx, userID, month)
			if err == nil {
				page.Variances = variances
			}
			return err
		},
		func(ctx context.Context) error {
			expenses, err := h.reports.TopExpenses(ctx, userID, 0)
			if err == nil {
				page.TopExpenses = expenses
			}
			return err
		},
		func(ctx context.Context) error {
			list, err := h.accounts.List(ctx, userID)
			if err == nil {
				accounts = list
			}
			return err
		},
	)
	if err != nil {
		writeError(w, err)
		return
	}

	for _, a := range accounts {
		page.TotalBalance += a.Balance
	}

	cashFlow, err := h.reports.CashFlow(r.Context(), userID, 0, page.TotalBalance)
	if err != nil {
		writeError(w, err)
		return
	}
	page.CashFlow = cashFlow

	writeJSON(w, http.StatusOK, page)
}

// OnboardingPage is the onboarding page's data.
type OnboardingPage struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Provisioned bool   `json:"provisioned"`
}

// Onboarding loads the first-run page. A user who already has accounts or
// categories has finished onboarding and is sent to the dashboard instead.
// GET /onboarding
func (h *Handler) Onboarding(w http.ResponseWriter, r *http.Request) {
	sess := session.Get(r.Context())
	if !sess.Authenticated() {
		redirect(w, r, "/auth")
		return
	}

	page := OnboardingPage{Email: sess.User.Email, Name: sess.User.Name()}

	userID, err := h.resolver.ResolveUserID(r.Context(), sess)
	if err != nil {
		// Not provisioned yet is exactly who this page is for.
		if fault.KindOf(err) == fault.KindNotProvisioned {
			writeJSON(w, http.StatusOK, page)
			return
		}
		writeError(w, err)
		return
	}
	page.Provisioned = true

	var accounts []gateway.Account
	var categories []gateway.Category
	errs := fetchSettled(r.Context(),
		func(ctx context.Context) error {
			list, err := h.accounts.List(ctx, userID)
			if err == nil {
				accounts = list
			}
			return err
		},
		func(ctx context.Context) error {
			list, err := h.categories.List(ctx, userID, "")
			if err == nil {
				categories = list
			}
			return err
		},
	)
	for _, err := range errs {
		if err != nil {
			h.logger.Warn("onboarding lookup failed", "error", err)
		}
	}

	if len(accounts) > 0 || len(categories) > 0 {
		redirect(w, r, "/dashboard")
		return
	}

	writeJSON(w, http.StatusOK, page)
}
