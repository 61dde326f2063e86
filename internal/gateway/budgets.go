package gateway

import (
	"context"
	"fmt"
	"net/http"
)

// Budget mirrors the backend's budget record.
type Budget struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// BudgetEntry is a planned income or expense line inside a budget.
type BudgetEntry struct {
	ID            string         `json:"id"`
	BudgetID      string         `json:"budget_id"`
	CategoryID    *string        `json:"category_id,omitempty"`
	Name          string         `json:"name"`
	Description   *string        `json:"description,omitempty"`
	Amount        float64        `json:"amount"`
	EntryType     string         `json:"entry_type"` // income or expense
	Frequency     string         `json:"frequency"`  // once_off, daily, weekly, fortnightly, monthly, annually
	DayOfMonth    *int           `json:"day_of_month,omitempty"`
	DayOfWeek     *int           `json:"day_of_week,omitempty"`
	StartDate     string         `json:"start_date"`
	EndDate       *string        `json:"end_date,omitempty"`
	MatchingRules map[string]any `json:"matching_rules,omitempty"`
	IsActive      bool           `json:"is_active"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// BudgetWithEntries is a budget plus all of its entries.
type BudgetWithEntries struct {
	Budget
	Entries []BudgetEntry `json:"entries"`
}

// BudgetSummary aggregates a budget's planned totals.
type BudgetSummary struct {
	BudgetID              string  `json:"budget_id"`
	TotalMonthlyIncome    float64 `json:"total_monthly_income"`
	TotalMonthlyExpenses  float64 `json:"total_monthly_expenses"`
	MonthlySurplusDeficit float64 `json:"monthly_surplus_deficit"`
	TotalAnnualIncome     float64 `json:"total_annual_income"`
	TotalAnnualExpenses   float64 `json:"total_annual_expenses"`
	AnnualSurplusDeficit  float64 `json:"annual_surplus_deficit"`
	IncomeEntriesCount    int     `json:"income_entries_count"`
	ExpenseEntriesCount   int     `json:"expense_entries_count"`
}

// BudgetHealthStatus is the backend's 0-100 health score for a budget.
type BudgetHealthStatus struct {
	Score   int    `json:"score"`
	Status  string `json:"status"` // excellent, good, fair, poor, critical
	Message string `json:"message"`
	Color   string `json:"color"`
}

// BudgetSummaryResponse pairs the summary with its health status.
type BudgetSummaryResponse struct {
	Summary BudgetSummary      `json:"summary"`
	Health  BudgetHealthStatus `json:"health"`
}

// DailyProjection is one day of a budget-scoped cash flow projection.
type DailyProjection struct {
	Date          string  `json:"date"`
	Balance       float64 `json:"balance"`
	DailyIncome   float64 `json:"daily_income"`
	DailyExpenses float64 `json:"daily_expenses"`
	DailyNet      float64 `json:"daily_net"`
}

// MonthlyBreakdown is one month of a budget-scoped cash flow projection.
type MonthlyBreakdown struct {
	Month         string  `json:"month"`
	Income        float64 `json:"income"`
	Expenses      float64 `json:"expenses"`
	Net           float64 `json:"net"`
	EndingBalance float64 `json:"ending_balance"`
}

// CashFlowProjection is the backend's budget-scoped projection.
type CashFlowProjection struct {
	StartDate        string             `json:"start_date"`
	EndDate          string             `json:"end_date"`
	StartingBalance  float64            `json:"starting_balance"`
	EndingBalance    float64            `json:"ending_balance"`
	TotalIncome      float64            `json:"total_income"`
	TotalExpenses    float64            `json:"total_expenses"`
	NetCashFlow      float64            `json:"net_cash_flow"`
	DailyProjections []DailyProjection  `json:"daily_projections"`
	MonthlyBreakdown []MonthlyBreakdown `json:"monthly_breakdown"`
}

// CreateBudgetRequest is the payload for budget creation.
type CreateBudgetRequest struct {
	Name        string  `json:"name"`
	Description *string `json:"description,omitempty"`
}

// UpdateBudgetRequest carries only the fields to change.
type UpdateBudgetRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsActive    *bool   `json:"is_active,omitempty"`
}

// CreateBudgetEntryRequest is the payload for entry creation.
type CreateBudgetEntryRequest struct {
	CategoryID    *string        `json:"category_id,omitempty"`
	Name          string         `json:"name"`
	Description   *string        `json:"description,omitempty"`
	Amount        float64        `json:"amount"`
	EntryType     string         `json:"entry_type"`
	Frequency     string         `json:"frequency"`
	DayOfMonth    *int           `json:"day_of_month,omitempty"`
	DayOfWeek     *int           `json:"day_of_week,omitempty"`
	StartDate     string         `json:"start_date"`
	EndDate       *string        `json:"end_date,omitempty"`
	MatchingRules map[string]any `json:"matching_rules,omitempty"`
}

// UpdateBudgetEntryRequest carries only the fields to change.
type UpdateBudgetEntryRequest struct {
	CategoryID    *string        `json:"category_id,omitempty"`
	Name          *string        `json:"name,omitempty"`
	Description   *string        `json:"description,omitempty"`
	Amount        *float64       `json:"amount,omitempty"`
	EntryType     *string        `json:"entry_type,omitempty"`
	Frequency     *string        `json:"frequency,omitempty"`
	DayOfMonth    *int           `json:"day_of_month,omitempty"`
	DayOfWeek     *int           `json:"day_of_week,omitempty"`
	StartDate     *string        `json:"start_date,omitempty"`
	EndDate       *string        `json:"end_date,omitempty"`
	MatchingRules map[string]any `json:"matching_rules,omitempty"`
	IsActive      *bool          `json:"is_active,omitempty"`
}

// MatchingRules configure how transactions are matched to an entry.
type MatchingRules struct {
	DescriptionContains []string `json:"description_contains,omitempty"`
	MerchantName        *string  `json:"merchant_name,omitempty"`
	AmountTolerance     *float64 `json:"amount_tolerance,omitempty"`
}

// Budgets is the gateway for the budget resource family, including entries.
type Budgets struct {
	c Caller
}

// NewBudgets creates the budgets gateway.
func NewBudgets(c Caller) *Budgets {
	return &Budgets{c: c}
}

// List returns all budgets for the user.
func (b *Budgets) List(ctx context.Context, userID string) ([]Budget, error) {
	resp, err := b.c.Do(ctx, http.MethodGet, "/api/budgets", nil, userID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Budgets []Budget `json:"budgets"`
	}
	if err := decodeResource(resp, "", "Failed to fetch budgets", &body); err != nil {
		return nil, err
	}
	if body.Budgets == nil {
		return []Budget{}, nil
	}
	return body.Budgets, nil
}

// Get returns a single budget.
func (b *Budgets) Get(ctx context.Context, userID, budgetID string) (*Budget, error) {
	resp, err := b.c.Do(ctx, http.MethodGet, "/api/budgets/"+budgetID, nil, userID)
	if err != nil {
		return nil, err
	}

	var budget Budget
	if err := decodeResource(resp, "Budget not found", "Failed to fetch budget", &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

// GetWithEntries returns a budget with all of its entries.
func (b *Budgets) GetWithEntries(ctx context.Context, userID, budgetID string) (*BudgetWithEntries, error) {
	resp, err := b.c.Do(ctx, http.MethodGet, "/api/budgets/"+budgetID+"/full", nil, userID)
	if err != nil {
		return nil, err
	}

	var budget BudgetWithEntries
	if err := decodeResource(resp, "Budget not found", "Failed to fetch budget", &budget); err != nil {
		return nil, err
	}
	if budget.Entries == nil {
		budget.Entries = []BudgetEntry{}
	}
	return &budget, nil
}

// Create creates a budget.
func (b *Budgets) Create(ctx context.Context, userID string, req CreateBudgetRequest) (*Budget, error) {
	resp, err := b.c.Do(ctx, http.MethodPost, "/api/budgets", req, userID)
	if err != nil {
		return nil, err
	}

	var budget Budget
	if err := decodeResource(resp, "", "Failed to create budget", &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

// Update applies a partial update to a budget.
func (b *Budgets) Update(ctx context.Context, userID, budgetID string, req UpdateBudgetRequest) (*Budget, error) {
	resp, err := b.c.Do(ctx, http.MethodPut, "/api/budgets/"+budgetID, req, userID)
	if err != nil {
		return nil, err
	}

	var budget Budget
	if err := decodeResource(resp, "Budget not found", "Failed to update budget", &budget); err != nil {
		return nil, err
	}
	return &budget, nil
}

// Delete soft-deletes a budget.
func (b *Budgets) Delete(ctx context.Context, userID, budgetID string) error {
	resp, err := b.c.Do(ctx, http.MethodDelete, "/api/budgets/"+budgetID, nil, userID)
	if err != nil {
		return err
	}
	return checkNoContent(resp, "Budget not found", "Failed to delete budget")
}

// Summary returns the budget's planned totals and health status.
func (b *Budgets) Summary(ctx context.Context, userID, budgetID string) (*BudgetSummaryResponse, error) {
	resp, err := b.c.Do(ctx, http.MethodGet, "/api/budgets/"+budgetID+"/summary", nil, userID)
	if err != nil {
		return nil, err
	}

	var summary BudgetSummaryResponse
	if err := decodeResource(resp, "Budget not found", "Failed to fetch budget summary", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Projection projects the budget's cash flow over the given horizon.
func (b *Budgets) Projection(ctx context.Context, userID, budgetID string, startingBalance float64, days int) (*CashFlowProjection, error) {
	if days <= 0 {
		days = 90
	}
	endpoint := fmt.Sprintf("/api/budgets/%s/projection?starting_balance=%g&days=%d", budgetID, startingBalance, days)

	resp, err := b.c.Do(ctx, http.MethodGet, endpoint, nil, userID)
	if err != nil {
		return nil, err
	}

	var projection CashFlowProjection
	if err := decodeResource(resp, "Budget not found", "Failed to project cash flow", &projection); err != nil {
		return nil, err
	}
	return &projection, nil
}

// Entries returns all entries for a budget.
func (b *Budgets) Entries(ctx context.Context, userID, budgetID string) ([]BudgetEntry, error) {
	resp, err := b.c.Do(ctx, http.MethodGet, "/api/budgets/"+budgetID+"/entries", nil, userID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Entries []BudgetEntry `json:"entries"`
	}
	if err := decodeResource(resp, "", "Failed to fetch budget entries", &body); err != nil {
		return nil, err
	}
	if body.Entries == nil {
		return []BudgetEntry{}, nil
	}
	return body.Entries, nil
}

// CreateEntry creates an entry inside a budget.
func (b *Budgets) CreateEntry(ctx context.Context, userID, budgetID string, req CreateBudgetEntryRequest) (*BudgetEntry, error) {
	resp, err := b.c.Do(ctx, http.MethodPost, "/api/budgets/"+budgetID+"/entries", req, userID)
	if err != nil {
		return nil, err
	}

	var entry BudgetEntry
	if err := decodeResource(resp, "", "Failed to create budget entry", &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// UpdateEntry applies a partial update to an entry.
func (b *Budgets) UpdateEntry(ctx context.Context, userID, budgetID, entryID string, req UpdateBudgetEntryRequest) (*BudgetEntry, error) {
	resp, err := b.c.Do(ctx, http.MethodPut, "/api/budgets/"+budgetID+"/entries/"+entryID, req, userID)
	if err != nil {
		return nil, err
	}

	var entry BudgetEntry
	if err := decodeResource(resp, "Budget entry not found", "Failed to update budget entry", &entry); err != nil {
		return nil, err
	}
	return &entry, nil
}

// DeleteEntry soft-deletes an entry.
func (b *Budgets) DeleteEntry(ctx context.Context, userID, budgetID, entryID string) error {
	resp, err := b.c.Do(ctx, http.MethodDelete, "/api/budgets/"+budgetID+"/entries/"+entryID, nil, userID)
	if err != nil {
		return err
	}
	return checkNoContent(resp, "Budget entry not found", "Failed to delete budget entry")
}

// UpdateMatchingRules replaces an entry's matching rules.
func (b *Budgets) UpdateMatchingRules(ctx context.Context, userID, budgetID, entryID string, rules MatchingRules) error {
	body := map[string]MatchingRules{"matching_rules": rules}
	resp, err := b.c.Do(ctx, http.MethodPost, "/api/budgets/"+budgetID+"/entries/"+entryID+"/matching-rules", body, userID)
	if err != nil {
		return err
	}
	return checkNoContent(resp, "Budget entry not found", "Failed to update matching rules")
}
