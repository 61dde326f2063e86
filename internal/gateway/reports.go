package gateway

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// SpendingTrend is one month of the income-versus-expense trend report.
type SpendingTrend struct {
	Month    string  `json:"month"`
	Income   float64 `json:"income"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// BudgetVariance compares one budget entry's plan against actual spend.
type BudgetVariance struct {
	EntryID         string  `json:"entry_id"`
	EntryName       string  `json:"entry_name"`
	CategoryName    *string `json:"category_name,omitempty"`
	EntryType       string  `json:"entry_type"`
	BudgetedAmount  float64 `json:"budgeted_amount"`
	ActualAmount    float64 `json:"actual_amount"`
	Variance        float64 `json:"variance"`
	VariancePercent float64 `json:"variance_percent"`
}

// CashFlowPoint is one day of the account-level cash flow projection.
type CashFlowPoint struct {
	Date             string  `json:"date"`
	ProjectedBalance float64 `json:"projected_balance"`
	Income           float64 `json:"income"`
	Expenses         float64 `json:"expenses"`
}

// TopExpense is one entry of the largest-expenses report.
type TopExpense struct {
	TransactionID   string  `json:"transaction_id"`
	Description     string  `json:"description"`
	MerchantName    *string `json:"merchant_name,omitempty"`
	CategoryName    *string `json:"category_name,omitempty"`
	Amount          float64 `json:"amount"`
	TransactionDate string  `json:"transaction_date"`
}

// Reports is the gateway for the reporting endpoints. Unlike the other
// resource families these return bare JSON arrays, not wrapped objects.
type Reports struct {
	c Caller
}

// NewReports creates the reports gateway.
func NewReports(c Caller) *Reports {
	return &Reports{c: c}
}

// SpendingTrends returns the monthly income-versus-expense series.
func (g *Reports) SpendingTrends(ctx context.Context, userID string) ([]SpendingTrend, error) {
	resp, err := g.c.Do(ctx, http.MethodGet, "/api/reports/spending-trends", nil, userID)
	if err != nil {
		return nil, err
	}

	var trends []SpendingTrend
	if err := decodeResource(resp, "", "Failed to fetch spending trends", &trends); err != nil {
		return nil, err
	}
	if trends == nil {
		trends = []SpendingTrend{}
	}
	return trends, nil
}

// BudgetVariances returns per-entry plan-versus-actual figures. An empty
// month means the backend's current month.
func (g *Reports) BudgetVariances(ctx context.Context, userID, month string) ([]BudgetVariance, error) {
	endpoint := "/api/reports/budget-variance"
	if month != "" {
		endpoint += "?month=" + url.QueryEscape(month)
	}

	resp, err := g.c.Do(ctx, http.MethodGet, endpoint, nil, userID)
	if err != nil {
		return nil, err
	}

	var variances []BudgetVariance
	if err := decodeResource(resp, "", "Failed to fetch budget variance", &variances); err != nil {
		return nil, err
	}
	if variances == nil {
		variances = []BudgetVariance{}
	}
	return variances, nil
}

// CashFlow projects account balances forward. Both parameters are always
// sent; a non-positive days falls back to 90 and the starting balance may
// legitimately be zero.
func (g *Reports) CashFlow(ctx context.Context, userID string, days int, startingBalance float64) ([]CashFlowPoint, error) {
	if days <= 0 {
		days = 90
	}
	endpoint := fmt.Sprintf("/api/reports/cash-flow-projection?days=%d&starting_balance=%g", days, startingBalance)

	resp, err := g.c.Do(ctx, http.MethodGet, endpoint, nil, userID)
	if err != nil {
		return nil, err
	}

	var points []CashFlowPoint
	if err := decodeResource(resp, "", "Failed to fetch cash flow projection", &points); err != nil {
		return nil, err
	}
	if points == nil {
		points = []CashFlowPoint{}
	}
	return points, nil
}

// TopExpenses returns the user's largest expenses. A non-positive limit
// falls back to 10.
func (g *Reports) TopExpenses(ctx context.Context, userID string, limit int) ([]TopExpense, error) {
	if limit <= 0 {
		limit = 10
	}
	endpoint := fmt.Sprintf("/api/reports/top-expenses?limit=%d", limit)

	resp, err := g.c.Do(ctx, http.MethodGet, endpoint, nil, userID)
	if err != nil {
		return nil, err
	}

	var expenses []TopExpense
	if err := decodeResource(resp, "", "Failed to fetch top expenses", &expenses); err != nil {
		return nil, err
	}
	if expenses == nil {
		expenses = []TopExpense{}
	}
	return expenses, nil
}
