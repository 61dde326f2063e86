package gateway

import (
	"context"
	"fmt"
	"net/http"
)

// DashboardSummary is the backend's headline view of the user's finances.
type DashboardSummary struct {
	TotalBalance          float64 `json:"total_balance"`
	MonthlyIncome         float64 `json:"monthly_income"`
	MonthlyExpenses       float64 `json:"monthly_expenses"`
	MonthlySurplusDeficit float64 `json:"monthly_surplus_deficit"`
	AccountsCount         int     `json:"accounts_count"`
	TransactionsCount     int     `json:"transactions_count"`
	UnmatchedCount        int     `json:"unmatched_count"`
	Currency              string  `json:"currency"`
}

// CategorySpending is one slice of the spending-by-category breakdown.
type CategorySpending struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Color        *string `json:"color,omitempty"`
	Amount       float64 `json:"amount"`
	Percentage   float64 `json:"percentage"`
}

// Dashboard is the gateway for the dashboard aggregation endpoints.
type Dashboard struct {
	c Caller
}

// NewDashboard creates the dashboard gateway.
func NewDashboard(c Caller) *Dashboard {
	return &Dashboard{c: c}
}

// Summary returns the headline dashboard figures.
func (g *Dashboard) Summary(ctx context.Context, userID string) (*DashboardSummary, error) {
	resp, err := g.c.Do(ctx, http.MethodGet, "/api/dashboard/summary", nil, userID)
	if err != nil {
		return nil, err
	}

	var summary DashboardSummary
	if err := decodeResource(resp, "", "Failed to fetch dashboard summary", &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// RecentActivity returns the user's most recent transactions. A
// non-positive limit falls back to 20.
func (g *Dashboard) RecentActivity(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	if limit <= 0 {
		limit = 20
	}
	endpoint := fmt.Sprintf("/api/dashboard/recent-activity?limit=%d", limit)

	resp, err := g.c.Do(ctx, http.MethodGet, endpoint, nil, userID)
	if err != nil {
		return nil, err
	}
	return decodeTransactionList(resp, "Failed to fetch recent activity")
}

// SpendingByCategory returns the current month's spending breakdown.
func (g *Dashboard) SpendingByCategory(ctx context.Context, userID string) ([]CategorySpending, error) {
	resp, err := g.c.Do(ctx, http.MethodGet, "/api/dashboard/spending-by-category", nil, userID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Categories []CategorySpending `json:"categories"`
	}
	if err := decodeResource(resp, "", "Failed to fetch spending by category", &body); err != nil {
		return nil, err
	}
	if body.Categories == nil {
		return []CategorySpending{}, nil
	}
	return body.Categories, nil
}
