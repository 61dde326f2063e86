package gateway

import (
	"context"
	"net/http"
)

// Account mirrors the backend's account record.
type Account struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	Name        string  `json:"name"`
	AccountType string  `json:"account_type"` // checking, savings, credit_card, cash, investment
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency"`
	IsActive    bool    `json:"is_active"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
}

// CreateAccountRequest is the payload for account creation.
type CreateAccountRequest struct {
	Name        string  `json:"name"`
	AccountType string  `json:"account_type"`
	Balance     float64 `json:"balance"`
	Currency    string  `json:"currency"`
}

// UpdateAccountRequest carries only the fields the caller wants to change;
// unset fields are omitted from the outbound body entirely.
type UpdateAccountRequest struct {
	Name        *string  `json:"name,omitempty"`
	AccountType *string  `json:"account_type,omitempty"`
	Balance     *float64 `json:"balance,omitempty"`
	Currency    *string  `json:"currency,omitempty"`
	IsActive    *bool    `json:"is_active,omitempty"`
}

// TotalBalance is the summed balance across active accounts.
type TotalBalance struct {
	TotalBalance float64 `json:"total_balance"`
	Currency     string  `json:"currency"`
}

// Accounts is the gateway for the account resource family.
type Accounts struct {
	c Caller
}

// NewAccounts creates the accounts gateway.
func NewAccounts(c Caller) *Accounts {
	return &Accounts{c: c}
}

// List returns all accounts for the user.
func (a *Accounts) List(ctx context.Context, userID string) ([]Account, error) {
	resp, err := a.c.Do(ctx, http.MethodGet, "/api/accounts", nil, userID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Accounts []Account `json:"accounts"`
	}
	if err := decodeResource(resp, "", "Failed to fetch accounts", &body); err != nil {
		return nil, err
	}
	if body.Accounts == nil {
		return []Account{}, nil
	}
	return body.Accounts, nil
}

// Get returns a single account.
func (a *Accounts) Get(ctx context.Context, userID, accountID string) (*Account, error) {
	resp, err := a.c.Do(ctx, http.MethodGet, "/api/accounts/"+accountID, nil, userID)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeResource(resp, "Account not found", "Failed to fetch account", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Create creates an account.
func (a *Accounts) Create(ctx context.Context, userID string, req CreateAccountRequest) (*Account, error) {
	resp, err := a.c.Do(ctx, http.MethodPost, "/api/accounts", req, userID)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeResource(resp, "", "Failed to create account", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Update applies a partial update to an account.
func (a *Accounts) Update(ctx context.Context, userID, accountID string, req UpdateAccountRequest) (*Account, error) {
	resp, err := a.c.Do(ctx, http.MethodPut, "/api/accounts/"+accountID, req, userID)
	if err != nil {
		return nil, err
	}

	var account Account
	if err := decodeResource(resp, "Account not found", "Failed to update account", &account); err != nil {
		return nil, err
	}
	return &account, nil
}

// Delete soft-deletes an account.
func (a *Accounts) Delete(ctx context.Context, userID, accountID string) error {
	resp, err := a.c.Do(ctx, http.MethodDelete, "/api/accounts/"+accountID, nil, userID)
	if err != nil {
		return err
	}
	return checkNoContent(resp, "Account not found", "Failed to delete account")
}

// Total returns the summed balance across all active accounts.
func (a *Accounts) Total(ctx context.Context, userID string) (*TotalBalance, error) {
	resp, err := a.c.Do(ctx, http.MethodGet, "/api/accounts/balance/total", nil, userID)
	if err != nil {
		return nil, err
	}

	var total TotalBalance
	if err := decodeResource(resp, "", "Failed to fetch total balance", &total); err != nil {
		return nil, err
	}
	return &total, nil
}
