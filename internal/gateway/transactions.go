package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// Transaction mirrors the backend's transaction record.
type Transaction struct {
	ID              string   `json:"id"`
	UserID          string   `json:"user_id"`
	AccountID       string   `json:"account_id"`
	CategoryID      *string  `json:"category_id,omitempty"`
	BudgetEntryID   *string  `json:"budget_entry_id,omitempty"`
	Amount          float64  `json:"amount"`
	Description     string   `json:"description"`
	MerchantName    *string  `json:"merchant_name,omitempty"`
	TransactionDate string   `json:"transaction_date"`
	TransactionType string   `json:"transaction_type"` // debit or credit
	MatchConfidence *float64 `json:"match_confidence,omitempty"`
	IsRecurring     bool     `json:"is_recurring"`
	Notes           *string  `json:"notes,omitempty"`
	CreatedAt       string   `json:"created_at"`
	UpdatedAt       string   `json:"updated_at"`
}

// TransactionFilter narrows a transaction listing. Zero-value fields are
// left out of the query string entirely.
type TransactionFilter struct {
	AccountID  string
	CategoryID string
	StartDate  string
	EndDate    string
}

func (f TransactionFilter) encode() string {
	q := url.Values{}
	if f.AccountID != "" {
		q.Set("account_id", f.AccountID)
	}
	if f.CategoryID != "" {
		q.Set("category_id", f.CategoryID)
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}

// CreateTransactionRequest is the payload for transaction creation.
type CreateTransactionRequest struct {
	AccountID       string  `json:"account_id"`
	CategoryID      *string `json:"category_id,omitempty"`
	Amount          float64 `json:"amount"`
	Description     string  `json:"description"`
	MerchantName    *string `json:"merchant_name,omitempty"`
	TransactionDate string  `json:"transaction_date"`
	TransactionType string  `json:"transaction_type"`
	Notes           *string `json:"notes,omitempty"`
}

// UpdateTransactionRequest carries only the fields to change.
type UpdateTransactionRequest struct {
	AccountID       *string  `json:"account_id,omitempty"`
	CategoryID      *string  `json:"category_id,omitempty"`
	Amount          *float64 `json:"amount,omitempty"`
	Description     *string  `json:"description,omitempty"`
	MerchantName    *string  `json:"merchant_name,omitempty"`
	TransactionDate *string  `json:"transaction_date,omitempty"`
	TransactionType *string  `json:"transaction_type,omitempty"`
	Notes           *string  `json:"notes,omitempty"`
}

// Transactions is the gateway for the transaction resource family.
type Transactions struct {
	c Caller
}

// NewTransactions creates the transactions gateway.
func NewTransactions(c Caller) *Transactions {
	return &Transactions{c: c}
}

// List returns the user's transactions matching the filter.
func (g *Transactions) List(ctx context.Context, userID string, filter TransactionFilter) ([]Transaction, error) {
	resp, err := g.c.Do(ctx, http.MethodGet, "/api/transactions"+filter.encode(), nil, userID)
	if err != nil {
		return nil, err
	}
	return decodeTransactionList(resp, "Failed to fetch transactions")
}

// Get returns a single transaction.
func (g *Transactions) Get(ctx context.Context, userID, transactionID string) (*Transaction, error) {
	resp, err := g.c.Do(ctx, http.MethodGet, "/api/transactions/"+transactionID, nil, userID)
	if err != nil {
		return nil, err
	}

	var txn Transaction
	if err := decodeResource(resp, "Transaction not found", "Failed to fetch transaction", &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// Create creates a transaction.
func (g *Transactions) Create(ctx context.Context, userID string, req CreateTransactionRequest) (*Transaction, error) {
	resp, err := g.c.Do(ctx, http.MethodPost, "/api/transactions", req, userID)
	if err != nil {
		return nil, err
	}

	var txn Transaction
	if err := decodeResource(resp, "", "Failed to create transaction", &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// Update applies a partial update to a transaction.
func (g *Transactions) Update(ctx context.Context, userID, transactionID string, req UpdateTransactionRequest) (*Transaction, error) {
	resp, err := g.c.Do(ctx, http.MethodPut, "/api/transactions/"+transactionID, req, userID)
	if err != nil {
		return nil, err
	}

	var txn Transaction
	if err := decodeResource(resp, "Transaction not found", "Failed to update transaction", &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// Delete soft-deletes a transaction.
func (g *Transactions) Delete(ctx context.Context, userID, transactionID string) error {
	resp, err := g.c.Do(ctx, http.MethodDelete, "/api/transactions/"+transactionID, nil, userID)
	if err != nil {
		return err
	}
	return checkNoContent(resp, "Transaction not found", "Failed to delete transaction")
}

// Unmatched returns transactions not yet linked to a budget entry.
func (g *Transactions) Unmatched(ctx context.Context, userID string) ([]Transaction, error) {
	resp, err := g.c.Do(ctx, http.MethodGet, "/api/transactions/unmatched", nil, userID)
	if err != nil {
		return nil, err
	}
	return decodeTransactionList(resp, "Failed to fetch unmatched transactions")
}

// Categorize assigns a category to a transaction.
func (g *Transactions) Categorize(ctx context.Context, userID, transactionID, categoryID string) (*Transaction, error) {
	body := map[string]string{"category_id": categoryID}
	resp, err := g.c.Do(ctx, http.MethodPost, "/api/transactions/"+transactionID+"/categorize", body, userID)
	if err != nil {
		return nil, err
	}

	var txn Transaction
	if err := decodeResource(resp, "Transaction not found", "Failed to categorize transaction", &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

// Link ties a transaction to a budget entry. An empty confidence marks a
// manual link.
func (g *Transactions) Link(ctx context.Context, userID, transactionID, budgetEntryID, confidence string) (*Transaction, error) {
	if confidence == "" {
		confidence = "manual"
	}
	body := map[string]string{
		"budget_entry_id":  budgetEntryID,
		"match_confidence": confidence,
	}
	resp, err := g.c.Do(ctx, http.MethodPost, "/api/transactions/"+transactionID+"/link", body, userID)
	if err != nil {
		return nil, err
	}

	var txn Transaction
	if err := decodeResource(resp, "Transaction not found", "Failed to link transaction", &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}

func decodeTransactionList(resp *http.Response, fallback string) ([]Transaction, error) {
	var body struct {
		Transactions []Transaction `json:"transactions"`
	}
	if err := decodeResource(resp, "", fallback, &body); err != nil {
		return nil, err
	}
	if body.Transactions == nil {
		return []Transaction{}, nil
	}
	return body.Transactions, nil
}
