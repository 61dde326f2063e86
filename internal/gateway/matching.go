package gateway

import (
	"context"
	"net/http"
)

// MatchSuggestion is one candidate budget entry for a transaction.
type MatchSuggestion struct {
	BudgetEntryID string  `json:"budget_entry_id"`
	EntryName     string  `json:"entry_name"`
	Confidence    float64 `json:"confidence"`
	Reason        string  `json:"reason"`
}

// AutoMatchResult reports what an auto-match attempt did.
type AutoMatchResult struct {
	Matched       bool     `json:"matched"`
	BudgetEntryID *string  `json:"budget_entry_id,omitempty"`
	Confidence    *float64 `json:"confidence,omitempty"`
	Message       string   `json:"message"`
}

// BulkAutoMatchResult summarises a run over all unmatched transactions.
type BulkAutoMatchResult struct {
	Processed int    `json:"processed"`
	Matched   int    `json:"matched"`
	Skipped   int    `json:"skipped"`
	Message   string `json:"message"`
}

// TeachRequest links a transaction to an entry and optionally derives
// matching rules from it for future transactions.
type TeachRequest struct {
	BudgetEntryID   string   `json:"budget_entry_id"`
	CreateRules     bool     `json:"create_rules"`
	AmountTolerance *float64 `json:"amount_tolerance,omitempty"`
}

// Matching is the gateway for the transaction-matching endpoints.
type Matching struct {
	c Caller
}

// NewMatching creates the matching gateway.
func NewMatching(c Caller) *Matching {
	return &Matching{c: c}
}

// Suggestions returns candidate budget entries for a transaction.
func (g *Matching) Suggestions(ctx context.Context, userID, transactionID string) ([]MatchSuggestion, error) {
	resp, err := g.c.Do(ctx, http.MethodGet, "/api/matching/suggestions/"+transactionID, nil, userID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Suggestions []MatchSuggestion `json:"suggestions"`
	}
	if err := decodeResource(resp, "Transaction not found", "Failed to fetch match suggestions", &body); err != nil {
		return nil, err
	}
	if body.Suggestions == nil {
		return []MatchSuggestion{}, nil
	}
	return body.Suggestions, nil
}

// AutoMatch asks the backend to link one transaction to its best entry.
func (g *Matching) AutoMatch(ctx context.Context, userID, transactionID string) (*AutoMatchResult, error) {
	resp, err := g.c.Do(ctx, http.MethodPost, "/api/matching/auto-match/"+transactionID, nil, userID)
	if err != nil {
		return nil, err
	}

	var result AutoMatchResult
	if err := decodeResource(resp, "Transaction not found", "Failed to auto-match transaction", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// BulkAutoMatch runs auto-matching over every unmatched transaction.
func (g *Matching) BulkAutoMatch(ctx context.Context, userID string) (*BulkAutoMatchResult, error) {
	resp, err := g.c.Do(ctx, http.MethodPost, "/api/matching/bulk-auto-match", nil, userID)
	if err != nil {
		return nil, err
	}

	var result BulkAutoMatchResult
	if err := decodeResource(resp, "", "Failed to run bulk auto-match", &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Teach links a transaction to the given entry and, when asked, derives
// matching rules from the pairing.
func (g *Matching) Teach(ctx context.Context, userID, transactionID string, req TeachRequest) (*Transaction, error) {
	resp, err := g.c.Do(ctx, http.MethodPost, "/api/matching/teach/"+transactionID, req, userID)
	if err != nil {
		return nil, err
	}

	var txn Transaction
	if err := decodeResource(resp, "Transaction not found", "Failed to teach matcher", &txn); err != nil {
		return nil, err
	}
	return &txn, nil
}
