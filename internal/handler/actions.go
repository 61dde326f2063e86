package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/helpmebudget/web/internal/fault"
	"github.com/helpmebudget/web/internal/gateway"
)

// Form actions parse the submitted fields, validate required ones before
// any backend call, and return a structured JSON result the page renders
// from. Gateway failures come back as {"error": ...} values, never as
// unhandled faults.

const msgMissingFields = "Missing required fields"

func formValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.PostFormValue(key))
}

// optionalString returns a pointer only when the field was submitted
// non-empty, so unset fields stay out of the outbound body.
func optionalString(r *http.Request, key string) *string {
	if v := formValue(r, key); v != "" {
		return &v
	}
	return nil
}

func optionalFloat(r *http.Request, key string) (*float64, error) {
	v := formValue(r, key)
	if v == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil, fault.Validation("Invalid number: " + key)
	}
	return &f, nil
}

func optionalInt(r *http.Request, key string) (*int, error) {
	v := formValue(r, key)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fault.Validation("Invalid number: " + key)
	}
	return &n, nil
}

// CreateAccount handles the account creation form. Balance defaults to 0
// and currency to USD when the form leaves them blank.
// POST /dashboard/accounts
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	name := formValue(r, "name")
	accountType := formValue(r, "account_type")
	if name == "" || accountType == "" {
		writeError(w, fault.Validation(msgMissingFields))
		return
	}

	balance := 0.0
	if v := formValue(r, "balance"); v != "" {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			writeError(w, fault.Validation("Invalid balance"))
			return
		}
		balance = parsed
	}
	currency := formValue(r, "currency")
	if currency == "" {
		currency = "USD"
	}

	account, err := h.accounts.Create(r.Context(), userID, gateway.CreateAccountRequest{
		Name:        name,
		AccountType: accountType,
		Balance:     balance,
		Currency:    currency,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "account": account})
}

// UpdateAccount handles the account edit form.
// POST /dashboard/accounts/{accountID}
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	balance, err := optionalFloat(r, "balance")
	if err != nil {
		writeError(w, err)
		return
	}

	req := gateway.UpdateAccountRequest{
		Name:        optionalString(r, "name"),
		AccountType: optionalString(r, "account_type"),
		Balance:     balance,
		Currency:    optionalString(r, "currency"),
	}

	account, err := h.accounts.Update(r.Context(), userID, chi.URLParam(r, "accountID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "account": account})
}

// DeleteAccount handles the account delete action.
// POST /dashboard/accounts/{accountID}/delete
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	if err := h.accounts.Delete(r.Context(), userID, chi.URLParam(r, "accountID")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CreateBudget handles the budget creation form.
// POST /dashboard/budgets
func (h *Handler) CreateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	name := formValue(r, "name")
	if name == "" {
		writeError(w, fault.Validation(msgMissingFields))
		return
	}

	budget, err := h.budgets.Create(r.Context(), userID, gateway.CreateBudgetRequest{
		Name:        name,
		Description: optionalString(r, "description"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "budget": budget})
}

// UpdateBudget handles the budget edit form.
// POST /dashboard/budgets/{budgetID}
func (h *Handler) UpdateBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	req := gateway.UpdateBudgetRequest{
		Name:        optionalString(r, "name"),
		Description: optionalString(r, "description"),
	}
	if v := formValue(r, "is_active"); v != "" {
		active := v == "true" || v == "on"
		req.IsActive = &active
	}

	budget, err := h.budgets.Update(r.Context(), userID, chi.URLParam(r, "budgetID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "budget": budget})
}

// DeleteBudget handles the budget delete action.
// POST /dashboard/budgets/{budgetID}/delete
func (h *Handler) DeleteBudget(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	if err := h.budgets.Delete(r.Context(), userID, chi.URLParam(r, "budgetID")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CreateBudgetEntry handles the entry creation form on the budget detail
// page.
// POST /dashboard/budgets/{budgetID}/entries
func (h *Handler) CreateBudgetEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	name := formValue(r, "name")
	amountStr := formValue(r, "amount")
	entryType := formValue(r, "entry_type")
	frequency := formValue(r, "frequency")
	startDate := formValue(r, "start_date")
	if name == "" || amountStr == "" || entryType == "" || frequency == "" || startDate == "" {
		writeError(w, fault.Validation(msgMissingFields))
		return
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		writeError(w, fault.Validation("Invalid amount"))
		return
	}

	dayOfMonth, err := optionalInt(r, "day_of_month")
	if err != nil {
		writeError(w, err)
		return
	}
	dayOfWeek, err := optionalInt(r, "day_of_week")
	if err != nil {
		writeError(w, err)
		return
	}

	entry, err := h.budgets.CreateEntry(r.Context(), userID, chi.URLParam(r, "budgetID"), gateway.CreateBudgetEntryRequest{
		CategoryID:  optionalString(r, "category_id"),
		Name:        name,
		Description: optionalString(r, "description"),
		Amount:      amount,
		EntryType:   entryType,
		Frequency:   frequency,
		DayOfMonth:  dayOfMonth,
		DayOfWeek:   dayOfWeek,
		StartDate:   startDate,
		EndDate:     optionalString(r, "end_date"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "entry": entry})
}

// UpdateBudgetEntry handles the entry edit form.
// POST /dashboard/budgets/{budgetID}/entries/{entryID}
func (h *Handler) UpdateBudgetEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	amount, err := optionalFloat(r, "amount")
	if err != nil {
		writeError(w, err)
		return
	}
	dayOfMonth, err := optionalInt(r, "day_of_month")
	if err != nil {
		writeError(w, err)
		return
	}

	req := gateway.UpdateBudgetEntryRequest{
		CategoryID:  optionalString(r, "category_id"),
		Name:        optionalString(r, "name"),
		Description: optionalString(r, "description"),
		Amount:      amount,
		EntryType:   optionalString(r, "entry_type"),
		Frequency:   optionalString(r, "frequency"),
		DayOfMonth:  dayOfMonth,
		StartDate:   optionalString(r, "start_date"),
		EndDate:     optionalString(r, "end_date"),
	}

	entry, err := h.budgets.UpdateEntry(r.Context(), userID, chi.URLParam(r, "budgetID"), chi.URLParam(r, "entryID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "entry": entry})
}

// DeleteBudgetEntry handles the entry delete action.
// POST /dashboard/budgets/{budgetID}/entries/{entryID}/delete
func (h *Handler) DeleteBudgetEntry(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	if err := h.budgets.DeleteEntry(r.Context(), userID, chi.URLParam(r, "budgetID"), chi.URLParam(r, "entryID")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// UpdateEntryMatchingRules handles the matching-rules form on the review
// page. Keywords arrive comma-separated.
// POST /dashboard/budgets/{budgetID}/entries/{entryID}/matching-rules
func (h *Handler) UpdateEntryMatchingRules(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	tolerance, err := optionalFloat(r, "amount_tolerance")
	if err != nil {
		writeError(w, err)
		return
	}

	rules := gateway.MatchingRules{
		MerchantName:    optionalString(r, "merchant_name"),
		AmountTolerance: tolerance,
	}
	if v := formValue(r, "description_contains"); v != "" {
		for _, kw := range strings.Split(v, ",") {
			if kw = strings.TrimSpace(kw); kw != "" {
				rules.DescriptionContains = append(rules.DescriptionContains, kw)
			}
		}
	}

	err = h.budgets.UpdateMatchingRules(r.Context(), userID, chi.URLParam(r, "budgetID"), chi.URLParam(r, "entryID"), rules)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CreateCategory handles the category creation form.
// POST /dashboard/categories
func (h *Handler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	name := formValue(r, "name")
	categoryType := formValue(r, "category_type")
	if name == "" || categoryType == "" {
		writeError(w, fault.Validation(msgMissingFields))
		return
	}

	category, err := h.categories.Create(r.Context(), userID, gateway.CreateCategoryRequest{
		Name:         name,
		CategoryType: categoryType,
		Color:        optionalString(r, "color"),
		Icon:         optionalString(r, "icon"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "category": category})
}

// UpdateCategory handles the category edit form.
// POST /dashboard/categories/{categoryID}
func (h *Handler) UpdateCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	req := gateway.UpdateCategoryRequest{
		Name:         optionalString(r, "name"),
		CategoryType: optionalString(r, "category_type"),
		Color:        optionalString(r, "color"),
		Icon:         optionalString(r, "icon"),
	}

	category, err := h.categories.Update(r.Context(), userID, chi.URLParam(r, "categoryID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "category": category})
}

// DeleteCategory handles the category delete action.
// POST /dashboard/categories/{categoryID}/delete
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	if err := h.categories.Delete(r.Context(), userID, chi.URLParam(r, "categoryID")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CreateTransaction handles the transaction creation form.
// POST /dashboard/transactions
func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	accountID := formValue(r, "account_id")
	amountStr := formValue(r, "amount")
	description := formValue(r, "description")
	transactionDate := formValue(r, "transaction_date")
	transactionType := formValue(r, "transaction_type")
	if accountID == "" || amountStr == "" || description == "" || transactionDate == "" || transactionType == "" {
		writeError(w, fault.Validation(msgMissingFields))
		return
	}
	amount, err := strconv.ParseFloat(amountStr, 64)
	if err != nil {
		writeError(w, fault.Validation("Invalid amount"))
		return
	}

	txn, err := h.transactions.Create(r.Context(), userID, gateway.CreateTransactionRequest{
		AccountID:       accountID,
		CategoryID:      optionalString(r, "category_id"),
		Amount:          amount,
		Description:     description,
		MerchantName:    optionalString(r, "merchant_name"),
		TransactionDate: transactionDate,
		TransactionType: transactionType,
		Notes:           optionalString(r, "notes"),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "transaction": txn})
}

// UpdateTransaction handles the transaction edit form.
// POST /dashboard/transactions/{transactionID}
func (h *Handler) UpdateTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	amount, err := optionalFloat(r, "amount")
	if err != nil {
		writeError(w, err)
		return
	}

	req := gateway.UpdateTransactionRequest{
		AccountID:       optionalString(r, "account_id"),
		CategoryID:      optionalString(r, "category_id"),
		Amount:          amount,
		Description:     optionalString(r, "description"),
		MerchantName:    optionalString(r, "merchant_name"),
		TransactionDate: optionalString(r, "transaction_date"),
		TransactionType: optionalString(r, "transaction_type"),
		Notes:           optionalString(r, "notes"),
	}

	txn, err := h.transactions.Update(r.Context(), userID, chi.URLParam(r, "transactionID"), req)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transaction": txn})
}

// DeleteTransaction handles the transaction delete action.
// POST /dashboard/transactions/{transactionID}/delete
func (h *Handler) DeleteTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	if err := h.transactions.Delete(r.Context(), userID, chi.URLParam(r, "transactionID")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

// CategorizeTransaction assigns a category from the review page.
// POST /dashboard/transactions/{transactionID}/categorize
func (h *Handler) CategorizeTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	categoryID := formValue(r, "category_id")
	if categoryID == "" {
		writeError(w, fault.Validation(msgMissingFields))
		return
	}

	txn, err := h.transactions.Categorize(r.Context(), userID, chi.URLParam(r, "transactionID"), categoryID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transaction": txn})
}

// LinkTransaction ties a transaction to a budget entry from the review
// page.
// POST /dashboard/transactions/{transactionID}/link
func (h *Handler) LinkTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	budgetEntryID := formValue(r, "budget_entry_id")
	if budgetEntryID == "" {
		writeError(w, fault.Validation(msgMissingFields))
		return
	}

	txn, err := h.transactions.Link(r.Context(), userID, chi.URLParam(r, "transactionID"), budgetEntryID, formValue(r, "match_confidence"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transaction": txn})
}

// MatchSuggestions returns candidate entries for one transaction.
// GET /dashboard/review/suggestions/{transactionID}
func (h *Handler) MatchSuggestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	suggestions, err := h.matching.Suggestions(r.Context(), userID, chi.URLParam(r, "transactionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"suggestions": suggestions})
}

// AutoMatchTransaction runs auto-matching for one transaction.
// POST /dashboard/review/auto-match/{transactionID}
func (h *Handler) AutoMatchTransaction(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	result, err := h.matching.AutoMatch(r.Context(), userID, chi.URLParam(r, "transactionID"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

// BulkAutoMatch runs auto-matching over all unmatched transactions.
// POST /dashboard/review/bulk-auto-match
func (h *Handler) BulkAutoMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	result, err := h.matching.BulkAutoMatch(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "result": result})
}

// TeachMatcher links a transaction to an entry and optionally derives
// rules from the pairing.
// POST /dashboard/review/teach/{transactionID}
func (h *Handler) TeachMatcher(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireIdentityJSON(w, r)
	if !ok {
		return
	}

	budgetEntryID := formValue(r, "budget_entry_id")
	if budgetEntryID == "" {
		writeError(w, fault.Validation(msgMissingFields))
		return
	}
	tolerance, err := optionalFloat(r, "amount_tolerance")
	if err != nil {
		writeError(w, err)
		return
	}

	txn, err := h.matching.Teach(r.Context(), userID, chi.URLParam(r, "transactionID"), gateway.TeachRequest{
		BudgetEntryID:   budgetEntryID,
		CreateRules:     formValue(r, "create_rules") == "true" || formValue(r, "create_rules") == "on",
		AmountTolerance: tolerance,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"success": true, "transaction": txn})
}
