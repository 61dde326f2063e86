package gateway

import (
	"context"
	"net/http"
	"net/url"
)

// Category mirrors the backend's category record.
type Category struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	Name         string  `json:"name"`
	CategoryType string  `json:"category_type"` // income or expense
	Color        *string `json:"color,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	IsActive     bool    `json:"is_active"`
	CreatedAt    string  `json:"created_at"`
	UpdatedAt    string  `json:"updated_at"`
}

// CreateCategoryRequest is the payload for category creation.
type CreateCategoryRequest struct {
	Name         string  `json:"name"`
	CategoryType string  `json:"category_type"`
	Color        *string `json:"color,omitempty"`
	Icon         *string `json:"icon,omitempty"`
}

// UpdateCategoryRequest carries only the fields to change.
type UpdateCategoryRequest struct {
	Name         *string `json:"name,omitempty"`
	CategoryType *string `json:"category_type,omitempty"`
	Color        *string `json:"color,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	IsActive     *bool   `json:"is_active,omitempty"`
}

// Categories is the gateway for the category resource family.
type Categories struct {
	c Caller
}

// NewCategories creates the categories gateway.
func NewCategories(c Caller) *Categories {
	return &Categories{c: c}
}

// List returns the user's categories, optionally filtered by type
// ("income" or "expense"). An empty categoryType returns everything.
func (g *Categories) List(ctx context.Context, userID, categoryType string) ([]Category, error) {
	endpoint := "/api/categories"
	if categoryType != "" {
		endpoint += "?type=" + url.QueryEscape(categoryType)
	}

	resp, err := g.c.Do(ctx, http.MethodGet, endpoint, nil, userID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Categories []Category `json:"categories"`
	}
	if err := decodeResource(resp, "", "Failed to fetch categories", &body); err != nil {
		return nil, err
	}
	if body.Categories == nil {
		return []Category{}, nil
	}
	return body.Categories, nil
}

// Get returns a single category.
func (g *Categories) Get(ctx context.Context, userID, categoryID string) (*Category, error) {
	resp, err := g.c.Do(ctx, http.MethodGet, "/api/categories/"+categoryID, nil, userID)
	if err != nil {
		return nil, err
	}

	var category Category
	if err := decodeResource(resp, "Category not found", "Failed to fetch category", &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Create creates a category.
func (g *Categories) Create(ctx context.Context, userID string, req CreateCategoryRequest) (*Category, error) {
	resp, err := g.c.Do(ctx, http.MethodPost, "/api/categories", req, userID)
	if err != nil {
		return nil, err
	}

	var category Category
	if err := decodeResource(resp, "", "Failed to create category", &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Update applies a partial update to a category.
func (g *Categories) Update(ctx context.Context, userID, categoryID string, req UpdateCategoryRequest) (*Category, error) {
	resp, err := g.c.Do(ctx, http.MethodPut, "/api/categories/"+categoryID, req, userID)
	if err != nil {
		return nil, err
	}

	var category Category
	if err := decodeResource(resp, "Category not found", "Failed to update category", &category); err != nil {
		return nil, err
	}
	return &category, nil
}

// Delete soft-deletes a category.
func (g *Categories) Delete(ctx context.Context, userID, categoryID string) error {
	resp, err := g.c.Do(ctx, http.MethodDelete, "/api/categories/"+categoryID, nil, userID)
	if err != nil {
		return err
	}
	return checkNoContent(resp, "Category not found", "Failed to delete category")
}

// Seed provisions the backend's default category set for a new user.
func (g *Categories) Seed(ctx context.Context, userID string) ([]Category, error) {
	resp, err := g.c.Do(ctx, http.MethodPost, "/api/categories/seed", nil, userID)
	if err != nil {
		return nil, err
	}

	var body struct {
		Categories []Category `json:"categories"`
	}
	if err := decodeResource(resp, "", "Failed to seed categories", &body); err != nil {
		return nil, err
	}
	if body.Categories == nil {
		return []Category{}, nil
	}
	return body.Categories, nil
}
