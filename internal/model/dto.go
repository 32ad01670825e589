package model

import "github.com/shopspring/decimal"

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required"`
	Slug        string `json:"slug"`
	Description string `json:"description"`
}

type ProductCreateRequest struct {
	CategoryID  uint            `json:"category_id" binding:"required"`
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Stock       int             `json:"stock"`
	SKU         string          `json:"sku" binding:"required"`
	IsActive    *bool           `json:"is_active"`
}

// Pointer fields distinguish "absent" from zero values on partial updates.
type ProductUpdateRequest struct {
	CategoryID  *uint            `json:"category_id"`
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	IsActive    *bool            `json:"is_active"`
}

type BulkIDsRequest struct {
	IDs []uint `json:"ids" binding:"required"`
}

type BulkResult struct {
	Requested int    `json:"requested"`
	Affected  int    `json:"affected"`
	Detail    string `json:"detail,omitempty"`
}

// Page is the generic paginated list envelope.
type Page[T any] struct {
	Count    int64 `json:"count"`
	Page     int   `json:"page"`
	PageSize int   `json:"page_size"`
	Results  []T   `json:"results"`
}
