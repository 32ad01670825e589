package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/model"
)

// ProductFilter carries pre-validated product list constraints.
type ProductFilter struct {
	OwnerID     *uint // ownership scope for non-staff actors
	CategoryID  *uint
	PriceGte    *decimal.Decimal
	PriceLte    *decimal.Decimal
	StockGte    *int
	StockLte    *int
	Search      string // name or SKU substring
	DeletedOnly bool   // staff-only listing of soft-deleted products

	Ordering string // validated: price|stock|created_at, optional "-" prefix
	Limit    int
	Offset   int
}

// ProductRepo persists products and fires the audit hooks after every
// mutation, in mutation order.
type ProductRepo struct {
	db    *gorm.DB
	hooks audit.Hooks
}

func NewProductRepo(db *gorm.DB, hooks audit.Hooks) *ProductRepo {
	return &ProductRepo{db: db, hooks: hooks}
}

func (r *ProductRepo) Create(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return err
	}
	if r.hooks != nil {
		r.hooks.OnCreate(ctx, product)
	}
	return nil
}

// Update persists the full entity. The caller supplies the before-snapshot
// captured prior to mutating the instance.
func (r *ProductRepo) Update(ctx context.Context, before map[string]any, product *model.Product) error {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return err
	}
	if r.hooks != nil {
		r.hooks.OnUpdate(ctx, before, product)
	}
	return nil
}

// Delete removes the row permanently. Soft deletion is an Update that sets
// deleted_at.
func (r *ProductRepo) Delete(ctx context.Context, product *model.Product) error {
	if err := r.db.WithContext(ctx).Delete(&model.Product{}, product.ID).Error; err != nil {
		return err
	}
	if r.hooks != nil {
		r.hooks.OnDelete(ctx, product)
	}
	return nil
}

func (r *ProductRepo) GetByID(ctx context.Context, id uint) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Owner").
		First(&product, id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepo) GetBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Where("sku = ?", sku).First(&product).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *ProductRepo) List(ctx context.Context, filter ProductFilter) ([]*model.Product, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Product{})

	if filter.DeletedOnly {
		query = query.Where("deleted_at IS NOT NULL")
	} else {
		query = query.Where("deleted_at IS NULL")
	}
	if filter.OwnerID != nil {
		query = query.Where("owner_id = ?", *filter.OwnerID)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.PriceGte != nil {
		query = query.Where("price >= ?", *filter.PriceGte)
	}
	if filter.PriceLte != nil {
		query = query.Where("price <= ?", *filter.PriceLte)
	}
	if filter.StockGte != nil {
		query = query.Where("stock >= ?", *filter.StockGte)
	}
	if filter.StockLte != nil {
		query = query.Where("stock <= ?", *filter.StockLte)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var products []*model.Product
	err := query.
		Preload("Category").
		Order(productOrder(filter.Ordering)).
		Limit(limit).
		Offset(filter.Offset).
		Find(&products).Error
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// productOrder maps a validated ordering token to a SQL clause. Unknown
// tokens fall back to the default, newest first.
func productOrder(ordering string) string {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")
	switch field {
	case "price", "stock", "created_at":
	default:
		return "created_at DESC, id DESC"
	}
	if desc {
		return field + " DESC, id DESC"
	}
	return field + " ASC, id ASC"
}
