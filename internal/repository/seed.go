package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/model"
)

// Seed loads development fixtures. It runs under the raw-load marker so
// the audit interceptor ignores these writes, the same way fixture replays
// must not generate trail entries.
func Seed(ctx context.Context, db *gorm.DB, users *UserRepo, categories *CategoryRepo, products *ProductRepo) error {
	ctx = audit.WithRawLoad(ctx)

	var count int64
	if err := db.WithContext(ctx).Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	admin := &model.User{Username: "admin", Role: model.RoleAdmin, IsActive: true}
	if err := admin.SetPassword("admin"); err != nil {
		return err
	}
	alice := &model.User{Username: "alice", Role: model.RoleUser, IsActive: true}
	if err := alice.SetPassword("alice"); err != nil {
		return err
	}
	for _, u := range []*model.User{admin, alice} {
		if err := users.Create(ctx, u); err != nil {
			return err
		}
	}

	general := &model.Category{Name: "General", Slug: model.Slugify("General")}
	if err := categories.Create(ctx, general); err != nil {
		return err
	}

	sample := &model.Product{
		CategoryID: general.ID,
		Name:       "Sample Widget",
		Price:      decimal.NewFromInt(100),
		Stock:      10,
		SKU:        "WIDGET-001",
		IsActive:   true,
		OwnerID:    alice.ID,
	}
	return products.Create(ctx, sample)
}
