package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/model"
)

type CategoryRepo struct {
	db    *gorm.DB
	hooks audit.Hooks
}

func NewCategoryRepo(db *gorm.DB, hooks audit.Hooks) *CategoryRepo {
	return &CategoryRepo{db: db, hooks: hooks}
}

func (r *CategoryRepo) Create(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Create(category).Error; err != nil {
		return err
	}
	if r.hooks != nil {
		r.hooks.OnCreate(ctx, category)
	}
	return nil
}

func (r *CategoryRepo) Update(ctx context.Context, before map[string]any, category *model.Category) error {
	if err := r.db.WithContext(ctx).Save(category).Error; err != nil {
		return err
	}
	if r.hooks != nil {
		r.hooks.OnUpdate(ctx, before, category)
	}
	return nil
}

func (r *CategoryRepo) Delete(ctx context.Context, category *model.Category) error {
	if err := r.db.WithContext(ctx).Delete(&model.Category{}, category.ID).Error; err != nil {
		return err
	}
	if r.hooks != nil {
		r.hooks.OnDelete(ctx, category)
	}
	return nil
}

func (r *CategoryRepo) GetByID(ctx context.Context, id uint) (*model.Category, error) {
	var category model.Category
	if err := r.db.WithContext(ctx).First(&category, id).Error; err != nil {
		return nil, err
	}
	return &category, nil
}

func (r *CategoryRepo) List(ctx context.Context) ([]*model.Category, error) {
	var categories []*model.Category
	err := r.db.WithContext(ctx).Order("name ASC").Find(&categories).Error
	return categories, err
}
