package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/model"
)

type UserRepo struct {
	db    *gorm.DB
	hooks audit.Hooks
}

func NewUserRepo(db *gorm.DB, hooks audit.Hooks) *UserRepo {
	return &UserRepo{db: db, hooks: hooks}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return err
	}
	if r.hooks != nil {
		r.hooks.OnCreate(ctx, user)
	}
	return nil
}

func (r *UserRepo) Update(ctx context.Context, before map[string]any, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		return err
	}
	if r.hooks != nil {
		r.hooks.OnUpdate(ctx, before, user)
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uint) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	if err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}
