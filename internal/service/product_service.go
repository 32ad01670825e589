package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/repository"
)

// ProductService owns catalog business rules: ownership checks, soft
// delete lifecycle, and the explicit audit entries that the automatic
// interceptor does not cover.
type ProductService struct {
	products   *repository.ProductRepo
	categories *repository.CategoryRepo
	recorder   *audit.Recorder
}

func NewProductService(products *repository.ProductRepo, categories *repository.CategoryRepo, recorder *audit.Recorder) *ProductService {
	return &ProductService{
		products:   products,
		categories: categories,
		recorder:   recorder,
	}
}

// ProductQuery is the handler-facing list request.
type ProductQuery struct {
	Filter   repository.ProductFilter
	Page     int
	PageSize int
}

func (s *ProductService) List(ctx context.Context, actor *model.User, query ProductQuery) (*model.Page[*model.Product], error) {
	filter := query.Filter

	if filter.DeletedOnly && !actor.IsStaff() {
		return nil, apperrors.NewForbidden("deleted listing is staff-only")
	}
	if !actor.IsStaff() {
		id := actor.ID
		filter.OwnerID = &id
	}

	page, size := normalizePage(query.Page, query.PageSize)
	filter.Limit = size
	filter.Offset = (page - 1) * size

	products, total, err := s.products.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.Page[*model.Product]{
		Count:    total,
		Page:     page,
		PageSize: size,
		Results:  products,
	}, nil
}

func (s *ProductService) Get(ctx context.Context, actor *model.User, id uint) (*model.Product, error) {
	product, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if product.IsDeleted() && !actor.IsStaff() {
		return nil, apperrors.NewNotFound("product not found")
	}
	return product, nil
}

func (s *ProductService) Create(ctx context.Context, actor *model.User, req model.ProductCreateRequest) (*model.Product, error) {
	if !HasPermission(actor, PermProductCreate) {
		return nil, apperrors.NewForbidden("missing products.create permission")
	}
	if _, err := s.categories.GetByID(ctx, req.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewInvalidRequest("unknown category")
		}
		return nil, err
	}

	actorID := actor.ID
	product := &model.Product{
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Stock:       req.Stock,
		SKU:         req.SKU,
		IsActive:    true,
		OwnerID:     actorID,
		CreatedByID: &actorID,
		UpdatedByID: &actorID,
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.products.Create(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

func (s *ProductService) Update(ctx context.Context, actor *model.User, id uint, req model.ProductUpdateRequest) (*model.Product, error) {
	product, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	before := product.AuditSnapshot()

	if req.CategoryID != nil {
		if _, err := s.categories.GetByID(ctx, *req.CategoryID); err != nil {
			return nil, apperrors.NewInvalidRequest("unknown category")
		}
		product.CategoryID = *req.CategoryID
	}
	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Description != nil {
		product.Description = *req.Description
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Stock != nil {
		product.Stock = *req.Stock
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}
	actorID := actor.ID
	product.UpdatedByID = &actorID

	if err := s.products.Update(ctx, before, product); err != nil {
		return nil, err
	}
	return product, nil
}

// SoftDelete marks the product deleted. The timestamp flip is in the
// diff ignore set, so the trail entry is the explicit soft_delete record
// rather than a noisy field update.
func (s *ProductService) SoftDelete(ctx context.Context, actor *model.User, id uint) error {
	product, err := s.getOwned(ctx, actor, id)
	if err != nil {
		return err
	}
	if product.IsDeleted() {
		return apperrors.NewInvalidRequest("product is already deleted")
	}

	before := product.AuditSnapshot()
	now := time.Now().UTC()
	product.DeletedAt = &now
	if err := s.products.Update(ctx, before, product); err != nil {
		return err
	}

	s.recorder.Log(ctx, audit.Entry{
		Action:      model.ActionSoftDelete,
		Actor:       actor,
		Target:      product,
		Description: fmt.Sprintf("product soft deleted (id=%d)", product.ID),
	})
	return nil
}

func (s *ProductService) Restore(ctx context.Context, actor *model.User, id uint) (*model.Product, error) {
	if !HasPermission(actor, PermProductRestore) {
		return nil, apperrors.NewForbidden("missing products.restore permission")
	}
	product, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !product.IsDeleted() {
		return nil, apperrors.NewInvalidRequest("product is not deleted")
	}

	before := product.AuditSnapshot()
	product.DeletedAt = nil
	if err := s.products.Update(ctx, before, product); err != nil {
		return nil, err
	}

	s.recorder.Log(ctx, audit.Entry{
		Action:      model.ActionRestore,
		Actor:       actor,
		Target:      product,
		Description: fmt.Sprintf("product restored (id=%d)", product.ID),
	})
	return product, nil
}

func (s *ProductService) HardDelete(ctx context.Context, actor *model.User, id uint) error {
	if !HasPermission(actor, PermProductHardDelete) {
		return apperrors.NewForbidden("missing products.hard_delete permission")
	}
	product, err := s.getVisible(ctx, actor, id)
	if err != nil {
		return err
	}

	if err := s.products.Delete(ctx, product); err != nil {
		return err
	}

	s.recorder.Log(ctx, audit.Entry{
		Action:      model.ActionHardDelete,
		Actor:       actor,
		Target:      product,
		Description: fmt.Sprintf("product hard deleted (id=%d)", product.ID),
	})
	return nil
}

// BulkSoftDelete soft deletes a set of products. Per-entity recording is
// suppressed for the duration; the operation leaves one summary entry.
func (s *ProductService) BulkSoftDelete(ctx context.Context, actor *model.User, ids []uint) (*model.BulkResult, error) {
	affected, err := s.bulkApply(ctx, actor, ids, func(ctx context.Context, product *model.Product) (bool, error) {
		if product.IsDeleted() {
			return false, nil
		}
		before := product.AuditSnapshot()
		now := time.Now().UTC()
		product.DeletedAt = &now
		return true, s.products.Update(ctx, before, product)
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Log(ctx, audit.Entry{
		Action:      model.ActionBulkSoftDelete,
		Resource:    model.ProductResourceName,
		Actor:       actor,
		Description: fmt.Sprintf("bulk soft delete of %d products", affected),
		Changes:     model.ChangeSet{"ids": {Before: nil, After: ids}},
	})
	return &model.BulkResult{Requested: len(ids), Affected: affected}, nil
}

func (s *ProductService) BulkRestore(ctx context.Context, actor *model.User, ids []uint) (*model.BulkResult, error) {
	if !HasPermission(actor, PermProductRestore) {
		return nil, apperrors.NewForbidden("missing products.restore permission")
	}
	affected, err := s.bulkApply(ctx, actor, ids, func(ctx context.Context, product *model.Product) (bool, error) {
		if !product.IsDeleted() {
			return false, nil
		}
		before := product.AuditSnapshot()
		product.DeletedAt = nil
		return true, s.products.Update(ctx, before, product)
	})
	if err != nil {
		return nil, err
	}

	s.recorder.Log(ctx, audit.Entry{
		Action:      model.ActionBulkRestore,
		Resource:    model.ProductResourceName,
		Actor:       actor,
		Description: fmt.Sprintf("bulk restore of %d products", affected),
		Changes:     model.ChangeSet{"ids": {Before: nil, After: ids}},
	})
	return &model.BulkResult{Requested: len(ids), Affected: affected}, nil
}

func (s *ProductService) bulkApply(ctx context.Context, actor *model.User, ids []uint, apply func(context.Context, *model.Product) (bool, error)) (int, error) {
	muted := audit.WithLoggingDisabled(ctx)
	affected := 0
	for _, id := range ids {
		product, err := s.getOwned(muted, actor, id)
		if err != nil {
			if appErr, ok := err.(*apperrors.AppError); ok && appErr.Type == apperrors.ErrNotFound {
				continue
			}
			return affected, err
		}
		changed, err := apply(muted, product)
		if err != nil {
			return affected, err
		}
		if changed {
			affected++
		}
	}
	return affected, nil
}

// Category operations.

func (s *ProductService) ListCategories(ctx context.Context) ([]*model.Category, error) {
	return s.categories.List(ctx)
}

func (s *ProductService) CreateCategory(ctx context.Context, actor *model.User, req model.CategoryRequest) (*model.Category, error) {
	if actor == nil {
		return nil, apperrors.New(apperrors.ErrAuthFailed, "authentication required", nil)
	}
	slug := req.Slug
	if slug == "" {
		slug = model.Slugify(req.Name)
	}
	category := &model.Category{
		Name:        req.Name,
		Slug:        slug,
		Description: req.Description,
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

func (s *ProductService) getVisible(ctx context.Context, actor *model.User, id uint) (*model.Product, error) {
	product, err := s.products.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("product not found")
		}
		return nil, err
	}
	if !actor.IsStaff() && product.OwnerID != actor.ID {
		// Hide foreign products instead of confirming their existence.
		return nil, apperrors.NewNotFound("product not found")
	}
	return product, nil
}

func (s *ProductService) getOwned(ctx context.Context, actor *model.User, id uint) (*model.Product, error) {
	return s.getVisible(ctx, actor, id)
}

func normalizePage(page, size int) (int, int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = 20
	}
	if size > 100 {
		size = 100
	}
	return page, size
}
