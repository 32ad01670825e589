package repository

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/model"
)

// AuditFilter carries pre-validated query constraints. The service layer
// owns ordering/filter validation; nothing here reaches SQL unchecked.
type AuditFilter struct {
	ActorID    *uint // ownership scope: only this actor's records
	UserID     *uint // explicit actor filter parameter
	Action     string
	Status     string
	Resource   string
	TargetType string
	TargetID   string
	From       *time.Time
	To         *time.Time
	Search     string

	// ExcludeUserSignup drops the system noise of user-creation records.
	ExcludeUserSignup bool

	Ordering string // "timestamp" or "-timestamp"; anything else: "-timestamp"
	Limit    int
	Offset   int
}

type AuditRepo struct {
	db *gorm.DB
}

func NewAuditRepo(db *gorm.DB) *AuditRepo {
	return &AuditRepo{db: db}
}

func (r *AuditRepo) Create(ctx context.Context, record *model.AuditRecord) error {
	return r.db.WithContext(ctx).Create(record).Error
}

func (r *AuditRepo) Provisioned(ctx context.Context) bool {
	return r.db.WithContext(ctx).Migrator().HasTable(&model.AuditRecord{})
}

func (r *AuditRepo) GetByID(ctx context.Context, id uint) (*model.AuditRecord, error) {
	var record model.AuditRecord
	err := r.db.WithContext(ctx).Preload("User").First(&record, id).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *AuditRepo) List(ctx context.Context, filter AuditFilter) ([]*model.AuditRecord, int64, error) {
	query := r.applyFilter(r.db.WithContext(ctx).Model(&model.AuditRecord{}), filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	order := "timestamp DESC, id DESC"
	if filter.Ordering == "timestamp" {
		order = "timestamp ASC, id ASC"
	}

	limit := filter.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}

	var records []*model.AuditRecord
	err := query.
		Preload("User").
		Order(order).
		Limit(limit).
		Offset(filter.Offset).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (r *AuditRepo) applyFilter(query *gorm.DB, filter AuditFilter) *gorm.DB {
	if filter.ActorID != nil {
		query = query.Where("user_id = ?", *filter.ActorID)
	}
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.Status != "" {
		query = query.Where("LOWER(status) = ?", strings.ToLower(filter.Status))
	}
	if filter.Resource != "" {
		query = query.Where("LOWER(resource) = ?", strings.ToLower(filter.Resource))
	}
	if filter.TargetType != "" {
		query = query.Where("LOWER(target_type) = ?", strings.ToLower(filter.TargetType))
	}
	if filter.TargetID != "" {
		query = query.Where("target_id = ?", filter.TargetID)
	}
	if filter.From != nil {
		query = query.Where("timestamp >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("timestamp <= ?", *filter.To)
	}
	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(description) LIKE ?", pattern)
	}
	if filter.ExcludeUserSignup {
		query = query.Where("NOT (action = ? AND LOWER(resource) = ?)", model.ActionCreate, model.UserResourceName)
	}
	return query
}

// CountOlderThan counts records eligible for the retention sweep. Pure
// filter: nothing is deleted here.
func (r *AuditRepo) CountOlderThan(ctx context.Context, days int) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).
		Model(&model.AuditRecord{}).
		Where("timestamp < ?", retentionCutoff(days)).
		Count(&total).Error
	return total, err
}

// IDsOlderThan pages eligible ids for batch deletion, oldest first.
func (r *AuditRepo) IDsOlderThan(ctx context.Context, days, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.WithContext(ctx).
		Model(&model.AuditRecord{}).
		Where("timestamp < ?", retentionCutoff(days)).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteBatch removes one batch inside its own transaction. A failure
// rolls back only this batch; earlier batches stay deleted.
func (r *AuditRepo) DeleteBatch(ctx context.Context, ids []uint) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id IN ?", ids).Delete(&model.AuditRecord{})
		if res.Error != nil {
			return res.Error
		}
		deleted = res.RowsAffected
		return nil
	})
	return deleted, err
}

func retentionCutoff(days int) time.Time {
	return time.Now().UTC().AddDate(0, 0, -days)
}
