package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/pkg/apperrors"
	"github.com/auditgate/auditgate/internal/repository"
)

// AuditQuery holds raw, untrusted query parameters from the read API.
// Validation and the alias mapping happen here, never in SQL.
type AuditQuery struct {
	Action       string
	Status       string
	Resource     string
	ContentType  string
	ObjectID     string
	UserID       *uint
	CreatedAtGte *time.Time
	CreatedAtLte *time.Time
	Search       string
	Ordering     string
	Page         int
	PageSize     int
}

// AuditQueryService is the read side of the audit trail.
type AuditQueryService struct {
	repo  *repository.AuditRepo
	cache *repository.RedisRecentCache
}

func NewAuditQueryService(repo *repository.AuditRepo, cache *repository.RedisRecentCache) *AuditQueryService {
	return &AuditQueryService{repo: repo, cache: cache}
}

func (s *AuditQueryService) List(ctx context.Context, actor *model.User, query AuditQuery) (*model.Page[*model.AuditRecord], error) {
	page, size := normalizePage(query.Page, query.PageSize)
	empty := &model.Page[*model.AuditRecord]{
		Count:    0,
		Page:     page,
		PageSize: size,
		Results:  []*model.AuditRecord{},
	}

	filter := repository.AuditFilter{
		Status:            query.Status,
		Resource:          query.Resource,
		TargetType:        query.ContentType,
		TargetID:          query.ObjectID,
		UserID:            query.UserID,
		From:              query.CreatedAtGte,
		To:                query.CreatedAtLte,
		Search:            query.Search,
		ExcludeUserSignup: true,
		Ordering:          mapOrdering(query.Ordering),
		Limit:             size,
		Offset:            (page - 1) * size,
	}

	// Non-privileged actors only ever see their own records.
	if !actor.IsStaff() {
		id := actor.ID
		filter.ActorID = &id
	}

	if query.Action != "" {
		action := strings.ToLower(strings.TrimSpace(query.Action))
		if _, known := model.KnownActions[action]; !known {
			// Malformed filter means no matches, not an error.
			return empty, nil
		}
		filter.Action = action
	}

	records, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &model.Page[*model.AuditRecord]{
		Count:    total,
		Page:     page,
		PageSize: size,
		Results:  records,
	}, nil
}

func (s *AuditQueryService) Get(ctx context.Context, actor *model.User, id uint) (*model.AuditRecord, error) {
	record, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NewNotFound("audit record not found")
		}
		return nil, err
	}
	if !actor.IsStaff() {
		if record.UserID == nil || *record.UserID != actor.ID {
			// Foreign records stay invisible, not merely forbidden.
			return nil, apperrors.NewNotFound("audit record not found")
		}
	}
	return record, nil
}

// Recent serves the staff-only live feed backed by the redis ring.
func (s *AuditQueryService) Recent(ctx context.Context, actor *model.User, limit int) ([]*model.AuditRecord, error) {
	if !HasPermission(actor, PermAuditViewAll) {
		return nil, apperrors.NewForbidden("missing audit.view_all permission")
	}
	if s.cache == nil {
		return []*model.AuditRecord{}, nil
	}
	return s.cache.Recent(ctx, limit)
}

// mapOrdering applies the external alias and the whitelist. Anything
// unrecognized silently falls back to the default, newest first.
func mapOrdering(ordering string) string {
	desc := strings.HasPrefix(ordering, "-")
	field := strings.TrimPrefix(ordering, "-")
	if field == "created_at" {
		field = "timestamp"
	}
	if field != "timestamp" {
		return "-timestamp"
	}
	if desc {
		return "-timestamp"
	}
	return "timestamp"
}
