package service

import (
	"context"
	"fmt"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/pkg/logger"
	"github.com/auditgate/auditgate/internal/pkg/metrics"
	"github.com/auditgate/auditgate/internal/repository"
)

const DefaultCleanupBatchSize = 1000

type CleanupOptions struct {
	RetentionDays int
	BatchSize     int
	DryRun        bool
}

// CleanupResult summarizes one retention sweep.
type CleanupResult struct {
	Eligible int64
	Deleted  int64
	DryRun   bool
}

// AuditCleanupService deletes records past the retention window, one
// transactional batch at a time. Interrupting between batches leaves
// partial progress; resuming is idempotent.
type AuditCleanupService struct {
	repo *repository.AuditRepo
}

func NewAuditCleanupService(repo *repository.AuditRepo) *AuditCleanupService {
	return &AuditCleanupService{repo: repo}
}

// Cleanup runs the retention sweep. Unlike the write paths, failures here
// propagate: the sweep is operator-invoked and must be visible.
func (s *AuditCleanupService) Cleanup(ctx context.Context, opts CleanupOptions) (*CleanupResult, error) {
	if opts.RetentionDays <= 0 {
		return nil, fmt.Errorf("retention days must be positive, got %d", opts.RetentionDays)
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultCleanupBatchSize
	}

	eligible, err := s.repo.CountOlderThan(ctx, opts.RetentionDays)
	if err != nil {
		return nil, err
	}

	result := &CleanupResult{Eligible: eligible, DryRun: opts.DryRun}
	if opts.DryRun || eligible == 0 {
		return result, nil
	}

	// The sweep's own deletes must not re-enter the interceptor.
	ctx = audit.WithLoggingDisabled(ctx)

	for {
		ids, err := s.repo.IDsOlderThan(ctx, opts.RetentionDays, batchSize)
		if err != nil {
			return result, err
		}
		if len(ids) == 0 {
			break
		}
		deleted, err := s.repo.DeleteBatch(ctx, ids)
		if err != nil {
			return result, err
		}
		result.Deleted += deleted
		metrics.AuditCleanupTotal.Add(float64(deleted))
		logger.Info("audit cleanup batch deleted", "count", deleted, "total", result.Deleted)
	}

	return result, nil
}
