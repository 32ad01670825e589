package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/model"
)

func seedRecord(t *testing.T, db *gorm.DB, record *model.AuditRecord) *model.AuditRecord {
	t.Helper()
	require.NoError(t, db.Create(record).Error)
	return record
}

func strPtr(s string) *string { return &s }

func TestAuditRepoProvisioned(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)
	assert.True(t, repo.Provisioned(context.Background()))

	require.NoError(t, db.Migrator().DropTable(&model.AuditRecord{}))
	assert.False(t, repo.Provisioned(context.Background()))
}

func TestAuditRepoCreateAndGet(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)
	actor := newTestUser(t, db, "alice", model.RoleUser)

	record := &model.AuditRecord{
		UserID:     &actor.ID,
		Action:     model.ActionCreate,
		Resource:   model.ProductResourceName,
		Status:     model.StatusSuccess,
		TargetType: strPtr(model.ProductResourceName),
		TargetID:   strPtr("42"),
		Changes:    model.ChangeSet{"name": {Before: nil, After: "Widget"}},
	}
	require.NoError(t, repo.Create(context.Background(), record))
	require.NotZero(t, record.ID)

	got, err := repo.GetByID(context.Background(), record.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ActionCreate, got.Action)
	assert.Equal(t, "Widget", got.Changes["name"].After)
	require.NotNil(t, got.User)
	assert.Equal(t, "alice", got.User.Username)
	assert.False(t, got.Timestamp.IsZero())
}

func TestAuditRepoListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)
	alice := newTestUser(t, db, "alice", model.RoleUser)
	bob := newTestUser(t, db, "bob", model.RoleUser)

	seedRecord(t, db, &model.AuditRecord{
		UserID: &alice.ID, Action: model.ActionCreate,
		Resource: model.ProductResourceName, Status: model.StatusSuccess,
		Description: "create product (id=1)",
	})
	seedRecord(t, db, &model.AuditRecord{
		UserID: &alice.ID, Action: model.ActionUpdate,
		Resource: model.ProductResourceName, Status: model.StatusSuccess,
		TargetType: strPtr(model.ProductResourceName), TargetID: strPtr("1"),
		Description: "update product (id=1)",
	})
	seedRecord(t, db, &model.AuditRecord{
		UserID: &bob.ID, Action: model.ActionLogin,
		Resource: model.UserResourceName, Status: model.StatusFailed,
		Description: "failed login for bob",
	})

	ctx := context.Background()

	records, total, err := repo.List(ctx, AuditFilter{ActorID: &alice.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, records, 2)

	_, total, err = repo.List(ctx, AuditFilter{Action: model.ActionLogin})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	// Status and resource match case-insensitively.
	_, total, err = repo.List(ctx, AuditFilter{Status: "Failed"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, total, err = repo.List(ctx, AuditFilter{Resource: "PRODUCT"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, total, err = repo.List(ctx, AuditFilter{TargetType: model.ProductResourceName, TargetID: "1"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	records, total, err = repo.List(ctx, AuditFilter{Search: "FAILED LOGIN"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, model.ActionLogin, records[0].Action)
}

func TestAuditRepoListExcludesUserSignup(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)

	seedRecord(t, db, &model.AuditRecord{
		Action: model.ActionCreate, Resource: model.UserResourceName,
		Status: model.StatusSuccess, Description: "create user (id=1)",
	})
	kept := seedRecord(t, db, &model.AuditRecord{
		Action: model.ActionCreate, Resource: model.ProductResourceName,
		Status: model.StatusSuccess, Description: "create product (id=1)",
	})

	records, total, err := repo.List(context.Background(), AuditFilter{ExcludeUserSignup: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, kept.ID, records[0].ID)
}

func TestAuditRepoListOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)

	base := time.Now().UTC().Add(-time.Hour)
	oldest := seedRecord(t, db, &model.AuditRecord{
		Action: model.ActionCreate, Resource: model.ProductResourceName,
		Status: model.StatusSuccess, Timestamp: base,
	})
	newest := seedRecord(t, db, &model.AuditRecord{
		Action: model.ActionUpdate, Resource: model.ProductResourceName,
		Status: model.StatusSuccess, Timestamp: base.Add(30 * time.Minute),
	})

	records, _, err := repo.List(context.Background(), AuditFilter{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newest.ID, records[0].ID, "default ordering is newest first")

	records, _, err = repo.List(context.Background(), AuditFilter{Ordering: "timestamp"})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, oldest.ID, records[0].ID)
}

func TestAuditRepoListPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)

	base := time.Now().UTC().Add(-time.Hour)
	for i := 0; i < 5; i++ {
		seedRecord(t, db, &model.AuditRecord{
			Action: model.ActionAccess, Resource: model.ProductResourceName,
			Status: model.StatusInfo, Timestamp: base.Add(time.Duration(i) * time.Minute),
		})
	}

	records, total, err := repo.List(context.Background(), AuditFilter{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.EqualValues(t, 5, total, "count ignores pagination")
	assert.Len(t, records, 2)
}

func TestAuditRepoListTimeWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)

	base := time.Now().UTC()
	seedRecord(t, db, &model.AuditRecord{
		Action: model.ActionAccess, Resource: model.ProductResourceName,
		Status: model.StatusInfo, Timestamp: base.Add(-48 * time.Hour),
	})
	inside := seedRecord(t, db, &model.AuditRecord{
		Action: model.ActionAccess, Resource: model.ProductResourceName,
		Status: model.StatusInfo, Timestamp: base.Add(-2 * time.Hour),
	})

	from := base.Add(-24 * time.Hour)
	records, total, err := repo.List(context.Background(), AuditFilter{From: &from, To: &base})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, records, 1)
	assert.Equal(t, inside.ID, records[0].ID)
}

func TestAuditRepoRetentionSweep(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)
	ctx := context.Background()

	old := time.Now().UTC().AddDate(0, 0, -120)
	for i := 0; i < 3; i++ {
		seedRecord(t, db, &model.AuditRecord{
			Action: model.ActionAccess, Resource: model.ProductResourceName,
			Status: model.StatusInfo, Timestamp: old.Add(time.Duration(i) * time.Hour),
		})
	}
	recent := seedRecord(t, db, &model.AuditRecord{
		Action: model.ActionAccess, Resource: model.ProductResourceName,
		Status: model.StatusInfo,
	})

	total, err := repo.CountOlderThan(ctx, 90)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)

	ids, err := repo.IDsOlderThan(ctx, 90, 2)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	assert.Less(t, ids[0], ids[1], "oldest ids come first")

	deleted, err := repo.DeleteBatch(ctx, ids)
	require.NoError(t, err)
	assert.EqualValues(t, 2, deleted)

	ids, err = repo.IDsOlderThan(ctx, 90, 10)
	require.NoError(t, err)
	assert.Len(t, ids, 1)

	// The recent record is never eligible.
	_, err = repo.GetByID(ctx, recent.ID)
	assert.NoError(t, err)
}

func TestAuditRepoDeleteBatchEmpty(t *testing.T) {
	db := newTestDB(t)
	repo := NewAuditRepo(db)

	deleted, err := repo.DeleteBatch(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, deleted)
}
