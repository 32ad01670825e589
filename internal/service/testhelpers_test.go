package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/model"
	"github.com/auditgate/auditgate/internal/repository"
)

// fixture wires the full persistence stack over an in-memory database,
// with the live recorder hooked into the repositories the way the server
// binary does it.
type fixture struct {
	db        *gorm.DB
	auditRepo *repository.AuditRepo
	recorder  *audit.Recorder
	products  *ProductService
	auditQry  *AuditQueryService
	cleanup   *AuditCleanupService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// In-memory sqlite is per-connection; pin the pool to one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, repository.Migrate(db))

	auditRepo := repository.NewAuditRepo(db)
	recorder := audit.NewRecorder(auditRepo)
	recorder.SetReady()

	productRepo := repository.NewProductRepo(db, recorder)
	categoryRepo := repository.NewCategoryRepo(db, recorder)

	return &fixture{
		db:        db,
		auditRepo: auditRepo,
		recorder:  recorder,
		products:  NewProductService(productRepo, categoryRepo, recorder),
		auditQry:  NewAuditQueryService(auditRepo, nil),
		cleanup:   NewAuditCleanupService(auditRepo),
	}
}

func (f *fixture) user(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()
	user := &model.User{Username: username, Role: role, IsActive: true}
	require.NoError(t, user.SetPassword("secret"))
	require.NoError(t, f.db.Create(user).Error)
	return user
}

func (f *fixture) category(t *testing.T, name string) *model.Category {
	t.Helper()
	category := &model.Category{Name: name, Slug: model.Slugify(name)}
	require.NoError(t, f.db.Create(category).Error)
	return category
}

// trail returns every stored audit record, oldest first, bypassing the
// query service's filters.
func (f *fixture) trail(t *testing.T) []*model.AuditRecord {
	t.Helper()
	var records []*model.AuditRecord
	require.NoError(t, f.db.Order("id ASC").Find(&records).Error)
	return records
}

func (f *fixture) createProduct(t *testing.T, actor *model.User, category *model.Category, name, sku string) *model.Product {
	t.Helper()
	ctx := audit.WithActor(context.Background(), actor)
	product, err := f.products.Create(ctx, actor, model.ProductCreateRequest{
		CategoryID: category.ID,
		Name:       name,
		Price:      mustDecimal(t, "10.00"),
		Stock:      10,
		SKU:        sku,
	})
	require.NoError(t, err)
	return product
}

func mustDecimal(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(s)
	require.NoError(t, err)
	return d
}
