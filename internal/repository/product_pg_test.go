package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/auditgate/auditgate/internal/audit"
	"github.com/auditgate/auditgate/internal/model"
)

// recordingHooks captures hook invocations in order.
type recordingHooks struct {
	calls   []string
	befores []map[string]any
}

func (h *recordingHooks) OnCreate(ctx context.Context, entity audit.Auditable) {
	h.calls = append(h.calls, "create")
}

func (h *recordingHooks) OnUpdate(ctx context.Context, before map[string]any, entity audit.Auditable) {
	h.calls = append(h.calls, "update")
	h.befores = append(h.befores, before)
}

func (h *recordingHooks) OnDelete(ctx context.Context, entity audit.Auditable) {
	h.calls = append(h.calls, "delete")
}

func seedCategory(t *testing.T, db *gorm.DB, name string) *model.Category {
	t.Helper()
	category := &model.Category{Name: name, Slug: model.Slugify(name)}
	require.NoError(t, db.Create(category).Error)
	return category
}

func testProduct(owner *model.User, category *model.Category, name, sku string, price string) *model.Product {
	return &model.Product{
		CategoryID: category.ID,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Stock:      10,
		SKU:        sku,
		IsActive:   true,
		OwnerID:    owner.ID,
	}
}

func TestProductRepoFiresHooksInMutationOrder(t *testing.T) {
	db := newTestDB(t)
	hooks := &recordingHooks{}
	repo := NewProductRepo(db, hooks)
	owner := newTestUser(t, db, "alice", model.RoleUser)
	category := seedCategory(t, db, "General")
	ctx := context.Background()

	product := testProduct(owner, category, "Widget", "WID-1", "10.00")
	require.NoError(t, repo.Create(ctx, product))
	require.NotZero(t, product.ID)

	before := product.AuditSnapshot()
	product.Stock = 5
	require.NoError(t, repo.Update(ctx, before, product))

	require.NoError(t, repo.Delete(ctx, product))

	assert.Equal(t, []string{"create", "update", "delete"}, hooks.calls)
	require.Len(t, hooks.befores, 1)
	assert.Equal(t, 10, hooks.befores[0]["stock"])
}

func TestProductRepoNilHooks(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepo(db, nil)
	owner := newTestUser(t, db, "alice", model.RoleUser)
	category := seedCategory(t, db, "General")

	product := testProduct(owner, category, "Widget", "WID-1", "10.00")
	assert.NoError(t, repo.Create(context.Background(), product))
}

func TestProductRepoListFilters(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepo(db, nil)
	alice := newTestUser(t, db, "alice", model.RoleUser)
	bob := newTestUser(t, db, "bob", model.RoleUser)
	category := seedCategory(t, db, "General")
	other := seedCategory(t, db, "Tools")
	ctx := context.Background()

	cheap := testProduct(alice, category, "Cheap Widget", "WID-1", "5.00")
	cheap.Stock = 2
	require.NoError(t, repo.Create(ctx, cheap))

	pricey := testProduct(alice, other, "Pricey Hammer", "HAM-1", "50.00")
	require.NoError(t, repo.Create(ctx, pricey))

	gone := testProduct(bob, category, "Gone Widget", "WID-2", "7.00")
	now := time.Now().UTC()
	gone.DeletedAt = &now
	require.NoError(t, repo.Create(ctx, gone))

	_, total, err := repo.List(ctx, ProductFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total, "soft-deleted products hidden by default")

	products, total, err := repo.List(ctx, ProductFilter{DeletedOnly: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, gone.ID, products[0].ID)

	_, total, err = repo.List(ctx, ProductFilter{OwnerID: &alice.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)

	_, total, err = repo.List(ctx, ProductFilter{CategoryID: &other.ID})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	min := decimal.RequireFromString("10.00")
	products, total, err = repo.List(ctx, ProductFilter{PriceGte: &min})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, pricey.ID, products[0].ID)

	stockMax := 3
	_, total, err = repo.List(ctx, ProductFilter{StockLte: &stockMax})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	products, total, err = repo.List(ctx, ProductFilter{Search: "ham"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, products, 1)
	assert.Equal(t, "HAM-1", products[0].SKU)
}

func TestProductRepoListOrdering(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepo(db, nil)
	owner := newTestUser(t, db, "alice", model.RoleUser)
	category := seedCategory(t, db, "General")
	ctx := context.Background()

	a := testProduct(owner, category, "A", "SKU-A", "30.00")
	require.NoError(t, repo.Create(ctx, a))
	b := testProduct(owner, category, "B", "SKU-B", "10.00")
	require.NoError(t, repo.Create(ctx, b))

	products, _, err := repo.List(ctx, ProductFilter{Ordering: "price"})
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, b.ID, products[0].ID)

	products, _, err = repo.List(ctx, ProductFilter{Ordering: "-price"})
	require.NoError(t, err)
	assert.Equal(t, a.ID, products[0].ID)

	// Unknown tokens fall back to newest first.
	products, _, err = repo.List(ctx, ProductFilter{Ordering: "sku; DROP TABLE products"})
	require.NoError(t, err)
	assert.Equal(t, b.ID, products[0].ID)
}

func TestProductRepoGetBySKU(t *testing.T) {
	db := newTestDB(t)
	repo := NewProductRepo(db, nil)
	owner := newTestUser(t, db, "alice", model.RoleUser)
	category := seedCategory(t, db, "General")
	ctx := context.Background()

	product := testProduct(owner, category, "Widget", "WID-1", "10.00")
	require.NoError(t, repo.Create(ctx, product))

	got, err := repo.GetBySKU(ctx, "WID-1")
	require.NoError(t, err)
	assert.Equal(t, product.ID, got.ID)

	_, err = repo.GetBySKU(ctx, "NOPE")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
