package repository

import (
	"context"
	"testing"

	"marketplace-checkout/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestFindActiveByIDsSkipsInactive(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewProductRepository(db)

	active := testutil.CreateProduct(t, db, "dist-1", "Active", "10.00", 5)
	inactive := testutil.CreateProduct(t, db, "dist-1", "Inactive", "10.00", 5)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)

	products, err := repo.FindActiveByIDs(ctx, []string{active.ID, inactive.ID, "missing"})
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, active.ID, products[0].ID)
	assert.True(t, products[0].Price.Equal(testutil.Money("10")))
}

func TestUpdateOwned(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewProductRepository(db)

	product := testutil.CreateProduct(t, db, "dist-1", "Mug", "8.00", 3)

	_, err := repo.UpdateOwned(ctx, "dist-2", product.ID, map[string]interface{}{"stock": 99})
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	updated, err := repo.UpdateOwned(ctx, "dist-1", product.ID, map[string]interface{}{"stock": 99, "is_active": false})
	require.NoError(t, err)
	assert.Equal(t, 99, updated.Stock)
	assert.False(t, updated.IsActive)

	active, err := repo.ListActive(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, active)

	mine, err := repo.ListByDistributor(ctx, "dist-1")
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}

func TestSeedIsRepeatable(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewProductRepository(db)

	require.NoError(t, repo.Seed(ctx, "dist-demo"))
	require.NoError(t, repo.Seed(ctx, "dist-demo"))

	products, err := repo.ListActive(ctx, "equipment")
	require.NoError(t, err)
	assert.Len(t, products, 2)
}

func TestInventoryDecrement(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewInventoryRepository(db)

	product := testutil.CreateProduct(t, db, "dist-1", "Widget", "10.00", 5)

	remaining, err := repo.Decrement(ctx, db, product.ID, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, remaining)

	// stock is not guarded here
	remaining, err = repo.Decrement(ctx, db, product.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, -1, remaining)

	_, err = repo.Decrement(ctx, db, "missing", 1)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}
