package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/testutil"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateWithItemsRollsBackTogether(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	product := testutil.CreateProduct(t, db, "dist-1", "Widget", "10.00", 5)

	orderID := uuid.NewString()
	order := &model.Order{
		ID:              orderID,
		BuyerID:         "buyer-1",
		Status:          model.OrderStatusPending,
		Subtotal:        testutil.Money("20"),
		PlatformFee:     testutil.Money("1"),
		TotalAmount:     testutil.Money("21"),
		ShippingAddress: "1 Main St",
		ShippingCity:    "Springfield",
		ShippingZip:     "12345",
		ShippingCountry: "US",
		Items: []model.OrderItem{
			{ID: uuid.NewString(), OrderID: orderID, ProductID: product.ID, Quantity: 2, UnitPrice: product.Price, Subtotal: testutil.Money("20")},
		},
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := repo.CreateWithItems(ctx, tx, order); err != nil {
			return err
		}
		return errors.New("provider rejected the cart")
	})
	require.Error(t, err)

	var orders, items int64
	db.Model(&model.Order{}).Count(&orders)
	db.Model(&model.OrderItem{}).Count(&items)
	assert.Zero(t, orders)
	assert.Zero(t, items)
}

func TestFindByIDLoadsItemsInOrder(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)

	a := testutil.CreateProduct(t, db, "dist-1", "A", "1.00", 5)
	b := testutil.CreateProduct(t, db, "dist-2", "B", "2.00", 5)
	created := testutil.CreatePendingOrder(t, db, "buyer-1", "0.25", []*model.Product{a, b}, []int{1, 2})

	order, err := repo.FindByID(ctx, nil, created.ID)
	require.NoError(t, err)
	require.Len(t, order.Items, 2)
	assert.Equal(t, a.ID, order.Items[0].ProductID)
	assert.Equal(t, b.ID, order.Items[1].ProductID)
	require.NotNil(t, order.Items[1].Product)
	assert.Equal(t, "dist-2", order.Items[1].Product.DistributorID)
	assert.True(t, order.TotalAmount.Equal(testutil.Money("5.25")))

	_, err = repo.FindByID(ctx, nil, "missing")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestTransitionStatusIsConditional(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	product := testutil.CreateProduct(t, db, "dist-1", "Widget", "10.00", 5)
	order := testutil.CreatePendingOrder(t, db, "buyer-1", "1.00", []*model.Product{product}, []int{2})

	moved, err := repo.TransitionStatus(ctx, db, order.ID, model.OrderStatusPending, model.OrderStatusProcessing)
	require.NoError(t, err)
	assert.True(t, moved)

	moved, err = repo.TransitionStatus(ctx, db, order.ID, model.OrderStatusPending, model.OrderStatusProcessing)
	require.NoError(t, err)
	assert.False(t, moved, "second transition from PENDING must not match")

	reloaded, err := repo.FindByID(ctx, nil, order.ID)
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusProcessing, reloaded.Status)
}

func TestSetCheckoutSessionAndStalePending(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)
	product := testutil.CreateProduct(t, db, "dist-1", "Widget", "10.00", 5)

	fresh := testutil.CreatePendingOrder(t, db, "buyer-1", "0", []*model.Product{product}, []int{1})
	stale := testutil.CreatePendingOrder(t, db, "buyer-1", "0", []*model.Product{product}, []int{1})
	testutil.Age(t, db, stale.ID, 3*time.Hour)

	require.NoError(t, repo.SetCheckoutSession(ctx, stale.ID, "cs_123"))
	assert.ErrorIs(t, repo.SetCheckoutSession(ctx, "missing", "cs_x"), gorm.ErrRecordNotFound)

	orders, err := repo.FindStalePending(ctx, 2*time.Hour, 10)
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, stale.ID, orders[0].ID)
	assert.Equal(t, "cs_123", orders[0].CheckoutSessionID)
	assert.NotEqual(t, fresh.ID, orders[0].ID)
}

func TestListByBuyerAndDistributor(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	repo := NewOrderRepository(db)

	mine := testutil.CreateProduct(t, db, "dist-1", "Mine", "3.00", 10)
	theirs := testutil.CreateProduct(t, db, "dist-2", "Theirs", "4.00", 10)

	testutil.CreatePendingOrder(t, db, "buyer-1", "0", []*model.Product{mine}, []int{1})
	testutil.CreatePendingOrder(t, db, "buyer-1", "0", []*model.Product{theirs}, []int{1})
	testutil.CreatePendingOrder(t, db, "buyer-2", "0", []*model.Product{mine, theirs}, []int{1, 1})

	byBuyer, err := repo.ListByBuyer(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Len(t, byBuyer, 2)

	byDistributor, err := repo.ListByDistributor(ctx, "dist-1")
	require.NoError(t, err)
	assert.Len(t, byDistributor, 2)
	for _, order := range byDistributor {
		assert.True(t, order.ContainsProductOf("dist-1"))
	}
}
