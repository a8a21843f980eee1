package service

import (
	"context"
	"testing"

	"marketplace-checkout/internal/apperr"
	"marketplace-checkout/internal/dto"
	"marketplace-checkout/internal/event"
	"marketplace-checkout/internal/model"
	"marketplace-checkout/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBySessionID(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := testutil.CreateProduct(t, f.db, distributorID, "Widget", "10.00", 5)

	resp, payload, header := checkoutAndPay(t, f, []dto.CartItem{{ProductID: product.ID, Quantity: 2}})

	// not confirmed yet
	_, err := f.orders.GetBySessionID(ctx, buyerID, resp.SessionID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	require.NoError(t, f.payment.HandleWebhook(ctx, header, payload))

	order, err := f.orders.GetBySessionID(ctx, buyerID, resp.SessionID)
	require.NoError(t, err)
	assert.Equal(t, resp.OrderID, order.ID)
	assert.Equal(t, model.OrderStatusProcessing, order.Status)
	require.Len(t, order.Items, 1)
	require.NotNil(t, order.Items[0].Product)
	assert.Equal(t, "Widget", order.Items[0].Product.Name)

	_, err = f.orders.GetBySessionID(ctx, "someone-else", resp.SessionID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
	assert.Equal(t, "Order not found", err.Error())

	_, err = f.orders.GetBySessionID(ctx, buyerID, "")
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestListOrders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mine := testutil.CreateProduct(t, f.db, distributorID, "Mine", "1.00", 5)
	theirs := testutil.CreateProduct(t, f.db, "dist-2", "Theirs", "1.00", 5)

	testutil.CreatePendingOrder(t, f.db, buyerID, "0", []*model.Product{mine}, []int{1})
	testutil.CreatePendingOrder(t, f.db, buyerID, "0", []*model.Product{theirs}, []int{1})
	testutil.CreatePendingOrder(t, f.db, "buyer-2", "0", []*model.Product{mine, theirs}, []int{1, 1})

	buyerOrders, err := f.orders.ListForBuyer(ctx, buyerID)
	require.NoError(t, err)
	assert.Len(t, buyerOrders, 2)

	distOrders, err := f.orders.ListForDistributor(ctx, distributorID)
	require.NoError(t, err)
	assert.Len(t, distOrders, 2)
}

func TestUpdateStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := testutil.CreateProduct(t, f.db, distributorID, "Widget", "10.00", 5)
	order := testutil.CreatePendingOrder(t, f.db, buyerID, "1.00", []*model.Product{product}, []int{1})

	owner := model.Principal{UserID: distributorID, Role: model.RoleDistributor}
	stranger := model.Principal{UserID: "dist-2", Role: model.RoleDistributor}
	admin := model.Principal{UserID: "admin-1", Role: model.RoleAdmin}

	_, err := f.orders.UpdateStatus(ctx, owner, order.ID, "PROCESSING")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.orders.UpdateStatus(ctx, owner, order.ID, "LOST")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	_, err = f.orders.UpdateStatus(ctx, stranger, order.ID, "CANCELLED")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	// PENDING cannot skip to SHIPPED
	_, err = f.orders.UpdateStatus(ctx, owner, order.ID, "SHIPPED")
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	updated, err := f.orders.UpdateStatus(ctx, admin, order.ID, "CANCELLED")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusCancelled, updated.Status)

	var cancelled model.OutboxEvent
	require.NoError(t, f.db.First(&cancelled, "aggregate_id = ? AND topic = ?", order.ID, event.TopicOrderCancelled).Error)

	_, err = f.orders.UpdateStatus(ctx, admin, "missing", "CANCELLED")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestUpdateStatusShipsPaidOrder(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	product := testutil.CreateProduct(t, f.db, distributorID, "Widget", "10.00", 5)
	order := testutil.CreatePendingOrder(t, f.db, buyerID, "1.00", []*model.Product{product}, []int{1})
	require.NoError(t, f.db.Model(order).Update("status", model.OrderStatusProcessing).Error)

	owner := model.Principal{UserID: distributorID, Role: model.RoleDistributor}

	updated, err := f.orders.UpdateStatus(ctx, owner, order.ID, "SHIPPED")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusShipped, updated.Status)

	updated, err = f.orders.UpdateStatus(ctx, owner, order.ID, "DELIVERED")
	require.NoError(t, err)
	assert.Equal(t, model.OrderStatusDelivered, updated.Status)
}
