// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"marketplace-checkout/internal/client"
	"marketplace-checkout/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// NewDB returns a migrated SQLite database living in the test's temp dir.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "test.db") + "?_busy_timeout=5000"
	db, err := client.OpenDB("sqlite", dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := client.Migrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func Money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// CreateProduct inserts an active product owned by distributorID.
func CreateProduct(t testing.TB, db *gorm.DB, distributorID, name, price string, stock int) *model.Product {
	t.Helper()

	product := &model.Product{
		ID:            uuid.NewString(),
		Name:          name,
		Description:   name + " description",
		Price:         Money(price),
		Stock:         stock,
		IsActive:      true,
		DistributorID: distributorID,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return product
}

// CreatePendingOrder inserts a PENDING order with one item per product, quantities in order.
func CreatePendingOrder(t testing.TB, db *gorm.DB, buyerID string, fee string, products []*model.Product, quantities []int) *model.Order {
	t.Helper()

	orderID := uuid.NewString()
	subtotal := decimal.Zero
	items := make([]model.OrderItem, len(products))
	for i, p := range products {
		line := p.Price.Mul(decimal.NewFromInt(int64(quantities[i])))
		subtotal = subtotal.Add(line)
		items[i] = model.OrderItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Position:  i,
			ProductID: p.ID,
			Quantity:  quantities[i],
			UnitPrice: p.Price,
			Subtotal:  line,
		}
	}

	platformFee := Money(fee)
	order := &model.Order{
		ID:              orderID,
		BuyerID:         buyerID,
		Status:          model.OrderStatusPending,
		Subtotal:        subtotal,
		PlatformFee:     platformFee,
		TotalAmount:     subtotal.Add(platformFee),
		ShippingAddress: "1 Main St",
		ShippingCity:    "Springfield",
		ShippingZip:     "12345",
		ShippingCountry: "US",
		Items:           items,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order: %v", err)
	}
	return order
}

// Age moves an order's created_at into the past.
func Age(t testing.TB, db *gorm.DB, orderID string, by time.Duration) {
	t.Helper()
	err := db.Model(&model.Order{}).Where("id = ?", orderID).
		UpdateColumn("created_at", time.Now().Add(-by)).Error
	if err != nil {
		t.Fatalf("age order: %v", err)
	}
}
