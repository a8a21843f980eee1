package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Product struct {
	ID            string          `gorm:"primaryKey;size:36;not null" json:"id"`
	Name          string          `gorm:"size:255;not null" json:"name"`
	Description   string          `gorm:"type:text" json:"description"`
	Price         decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"`
	Stock         int             `gorm:"not null" json:"stock"`
	ImageURL      string          `gorm:"size:512" json:"imageUrl,omitempty"`
	Category      string          `gorm:"size:128;index" json:"category,omitempty"`
	SKU           string          `gorm:"size:64" json:"sku,omitempty"`
	IsActive      bool            `gorm:"index;not null" json:"isActive"`
	DistributorID string          `gorm:"size:64;index;not null" json:"distributorId"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type Order struct {
	ID          string          `gorm:"primaryKey;size:36;not null" json:"id"`
	BuyerID     string          `gorm:"size:64;index;not null" json:"buyerId"`
	Status      OrderStatus     `gorm:"size:16;index;not null" json:"status"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	PlatformFee decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"platformFee"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"totalAmount"`

	ShippingAddress string `gorm:"size:255;not null" json:"shippingAddress"`
	ShippingCity    string `gorm:"size:128;not null" json:"shippingCity"`
	ShippingState   string `gorm:"size:128" json:"shippingState,omitempty"`
	ShippingZip     string `gorm:"size:32;not null" json:"shippingZip"`
	ShippingCountry string `gorm:"size:64;not null" json:"shippingCountry"`

	// hosted checkout session, empty until the provider accepted the session
	CheckoutSessionID string `gorm:"size:255;index" json:"checkoutSessionId,omitempty"`

	Items     []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
	CreatedAt time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

type OrderItem struct {
	ID        string          `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderID   string          `gorm:"size:36;index;not null" json:"orderId"`
	Position  int             `gorm:"not null" json:"position"`
	ProductID string          `gorm:"size:36;index;not null" json:"productId"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	Quantity  int             `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"price"` // snapshot at checkout
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"subtotal"`
	CreatedAt time.Time       `json:"createdAt"`
}

type Payment struct {
	ID                string          `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderID           string          `gorm:"size:36;uniqueIndex;not null" json:"orderId"`
	Order             *Order          `gorm:"foreignKey:OrderID" json:"order,omitempty"`
	UserID            string          `gorm:"size:64;index;not null" json:"userId"`
	Amount            decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	PlatformFee       decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"platformFee"`
	DistributorAmount decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"distributorAmount"`
	Status            PaymentStatus   `gorm:"size:16;index;not null" json:"status"`
	ProviderPaymentID string          `gorm:"size:255" json:"paymentIntentId"`
	ProviderSessionID string          `gorm:"size:255;uniqueIndex;not null" json:"sessionId"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type PlatformFee struct {
	ID         string          `gorm:"primaryKey;size:36;not null" json:"id"`
	OrderID    string          `gorm:"size:36;uniqueIndex;not null" json:"orderId"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Percentage decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"percentage"` // rate applied at confirmation
	CreatedAt  time.Time       `json:"createdAt"`
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}

type OutboxEvent struct {
	ID          string       `gorm:"primaryKey;size:36;not null"`
	AggregateID string       `gorm:"size:36;index;not null"`
	Topic       string       `gorm:"size:64;not null"`
	Payload     []byte       `gorm:"not null"`
	Status      OutboxStatus `gorm:"size:16;index;not null"`
	Attempts    int          `gorm:"not null"`
	LastError   string       `gorm:"type:text"`
	// set while a relay is publishing the row; expired leases are claimable again
	ClaimedUntil *time.Time `gorm:"index"`
	CreatedAt    time.Time  `gorm:"index"`
	SentAt       *time.Time
}

type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
)

type OutboxStatus string

const (
	OutboxStatusPending OutboxStatus = "PENDING"
	OutboxStatusSent    OutboxStatus = "SENT"
)

// Models returns every table managed by AutoMigrate.
func Models() []interface{} {
	return []interface{}{
		&Product{},
		&Order{},
		&OrderItem{},
		&Payment{},
		&PlatformFee{},
		&WebhookEvent{},
		&OutboxEvent{},
	}
}
