package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
	OrderStatusRefunded  OrderStatus = "refunded"
)

type Order struct {
	BaseModel
	// OrderNo doubles as the idempotency key for gateway callbacks.
	OrderNo     string          `gorm:"size:64;uniqueIndex;not null"`
	Email       string          `gorm:"index;not null"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency    string          `gorm:"size:3;not null"`
	CountryCode string          `gorm:"size:2"`
	Status      OrderStatus     `gorm:"index;default:pending"`

	// Gateway fields
	PaymentMethod string `gorm:"index"`
	TransactionID string `gorm:"index"` // provider txn ref, set on successful callback
	CustomerIP    string

	// Unix seconds
	PaidAt     *int64
	RefundedAt *int64

	// Webhook payloads, refund reasons, gateway session snapshots
	Metadata datatypes.JSON `gorm:"type:jsonb;default:'{}'"`

	Items []OrderItem `gorm:"foreignKey:OrderID"`
}

type OrderItem struct {
	BaseModel
	OrderID   uuid.UUID       `gorm:"type:uuid;index;not null"`
	ProductID uuid.UUID       `gorm:"type:uuid;index;not null"`
	Quantity  int             `gorm:"not null;default:1"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
}
