package response_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type CreateOrderResponse struct {
	OrderNo     string          `json:"order_no"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Currency    string          `json:"currency"`
	PaymentURL  string          `json:"payment_url,omitempty"`
	QRCode      string          `json:"qr_code,omitempty"`
}

type OrderDetailResponse struct {
	OrderNo       string          `json:"order_no"`
	Email         string          `json:"email"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Currency      string          `json:"currency"`
	Status        string          `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	PaidAt        *int64          `json:"paid_at,omitempty"`
	CreatedAt     int64           `json:"created_at"`
}

type CallbackResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type RefundResponse struct {
	OrderNo      string `json:"order_no"`
	Status       string `json:"status"`
	ReleasedKeys int    `json:"released_keys"`
}

// KeyDeliveryResponse carries decrypted key material. It exists only for
// the moment of delivery and must never be logged or persisted.
type KeyDeliveryResponse struct {
	OrderNo string   `json:"order_no"`
	Keys    []string `json:"keys"`
}

type ImportKeysResponse struct {
	Imported   int `json:"imported"`
	Duplicates int `json:"duplicates"`
}

type StockResponse struct {
	ProductID uuid.UUID `json:"product_id"`
	Slug      string    `json:"slug"`
	Available int64     `json:"available"`
}

type StuckOrderResponse struct {
	OrderNo   string `json:"order_no"`
	Email     string `json:"email"`
	CreatedAt int64  `json:"created_at"`
	AgeSecs   int64  `json:"age_secs"`
}
