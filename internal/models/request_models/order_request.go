package request_models

import "github.com/shopspring/decimal"

type CreateOrderRequest struct {
	ProductSlug   string `json:"product_slug" binding:"required"`
	Quantity      int    `json:"quantity" binding:"omitempty,min=1,max=100"`
	Email         string `json:"email" binding:"required,email"`
	PaymentMethod string `json:"payment_method" binding:"required"`
	CountryCode   string `json:"country_code" binding:"omitempty,len=2"`
}

type RefundOrderRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Reason string          `json:"reason" binding:"required"`
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}
