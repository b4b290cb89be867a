package request_models

import "github.com/shopspring/decimal"

// PaymentNotification is the normalized shape of an asynchronous gateway
// callback after signature verification. Gateways redeliver these; the
// processor must treat duplicates as a no-op.
type PaymentNotification struct {
	OrderNo       string          `json:"order_no" binding:"required"`
	TransactionID string          `json:"transaction_id" binding:"required"`
	Status        string          `json:"status" binding:"required"` // "success" or a gateway failure code
	Amount        decimal.Decimal `json:"amount" binding:"required"`
}

func (n PaymentNotification) Succeeded() bool {
	return n.Status == "success"
}
