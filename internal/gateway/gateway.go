package gateway

import (
	"context"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusCancelled Status = "cancelled"
	StatusRefunded  Status = "refunded"
	StatusUnknown   Status = "unknown"
)

// PaymentSession is the redirect/QR handle returned when a payment is
// opened with the provider.
type PaymentSession struct {
	PaymentURL string
	QRCode     string
}

// CallbackData is a verified, normalized webhook notification.
type CallbackData struct {
	OrderNo       string
	TransactionID string
	Amount        decimal.Decimal
	Success       bool
}

// PaymentGateway is the provider collaborator. Signature schemes, XML/JSON
// encodings and provider crypto stay behind this interface; the core only
// sees verified data.
type PaymentGateway interface {
	// CreatePayment opens a payment session for the order amount.
	CreatePayment(ctx context.Context, orderNo string, amount decimal.Decimal, subject string) (*PaymentSession, error)

	// VerifyCallback authenticates a raw webhook body and extracts the
	// notification. An error means the payload could not be trusted.
	VerifyCallback(rawBody []byte) (*CallbackData, error)

	// QueryStatus asks the provider for the authoritative payment state,
	// used by the refund reconciler and stuck-order tooling.
	QueryStatus(ctx context.Context, orderNo string) (Status, error)

	// Refund returns money for a completed payment. Partial amounts are
	// accepted by providers that support them.
	Refund(ctx context.Context, orderNo string, amount decimal.Decimal, reason string) error
}
