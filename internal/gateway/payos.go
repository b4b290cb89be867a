package gateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/payOSHQ/payos-lib-golang"
	"github.com/shopspring/decimal"

	"keyshop/pkg/utils"
)

type PayOSConfig struct {
	ClientID    string
	ApiKey      string
	ChecksumKey string // secret used to sign webhooks and refund calls
	ReturnURL   string
	CancelURL   string
	RefundURL   string // provider refund endpoint; empty disables refunds
}

// payOSGateway adapts the payOS SDK to the PaymentGateway interface. payOS
// addresses payments by an int64 order code, which is why order numbers
// are generated numeric.
//
// The provider carries integer amounts, so decimal totals cross this
// boundary in minor units: 19.98 goes out as 1998 and comes back as 19.98.
// Rounding here instead would corrupt the callback amount check.
type payOSGateway struct {
	cfg  PayOSConfig
	http *http.Client
}

// minorUnitFactor converts between major and minor currency units (cents).
var minorUnitFactor = decimal.NewFromInt(100)

func toMinorUnits(amount decimal.Decimal) (int, error) {
	minor := amount.Mul(minorUnitFactor)
	if !minor.IsInteger() {
		return 0, fmt.Errorf("%w: amount %s has sub-cent precision", utils.ErrValidation, amount.String())
	}
	return int(minor.IntPart()), nil
}

func fromMinorUnits(minor int) decimal.Decimal {
	return decimal.New(int64(minor), -2)
}

func NewPayOSGateway(cfg PayOSConfig) (PaymentGateway, error) {
	if cfg.ClientID == "" || cfg.ApiKey == "" || cfg.ChecksumKey == "" {
		return nil, errors.New("missing payOS credentials")
	}
	if err := payos.Key(cfg.ClientID, cfg.ApiKey, cfg.ChecksumKey); err != nil {
		return nil, fmt.Errorf("payos client init: %w", err)
	}
	return &payOSGateway{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}, nil
}

func (g *payOSGateway) CreatePayment(ctx context.Context, orderNo string, amount decimal.Decimal, subject string) (*PaymentSession, error) {
	code, err := utils.OrderNoToCode(orderNo)
	if err != nil {
		return nil, err
	}

	minor, err := toMinorUnits(amount)
	if err != nil {
		return nil, err
	}

	body := payos.CheckoutRequestType{
		OrderCode:   code,
		Amount:      minor,
		Items:       []payos.Item{{Name: subject, Price: minor, Quantity: 1}},
		Description: subject,
		CancelUrl:   g.cfg.CancelURL,
		ReturnUrl:   g.cfg.ReturnURL,
	}

	resp, err := payos.CreatePaymentLink(body)
	if err != nil {
		return nil, fmt.Errorf("%w: payos create link: %v", utils.ErrGatewayUnavailable, err)
	}

	return &PaymentSession{
		PaymentURL: resp.CheckoutUrl,
		QRCode:     resp.QRCode,
	}, nil
}

func (g *payOSGateway) VerifyCallback(rawBody []byte) (*CallbackData, error) {
	var body payos.WebhookType
	if err := json.Unmarshal(rawBody, &body); err != nil {
		return nil, fmt.Errorf("%w: invalid webhook payload", utils.ErrValidation)
	}

	data, err := payos.VerifyPaymentWebhookData(body)
	if err != nil {
		return nil, fmt.Errorf("%w: webhook signature verification failed", utils.ErrValidation)
	}

	return &CallbackData{
		OrderNo:       fmt.Sprintf("%013d", data.OrderCode), // order numbers are fixed-width numeric
		TransactionID: data.Reference,
		Amount:        fromMinorUnits(data.Amount),
		Success:       body.Success,
	}, nil
}

func (g *payOSGateway) QueryStatus(ctx context.Context, orderNo string) (Status, error) {
	code, err := utils.OrderNoToCode(orderNo)
	if err != nil {
		return StatusUnknown, err
	}

	info, err := payos.GetPaymentLinkInformation(strconv.FormatInt(code, 10))
	if err != nil {
		return StatusUnknown, fmt.Errorf("%w: payos query: %v", utils.ErrGatewayUnavailable, err)
	}

	switch info.Status {
	case "PAID":
		return StatusPaid, nil
	case "PENDING", "PROCESSING":
		return StatusPending, nil
	case "CANCELLED", "EXPIRED":
		return StatusCancelled, nil
	case "REFUNDED":
		return StatusRefunded, nil
	default:
		return StatusUnknown, nil
	}
}

// Refund posts a signed request to the provider refund endpoint. payOS has
// no refund call in the SDK, so this mirrors the provider's signed-webhook
// convention: HMAC-SHA256 of the JSON body under the checksum key.
func (g *payOSGateway) Refund(ctx context.Context, orderNo string, amount decimal.Decimal, reason string) error {
	if g.cfg.RefundURL == "" {
		return fmt.Errorf("%w: refund endpoint not configured", utils.ErrGatewayUnavailable)
	}
	code, err := utils.OrderNoToCode(orderNo)
	if err != nil {
		return err
	}
	minor, err := toMinorUnits(amount)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(map[string]any{
		"orderCode": code,
		"amount":    minor,
		"reason":    reason,
	})
	if err != nil {
		return err
	}

	mac := hmac.New(sha256.New, []byte(g.cfg.ChecksumKey))
	mac.Write(payload)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.RefundURL, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-client-id", g.cfg.ClientID)
	req.Header.Set("x-signature", hex.EncodeToString(mac.Sum(nil)))

	resp, err := g.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: refund call: %v", utils.ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: refund rejected with status %d", utils.ErrGatewayUnavailable, resp.StatusCode)
	}
	return nil
}
