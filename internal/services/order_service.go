package services

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"keyshop/internal/gateway"
	"keyshop/internal/models/db_models"
	"keyshop/internal/models/request_models"
	"keyshop/internal/models/response_models"
	"keyshop/internal/repositories"
	"keyshop/pkg/utils"
)

type OrderConfig struct {
	// PaymentMethods whitelists what intake accepts, e.g. ["payos"].
	PaymentMethods []string
	// GatewayTimeout bounds the create-payment call. On timeout the order
	// stays pending, eligible for a later callback or manual cancellation.
	GatewayTimeout time.Duration
	// StuckAge is how old a pending order must be before it is surfaced
	// to operators.
	StuckAge time.Duration
}

type OrderService interface {
	CreateOrder(ctx context.Context, req request_models.CreateOrderRequest, clientIP string) (*response_models.CreateOrderResponse, error)
	GetOrder(ctx context.Context, orderNo string) (*response_models.OrderDetailResponse, error)
	CancelOrder(ctx context.Context, orderNo, reason string) error
	ListStuck(ctx context.Context) ([]response_models.StuckOrderResponse, error)
}

type orderService struct {
	orders   repositories.OrderRepositoryInterface
	products repositories.ProductRepositoryInterface
	keys     repositories.LicenseKeyRepositoryInterface
	pricing  PricingProvider
	gw       gateway.PaymentGateway
	cfg      OrderConfig
	logger   zerolog.Logger
}

func NewOrderService(
	orders repositories.OrderRepositoryInterface,
	products repositories.ProductRepositoryInterface,
	keys repositories.LicenseKeyRepositoryInterface,
	pricing PricingProvider,
	gw gateway.PaymentGateway,
	cfg OrderConfig,
	logger zerolog.Logger,
) OrderService {
	if cfg.GatewayTimeout <= 0 {
		cfg.GatewayTimeout = 15 * time.Second
	}
	if cfg.StuckAge <= 0 {
		cfg.StuckAge = 2 * time.Hour
	}
	if len(cfg.PaymentMethods) == 0 {
		cfg.PaymentMethods = []string{"payos"}
	}
	return &orderService{
		orders:   orders,
		products: products,
		keys:     keys,
		pricing:  pricing,
		gw:       gw,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *orderService) CreateOrder(ctx context.Context, req request_models.CreateOrderRequest, clientIP string) (*response_models.CreateOrderResponse, error) {
	// Everything below is validated before any persistence.
	if !s.methodSupported(req.PaymentMethod) {
		return nil, fmt.Errorf("%w: unsupported payment method %q", utils.ErrValidation, req.PaymentMethod)
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	product, err := s.products.GetBySlug(ctx, req.ProductSlug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %q", utils.ErrNotFound, req.ProductSlug)
	}
	if product.Status != db_models.ProductStatusActive {
		return nil, fmt.Errorf("%w: product %q is not active", utils.ErrValidation, req.ProductSlug)
	}

	// Fast, non-authoritative precheck. Real scarcity enforcement happens
	// inside the allocation transaction.
	available, err := s.keys.CountAvailable(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	if available < int64(quantity) {
		return nil, fmt.Errorf("%w: product %q", utils.ErrOutOfStock, req.ProductSlug)
	}

	unitPrice, currency, err := s.pricing.LocalizedPrice(ctx, product, req.CountryCode)
	if err != nil {
		return nil, err
	}
	total := unitPrice.Mul(decimal.NewFromInt(int64(quantity)))

	order := &db_models.Order{
		OrderNo:       utils.NewOrderNo(time.Now().Unix()),
		Email:         req.Email,
		TotalAmount:   total,
		Currency:      currency,
		CountryCode:   req.CountryCode,
		Status:        db_models.OrderStatusPending,
		PaymentMethod: req.PaymentMethod,
		CustomerIP:    clientIP,
		Metadata:      datatypes.JSON([]byte(`{}`)),
	}
	items := []db_models.OrderItem{{
		ProductID: product.ID,
		Quantity:  quantity,
		UnitPrice: unitPrice,
		Subtotal:  total,
	}}

	if err := s.orders.CreateWithItems(ctx, order, items); err != nil {
		return nil, err
	}

	gwCtx, cancel := context.WithTimeout(ctx, s.cfg.GatewayTimeout)
	defer cancel()

	subject := fmt.Sprintf("%s x%d", product.Name, quantity)
	session, err := s.gw.CreatePayment(gwCtx, order.OrderNo, total, subject)
	if err != nil {
		// The order stays pending: a later callback can still complete it,
		// and stale pendings surface through the stuck-order list.
		s.logger.Error().Err(err).Str("order_no", order.OrderNo).Msg("gateway create payment failed")
		return nil, fmt.Errorf("%w: create payment for order %s", utils.ErrGatewayUnavailable, order.OrderNo)
	}

	s.logger.Info().
		Str("order_no", order.OrderNo).
		Str("product", product.Slug).
		Int("quantity", quantity).
		Str("amount", total.String()).
		Msg("order created")

	return &response_models.CreateOrderResponse{
		OrderNo:     order.OrderNo,
		TotalAmount: total,
		Currency:    currency,
		PaymentURL:  session.PaymentURL,
		QRCode:      session.QRCode,
	}, nil
}

func (s *orderService) GetOrder(ctx context.Context, orderNo string) (*response_models.OrderDetailResponse, error) {
	order, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", utils.ErrNotFound, orderNo)
	}
	return &response_models.OrderDetailResponse{
		OrderNo:       order.OrderNo,
		Email:         order.Email,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		Status:        string(order.Status),
		PaymentMethod: order.PaymentMethod,
		PaidAt:        order.PaidAt,
		CreatedAt:     order.CreatedAt,
	}, nil
}

// CancelOrder is the operator path for stuck pendings. Never invoked
// automatically: the status guard only lets pending orders through.
func (s *orderService) CancelOrder(ctx context.Context, orderNo, reason string) error {
	err := s.orders.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&db_models.Order{}).
			Where("order_no = ? AND status = ?", orderNo, db_models.OrderStatusPending).
			Update("status", db_models.OrderStatusCancelled)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("%w: order %s is not pending", utils.ErrOrderState, orderNo)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info().Str("order_no", orderNo).Str("reason", reason).Msg("order cancelled")
	return nil
}

func (s *orderService) ListStuck(ctx context.Context) ([]response_models.StuckOrderResponse, error) {
	orders, err := s.orders.ListPendingOlderThan(ctx, s.cfg.StuckAge)
	if err != nil {
		return nil, err
	}
	now := time.Now().Unix()
	out := make([]response_models.StuckOrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, response_models.StuckOrderResponse{
			OrderNo:   o.OrderNo,
			Email:     o.Email,
			CreatedAt: o.CreatedAt,
			AgeSecs:   now - o.CreatedAt,
		})
	}
	return out, nil
}

func (s *orderService) methodSupported(method string) bool {
	for _, m := range s.cfg.PaymentMethods {
		if m == method {
			return true
		}
	}
	return false
}
