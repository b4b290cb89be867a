package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"keyshop/internal/gateway"
	"keyshop/internal/models/db_models"
	"keyshop/internal/models/response_models"
	"keyshop/internal/repositories"
	"keyshop/pkg/utils"
)

type RefundConfig struct {
	// GatewayRetries is how many times the provider refund call is retried
	// with exponential backoff before giving up.
	GatewayRetries int
	RetryBackoff   time.Duration
	// ReconcileWindow bounds how far back the reconciler looks for orders
	// whose gateway state may have diverged from ours.
	ReconcileWindow time.Duration
}

type RefundService interface {
	// Refund reverses an order: provider refund first, then one local
	// transaction releasing every key and marking the order refunded.
	Refund(ctx context.Context, orderNo string, amount decimal.Decimal, reason string) (*response_models.RefundResponse, error)

	// Reconcile repairs the crash window between a successful gateway
	// refund and the local commit. Idempotent; safe to run on a timer.
	Reconcile(ctx context.Context) error
}

type refundService struct {
	orders repositories.OrderRepositoryInterface
	keys   repositories.LicenseKeyRepositoryInterface
	gw     gateway.PaymentGateway
	cfg    RefundConfig
	logger zerolog.Logger
}

func NewRefundService(
	orders repositories.OrderRepositoryInterface,
	keys repositories.LicenseKeyRepositoryInterface,
	gw gateway.PaymentGateway,
	cfg RefundConfig,
	logger zerolog.Logger,
) RefundService {
	if cfg.GatewayRetries <= 0 {
		cfg.GatewayRetries = 3
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.ReconcileWindow <= 0 {
		cfg.ReconcileWindow = 72 * time.Hour
	}
	return &refundService{
		orders: orders,
		keys:   keys,
		gw:     gw,
		cfg:    cfg,
		logger: logger,
	}
}

func (s *refundService) Refund(ctx context.Context, orderNo string, amount decimal.Decimal, reason string) (*response_models.RefundResponse, error) {
	order, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", utils.ErrNotFound, orderNo)
	}
	if order.Status != db_models.OrderStatusPaid && order.Status != db_models.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: order %s is %s", utils.ErrOrderState, orderNo, order.Status)
	}
	if amount.LessThanOrEqual(decimal.Zero) || amount.GreaterThan(order.TotalAmount) {
		return nil, fmt.Errorf("%w: refund amount %s out of range", utils.ErrValidation, amount.String())
	}

	// Provider first. If this fails, no local state changes.
	if err := s.refundWithBackoff(ctx, orderNo, amount, reason); err != nil {
		return nil, err
	}

	released, err := s.applyLocalRefund(ctx, orderNo)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_no", orderNo).
		Str("amount", amount.String()).
		Int64("released_keys", released).
		Str("reason", reason).
		Msg("order refunded")

	return &response_models.RefundResponse{
		OrderNo:      orderNo,
		Status:       string(db_models.OrderStatusRefunded),
		ReleasedKeys: int(released),
	}, nil
}

func (s *refundService) refundWithBackoff(ctx context.Context, orderNo string, amount decimal.Decimal, reason string) error {
	backoff := s.cfg.RetryBackoff
	var lastErr error
	for attempt := 0; attempt < s.cfg.GatewayRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}
		if lastErr = s.gw.Refund(ctx, orderNo, amount, reason); lastErr == nil {
			return nil
		}
		s.logger.Warn().Err(lastErr).Str("order_no", orderNo).Int("attempt", attempt+1).Msg("gateway refund attempt failed")
	}
	return fmt.Errorf("%w: refund for order %s: %v", utils.ErrGatewayUnavailable, orderNo, lastErr)
}

// applyLocalRefund runs the local half of a refund in one transaction:
// keys back to available with the back-reference cleared, order marked
// refunded. The status guard keeps it idempotent.
func (s *refundService) applyLocalRefund(ctx context.Context, orderNo string) (int64, error) {
	var released int64
	err := s.orders.Transaction(ctx, func(tx *gorm.DB) error {
		res := tx.Model(&db_models.Order{}).
			Where("order_no = ? AND status IN ?", orderNo,
				[]db_models.OrderStatus{db_models.OrderStatusPaid, db_models.OrderStatusCompleted}).
			Updates(map[string]interface{}{
				"status":      db_models.OrderStatusRefunded,
				"refunded_at": time.Now().Unix(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return utils.ErrAlreadyProcessed
		}

		var order db_models.Order
		if err := tx.Where("order_no = ?", orderNo).First(&order).Error; err != nil {
			return err
		}

		var err error
		released, err = s.keys.ReleaseByOrder(tx, order.ID)
		return err
	})
	if err != nil {
		return 0, err
	}
	return released, nil
}

func (s *refundService) Reconcile(ctx context.Context) error {
	orders, err := s.orders.ListFulfilledSince(ctx, s.cfg.ReconcileWindow)
	if err != nil {
		return err
	}

	for _, order := range orders {
		status, err := s.gw.QueryStatus(ctx, order.OrderNo)
		if err != nil {
			s.logger.Warn().Err(err).Str("order_no", order.OrderNo).Msg("reconcile status query failed")
			continue
		}
		if status != gateway.StatusRefunded {
			continue
		}

		released, err := s.applyLocalRefund(ctx, order.OrderNo)
		if err != nil {
			if errors.Is(err, utils.ErrAlreadyProcessed) {
				continue
			}
			s.logger.Error().Err(err).Str("order_no", order.OrderNo).Msg("reconcile local refund failed")
			continue
		}
		s.logger.Info().
			Str("order_no", order.OrderNo).
			Int64("released_keys", released).
			Msg("reconciler applied missing local refund")
	}
	return nil
}
