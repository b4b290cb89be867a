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
	"keyshop/internal/models/request_models"
	"keyshop/internal/models/response_models"
	"keyshop/internal/repositories"
	"keyshop/pkg/utils"
	"keyshop/pkg/vault"
)

// amountEpsilon tolerates decimal rounding between the gateway's reported
// amount and ours. Anything beyond it is treated as a tamper signal.
var amountEpsilon = decimal.NewFromFloat(0.01)

type PaymentService interface {
	// HandleWebhook verifies a raw gateway callback and drives fulfillment.
	HandleWebhook(ctx context.Context, rawBody []byte) (*response_models.CallbackResponse, error)

	// ProcessNotification is the verified-payload entry point. Idempotent:
	// duplicate deliveries return success without side effects.
	ProcessNotification(ctx context.Context, n request_models.PaymentNotification) (*response_models.CallbackResponse, error)
}

type paymentService struct {
	orders    repositories.OrderRepositoryInterface
	keys      repositories.LicenseKeyRepositoryInterface
	gw        gateway.PaymentGateway
	vault     *vault.Vault
	mail      IMailService
	inventory InventoryService
	logger    zerolog.Logger
}

func NewPaymentService(
	orders repositories.OrderRepositoryInterface,
	keys repositories.LicenseKeyRepositoryInterface,
	gw gateway.PaymentGateway,
	v *vault.Vault,
	mail IMailService,
	inventory InventoryService,
	logger zerolog.Logger,
) PaymentService {
	return &paymentService{
		orders:    orders,
		keys:      keys,
		gw:        gw,
		vault:     v,
		mail:      mail,
		inventory: inventory,
		logger:    logger,
	}
}

func (s *paymentService) HandleWebhook(ctx context.Context, rawBody []byte) (*response_models.CallbackResponse, error) {
	data, err := s.gw.VerifyCallback(rawBody)
	if err != nil {
		return nil, err
	}

	status := "failed"
	if data.Success {
		status = "success"
	}
	return s.ProcessNotification(ctx, request_models.PaymentNotification{
		OrderNo:       data.OrderNo,
		TransactionID: data.TransactionID,
		Status:        status,
		Amount:        data.Amount,
	})
}

func (s *paymentService) ProcessNotification(ctx context.Context, n request_models.PaymentNotification) (*response_models.CallbackResponse, error) {
	var (
		order     *db_models.Order
		allocated []db_models.LicenseKey
	)

	err := s.orders.Transaction(ctx, func(tx *gorm.DB) error {
		var err error
		order, err = s.orders.GetByOrderNoTx(tx, n.OrderNo)
		if err != nil {
			return err
		}
		if order == nil {
			return fmt.Errorf("%w: order %s", utils.ErrNotFound, n.OrderNo)
		}

		// Idempotency guard: gateways redeliver notifications. A non-pending
		// order has already been handled; acknowledge and do nothing.
		if order.Status != db_models.OrderStatusPending {
			return utils.ErrAlreadyProcessed
		}

		if !n.Succeeded() {
			// No keys were ever touched for this order, nothing to reverse.
			return s.transition(tx, order.ID, db_models.OrderStatusCancelled, map[string]interface{}{
				"status": db_models.OrderStatusCancelled,
			})
		}

		if n.Amount.Sub(order.TotalAmount).Abs().GreaterThan(amountEpsilon) {
			return fmt.Errorf("%w: order %s reported %s, expected %s",
				utils.ErrAmountMismatch, n.OrderNo, n.Amount.String(), order.TotalAmount.String())
		}

		now := time.Now().Unix()
		for _, item := range order.Items {
			keys, err := s.keys.AllocateForOrder(tx, item.ProductID, order.ID, item.Quantity, now)
			if err != nil {
				return err
			}
			allocated = append(allocated, keys...)
		}

		if err := s.transition(tx, order.ID, db_models.OrderStatusCompleted, map[string]interface{}{
			"status":         db_models.OrderStatusCompleted,
			"transaction_id": n.TransactionID,
			"paid_at":        now,
		}); err != nil {
			return err
		}

		order.Status = db_models.OrderStatusCompleted
		order.TransactionID = n.TransactionID
		order.PaidAt = &now
		return nil
	})

	if err != nil {
		if errors.Is(err, utils.ErrAlreadyProcessed) {
			return &response_models.CallbackResponse{Success: true, Message: "already processed"}, nil
		}
		if errors.Is(err, utils.ErrAmountMismatch) {
			// Possible tamper: reject, keep the order pending, surface for
			// manual review. Never silently retried.
			s.logger.Warn().
				Str("order_no", n.OrderNo).
				Str("reported", n.Amount.String()).
				Msg("callback amount mismatch, flagged for manual review")
		}
		return nil, err
	}

	if order.Status == db_models.OrderStatusCompleted {
		s.logger.Info().
			Str("order_no", order.OrderNo).
			Int("keys", len(allocated)).
			Msg("order fulfilled")
		// Post-commit side effects must never roll back the financial
		// transaction; they run detached and their failures are logged.
		go s.afterFulfillment(*order, allocated)
		return &response_models.CallbackResponse{Success: true, Message: "order completed"}, nil
	}

	s.logger.Info().Str("order_no", order.OrderNo).Msg("payment failed, order cancelled")
	return &response_models.CallbackResponse{Success: true, Message: "order cancelled"}, nil
}

// transition applies a guarded status change. The pending guard in the
// WHERE clause makes the transition single-shot even if two transactions
// interleave on the same order.
func (s *paymentService) transition(tx *gorm.DB, orderID interface{}, to db_models.OrderStatus, updates map[string]interface{}) error {
	res := tx.Model(&db_models.Order{}).
		Where("id = ? AND status = ?", orderID, db_models.OrderStatusPending).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrAlreadyProcessed
	}
	return nil
}

func (s *paymentService) afterFulfillment(order db_models.Order, allocated []db_models.LicenseKey) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	plaintexts := make([]string, 0, len(allocated))
	for _, k := range allocated {
		plain, err := s.vault.Decrypt(k.Ciphertext)
		if err != nil {
			s.logger.Error().Err(err).Str("order_no", order.OrderNo).Msg("key decrypt failed during delivery")
			continue
		}
		plaintexts = append(plaintexts, plain)
	}

	if len(plaintexts) > 0 {
		if err := s.mail.SendOrderConfirmation(order.Email, order.OrderNo, plaintexts); err != nil {
			s.logger.Error().Err(err).Str("order_no", order.OrderNo).Msg("confirmation email failed")
		}
	}

	seen := map[string]bool{}
	for _, k := range allocated {
		pid := k.ProductID.String()
		if seen[pid] {
			continue
		}
		seen[pid] = true
		if err := s.inventory.AfterAllocation(ctx, k.ProductID); err != nil {
			s.logger.Error().Err(err).Str("product_id", pid).Msg("inventory alert hook failed")
		}
	}
}
