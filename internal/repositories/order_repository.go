package repositories

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"keyshop/internal/models/db_models"
)

type OrderRepositoryInterface interface {
	// CreateWithItems persists the order and its items as one write.
	CreateWithItems(ctx context.Context, order *db_models.Order, items []db_models.OrderItem) error

	GetByOrderNo(ctx context.Context, orderNo string) (*db_models.Order, error)
	GetWithItems(ctx context.Context, orderNo string) (*db_models.Order, error)

	// GetByOrderNoTx loads the order inside an open transaction; used by
	// the callback processor so the status check and transition share one
	// transaction boundary.
	GetByOrderNoTx(tx *gorm.DB, orderNo string) (*db_models.Order, error)

	// Transaction runs fn atomically; any error rolls everything back.
	Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error

	// ListPendingOlderThan surfaces stuck orders for operator review.
	ListPendingOlderThan(ctx context.Context, age time.Duration) ([]db_models.Order, error)

	// ListFulfilledSince feeds the refund reconciler.
	ListFulfilledSince(ctx context.Context, since time.Duration) ([]db_models.Order, error)
}

func NewOrderRepository(db *gorm.DB) OrderRepositoryInterface {
	return &OrderRepository{db: db}
}

type OrderRepository struct {
	db *gorm.DB
}

func (r OrderRepository) CreateWithItems(ctx context.Context, order *db_models.Order, items []db_models.OrderItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		return tx.Create(&items).Error
	})
}

func (r OrderRepository) GetByOrderNo(ctx context.Context, orderNo string) (*db_models.Order, error) {
	var order db_models.Order
	err := r.db.WithContext(ctx).Where("order_no = ?", orderNo).First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r OrderRepository) GetWithItems(ctx context.Context, orderNo string) (*db_models.Order, error) {
	var order db_models.Order
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r OrderRepository) GetByOrderNoTx(tx *gorm.DB, orderNo string) (*db_models.Order, error) {
	var order db_models.Order
	err := tx.
		Preload("Items").
		Where("order_no = ?", orderNo).
		First(&order).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

func (r OrderRepository) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func (r OrderRepository) ListPendingOlderThan(ctx context.Context, age time.Duration) ([]db_models.Order, error) {
	cutoff := time.Now().Add(-age).Unix()
	var orders []db_models.Order
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", db_models.OrderStatusPending, cutoff).
		Order("created_at ASC").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (r OrderRepository) ListFulfilledSince(ctx context.Context, since time.Duration) ([]db_models.Order, error) {
	cutoff := time.Now().Add(-since).Unix()
	var orders []db_models.Order
	err := r.db.WithContext(ctx).
		Where("status IN ? AND updated_at >= ?",
			[]db_models.OrderStatus{db_models.OrderStatusPaid, db_models.OrderStatusCompleted},
			cutoff).
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
