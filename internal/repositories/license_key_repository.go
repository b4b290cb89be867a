package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"keyshop/internal/models/db_models"
	"keyshop/pkg/utils"
)

type LicenseKeyRepositoryInterface interface {
	// AllocateForOrder claims exactly quantity available keys for the
	// product inside the caller's transaction. Runs FIFO. Partial
	// allocation never happens: any shortfall aborts the transaction.
	AllocateForOrder(tx *gorm.DB, productID, orderID uuid.UUID, quantity int, nowUnix int64) ([]db_models.LicenseKey, error)

	// ReleaseByOrder flips every key linked to the order back to available
	// and clears the back-reference. Returns the released count.
	ReleaseByOrder(tx *gorm.DB, orderID uuid.UUID) (int64, error)

	CountAvailable(ctx context.Context, productID uuid.UUID) (int64, error)
	InsertBatch(ctx context.Context, keys []db_models.LicenseKey) (inserted int64, err error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]db_models.LicenseKey, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.LicenseKey, error)
	Revoke(ctx context.Context, id uuid.UUID, reason string, nowUnix int64) error
}

func NewLicenseKeyRepository(db *gorm.DB) LicenseKeyRepositoryInterface {
	return &LicenseKeyRepository{db: db}
}

type LicenseKeyRepository struct {
	db *gorm.DB
}

func (r LicenseKeyRepository) AllocateForOrder(tx *gorm.DB, productID, orderID uuid.UUID, quantity int, nowUnix int64) ([]db_models.LicenseKey, error) {
	if quantity <= 0 {
		return nil, fmt.Errorf("%w: allocation quantity must be positive", utils.ErrValidation)
	}

	// Oldest-imported keys sell first; id breaks created_at ties so the
	// selection is deterministic.
	var candidates []db_models.LicenseKey
	err := tx.
		Where("product_id = ? AND status = ?", productID, db_models.LicenseKeyStatusAvailable).
		Order("created_at ASC, id ASC").
		Limit(quantity).
		Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	if len(candidates) < quantity {
		return nil, fmt.Errorf("%w: want %d keys, have %d", utils.ErrInsufficientInventory, quantity, len(candidates))
	}

	ids := make([]uuid.UUID, 0, quantity)
	for _, k := range candidates {
		ids = append(ids, k.ID)
	}

	// Optimistic claim: the status guard in the WHERE clause means a
	// concurrent transaction that grabbed any of these rows first shrinks
	// our affected count, and the mismatch aborts the whole transaction.
	res := tx.Model(&db_models.LicenseKey{}).
		Where("id IN ? AND status = ?", ids, db_models.LicenseKeyStatusAvailable).
		Updates(map[string]interface{}{
			"status":   db_models.LicenseKeyStatusSold,
			"order_id": orderID,
			"sold_at":  nowUnix,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected != int64(quantity) {
		return nil, fmt.Errorf("%w: lost allocation race (claimed %d of %d)", utils.ErrInsufficientInventory, res.RowsAffected, quantity)
	}

	for i := range candidates {
		candidates[i].Status = db_models.LicenseKeyStatusSold
		candidates[i].OrderID = &orderID
		candidates[i].SoldAt = &nowUnix
	}
	return candidates, nil
}

func (r LicenseKeyRepository) ReleaseByOrder(tx *gorm.DB, orderID uuid.UUID) (int64, error) {
	res := tx.Model(&db_models.LicenseKey{}).
		Where("order_id = ? AND status = ?", orderID, db_models.LicenseKeyStatusSold).
		Updates(map[string]interface{}{
			"status":   db_models.LicenseKeyStatusAvailable,
			"order_id": nil,
			"sold_at":  nil,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r LicenseKeyRepository) CountAvailable(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&db_models.LicenseKey{}).
		Where("product_id = ? AND status = ?", productID, db_models.LicenseKeyStatusAvailable).
		Count(&count).Error
	return count, err
}

// InsertBatch writes imported keys, silently skipping fingerprints already
// present for the product. The unique index is the authority; the returned
// count is how many rows actually landed.
func (r LicenseKeyRepository) InsertBatch(ctx context.Context, keys []db_models.LicenseKey) (int64, error) {
	if len(keys) == 0 {
		return 0, nil
	}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&keys)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r LicenseKeyRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]db_models.LicenseKey, error) {
	var keys []db_models.LicenseKey
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at ASC, id ASC").
		Find(&keys).Error
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (r LicenseKeyRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.LicenseKey, error) {
	var key db_models.LicenseKey
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&key).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &key, nil
}

func (r LicenseKeyRepository) Revoke(ctx context.Context, id uuid.UUID, reason string, nowUnix int64) error {
	res := r.db.WithContext(ctx).Model(&db_models.LicenseKey{}).
		Where("id = ? AND status = ?", id, db_models.LicenseKeyStatusSold).
		Updates(map[string]interface{}{
			"status":        db_models.LicenseKeyStatusRevoked,
			"revoked_at":    nowUnix,
			"revoke_reason": reason,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: key is not sold", utils.ErrOrderState)
	}
	return nil
}
