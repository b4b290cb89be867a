package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"keyshop/internal/models/db_models"
	"keyshop/pkg/utils"
)

func newKeyService(env *testEnv) LicenseKeyService {
	return NewLicenseKeyService(env.orders, env.products, env.keys, env.vault, env.logger)
}

func TestImportKeysEncryptsAtRest(t *testing.T) {
	env := newTestEnv(t)
	svc := newKeyService(env)
	product := env.seedProduct(t, "win11-pro", 9.99)

	plaintexts := []string{"AAAAA-BBBBB-11111", "AAAAA-BBBBB-22222"}
	resp, err := svc.ImportKeys(context.Background(), product.ID, plaintexts)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 0, resp.Duplicates)

	var rows []db_models.LicenseKey
	require.NoError(t, env.db.Find(&rows).Error)
	require.Len(t, rows, 2)
	for _, row := range rows {
		assert.Equal(t, db_models.LicenseKeyStatusAvailable, row.Status)
		// Plaintext must not be recoverable from the stored columns.
		assert.NotContains(t, row.Ciphertext, "AAAAA")
		assert.NotContains(t, row.Fingerprint, "AAAAA")
	}
}

func TestImportKeysDeduplicates(t *testing.T) {
	env := newTestEnv(t)
	svc := newKeyService(env)
	product := env.seedProduct(t, "win11-pro", 9.99)
	ctx := context.Background()

	// In-batch duplicate.
	resp, err := svc.ImportKeys(ctx, product.ID, []string{"KEY-1", "KEY-2", "KEY-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Imported)
	assert.Equal(t, 1, resp.Duplicates)

	// Cross-batch duplicate, caught by the fingerprint index even though
	// each import produced a different ciphertext.
	resp, err = svc.ImportKeys(ctx, product.ID, []string{"KEY-2", "KEY-3"})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Imported)
	assert.Equal(t, 1, resp.Duplicates)

	stock, err := svc.Stock(ctx, "win11-pro")
	require.NoError(t, err)
	assert.EqualValues(t, 3, stock.Available)
}

func TestImportKeysValidation(t *testing.T) {
	env := newTestEnv(t)
	svc := newKeyService(env)
	product := env.seedProduct(t, "win11-pro", 9.99)

	_, err := svc.ImportKeys(context.Background(), uuid.New(), []string{"KEY-1"})
	require.ErrorIs(t, err, utils.ErrNotFound)

	_, err = svc.ImportKeys(context.Background(), product.ID, []string{"KEY-1", ""})
	require.ErrorIs(t, err, utils.ErrValidation)
}

func TestDeliverKeysRequiresCompletedOrder(t *testing.T) {
	env := newTestEnv(t)
	svc := newKeyService(env)
	product := env.seedProduct(t, "win11-pro", 9.99)

	_, err := svc.ImportKeys(context.Background(), product.ID, []string{"KEY-1", "KEY-2"})
	require.NoError(t, err)

	order := env.seedOrder(t, product, 2, db_models.OrderStatusPending)
	_, err = svc.DeliverKeys(context.Background(), order.OrderNo)
	require.ErrorIs(t, err, utils.ErrOrderState)

	require.NoError(t, env.db.Transaction(func(tx *gorm.DB) error {
		_, err := env.keys.AllocateForOrder(tx, product.ID, order.ID, 2, time.Now().Unix())
		return err
	}))
	require.NoError(t, env.db.Model(&db_models.Order{}).
		Where("id = ?", order.ID).
		Update("status", db_models.OrderStatusCompleted).Error)

	resp, err := svc.DeliverKeys(context.Background(), order.OrderNo)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"KEY-1", "KEY-2"}, resp.Keys)

	_, err = svc.DeliverKeys(context.Background(), "9999999999999")
	require.ErrorIs(t, err, utils.ErrNotFound)
}

func TestRevokeKey(t *testing.T) {
	env := newTestEnv(t)
	svc := newKeyService(env)
	product := env.seedProduct(t, "win11-pro", 9.99)
	ctx := context.Background()

	_, err := svc.ImportKeys(ctx, product.ID, []string{"KEY-1"})
	require.NoError(t, err)
	var key db_models.LicenseKey
	require.NoError(t, env.db.First(&key).Error)

	err = svc.RevokeKey(ctx, key.ID, "")
	require.ErrorIs(t, err, utils.ErrValidation)

	err = svc.RevokeKey(ctx, uuid.New(), "leaked")
	require.ErrorIs(t, err, utils.ErrNotFound)

	// Only sold keys can be revoked.
	err = svc.RevokeKey(ctx, key.ID, "leaked")
	require.ErrorIs(t, err, utils.ErrOrderState)

	order := env.seedOrder(t, product, 1, db_models.OrderStatusPending)
	require.NoError(t, env.db.Transaction(func(tx *gorm.DB) error {
		_, err := env.keys.AllocateForOrder(tx, product.ID, order.ID, 1, time.Now().Unix())
		return err
	}))
	require.NoError(t, svc.RevokeKey(ctx, key.ID, "leaked"))

	got, err := env.keys.GetByID(ctx, key.ID)
	require.NoError(t, err)
	assert.Equal(t, db_models.LicenseKeyStatusRevoked, got.Status)
}

func TestStockUnknownProduct(t *testing.T) {
	env := newTestEnv(t)
	svc := newKeyService(env)

	_, err := svc.Stock(context.Background(), "no-such-slug")
	require.ErrorIs(t, err, utils.ErrNotFound)
}
