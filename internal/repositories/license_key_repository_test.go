package repositories

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"keyshop/internal/models/db_models"
	"keyshop/pkg/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A fresh :memory: database exists per connection; pin the pool to one.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&db_models.Product{},
		&db_models.ProductPrice{},
		&db_models.Order{},
		&db_models.OrderItem{},
		&db_models.LicenseKey{},
	))
	return db
}

// orderedID produces uuids whose text ordering matches n, so tests can pin
// the id tie-breaker in FIFO queries.
func orderedID(n int) uuid.UUID {
	return uuid.MustParse(fmt.Sprintf("00000000-0000-0000-0000-%012d", n))
}

func seedKeys(t *testing.T, db *gorm.DB, productID uuid.UUID, count int) []db_models.LicenseKey {
	t.Helper()
	keys := make([]db_models.LicenseKey, 0, count)
	for i := 0; i < count; i++ {
		k := db_models.LicenseKey{
			BaseModel:   db_models.BaseModel{ID: orderedID(i + 1)},
			ProductID:   productID,
			Ciphertext:  fmt.Sprintf("ct-%d", i+1),
			Fingerprint: fmt.Sprintf("%064d", i+1),
			Status:      db_models.LicenseKeyStatusAvailable,
		}
		require.NoError(t, db.Create(&k).Error)
		keys = append(keys, k)
	}
	return keys
}

func TestAllocateForOrderClaimsOldestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseKeyRepository(db)
	productID := uuid.New()
	orderID := uuid.New()
	seeded := seedKeys(t, db, productID, 5)

	var allocated []db_models.LicenseKey
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		allocated, err = repo.AllocateForOrder(tx, productID, orderID, 3, time.Now().Unix())
		return err
	})
	require.NoError(t, err)
	require.Len(t, allocated, 3)

	for i, k := range allocated {
		assert.Equal(t, seeded[i].ID, k.ID)
		assert.Equal(t, db_models.LicenseKeyStatusSold, k.Status)
		require.NotNil(t, k.OrderID)
		assert.Equal(t, orderID, *k.OrderID)
		assert.NotNil(t, k.SoldAt)
	}

	var remaining int64
	require.NoError(t, db.Model(&db_models.LicenseKey{}).
		Where("product_id = ? AND status = ?", productID, db_models.LicenseKeyStatusAvailable).
		Count(&remaining).Error)
	assert.EqualValues(t, 2, remaining)
}

func TestAllocateForOrderShortfallRollsBack(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseKeyRepository(db)
	productID := uuid.New()
	seedKeys(t, db, productID, 2)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.AllocateForOrder(tx, productID, uuid.New(), 3, time.Now().Unix())
		return err
	})
	require.ErrorIs(t, err, utils.ErrInsufficientInventory)

	// Nothing may be claimed on a shortfall; all-or-nothing.
	count, err := repo.CountAvailable(context.Background(), productID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, count)
}

func TestAllocateForOrderRejectsNonPositiveQuantity(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseKeyRepository(db)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.AllocateForOrder(tx, uuid.New(), uuid.New(), 0, time.Now().Unix())
		return err
	})
	require.ErrorIs(t, err, utils.ErrValidation)
}

func TestTwoOrdersGetDisjointKeys(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseKeyRepository(db)
	productID := uuid.New()
	seedKeys(t, db, productID, 4)

	claim := func(orderID uuid.UUID, qty int) []db_models.LicenseKey {
		var keys []db_models.LicenseKey
		require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
			var err error
			keys, err = repo.AllocateForOrder(tx, productID, orderID, qty, time.Now().Unix())
			return err
		}))
		return keys
	}

	first := claim(uuid.New(), 2)
	second := claim(uuid.New(), 2)

	seen := map[uuid.UUID]bool{}
	for _, k := range append(first, second...) {
		assert.False(t, seen[k.ID], "key %s allocated twice", k.ID)
		seen[k.ID] = true
	}

	count, err := repo.CountAvailable(context.Background(), productID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, count)
}

func TestReleaseByOrderRestoresKeys(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseKeyRepository(db)
	productID := uuid.New()
	orderID := uuid.New()
	seedKeys(t, db, productID, 3)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.AllocateForOrder(tx, productID, orderID, 3, time.Now().Unix())
		return err
	}))

	var released int64
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		released, err = repo.ReleaseByOrder(tx, orderID)
		return err
	}))
	assert.EqualValues(t, 3, released)

	count, err := repo.CountAvailable(context.Background(), productID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	// Back-references are cleared, so the order no longer owns anything.
	keys, err := repo.ListByOrder(context.Background(), orderID)
	require.NoError(t, err)
	assert.Empty(t, keys)
}

func TestInsertBatchSkipsDuplicateFingerprints(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseKeyRepository(db)
	ctx := context.Background()
	productID := uuid.New()

	row := func(fp string) db_models.LicenseKey {
		return db_models.LicenseKey{
			ProductID:   productID,
			Ciphertext:  "ct-" + fp,
			Fingerprint: fp,
			Status:      db_models.LicenseKeyStatusAvailable,
		}
	}

	inserted, err := repo.InsertBatch(ctx, []db_models.LicenseKey{row("aaa"), row("bbb")})
	require.NoError(t, err)
	assert.EqualValues(t, 2, inserted)

	// Re-importing one known and one new fingerprint lands only the new one.
	inserted, err = repo.InsertBatch(ctx, []db_models.LicenseKey{row("bbb"), row("ccc")})
	require.NoError(t, err)
	assert.EqualValues(t, 1, inserted)

	count, err := repo.CountAvailable(ctx, productID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestInsertBatchAllowsSameKeyForDifferentProducts(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseKeyRepository(db)
	ctx := context.Background()

	fp := "same-fingerprint"
	for _, productID := range []uuid.UUID{uuid.New(), uuid.New()} {
		inserted, err := repo.InsertBatch(ctx, []db_models.LicenseKey{{
			ProductID:   productID,
			Ciphertext:  "ct",
			Fingerprint: fp,
			Status:      db_models.LicenseKeyStatusAvailable,
		}})
		require.NoError(t, err)
		assert.EqualValues(t, 1, inserted)
	}
}

func TestRevokeRequiresSoldStatus(t *testing.T) {
	db := newTestDB(t)
	repo := NewLicenseKeyRepository(db)
	ctx := context.Background()
	productID := uuid.New()
	keys := seedKeys(t, db, productID, 1)

	err := repo.Revoke(ctx, keys[0].ID, "leaked", time.Now().Unix())
	require.ErrorIs(t, err, utils.ErrOrderState)

	orderID := uuid.New()
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := repo.AllocateForOrder(tx, productID, orderID, 1, time.Now().Unix())
		return err
	}))

	require.NoError(t, repo.Revoke(ctx, keys[0].ID, "leaked", time.Now().Unix()))

	got, err := repo.GetByID(ctx, keys[0].ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, db_models.LicenseKeyStatusRevoked, got.Status)
	assert.Equal(t, "leaked", got.RevokeReason)
	assert.NotNil(t, got.RevokedAt)

	// A revoked key never returns to circulation through a release.
	var released int64
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		released, err = repo.ReleaseByOrder(tx, orderID)
		return err
	}))
	assert.EqualValues(t, 0, released)
}
