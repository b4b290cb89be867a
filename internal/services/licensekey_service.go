package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"keyshop/internal/models/db_models"
	"keyshop/internal/models/response_models"
	"keyshop/internal/repositories"
	"keyshop/pkg/utils"
	"keyshop/pkg/vault"
)

type LicenseKeyService interface {
	// ImportKeys bulk-loads plaintext keys for a product, encrypting each
	// and skipping duplicates by plaintext fingerprint.
	ImportKeys(ctx context.Context, productID uuid.UUID, plaintexts []string) (*response_models.ImportKeysResponse, error)

	// DeliverKeys decrypts the keys of a completed order. This is the only
	// read path that touches plaintext.
	DeliverKeys(ctx context.Context, orderNo string) (*response_models.KeyDeliveryResponse, error)

	RevokeKey(ctx context.Context, keyID uuid.UUID, reason string) error
	Stock(ctx context.Context, slug string) (*response_models.StockResponse, error)
}

type licenseKeyService struct {
	orders   repositories.OrderRepositoryInterface
	products repositories.ProductRepositoryInterface
	keys     repositories.LicenseKeyRepositoryInterface
	vault    *vault.Vault
	logger   zerolog.Logger
}

func NewLicenseKeyService(
	orders repositories.OrderRepositoryInterface,
	products repositories.ProductRepositoryInterface,
	keys repositories.LicenseKeyRepositoryInterface,
	v *vault.Vault,
	logger zerolog.Logger,
) LicenseKeyService {
	return &licenseKeyService{
		orders:   orders,
		products: products,
		keys:     keys,
		vault:    v,
		logger:   logger,
	}
}

func (s *licenseKeyService) ImportKeys(ctx context.Context, productID uuid.UUID, plaintexts []string) (*response_models.ImportKeysResponse, error) {
	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %s", utils.ErrNotFound, productID)
	}

	// In-batch dedupe first; the unique fingerprint index catches the rest
	// (keys already imported in earlier batches).
	seen := make(map[string]bool, len(plaintexts))
	rows := make([]db_models.LicenseKey, 0, len(plaintexts))
	for _, plain := range plaintexts {
		if plain == "" {
			return nil, fmt.Errorf("%w: empty key in import batch", utils.ErrValidation)
		}
		fp := vault.Fingerprint(plain)
		if seen[fp] {
			continue
		}
		seen[fp] = true

		ciphertext, err := s.vault.Encrypt(plain)
		if err != nil {
			return nil, fmt.Errorf("encrypt imported key: %w", err)
		}
		rows = append(rows, db_models.LicenseKey{
			ProductID:   productID,
			Ciphertext:  ciphertext,
			Fingerprint: fp,
			Status:      db_models.LicenseKeyStatusAvailable,
		})
	}

	inserted, err := s.keys.InsertBatch(ctx, rows)
	if err != nil {
		return nil, err
	}

	duplicates := len(plaintexts) - int(inserted)
	s.logger.Info().
		Str("product", product.Slug).
		Int64("imported", inserted).
		Int("duplicates", duplicates).
		Msg("license keys imported")

	return &response_models.ImportKeysResponse{
		Imported:   int(inserted),
		Duplicates: duplicates,
	}, nil
}

func (s *licenseKeyService) DeliverKeys(ctx context.Context, orderNo string) (*response_models.KeyDeliveryResponse, error) {
	order, err := s.orders.GetByOrderNo(ctx, orderNo)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, fmt.Errorf("%w: order %s", utils.ErrNotFound, orderNo)
	}
	if order.Status != db_models.OrderStatusCompleted {
		return nil, fmt.Errorf("%w: order %s is %s, keys deliverable only when completed",
			utils.ErrOrderState, orderNo, order.Status)
	}

	keys, err := s.keys.ListByOrder(ctx, order.ID)
	if err != nil {
		return nil, err
	}

	plaintexts := make([]string, 0, len(keys))
	for _, k := range keys {
		plain, err := s.vault.Decrypt(k.Ciphertext)
		if err != nil {
			return nil, fmt.Errorf("decrypt key %s: %w", k.ID, err)
		}
		plaintexts = append(plaintexts, plain)
	}

	return &response_models.KeyDeliveryResponse{
		OrderNo: orderNo,
		Keys:    plaintexts,
	}, nil
}

func (s *licenseKeyService) RevokeKey(ctx context.Context, keyID uuid.UUID, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: revoke reason is required", utils.ErrValidation)
	}
	key, err := s.keys.GetByID(ctx, keyID)
	if err != nil {
		return err
	}
	if key == nil {
		return fmt.Errorf("%w: key %s", utils.ErrNotFound, keyID)
	}
	if err := s.keys.Revoke(ctx, keyID, reason, time.Now().Unix()); err != nil {
		return err
	}
	s.logger.Info().Str("key_id", keyID.String()).Str("reason", reason).Msg("license key revoked")
	return nil
}

func (s *licenseKeyService) Stock(ctx context.Context, slug string) (*response_models.StockResponse, error) {
	product, err := s.products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, fmt.Errorf("%w: product %q", utils.ErrNotFound, slug)
	}

	available, err := s.keys.CountAvailable(ctx, product.ID)
	if err != nil {
		return nil, err
	}

	return &response_models.StockResponse{
		ProductID: product.ID,
		Slug:      product.Slug,
		Available: available,
	}, nil
}
