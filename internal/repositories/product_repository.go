package repositories

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"keyshop/internal/models/db_models"
)

type ProductRepositoryInterface interface {
	GetBySlug(ctx context.Context, slug string) (*db_models.Product, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db_models.Product, error)
	ListActive(ctx context.Context) ([]db_models.Product, error)
	GetPriceOverride(ctx context.Context, productID uuid.UUID, countryCode string) (*db_models.ProductPrice, error)
}

func NewProductRepository(db *gorm.DB) ProductRepositoryInterface {
	return &ProductRepository{db: db}
}

type ProductRepository struct {
	db *gorm.DB
}

func (p ProductRepository) GetBySlug(ctx context.Context, slug string) (*db_models.Product, error) {
	var product db_models.Product
	err := p.db.WithContext(ctx).Where("slug = ?", slug).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (p ProductRepository) GetByID(ctx context.Context, id uuid.UUID) (*db_models.Product, error) {
	var product db_models.Product
	err := p.db.WithContext(ctx).Where("id = ?", id).First(&product).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &product, nil
}

func (p ProductRepository) ListActive(ctx context.Context) ([]db_models.Product, error) {
	var products []db_models.Product
	err := p.db.WithContext(ctx).
		Where("status = ?", db_models.ProductStatusActive).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (p ProductRepository) GetPriceOverride(ctx context.Context, productID uuid.UUID, countryCode string) (*db_models.ProductPrice, error) {
	var price db_models.ProductPrice
	err := p.db.WithContext(ctx).
		Where("product_id = ? AND country_code = ?", productID, countryCode).
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &price, nil
}
