package services

import (
	"context"

	"github.com/shopspring/decimal"

	"keyshop/internal/models/db_models"
	"keyshop/internal/repositories"
)

// PricingProvider resolves the localized unit price for a product. The
// geo-IP country lookup itself happens upstream; intake passes whatever
// country code it resolved, possibly empty.
type PricingProvider interface {
	LocalizedPrice(ctx context.Context, product *db_models.Product, countryCode string) (decimal.Decimal, string, error)
}

// tablePricingProvider reads per-country overrides from product_prices and
// falls back to the product base price.
type tablePricingProvider struct {
	products repositories.ProductRepositoryInterface
}

func NewTablePricingProvider(products repositories.ProductRepositoryInterface) PricingProvider {
	return &tablePricingProvider{products: products}
}

func (p *tablePricingProvider) LocalizedPrice(ctx context.Context, product *db_models.Product, countryCode string) (decimal.Decimal, string, error) {
	if countryCode != "" {
		override, err := p.products.GetPriceOverride(ctx, product.ID, countryCode)
		if err != nil {
			return decimal.Zero, "", err
		}
		if override != nil {
			return override.Price, override.Currency, nil
		}
	}
	return product.BasePrice, product.Currency, nil
}
