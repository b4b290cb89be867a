package db_models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
)

type Product struct {
	BaseModel
	Name        string `gorm:"not null"`
	Slug        string `gorm:"uniqueIndex;not null"` // e.g. "win11-pro", "office-365"
	Description *string
	BasePrice   decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency    string          `gorm:"size:3;not null"` // ISO 4217
	Status      ProductStatus   `gorm:"index;default:active"`
}

// ProductPrice is a per-country price override backing localized pricing.
// Lookup falls back to the product's BasePrice when no row matches.
type ProductPrice struct {
	BaseModel
	ProductID   uuid.UUID       `gorm:"type:uuid;index:idx_product_country,unique;not null"`
	CountryCode string          `gorm:"size:2;index:idx_product_country,unique;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Currency    string          `gorm:"size:3;not null"`
}
