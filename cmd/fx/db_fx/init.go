package db_fx

import (
	"log"

	"go.uber.org/fx"
	"gorm.io/gorm"
	"keyshop/internal/infra"
	"keyshop/internal/models/db_models"
)

var Module = fx.Provide(
	provideDB)

func provideDB() *gorm.DB {
	db := infra.InitPostgresql()

	if err := db.AutoMigrate(
		&db_models.Product{},
		&db_models.ProductPrice{},
		&db_models.Order{},
		&db_models.OrderItem{},
		&db_models.LicenseKey{},
	); err != nil {
		log.Fatalf("Failed to migrate database schema: %v", err)
	}

	return db
}
