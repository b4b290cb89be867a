package order_fx

import (
	"os"
	"strings"
	"time"

	"go.uber.org/fx"
	"keyshop/internal/repositories"
	"keyshop/internal/services"
)

var Module = fx.Provide(
	repositories.NewProductRepository,
	repositories.NewOrderRepository,
	repositories.NewLicenseKeyRepository,
	services.NewTablePricingProvider,
	provideOrderConfig,
	services.NewOrderService,
)

func provideOrderConfig() services.OrderConfig {
	cfg := services.OrderConfig{}

	if methods := os.Getenv("PAYMENT_METHODS"); methods != "" {
		cfg.PaymentMethods = strings.Split(methods, ",")
	}
	if d, err := time.ParseDuration(os.Getenv("GATEWAY_TIMEOUT")); err == nil {
		cfg.GatewayTimeout = d
	}
	if d, err := time.ParseDuration(os.Getenv("STUCK_ORDER_AGE")); err == nil {
		cfg.StuckAge = d
	}

	return cfg
}
