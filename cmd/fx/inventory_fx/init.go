package inventory_fx

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/fx"
	"keyshop/internal/services"
)

var Module = fx.Provide(
	provideInventoryConfig,
	services.NewInventoryService,
	services.NewMonitor,
)

func provideInventoryConfig() services.InventoryConfig {
	cfg := services.InventoryConfig{}

	if n, err := strconv.Atoi(os.Getenv("LOW_STOCK_THRESHOLD")); err == nil {
		cfg.Threshold = int64(n)
	}
	if d, err := time.ParseDuration(os.Getenv("ALERT_COOLDOWN")); err == nil {
		cfg.Cooldown = d
	}
	if d, err := time.ParseDuration(os.Getenv("STOCK_SWEEP_INTERVAL")); err == nil {
		cfg.SweepInterval = d
	}

	return cfg
}
