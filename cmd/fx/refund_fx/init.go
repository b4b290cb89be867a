package refund_fx

import (
	"os"
	"strconv"
	"time"

	"go.uber.org/fx"
	"keyshop/internal/services"
)

var Module = fx.Provide(
	provideRefundConfig,
	services.NewRefundService,
)

func provideRefundConfig() services.RefundConfig {
	cfg := services.RefundConfig{}

	if n, err := strconv.Atoi(os.Getenv("REFUND_GATEWAY_RETRIES")); err == nil {
		cfg.GatewayRetries = n
	}
	if d, err := time.ParseDuration(os.Getenv("REFUND_RETRY_BACKOFF")); err == nil {
		cfg.RetryBackoff = d
	}
	if d, err := time.ParseDuration(os.Getenv("RECONCILE_WINDOW")); err == nil {
		cfg.ReconcileWindow = d
	}

	return cfg
}
