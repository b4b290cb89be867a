package payment_fx

import (
	"go.uber.org/fx"
	"keyshop/internal/services"
)

var Module = fx.Provide(services.NewPaymentService)
