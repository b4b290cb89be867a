package controllers_fx

import (
	"go.uber.org/fx"
	"keyshop/internal/api/controllers"
)

var Module = fx.Provide(
	controllers.NewOrderController,
	controllers.NewPaymentController,
	controllers.NewAdminController,
)
