package licensekey_fx

import (
	"go.uber.org/fx"
	"keyshop/internal/services"
)

var Module = fx.Provide(services.NewLicenseKeyService)
