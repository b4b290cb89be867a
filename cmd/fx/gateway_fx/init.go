package gateway_fx

import (
	"log"
	"os"

	"go.uber.org/fx"
	"keyshop/internal/gateway"
)

var Module = fx.Provide(provideGateway)

func provideGateway() gateway.PaymentGateway {
	cfg := gateway.PayOSConfig{
		ClientID:    os.Getenv("PAYOS_CLIENT_ID"),
		ApiKey:      os.Getenv("PAYOS_API_KEY"),
		ChecksumKey: os.Getenv("PAYOS_CHECKSUM_KEY"),
		ReturnURL:   os.Getenv("PAYOS_RETURN_URL"),
		CancelURL:   os.Getenv("PAYOS_CANCEL_URL"),
		RefundURL:   os.Getenv("PAYOS_REFUND_URL"),
	}

	gw, err := gateway.NewPayOSGateway(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize payment gateway: %v", err)
	}
	return gw
}
