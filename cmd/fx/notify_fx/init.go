package notify_fx

import (
	"log"
	"os"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
	"keyshop/internal/notify"
)

var Module = fx.Provide(provideNotifier)

func provideNotifier(logger zerolog.Logger) notify.Notifier {
	notifier, err := notify.NewWebhookNotifier(os.Getenv("ALERT_WEBHOOK_URL"), logger)
	if err != nil {
		log.Fatalf("Failed to initialize alert notifier: %v", err)
	}
	return notifier
}
