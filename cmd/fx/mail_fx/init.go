package mail_fx

import (
	"log"
	"os"
	"strconv"

	"go.uber.org/fx"
	"keyshop/internal/services"
)

var Module = fx.Provide(provideMailService)

func provideMailService() services.IMailService {
	port, err := strconv.Atoi(os.Getenv("SMTP_PORT"))
	if err != nil {
		port = 587
	}

	cfg := services.SMTPConfig{
		Host:       os.Getenv("SMTP_HOST"),
		Port:       port,
		Username:   os.Getenv("SMTP_USERNAME"),
		Password:   os.Getenv("SMTP_PASSWORD"),
		From:       os.Getenv("SMTP_FROM"),
		FromName:   os.Getenv("SMTP_FROM_NAME"),
		UseSSL:     port == 465,
		RequireTLS: true,

		AppName: "Keyshop",
	}

	mailService, err := services.NewSMTPMailService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize SMTP mail service: %v", err)
	}

	return mailService
}
