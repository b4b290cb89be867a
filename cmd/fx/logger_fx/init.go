package logger_fx

import (
	"os"

	"github.com/rs/zerolog"
	"go.uber.org/fx"
)

var Module = fx.Provide(provideLogger)

func provideLogger() zerolog.Logger {
	level, err := zerolog.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Str("service", "keyshop").
		Logger()
}
