package logger

import (
	"fmt"
	"os"
	"strings"
	"time"
	"watchtower/config"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func Init(cfg *config.Config) *zerolog.Logger {
	return newLogger(cfg.Env, cfg.ServiceName)
}

// InitAgent sets up the standalone agent binary's logger from its own
// config shape.
func InitAgent(cfg *config.AgentFileConfig) *zerolog.Logger {
	return newLogger(cfg.Env, cfg.ServiceName)
}

func newLogger(env, serviceName string) *zerolog.Logger {

	const prodStr string = "production"

	// Set global level based on environment
	switch env {
	case prodStr:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	var baseLogger zerolog.Logger

	if env == prodStr {
		baseLogger = zerolog.New(os.Stdout)
	} else {
		baseLogger = zerolog.New(zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
			NoColor:    false, // Enable colors
			PartsOrder: []string{
				"time", "level", "caller", "service", "env", "message", "err",
			},
			FormatLevel: func(i any) string {
				return strings.ToUpper(fmt.Sprintf("[%s]", i))
			},
			FormatCaller: func(caller any) string {
				return fmt.Sprintf("(%s)", caller)
			},
		})
	}

	baseLogger = baseLogger.With().
		Timestamp().
		Str("service", serviceName).
		Str("env", env).
		Logger() // finalize

	// Add caller info for dev
	if env != prodStr {
		baseLogger = baseLogger.With().Caller().Logger()
	}

	log.Logger = baseLogger

	return &baseLogger
}
