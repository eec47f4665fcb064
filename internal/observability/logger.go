package observability

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/crosspacket/internal/logging"
)

// InitLogger configures the runtime logger at level and tags it with app.
func InitLogger(app string, level zerolog.Level) zerolog.Logger {
	logging.ConfigureLevel(level)
	logger := log.Logger.With().Str("app", app).Logger()
	log.Logger = logger
	return logger
}
