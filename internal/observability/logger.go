package observability

import (
	"github.com/danmuck/oraclebs/internal/logging"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// InitLogger derives the run logger from the configured base logger, tags it
// with the app name and a fresh run id, and installs it globally.
func InitLogger(app string) zerolog.Logger {
	logger := logging.Base().With().
		Str("app", app).
		Str("run_id", uuid.NewString()).
		Logger()
	log.Logger = logger
	return logger
}
