package observability

import (
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// For enriches the global logger with the component field convention used
// across the collector and storage-service binaries.
func For(component string) zerolog.Logger {
	return log.With().Str("component", component).Logger()
}

// LogOperation logs the outcome of an operation with the standard
// component/operation/entity/duration_ms/error field set. err may be nil.
func LogOperation(logger *zerolog.Logger, operation, entity string, start time.Time, err error) {
	evt := logger.Info()
	if err != nil {
		evt = logger.Error().Err(err)
	}
	evt.Str("operation", operation).
		Str("entity", entity).
		Dur("duration_ms", time.Since(start)).
		Msg("operation complete")
}
