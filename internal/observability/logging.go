// Package observability builds the structured logger the rest of the
// application shares.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/chronique-jdr/chronique/internal/config"
)

// serviceName tags every production log line so aggregated logs from several
// deployments stay attributable.
const serviceName = "chronique"

// NewLogger creates a structured logger from the logging configuration.
// The "json" format is meant for production log shipping and stamps each
// entry with the service name; "console" is the human-readable development
// format.
//
// Precondition: cfg.Level must be one of "debug", "info", "warn", "error".
// Precondition: cfg.Format must be "json" or "console".
func NewLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level %q: %w", cfg.Level, err)
	}

	var zapCfg zap.Config
	switch cfg.Format {
	case "json":
		zapCfg = zap.NewProductionConfig()
		zapCfg.InitialFields = map[string]interface{}{"service": serviceName}
	case "console":
		zapCfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if level == zapcore.DebugLevel {
		// Sampling would silently drop repeated combat events, which are
		// exactly what debug runs are trying to observe.
		zapCfg.Sampling = nil
	}

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger, nil
}
