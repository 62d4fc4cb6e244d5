// Package observability holds the process loggers.
//
// CLILogger is for command-line entry points, ServerLogger for the long-running
// control surface. Both default to no-op so library code can log before Init
// without nil checks.
package observability

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// CLILogger is used by internal/cmd.
	CLILogger = zap.NewNop()

	// ServerLogger is used by the control surface and scheduler.
	ServerLogger = zap.NewNop()
)

// Init configures both loggers at the given level. Structured selects JSON
// output; false gives the human console encoder.
func Init(level string, structured bool) error {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	if !structured {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	CLILogger = logger.Named("cli")
	ServerLogger = logger.Named("server")
	return nil
}

// Sync flushes buffered log entries. Best effort.
func Sync() {
	_ = CLILogger.Sync()
	_ = ServerLogger.Sync()
}
