// Package log provides the structured logging facade used across goplda.
//
// The Logger interface is a minimal, slog-compatible surface: estimators hold
// a Logger, never a concrete backend, and obtain it from the package-level
// LoggerProvider (zerolog-backed by default). Attribute keys for the PLDA
// lifecycle (fit, predict, transform, verification) live in attributes.go so
// records stay consistent across packages.
//
// Usage inside an estimator:
//
//	logger := log.GetLoggerWithName("PLDA")
//	logger.Info("PLDA model fitted",
//	    log.SamplesKey, 1000,
//	    log.FeaturesKey, 64,
//	    log.ClassesKey, 40,
//	)
package log

import "context"

// Logger is the structured logging interface goplda code logs through.
// Implementations wrap a backend (zerolog in this repo, a capture buffer in
// tests) and accept alternating key-value fields after the message, slog
// style.
type Logger interface {
	// Debug logs detailed diagnostic information, usually disabled outside
	// development.
	Debug(msg string, fields ...any)

	// Info logs operational events such as a completed fit.
	Info(msg string, fields ...any)

	// Warn logs conditions worth attention that do not stop the operation,
	// numerical clamps and inexact diagonalization among them.
	Warn(msg string, fields ...any)

	// Error logs failures. When the first field is an error the backend may
	// attach its stacktrace.
	Error(msg string, fields ...any)

	// With returns a Logger that includes fields in every record it emits.
	//
	// Example:
	//
	//	ctx := logger.With(log.ModelNameKey, "PLDA", log.EstimatorIDKey, "plda-123")
	//	ctx.Info("Starting training")
	With(fields ...any) Logger

	// Enabled reports whether records at level would be emitted, letting
	// callers skip building expensive attribute values.
	Enabled(ctx context.Context, level Level) bool
}

// Level is a logging level. Values match slog.Level so implementations can
// pass them through unchanged.
type Level int

const (
	LevelDebug Level = -4
	LevelInfo  Level = 0
	LevelWarn  Level = 4
	LevelError Level = 8
)

// String returns the conventional upper-case name of the level.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LoggerProvider creates configured loggers. The package default is the
// zerolog provider; tests inject TestLoggerProvider to capture output.
type LoggerProvider interface {
	// GetLogger returns the provider's root logger.
	GetLogger() Logger

	// GetLoggerWithName returns a logger tagged with a component name.
	GetLoggerWithName(name string) Logger

	// SetLevel sets the minimum level for loggers this provider creates.
	SetLevel(level Level)
}
