package log

import (
	"fmt"
	"log/slog"
	"os"
)

// SetupLogger installs the process-wide slog logger used by the example
// programs: JSON records on stdout with keys normalized for log collectors,
// wrapped so cockroachdb/errors stacktraces land in their own attribute.
// Library code obtains loggers through the provider instead (GetLogger,
// GetLoggerWithName).
func SetupLogger(loglevel string) {
	ops := slog.HandlerOptions{
		AddSource:   true,
		Level:       ToLogLevel(loglevel),
		ReplaceAttr: normalizeAttrs,
	}
	handler := slog.NewJSONHandler(os.Stdout, &ops)
	slog.SetDefault(slog.New(WrapByErrFmtHandler(handler)))
}

// normalizeAttrs renames slog's built-in record keys to the Cloud Logging
// field names, so ingested records carry severity and source location.
func normalizeAttrs(groups []string, attr slog.Attr) slog.Attr {
	switch attr.Key {
	case slog.LevelKey:
		attr.Key = "severity"
	case slog.MessageKey:
		attr.Key = "message"
	case slog.SourceKey:
		attr.Key = "logging.googleapis.com/sourceLocation"
	}
	return attr
}

// ToLogLevel converts a level name to its slog level. Unknown names panic;
// the level string is operator configuration, not runtime input.
func ToLogLevel(level string) slog.Level {
	switch level {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		panic(fmt.Sprintf("invalid log level :%s", level))
	}
}

// Attribute keys recognized by ErrFmtHandler.
const (
	ErrAttrKey        = "error"
	StacktraceAttrKey = "stacktrace"
)

// ErrAttr wraps an error as a slog attribute under ErrAttrKey so
// ErrFmtHandler can extract its stacktrace.
func ErrAttr(err error) slog.Attr {
	return slog.Any(ErrAttrKey, err)
}
