// Package log provides the zerolog-backed implementation of the Logger and
// LoggerProvider interfaces.
//
// This file contains the default production logging backend. Models obtain
// their loggers through NewZerologProvider (or the package-level GetLogger /
// GetLoggerWithName helpers) so the backend can be swapped for testing with
// TestLoggerProvider without touching model code.

package log

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/rs/zerolog"

	gopldaErrors "github.com/YuminosukeSato/goplda/pkg/errors"
)

// ZerologProvider implements LoggerProvider on top of rs/zerolog.
//
// The provider owns a root zerolog.Logger writing JSON lines to stderr with
// timestamps. Loggers returned by GetLogger/GetLoggerWithName share the root's
// level at the time of creation; SetLevel affects loggers created afterwards.
type ZerologProvider struct {
	mu   sync.RWMutex
	root zerolog.Logger
}

// NewZerologProvider creates a zerolog-backed LoggerProvider with the given
// minimum level. The level is an slog.Level so call sites can use
// ToLogLevel("info") directly.
//
// The provider also registers itself as the sink for library warnings
// (errors.Warn), so warnings such as DiagonalizationWarning are emitted as
// structured WARN records. When several providers are created, the most
// recent one receives the warnings.
func NewZerologProvider(level slog.Level) *ZerologProvider {
	root := zerolog.New(os.Stderr).
		With().Timestamp().Logger().
		Level(toZerologLevel(level))

	p := &ZerologProvider{root: root}
	gopldaErrors.SetZerologWarnFunc(p.logWarning)
	return p
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *ZerologProvider) GetLogger() Logger {
	return &zerologLogger{zl: p.snapshot()}
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName.
// The name is attached to every record under ComponentKey.
func (p *ZerologProvider) GetLoggerWithName(name string) Logger {
	zl := p.snapshot().With().Str(ComponentKey, name).Logger()
	return &zerologLogger{zl: zl}
}

// SetLevel implements LoggerProvider.SetLevel.
func (p *ZerologProvider) SetLevel(level Level) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.root = p.root.Level(toZerologLevel(slog.Level(level)))
}

func (p *ZerologProvider) snapshot() zerolog.Logger {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.root
}

// logWarning emits a library warning as a structured WARN record.
func (p *ZerologProvider) logWarning(warning error) {
	zl := p.snapshot()
	ev := zl.Warn()
	if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
		ev = ev.Object("warning", obj)
	}
	ev.Msg(warning.Error())
}

// zerologLogger adapts a zerolog.Logger to the Logger interface.
type zerologLogger struct {
	zl zerolog.Logger
}

// Debug implements Logger.Debug.
func (l *zerologLogger) Debug(msg string, fields ...any) {
	l.emit(l.zl.Debug(), msg, fields...)
}

// Info implements Logger.Info.
func (l *zerologLogger) Info(msg string, fields ...any) {
	l.emit(l.zl.Info(), msg, fields...)
}

// Warn implements Logger.Warn.
func (l *zerologLogger) Warn(msg string, fields ...any) {
	l.emit(l.zl.Warn(), msg, fields...)
}

// Error implements Logger.Error.
func (l *zerologLogger) Error(msg string, fields ...any) {
	l.emit(l.zl.Error(), msg, fields...)
}

// With implements Logger.With.
func (l *zerologLogger) With(fields ...any) Logger {
	ctx := l.zl.With()
	i := 0
	for i < len(fields) {
		// A bare error value may appear without a key.
		if err, ok := fields[i].(error); ok {
			ctx = ctx.Err(err)
			i++
			continue
		}
		if i+1 >= len(fields) {
			break
		}
		ctx = ctx.Interface(fmt.Sprintf("%v", fields[i]), fields[i+1])
		i += 2
	}
	return &zerologLogger{zl: ctx.Logger()}
}

// Enabled implements Logger.Enabled.
func (l *zerologLogger) Enabled(_ context.Context, level Level) bool {
	return toZerologLevel(slog.Level(level)) >= l.zl.GetLevel()
}

// emit writes the key-value fields onto the event and sends it.
// Fields follow the slog convention of alternating keys and values; a bare
// error value is attached under the standard "error" key with its stack
// details preserved for the handler.
func (l *zerologLogger) emit(ev *zerolog.Event, msg string, fields ...any) {
	i := 0
	for i < len(fields) {
		if err, ok := fields[i].(error); ok {
			ev = ev.Err(err)
			i++
			continue
		}
		if i+1 >= len(fields) {
			ev = ev.Interface("missing_value", fields[i])
			break
		}
		ev = ev.Interface(fmt.Sprintf("%v", fields[i]), fields[i+1])
		i += 2
	}
	ev.Msg(msg)
}

// toZerologLevel converts an slog.Level to the closest zerolog.Level.
func toZerologLevel(level slog.Level) zerolog.Level {
	switch {
	case level <= slog.LevelDebug:
		return zerolog.DebugLevel
	case level <= slog.LevelInfo:
		return zerolog.InfoLevel
	case level <= slog.LevelWarn:
		return zerolog.WarnLevel
	default:
		return zerolog.ErrorLevel
	}
}

// ===========================================================================
//
//	Package-level default provider
//
// ===========================================================================

var (
	providerMu      sync.RWMutex
	defaultProvider LoggerProvider
)

// SetDefaultProvider replaces the package-level provider used by GetLogger
// and GetLoggerWithName. Pass a TestLoggerProvider to capture log output in
// tests.
func SetDefaultProvider(p LoggerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	defaultProvider = p
}

func getDefaultProvider() LoggerProvider {
	providerMu.RLock()
	p := defaultProvider
	providerMu.RUnlock()
	if p != nil {
		return p
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if defaultProvider == nil {
		defaultProvider = NewZerologProvider(slog.LevelInfo)
	}
	return defaultProvider
}

// GetLogger returns the default logger.
func GetLogger() Logger {
	return getDefaultProvider().GetLogger()
}

// GetLoggerWithName returns a logger tagged with a component name.
//
// Example:
//
//	logger := log.GetLoggerWithName("plda").With(
//	    log.ModelNameKey, "PLDA",
//	)
func GetLoggerWithName(name string) Logger {
	return getDefaultProvider().GetLoggerWithName(name)
}
