package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

// TestLogger is an in-memory Logger for tests. Every record is appended to
// a shared buffer as one JSON object per line with "level" and "message"
// keys plus the merged structured fields, so assertions can parse entries
// back instead of string-matching formatted output.
//
// Loggers derived via With share the parent's buffer and mutex, so a test
// holding the root buffer sees the records of every descendant, and
// concurrent writers never interleave. Typical use:
//
//	logger, _ := log.NewTestLogger(log.LevelDebug)
//	fit(logger)
//	if !logger.ContainsField(log.SamplesKey, float64(150)) {
//	    t.Error("sample count not logged")
//	}
//
// json.Unmarshal decodes every JSON number into float64, so numeric field
// assertions must compare against float64 values.
type TestLogger struct {
	level  Level
	fields map[string]any
	buf    *bytes.Buffer
	mu     *sync.Mutex
}

var _ Logger = (*TestLogger)(nil)

// NewTestLogger returns a TestLogger that records everything at or above
// level, along with the buffer holding the captured JSON lines.
func NewTestLogger(level Level) (*TestLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &TestLogger{
		level:  level,
		fields: make(map[string]any),
		buf:    buf,
		mu:     &sync.Mutex{},
	}, buf
}

// Debug implements Logger.Debug.
func (t *TestLogger) Debug(msg string, fields ...any) { t.emit(LevelDebug, msg, fields) }

// Info implements Logger.Info.
func (t *TestLogger) Info(msg string, fields ...any) { t.emit(LevelInfo, msg, fields) }

// Warn implements Logger.Warn.
func (t *TestLogger) Warn(msg string, fields ...any) { t.emit(LevelWarn, msg, fields) }

// Error implements Logger.Error.
func (t *TestLogger) Error(msg string, fields ...any) { t.emit(LevelError, msg, fields) }

// With returns a derived logger whose records carry the given fields in
// addition to the parent's. It writes into the same buffer under the same
// lock, so captured output stays ordered across the whole logger family.
func (t *TestLogger) With(fields ...any) Logger {
	child := &TestLogger{
		level:  t.level,
		fields: make(map[string]any, len(t.fields)+len(fields)/2),
		buf:    t.buf,
		mu:     t.mu,
	}
	for k, v := range t.fields {
		child.fields[k] = v
	}
	mergePairs(child.fields, fields)
	return child
}

// Enabled implements Logger.Enabled.
func (t *TestLogger) Enabled(_ context.Context, level Level) bool {
	return t.level <= level
}

// emit drops records below the configured level, otherwise encodes the
// entry and appends it to the shared buffer as a single JSON line.
func (t *TestLogger) emit(level Level, msg string, fields []any) {
	if t.level > level {
		return
	}

	entry := make(map[string]any, len(t.fields)+len(fields)/2+2)
	entry["level"] = level.String()
	entry["message"] = msg
	for k, v := range t.fields {
		entry[k] = v
	}
	mergePairs(entry, fields)

	line, err := json.Marshal(entry)
	if err != nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Write(line)
	t.buf.WriteByte('\n')
}

// mergePairs folds variadic key/value pairs into dst. Non-string keys are
// stringified the same way the zerolog backend does, a trailing key with
// no value is dropped, and error values are stored as their message so
// every entry stays JSON-encodable.
func mergePairs(dst map[string]any, pairs []any) {
	for i := 0; i+1 < len(pairs); i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", pairs[i])
		}
		if err, ok := pairs[i+1].(error); ok {
			dst[key] = err.Error()
			continue
		}
		dst[key] = pairs[i+1]
	}
}

// GetLogEntries parses the captured buffer back into one map per record.
// It fails if any line is not valid JSON, which would mean the capture
// format itself is broken.
func (t *TestLogger) GetLogEntries() ([]map[string]any, error) {
	t.mu.Lock()
	raw := t.buf.String()
	t.mu.Unlock()

	var entries []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(raw), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ContainsMessage reports whether msg occurs anywhere in the captured
// output. It is a raw substring match, so it also hits field values.
func (t *TestLogger) ContainsMessage(msg string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return strings.Contains(t.buf.String(), msg)
}

// ContainsField reports whether any captured record carries the field key
// with exactly the given value. Numbers come back from JSON as float64.
func (t *TestLogger) ContainsField(key string, value any) bool {
	entries, err := t.GetLogEntries()
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if v, ok := entry[key]; ok && v == value {
			return true
		}
	}
	return false
}

// Clear discards everything captured so far.
func (t *TestLogger) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf.Reset()
}

// TestLoggerProvider is a LoggerProvider backed by a single TestLogger, so
// code that resolves its logger through SetDefaultProvider can have its
// output captured and inspected by tests.
type TestLoggerProvider struct {
	logger *TestLogger
}

var _ LoggerProvider = (*TestLoggerProvider)(nil)

// NewTestLoggerProvider returns a provider recording at the given level
// and the buffer its loggers write into.
func NewTestLoggerProvider(level Level) (*TestLoggerProvider, *bytes.Buffer) {
	logger, buf := NewTestLogger(level)
	return &TestLoggerProvider{logger: logger}, buf
}

// GetLogger implements LoggerProvider.GetLogger.
func (p *TestLoggerProvider) GetLogger() Logger {
	return p.logger
}

// GetLoggerWithName implements LoggerProvider.GetLoggerWithName. The name
// is attached under ComponentKey, mirroring the zerolog provider.
func (p *TestLoggerProvider) GetLoggerWithName(name string) Logger {
	return p.logger.With(ComponentKey, name)
}

// SetLevel implements LoggerProvider.SetLevel. Loggers already derived
// with With keep the level they were created with.
func (p *TestLoggerProvider) SetLevel(level Level) {
	p.logger.level = level
}
