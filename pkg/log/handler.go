package log

import (
	"context"
	"log/slog"

	"github.com/cockroachdb/errors"
)

// ErrFmtHandler decorates a slog handler: when a record carries an error
// attribute (see ErrAttr), the error's cockroachdb/errors stacktrace is
// attached to the record under StacktraceAttrKey before delegation.
type ErrFmtHandler struct {
	handler slog.Handler
}

// WrapByErrFmtHandler wraps handler with stacktrace extraction.
func WrapByErrFmtHandler(handler slog.Handler) slog.Handler {
	return &ErrFmtHandler{handler: handler}
}

func (eh *ErrFmtHandler) Enabled(ctx context.Context, l slog.Level) bool {
	return eh.handler.Enabled(ctx, l)
}

func (eh *ErrFmtHandler) Handle(ctx context.Context, r slog.Record) error {
	if st := stacktraceOf(r); st != "" {
		r.AddAttrs(slog.String(StacktraceAttrKey, st))
	}
	return eh.handler.Handle(ctx, r)
}

func (eh *ErrFmtHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithAttrs(attrs)}
}

func (eh *ErrFmtHandler) WithGroup(g string) slog.Handler {
	return &ErrFmtHandler{handler: eh.handler.WithGroup(g)}
}

// stacktraceOf scans the record for the error attribute and pulls the
// stacktrace out of the error's safe details, when it has any.
func stacktraceOf(r slog.Record) string {
	var stacktrace string
	r.Attrs(func(attr slog.Attr) bool {
		if attr.Key != ErrAttrKey {
			return true
		}
		if err, ok := attr.Value.Any().(error); ok {
			details := errors.GetSafeDetails(err).SafeDetails
			if len(details) > 0 {
				stacktrace = details[0]
			}
		}
		return false
	})
	return stacktrace
}
