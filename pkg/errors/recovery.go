package errors

import (
	"fmt"
	"runtime/debug"
)

// PanicError is the error produced when a recovered panic is converted at a
// public boundary. gonum's mat package panics on shape violations, so the
// estimator's entry points recover and hand callers a regular error that
// carries the panic value and the goroutine stack captured at recovery time.
type PanicError struct {
	// PanicValue is the value originally passed to panic.
	PanicValue any

	// StackTrace is the goroutine stack captured when the panic was recovered.
	StackTrace string

	// Operation names the boundary that recovered the panic.
	Operation string
}

// NewPanicError converts a recovered panic value into a PanicError,
// capturing the current goroutine stack.
func NewPanicError(operation string, panicValue any) *PanicError {
	return &PanicError{
		PanicValue: panicValue,
		StackTrace: string(debug.Stack()),
		Operation:  operation,
	}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic in %s: %v", e.Operation, e.PanicValue)
}

// Unwrap returns nil. A panic has no underlying error to expose.
func (e *PanicError) Unwrap() error { return nil }

// String renders the error together with the captured stack trace.
func (e *PanicError) String() string {
	return fmt.Sprintf("panic in %s: %v\nStack trace:\n%s",
		e.Operation, e.PanicValue, e.StackTrace)
}

// Recover converts an in-flight panic into an error assigned through err.
// Defer it in functions whose body calls panicking linear algebra:
//
//	func (CholeskySolver) SolveSymDefinite(sb, sw mat.Symmetric) (values []float64, w *mat.Dense, err error) {
//	    defer errors.Recover(&err, "CholeskySolver.SolveSymDefinite")
//	    ...
//	}
//
// If the function had already assigned an error before panicking, the panic
// message wraps it so both remain visible and errors.Is still reaches the
// original.
func Recover(err *error, operation string) {
	r := recover()
	if r == nil {
		return
	}
	if *err != nil {
		*err = fmt.Errorf("panic in %s: %v (original error: %w)", operation, r, *err)
		return
	}
	*err = NewPanicError(operation, r)
}

// SafeExecute runs fn with panic recovery. It returns fn's error, a
// PanicError if fn panicked, or nil.
func SafeExecute(operation string, fn func() error) (err error) {
	defer Recover(&err, operation)
	return fn()
}
