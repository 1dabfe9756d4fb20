package funcpipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Sentinel errors for misuse of the pipe surface. They are wrapped with
// additional context when surfaced, so match them with errors.Is.
var (
	// ErrNotCallable is returned when a value that is not a function is
	// given to New, To, or any other place expecting a callable.
	ErrNotCallable = errors.New("value is not callable")

	// ErrMixedBundle is returned when a pre-built *Args bundle is passed
	// together with additional arguments. A bundle must travel alone.
	ErrMixedBundle = errors.New("argument bundle must be passed on its own")

	// ErrKeywordValues is returned when positional destructuring is
	// attempted on a bundle that carries keyword values, or when keyword
	// values reach a target that cannot bind them.
	ErrKeywordValues = errors.New("bundle carries keyword values")

	// ErrRepeatedIndex is returned by a transposed pipe when the same
	// target index was requested more than once.
	ErrRepeatedIndex = errors.New("repeated transpose index")

	// ErrIndexRange is returned by a transposed pipe when a requested
	// index falls outside [-n, n) for the call's argument count n.
	ErrIndexRange = errors.New("transpose index out of range")

	// ErrIndexGap is returned by a transposed pipe when the reassigned
	// target positions do not form a contiguous 0-based range.
	ErrIndexGap = errors.New("transpose leaves a gap in target positions")
)

// Error provides rich context about a failed pipe application. It wraps the
// underlying error with the path of pipes the call traveled through, the
// arguments being applied, and timing information. The underlying error is
// preserved unchanged and reachable via errors.Is/As.
type Error struct {
	InputArgs []any
	Timestamp time.Time
	Err       error
	Path      []Name
	Duration  time.Duration
	Timeout   bool
	Canceled  bool
}

// Error implements the error interface, providing a detailed error message.
func (e *Error) Error() string {
	location := "pipe"
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, name := range e.Path {
			parts[i] = string(name)
		}
		location = fmt.Sprintf("pipe %q", strings.Join(parts, " -> "))
	}

	if e.Timeout {
		return fmt.Sprintf("%s timed out after %v: %v", location, e.Duration, e.Err)
	}
	if e.Canceled {
		return fmt.Sprintf("%s canceled after %v: %v", location, e.Duration, e.Err)
	}
	return fmt.Sprintf("%s failed after %v: %v", location, e.Duration, e.Err)
}

// Unwrap returns the underlying error, supporting error wrapping patterns.
func (e *Error) Unwrap() error {
	return e.Err
}

// IsTimeout returns true if the error was caused by a timeout.
func (e *Error) IsTimeout() bool {
	return e.Timeout || errors.Is(e.Err, context.DeadlineExceeded)
}

// IsCanceled returns true if the error was caused by cancellation.
func (e *Error) IsCanceled() bool {
	return e.Canceled || errors.Is(e.Err, context.Canceled)
}

// recoverFromPanic converts a panic inside a wrapped function into an *Error
// so a misbehaving callable cannot take down the whole pipeline.
func recoverFromPanic(result *any, err *error, name Name, args []any) {
	if r := recover(); r != nil {
		*result = nil
		*err = &Error{
			Path:      []Name{name},
			InputArgs: args,
			Err:       fmt.Errorf("panic: %v", r),
			Timestamp: time.Now(),
		}
	}
}
