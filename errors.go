package waiter

import (
	"errors"
	"fmt"
)

// Sentinel errors for the terminal failure kinds. Match them with
// errors.Is; the returned error is an *Error carrying the attempt count
// and the underlying cause.
var (
	// ErrNoStrategy is returned by New when the polling strategy is
	// absent or incomplete.
	ErrNoStrategy = errors.New("no polling strategy")

	// ErrFailureState is reported when an acceptor matched an outcome
	// and targeted the failure state.
	ErrFailureState = errors.New("transitioned to failure state")

	// ErrUnmatched is reported when the operation failed and no
	// acceptor matched that failure.
	ErrUnmatched = errors.New("failure did not match any acceptor")

	// ErrExhausted is reported when the attempt limit is reached
	// without a terminal decision.
	ErrExhausted = errors.New("exceeded max retry attempts")

	// ErrInterrupted is reported when the backoff sleep of a blocking
	// Run is cancelled. The context error is the cause.
	ErrInterrupted = errors.New("interrupted while waiting")
)

// IsExhausted reports whether err is because the attempt limit was
// reached.
func IsExhausted(err error) bool {
	return errors.Is(err, ErrExhausted)
}

// Error is the terminal failure of an execution. Attempts is the number
// of operation invocations made; Cause is the outcome error that
// triggered the failure, if any.
type Error struct {
	Attempts int
	Cause    error

	kind error
}

// Error returns the failure kind, attempt count and cause.
func (e *Error) Error() string {
	s := fmt.Sprintf("waiter: %v (attempts: %d)", e.kind, e.Attempts)
	if e.Cause != nil {
		s += ": " + e.Cause.Error()
	}
	return s
}

// Is matches the failure-kind sentinels.
func (e *Error) Is(target error) bool {
	return target == e.kind
}

// Unwrap exposes the cause, so errors.Is also reaches the operation
// error and, for ErrInterrupted, the context error.
func (e *Error) Unwrap() error {
	return e.Cause
}
