package waiter

import (
	"context"
	"fmt"
	"time"
)

// State is the decision produced by evaluating one polling outcome
// against the acceptor list.
type State int

const (
	// Success stops the waiter and delivers the outcome as the result.
	Success State = iota

	// Retry schedules another polling attempt after the backoff delay.
	Retry

	// Failure stops the waiter and reports the outcome as a failure.
	Failure
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case Success:
		return "success"
	case Retry:
		return "retry"
	case Failure:
		return "failure"
	default:
		return "unknown"
	}
}

// Operation is the caller-supplied polling call. It is invoked once per
// attempt; a returned error is the failure side of the outcome.
type Operation[T any] func(ctx context.Context) (T, error)

// Strategy bundles the retry limit with a backoff algorithm. Both fields
// are required; New rejects a waiter without them.
type Strategy struct {
	MaxAttempts int
	Backoff     Backoff
}

// OnAttemptFunc is called before each polling attempt.
type OnAttemptFunc func(ctx context.Context, attempt int)

// OnRetryFunc is called after a retry decision, before the wait.
type OnRetryFunc func(ctx context.Context, attempt int, delay time.Duration)

// OnSuccessFunc is called once when an execution ends in success.
type OnSuccessFunc func(ctx context.Context, attempts int)

// OnFailureFunc is called once when an execution ends in failure.
type OnFailureFunc func(ctx context.Context, attempts int, err error)

// Waiter polls an operation until an acceptor decides the outcome.
// A Waiter holds no per-execution state: it is immutable after New and
// safe for any number of concurrent Run/RunAsync calls.
type Waiter[T any] struct {
	name string
	cfg  config[T]
}

// New creates a Waiter with the given options. It fails with
// ErrNoStrategy unless a complete polling strategy is configured.
// An empty acceptor list is legal: every outcome is then unmatched.
func New[T any](name string, opts ...Option[T]) (*Waiter[T], error) {
	cfg := config[T]{
		clock:     realClock{},
		scheduler: timerScheduler{},
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.strategy.MaxAttempts <= 0 || cfg.strategy.Backoff == nil {
		return nil, fmt.Errorf("waiter %q: %w", name, ErrNoStrategy)
	}
	return &Waiter[T]{name: name, cfg: cfg}, nil
}

// Name returns the waiter name.
func (w *Waiter[T]) Name() string {
	return w.name
}

// outcome is the tagged result of one polling attempt: a value or a
// failure, never both.
type outcome[T any] struct {
	value T
	err   error
}

func (o outcome[T]) failed() bool {
	return o.err != nil
}

// verdict is what one attempt resolves to: a terminal response, a
// terminal error, or a retry after delay.
type verdict[T any] struct {
	terminal bool
	resp     Response[T]
	err      error
	delay    time.Duration
}

// step maps an outcome to a verdict. Both executors route every attempt
// through this one function so their decision semantics cannot drift.
func (w *Waiter[T]) step(o outcome[T], attempt int) verdict[T] {
	state, matched := decide(w.cfg.acceptors, o)
	if matched {
		switch state {
		case Success:
			return verdict[T]{terminal: true, resp: w.response(o, attempt)}
		case Failure:
			return verdict[T]{terminal: true, err: &Error{kind: ErrFailureState, Attempts: attempt, Cause: o.err}}
		}
	} else if o.failed() {
		// An unexpected failure is fatal. Only failures an acceptor
		// claims are retried.
		return verdict[T]{terminal: true, err: &Error{kind: ErrUnmatched, Attempts: attempt, Cause: o.err}}
	}
	if attempt >= w.cfg.strategy.MaxAttempts {
		return verdict[T]{terminal: true, err: &Error{kind: ErrExhausted, Attempts: attempt, Cause: o.err}}
	}
	return verdict[T]{delay: w.nextDelay(attempt)}
}

// response builds the terminal response for a Success decision. A
// success matched on a failure outcome carries that failure as its
// payload, e.g. a not-found error confirming a deletion.
func (w *Waiter[T]) response(o outcome[T], attempt int) Response[T] {
	if o.failed() {
		return errResponse[T](o.err, attempt)
	}
	return valueResponse(o.value, attempt)
}

// nextDelay asks the backoff for the wait after the given attempt.
// Attempt numbers are 1-based counts of attempts already completed.
func (w *Waiter[T]) nextDelay(attempt int) time.Duration {
	d := w.cfg.strategy.Backoff.Delay(attempt)
	if d < 0 {
		return 0
	}
	return d
}

func (w *Waiter[T]) fireAttempt(ctx context.Context, attempt int) {
	for _, fn := range w.cfg.onAttempt {
		fn(ctx, attempt)
	}
}

func (w *Waiter[T]) fireRetry(ctx context.Context, attempt int, delay time.Duration) {
	for _, fn := range w.cfg.onRetry {
		fn(ctx, attempt, delay)
	}
}

func (w *Waiter[T]) fireSuccess(ctx context.Context, attempts int) {
	for _, fn := range w.cfg.onSuccess {
		fn(ctx, attempts)
	}
}

func (w *Waiter[T]) fireFailure(ctx context.Context, attempts int, err error) {
	for _, fn := range w.cfg.onFailure {
		fn(ctx, attempts, err)
	}
}
