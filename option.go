package waiter

type config[T any] struct {
	strategy  Strategy
	acceptors []Acceptor[T]
	scheduler Scheduler
	clock     Clock

	onAttempt []OnAttemptFunc
	onRetry   []OnRetryFunc
	onSuccess []OnSuccessFunc
	onFailure []OnFailureFunc
}

// Option configures a Waiter.
type Option[T any] func(*config[T])

// WithStrategy sets the polling strategy. Required: a waiter needs both
// an attempt limit and a backoff.
func WithStrategy[T any](s Strategy) Option[T] {
	return func(c *config[T]) {
		c.strategy = s
	}
}

// WithAcceptors replaces the acceptor list. Order is significant: the
// first matching acceptor decides.
func WithAcceptors[T any](acceptors ...Acceptor[T]) Option[T] {
	return func(c *config[T]) {
		c.acceptors = append([]Acceptor[T](nil), acceptors...)
	}
}

// WithAcceptor appends one acceptor to the list.
func WithAcceptor[T any](a Acceptor[T]) Option[T] {
	return func(c *config[T]) {
		c.acceptors = append(c.acceptors, a)
	}
}

// WithScheduler sets the scheduler used by RunAsync. The default
// schedules on the runtime timer.
func WithScheduler[T any](s Scheduler) Option[T] {
	return func(c *config[T]) {
		c.scheduler = s
	}
}

// WithClock sets the clock for time operations. Useful for testing.
func WithClock[T any](clock Clock) Option[T] {
	return func(c *config[T]) {
		c.clock = clock
	}
}

// OnAttempt adds a hook called before each polling attempt.
func OnAttempt[T any](fn OnAttemptFunc) Option[T] {
	return func(c *config[T]) {
		c.onAttempt = append(c.onAttempt, fn)
	}
}

// OnRetry adds a hook called after each retry decision, before the
// wait.
func OnRetry[T any](fn OnRetryFunc) Option[T] {
	return func(c *config[T]) {
		c.onRetry = append(c.onRetry, fn)
	}
}

// OnSuccess adds a hook called once when an execution succeeds.
func OnSuccess[T any](fn OnSuccessFunc) Option[T] {
	return func(c *config[T]) {
		c.onSuccess = append(c.onSuccess, fn)
	}
}

// OnFailure adds a hook called once when an execution fails.
func OnFailure[T any](fn OnFailureFunc) Option[T] {
	return func(c *config[T]) {
		c.onFailure = append(c.onFailure, fn)
	}
}
