package waiter

// Response is the terminal result of a successful execution. It carries
// exactly one of a value or a failure payload: which one depends on the
// outcome the matching success acceptor examined.
type Response[T any] struct {
	value    T
	hasValue bool
	err      error
	attempts int
}

func valueResponse[T any](v T, attempts int) Response[T] {
	return Response[T]{value: v, hasValue: true, attempts: attempts}
}

func errResponse[T any](err error, attempts int) Response[T] {
	return Response[T]{err: err, attempts: attempts}
}

// Value returns the success value, if the response carries one.
func (r Response[T]) Value() (T, bool) {
	return r.value, r.hasValue
}

// Err returns the failure payload for a success matched on an operation
// failure, or nil when the response carries a value.
func (r Response[T]) Err() error {
	return r.err
}

// Attempts returns the number of operation invocations made, counting
// from one.
func (r Response[T]) Attempts() int {
	return r.attempts
}
