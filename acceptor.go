package waiter

import "errors"

// Acceptor pairs a predicate with a target state. A value acceptor only
// examines successful outcomes; an error acceptor only examines failed
// ones. Acceptors are immutable and evaluated in the order configured.
type Acceptor[T any] struct {
	state   State
	onValue func(T) bool
	onError func(error) bool
}

// SuccessWhen accepts a value matching pred as terminal success.
func SuccessWhen[T any](pred func(T) bool) Acceptor[T] {
	return Acceptor[T]{state: Success, onValue: pred}
}

// RetryWhen marks a value matching pred for another attempt. Unmatched
// values retry anyway; use it to pre-empt a later acceptor.
func RetryWhen[T any](pred func(T) bool) Acceptor[T] {
	return Acceptor[T]{state: Retry, onValue: pred}
}

// FailWhen rejects a value matching pred as terminal failure.
func FailWhen[T any](pred func(T) bool) Acceptor[T] {
	return Acceptor[T]{state: Failure, onValue: pred}
}

// SuccessOnError accepts an operation failure matching pred as terminal
// success. The response then carries the failure as its payload.
func SuccessOnError[T any](pred func(error) bool) Acceptor[T] {
	return Acceptor[T]{state: Success, onError: pred}
}

// RetryOnError marks an operation failure matching pred for another
// attempt. Failures no error acceptor claims are fatal.
func RetryOnError[T any](pred func(error) bool) Acceptor[T] {
	return Acceptor[T]{state: Retry, onError: pred}
}

// FailOnError rejects an operation failure matching pred as terminal
// failure.
func FailOnError[T any](pred func(error) bool) Acceptor[T] {
	return Acceptor[T]{state: Failure, onError: pred}
}

// matches reports whether the acceptor claims the outcome. The matcher
// kind must line up with the outcome side.
func (a Acceptor[T]) matches(o outcome[T]) bool {
	if o.failed() {
		return a.onError != nil && a.onError(o.err)
	}
	return a.onValue != nil && a.onValue(o.value)
}

// decide scans the acceptors in insertion order and returns the target
// state of the first match. First match wins: it is a precedence rule,
// not a best-match rule. The second result is false when nothing
// matched.
func decide[T any](acceptors []Acceptor[T], o outcome[T]) (State, bool) {
	for _, a := range acceptors {
		if a.matches(o) {
			return a.state, true
		}
	}
	return 0, false
}

// Not inverts a predicate.
func Not[T any](pred func(T) bool) func(T) bool {
	return func(v T) bool {
		return !pred(v)
	}
}

// ErrIs builds an error predicate from a target error, for use with the
// error acceptors.
func ErrIs(target error) func(error) bool {
	return func(err error) bool {
		return errors.Is(err, target)
	}
}
