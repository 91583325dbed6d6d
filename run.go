package waiter

import "context"

// Run builds an ephemeral waiter from opts and polls op to completion.
// This is a convenience wrapper for one-off waits; construct a Waiter
// for anything reused.
func Run[T any](ctx context.Context, op Operation[T], opts ...Option[T]) (Response[T], error) {
	w, err := New("waiter", opts...)
	if err != nil {
		return Response[T]{}, err
	}
	return w.Run(ctx, op)
}
