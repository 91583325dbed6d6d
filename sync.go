package waiter

import "context"

// Run polls op on the calling goroutine until an acceptor decides the
// outcome, the attempt limit is reached, or ctx is cancelled during a
// backoff wait. Each call gets its own attempt counter; a Waiter may
// run any number of executions concurrently.
func (w *Waiter[T]) Run(ctx context.Context, op Operation[T]) (Response[T], error) {
	for attempt := 1; ; attempt++ {
		w.fireAttempt(ctx, attempt)

		value, err := op(ctx)

		v := w.step(outcome[T]{value: value, err: err}, attempt)
		if v.terminal {
			if v.err != nil {
				w.fireFailure(ctx, attempt, v.err)
				return Response[T]{}, v.err
			}
			w.fireSuccess(ctx, attempt)
			return v.resp, nil
		}

		w.fireRetry(ctx, attempt, v.delay)

		if err := w.cfg.clock.Sleep(ctx, v.delay); err != nil {
			werr := &Error{kind: ErrInterrupted, Attempts: attempt, Cause: err}
			w.fireFailure(ctx, attempt, werr)
			return Response[T]{}, werr
		}
	}
}
