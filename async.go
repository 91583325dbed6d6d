package waiter

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// Outcome is the delivered result of one asynchronous polling attempt.
type Outcome[T any] struct {
	Value T
	Err   error
}

// AsyncOperation is the non-blocking form of a polling call: it returns
// immediately with a channel that delivers exactly one Outcome. The
// channel should be buffered so the producer never blocks.
type AsyncOperation[T any] func(ctx context.Context) <-chan Outcome[T]

// Async adapts a blocking Operation for RunAsync by invoking it on its
// own goroutine.
func Async[T any](op Operation[T]) AsyncOperation[T] {
	return func(ctx context.Context) <-chan Outcome[T] {
		ch := make(chan Outcome[T], 1)
		go func() {
			v, err := op(ctx)
			ch <- Outcome[T]{Value: v, Err: err}
		}()
		return ch
	}
}

var errNoOutcome = errors.New("operation channel closed without an outcome")

// Handle is the result of RunAsync. It completes exactly once.
type Handle[T any] struct {
	done   chan struct{}
	once   sync.Once
	cancel context.CancelFunc

	mu        sync.Mutex
	pending   func() bool
	completed bool

	resp Response[T]
	err  error
}

// Done is closed when the execution has completed.
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the execution completes or ctx is done. A completed
// handle wins over an expired ctx when both are ready.
func (h *Handle[T]) Wait(ctx context.Context) (Response[T], error) {
	select {
	case <-h.done:
		return h.resp, h.err
	default:
	}
	select {
	case <-h.done:
		return h.resp, h.err
	case <-ctx.Done():
		return Response[T]{}, ctx.Err()
	}
}

// Cancel abandons the execution. No further attempt is scheduled, a
// pending scheduled attempt is stopped, and the handle completes with
// the context error. Cancel after completion is a no-op.
func (h *Handle[T]) Cancel() {
	h.cancel()
}

// complete records the terminal result. Only the first caller wins.
// The winner's hooks run before done closes, so observers are never
// behind a caller unblocked by Wait.
func (h *Handle[T]) complete(resp Response[T], err error, hooks func()) bool {
	won := false
	h.once.Do(func() {
		h.mu.Lock()
		h.completed = true
		if h.pending != nil {
			h.pending()
			h.pending = nil
		}
		h.mu.Unlock()

		h.resp = resp
		h.err = err
		if hooks != nil {
			hooks()
		}
		close(h.done)
		won = true
	})
	if won {
		// Releases the execution context and, through the watcher,
		// any in-flight operation.
		h.cancel()
	}
	return won
}

// setPending records the stop function of the scheduled next attempt.
// It reports false when the handle already completed, in which case the
// caller must stop the timer itself.
func (h *Handle[T]) setPending(stop func() bool) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.completed {
		return false
	}
	h.pending = stop
	return true
}

// asyncRun owns the state of one RunAsync execution: the chain of
// attempt continuations and the attempt counter. Attempts are strictly
// sequential; the counter is atomic only so the cancellation watcher
// can read it.
type asyncRun[T any] struct {
	w        *Waiter[T]
	op       AsyncOperation[T]
	ctx      context.Context
	h        *Handle[T]
	attempts atomic.Int32
}

// RunAsync starts polling op through the scheduler and returns the
// result handle immediately. Decision semantics are identical to Run;
// only the waiting differs. Cancellation, via Cancel or ctx, completes
// the handle with the context error.
func (w *Waiter[T]) RunAsync(ctx context.Context, op AsyncOperation[T]) *Handle[T] {
	runCtx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{done: make(chan struct{}), cancel: cancel}
	x := &asyncRun[T]{w: w, op: op, ctx: runCtx, h: h}
	context.AfterFunc(runCtx, x.interrupted)
	x.attempt()
	return h
}

// attempt invokes the operation and hands its future to a continuation.
func (x *asyncRun[T]) attempt() {
	if x.ctx.Err() != nil {
		x.interrupted()
		return
	}
	n := int(x.attempts.Add(1))
	x.w.fireAttempt(x.ctx, n)
	ch := x.op(x.ctx)
	go x.await(ch, n)
}

// await is the continuation: it resolves the attempt's future against
// cancellation and advances the state machine.
func (x *asyncRun[T]) await(ch <-chan Outcome[T], attempt int) {
	select {
	case out, ok := <-ch:
		if !ok {
			out = Outcome[T]{Err: errNoOutcome}
		}
		x.advance(outcome[T]{value: out.Value, err: out.Err}, attempt)
	case <-x.ctx.Done():
		x.interrupted()
	}
}

// advance runs the shared verdict step and either completes the handle
// or schedules the next attempt.
func (x *asyncRun[T]) advance(o outcome[T], attempt int) {
	v := x.w.step(o, attempt)
	if v.terminal {
		if v.err != nil {
			x.h.complete(Response[T]{}, v.err, func() {
				x.w.fireFailure(x.ctx, attempt, v.err)
			})
			return
		}
		x.h.complete(v.resp, nil, func() {
			x.w.fireSuccess(x.ctx, attempt)
		})
		return
	}

	x.w.fireRetry(x.ctx, attempt, v.delay)

	if x.ctx.Err() != nil {
		x.interrupted()
		return
	}
	stop := x.w.cfg.scheduler.Schedule(v.delay, x.attempt)
	if !x.h.setPending(stop) {
		stop()
	}
}

// interrupted completes the handle with the context error. It runs from
// the cancellation watcher and from cancellation checks in the attempt
// chain; whichever gets there first wins.
func (x *asyncRun[T]) interrupted() {
	err := x.ctx.Err()
	x.h.complete(Response[T]{}, err, func() {
		x.w.fireFailure(x.ctx, int(x.attempts.Load()), err)
	})
}
