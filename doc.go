// Package waiter polls an operation until a remote resource reaches a
// desired state.
//
// waiter replaces ad-hoc sleep/retry loops around eventually-consistent
// systems by:
//
//   - Acceptors: ordered predicates decide success, retry, or failure
//   - Dual Execution: one decision engine behind blocking and async modes
//   - Attempt Budgets: a hard cap on polling attempts, with backoff between
//   - Lifecycle Hooks: OnAttempt, OnRetry, OnSuccess, OnFailure for observability
//   - Composable Backoff: constant, linear, exponential, jitter, caps
//
// # Quick Start
//
// Create a waiter and poll until the resource reports ready:
//
//	w, err := waiter.New[string]("table-ready",
//	    waiter.WithStrategy[string](waiter.Strategy{
//	        MaxAttempts: 20,
//	        Backoff:     waiter.Exponential(200 * time.Millisecond),
//	    }),
//	    waiter.WithAcceptor(waiter.SuccessWhen(func(s string) bool {
//	        return s == "ACTIVE"
//	    })),
//	)
//	if err != nil {
//	    return err
//	}
//
//	resp, err := w.Run(ctx, func(ctx context.Context) (string, error) {
//	    return client.TableStatus(ctx, name)
//	})
//	if err != nil {
//	    return err
//	}
//	status, _ := resp.Value()
//
// For one-off waits, the package-level Run builds the waiter inline:
//
//	resp, err := waiter.Run(ctx, pollFn,
//	    waiter.WithStrategy[string](waiter.Strategy{MaxAttempts: 5, Backoff: waiter.Constant(time.Second)}),
//	    waiter.WithAcceptor(waiter.SuccessWhen(isReady)),
//	)
//
// # Acceptors
//
// An acceptor pairs a predicate with a target state. Value acceptors
// examine successful outcomes, error acceptors examine failures; the
// two never cross:
//
//	waiter.SuccessWhen(pred)      // value matches   -> success
//	waiter.RetryWhen(pred)        // value matches   -> retry
//	waiter.FailWhen(pred)         // value matches   -> failure
//	waiter.SuccessOnError(pred)   // failure matches -> success
//	waiter.RetryOnError(pred)     // failure matches -> retry
//	waiter.FailOnError(pred)      // failure matches -> failure
//
// Order is significant. Acceptors are evaluated in the order configured
// and the first match decides, regardless of what later acceptors would
// have said. Put the most specific rules first:
//
//	waiter.WithAcceptors(
//	    waiter.FailWhen(func(s string) bool { return s == "DELETING" }),
//	    waiter.SuccessWhen(func(s string) bool { return s != "" }),
//	)
//
// # Decision Rules
//
// When no acceptor matches, the engine applies two defaults:
//
//	Unmatched value:   retry (the resource is presumed in transition)
//	Unmatched failure: fatal (ErrUnmatched)
//
// The asymmetry is intentional. An unknown status is the normal shape
// of an in-progress transition; an unknown error is not, and retrying
// it would hide real faults. Declare the failures you expect with
// RetryOnError or SuccessOnError.
//
// A success acceptor may match a failure. The response then carries
// that failure as its payload, which is how "gone means done" waits are
// written:
//
//	w, _ := waiter.New[struct{}]("table-deleted",
//	    waiter.WithStrategy[struct{}](strategy),
//	    waiter.WithAcceptor(waiter.SuccessOnError[struct{}](waiter.ErrIs(ErrNotFound))),
//	)
//
// # Polling Strategy
//
// Every waiter needs a Strategy: the attempt limit and the backoff.
// There are no defaults; New fails with ErrNoStrategy without them.
// MaxAttempts counts operation invocations, so MaxAttempts 5 polls at
// most five times with four waits between.
//
// # Backoff
//
// Backoffs compose:
//
//	waiter.None()
//	waiter.Constant(2 * time.Second)
//	waiter.Linear(500 * time.Millisecond)
//	waiter.Exponential(200 * time.Millisecond)
//
//	waiter.WithCap(waiter.Exponential(200*time.Millisecond), 10*time.Second)
//	waiter.WithJitter(b, 0.2)
//	waiter.WithMin(b, 100*time.Millisecond)
//
// Delay receives the 1-based number of attempts already completed.
// BackoffFunc adapts any function:
//
//	fib := waiter.BackoffFunc(func(attempt int) time.Duration {
//	    return fibonacci(attempt) * time.Second
//	})
//
// # Asynchronous Execution
//
// RunAsync never blocks the caller. Attempts are chained through a
// scheduler instead of sleeping, and the result arrives on a handle:
//
//	h := w.RunAsync(ctx, waiter.Async(pollFn))
//
//	select {
//	case <-h.Done():
//	    resp, err := h.Wait(ctx)
//	case <-other:
//	}
//
// Async adapts a blocking poll; operations that are naturally
// future-shaped implement AsyncOperation directly by returning a
// buffered channel that delivers exactly one Outcome.
//
// Run and RunAsync share one decision engine. For the same acceptors,
// strategy, and outcome sequence they produce the same terminal result
// and the same attempt count.
//
// # Cancellation
//
// Blocking Run is cancelled through its context: a cancelled backoff
// sleep fails the call with ErrInterrupted wrapping the context error.
//
// RunAsync is cancelled through its context or h.Cancel. No further
// attempt is scheduled, a pending scheduled attempt is stopped, and the
// handle completes with the context error itself; there is no
// interrupted kind in async mode because nothing sleeps. A handle
// completes exactly once, so an attempt result racing a cancellation is
// discarded.
//
// # Errors
//
// Terminal failures are *Error values matched by sentinel:
//
//	errors.Is(err, waiter.ErrFailureState)  // an acceptor said failure
//	errors.Is(err, waiter.ErrUnmatched)     // unexpected operation failure
//	waiter.IsExhausted(err)                 // attempt budget spent
//	errors.Is(err, waiter.ErrInterrupted)   // backoff sleep cancelled
//
// The *Error carries Attempts and the Cause, and unwraps to it:
//
//	var werr *waiter.Error
//	if errors.As(err, &werr) {
//	    log.Printf("gave up after %d attempts: %v", werr.Attempts, werr.Cause)
//	}
//
// # Lifecycle Hooks
//
// Hooks observe an execution without coupling the engine to a logger or
// metrics system. They accumulate, so several observers can coexist:
//
//	w, _ := waiter.New[string]("upload",
//	    waiter.WithStrategy[string](strategy),
//	    waiter.WithAcceptor(waiter.SuccessWhen(done)),
//	    waiter.OnRetry[string](func(ctx context.Context, attempt int, delay time.Duration) {
//	        log.Printf("attempt %d not ready, next in %s", attempt, delay)
//	    }),
//	    waiter.OnFailure[string](func(ctx context.Context, attempts int, err error) {
//	        metrics.Increment("upload.wait_failed")
//	    }),
//	)
//
// Hooks fire at the same points in both execution modes.
//
// # Testing
//
// Inject a fake clock to test blocking waits without real sleeps:
//
//	type fakeClock struct {
//	    now    time.Time
//	    sleeps []time.Duration
//	}
//
//	func (c *fakeClock) Now() time.Time { return c.now }
//	func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
//	    c.sleeps = append(c.sleeps, d)
//	    c.now = c.now.Add(d)
//	    return nil
//	}
//
//	w, _ := waiter.New[string]("test",
//	    waiter.WithStrategy[string](waiter.Strategy{MaxAttempts: 5, Backoff: waiter.Constant(time.Second)}),
//	    waiter.WithAcceptor(waiter.SuccessWhen(isReady)),
//	    waiter.WithClock[string](clock),
//	)
//
// Inject a Scheduler that runs callbacks inline to drive RunAsync
// deterministically.
//
// # Best Practices
//
// 1. Name waiters after the condition they wait for:
//
//	waiter.New[Status]("db-migrated", ...)
//	waiter.New[string]("cert-issued", ...)
//
// 2. Keep operations cheap and idempotent; the budget is attempts, not
// time. Pair a generous MaxAttempts with a capped exponential backoff:
//
//	waiter.WithCap(waiter.Exponential(200*time.Millisecond), 15*time.Second)
//
// 3. Declare expected failures instead of retrying everything:
//
//	waiter.RetryOnError[T](waiter.ErrIs(ErrThrottled))
//
// 4. Add jitter when many processes wait on the same resource.
//
// # Comparison to Other Patterns
//
// Waiter vs retry:
//
//   - Retry: repeats a failing call until it succeeds
//   - Waiter: repeats a succeeding call until its result is acceptable
//
// Waiter vs circuit breaker:
//
//   - Circuit breaker: stops calling a faulty dependency
//   - Waiter: keeps calling until a state transition completes
//
// They compose: wrap the polling operation in a breaker to bound load
// on the polled system, and a waiter around the pair to bound the wait.
package waiter
