package waiter_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bjaus/waiter"
)

// TestSyncAsyncEquivalence drives identical outcome scripts through Run
// and RunAsync and requires identical verdicts from both: same value,
// same error shape, same attempt count, same number of operation calls.
func TestSyncAsyncEquivalence(t *testing.T) {
	type result struct {
		value    string
		hasValue bool
		respErr  error
		attempts int
		err      error
		calls    int
	}

	capture := func(resp waiter.Response[string], err error, calls int) result {
		v, ok := resp.Value()
		return result{
			value:    v,
			hasValue: ok,
			respErr:  resp.Err(),
			attempts: resp.Attempts(),
			err:      err,
			calls:    calls,
		}
	}

	ready := waiter.SuccessWhen(func(v string) bool { return v == "ready" })
	broken := waiter.FailWhen(func(v string) bool { return v == "error" })
	transient := waiter.RetryOnError[string](waiter.ErrIs(errTest))
	gone := waiter.SuccessOnError[string](waiter.ErrIs(errGone))

	cases := map[string]struct {
		acceptors   []waiter.Acceptor[string]
		maxAttempts int
		steps       []step
	}{
		"success on first attempt": {
			acceptors:   []waiter.Acceptor[string]{ready},
			maxAttempts: 3,
			steps:       []step{{value: "ready"}},
		},
		"success after retries": {
			acceptors:   []waiter.Acceptor[string]{ready},
			maxAttempts: 5,
			steps:       []step{{value: "pending"}, {value: "pending"}, {value: "ready"}},
		},
		"failure acceptor is terminal": {
			acceptors:   []waiter.Acceptor[string]{ready, broken},
			maxAttempts: 5,
			steps:       []step{{value: "pending"}, {value: "error"}},
		},
		"unmatched value exhausts budget": {
			acceptors:   []waiter.Acceptor[string]{ready},
			maxAttempts: 3,
			steps:       []step{{value: "pending"}},
		},
		"unmatched failure is fatal": {
			acceptors:   []waiter.Acceptor[string]{ready},
			maxAttempts: 5,
			steps:       []step{{err: errTest}},
		},
		"retry on declared error then success": {
			acceptors:   []waiter.Acceptor[string]{ready, transient},
			maxAttempts: 5,
			steps:       []step{{err: errTest}, {value: "ready"}},
		},
		"success carries matched failure": {
			acceptors:   []waiter.Acceptor[string]{gone},
			maxAttempts: 3,
			steps:       []step{{err: errGone}},
		},
		"exhaustion keeps last error": {
			acceptors:   []waiter.Acceptor[string]{ready, transient},
			maxAttempts: 2,
			steps:       []step{{value: "pending"}, {err: errTest}},
		},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			strategy := waiter.Strategy{
				MaxAttempts: tc.maxAttempts,
				Backoff:     waiter.Constant(time.Second),
			}

			syncScript := newScript(tc.steps...)
			sw, err := waiter.New[string]("test",
				waiter.WithStrategy[string](strategy),
				waiter.WithAcceptors(tc.acceptors...),
				waiter.WithClock[string](newFakeClock()),
			)
			require.NoError(t, err)

			resp, runErr := sw.Run(context.Background(), syncScript.op)
			syncRes := capture(resp, runErr, syncScript.calls)

			asyncScript := newScript(tc.steps...)
			aw, err := waiter.New[string]("test",
				waiter.WithStrategy[string](strategy),
				waiter.WithAcceptors(tc.acceptors...),
				waiter.WithScheduler[string](&inlineScheduler{}),
			)
			require.NoError(t, err)

			h := aw.RunAsync(context.Background(), waiter.Async(asyncScript.op))
			resp, runErr = h.Wait(context.Background())
			asyncRes := capture(resp, runErr, asyncScript.calls)

			require.Equal(t, syncRes, asyncRes)
		})
	}
}
