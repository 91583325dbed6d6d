package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/waiter"
	"github.com/bjaus/waiter/internal/plan"
)

func writePlanFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "plan.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// reserveAddr returns an address with nothing listening on it.
func reserveAddr(t *testing.T) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())
	return addr
}

func TestFlagSettings_BuildsStrategy(t *testing.T) {
	maxAttempts = 4
	backoffName = "linear"
	backoffBase = "2s"
	backoffCap = "3s"
	t.Cleanup(func() {
		maxAttempts = 0
		backoffName = ""
		backoffBase = ""
		backoffCap = ""
	})

	strat, err := flagSettings().Strategy()
	require.NoError(t, err)
	assert.Equal(t, 4, strat.MaxAttempts)
	assert.Equal(t, 2*time.Second, strat.Backoff.Delay(1))
	assert.Equal(t, 3*time.Second, strat.Backoff.Delay(5))
}

func TestRunOne_SucceedsOnceOperationIsReady(t *testing.T) {
	settings := plan.Settings{MaxAttempts: 5, Backoff: plan.BackoffSpec{Type: "none"}}

	calls := 0
	op := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	accs := []waiter.Acceptor[int]{
		waiter.SuccessWhen(func(v int) bool { return v >= 3 }),
	}

	err := runOne(context.Background(), "stub", settings, op, accs)
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestRunOne_HonorsDeadline(t *testing.T) {
	settings := plan.Settings{
		MaxAttempts: 1000,
		Backoff:     plan.BackoffSpec{Type: "constant", Base: "20ms"},
		Timeout:     "50ms",
	}

	op := func(context.Context) (int, error) { return 0, nil }
	accs := []waiter.Acceptor[int]{
		waiter.SuccessWhen(func(v int) bool { return v == 1 }),
	}

	err := runOne(context.Background(), "stub", settings, op, accs)
	require.ErrorIs(t, err, waiter.ErrInterrupted)
}

func TestRunOne_RejectsBadStrategy(t *testing.T) {
	settings := plan.Settings{MaxAttempts: 3, Backoff: plan.BackoffSpec{Type: "quadratic"}}

	err := runOne(context.Background(), "stub", settings,
		func(context.Context) (int, error) { return 1, nil },
		[]waiter.Acceptor[int]{waiter.SuccessWhen(func(int) bool { return true })})
	require.ErrorContains(t, err, `unknown backoff type "quadratic"`)
}

func TestRunPlan_AllWaitsSatisfied(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			conn.Close()
		}
	}()

	path := writePlanFile(t, fmt.Sprintf(`
waits:
  - name: port
    type: tcp
    target: %s
    max_attempts: 5
    backoff: {type: none}
  - name: tool
    type: cmd
    target: "true"
    max_attempts: 1
    backoff: {type: none}
`, ln.Addr().String()))

	require.NoError(t, runPlan(nil, []string{path}))
}

func TestRunPlan_ReportsFailedWait(t *testing.T) {
	addr := reserveAddr(t)

	path := writePlanFile(t, fmt.Sprintf(`
waits:
  - name: port
    type: tcp
    target: %s
    max_attempts: 2
    backoff: {type: none}
`, addr))

	err := runPlan(nil, []string{path})
	require.ErrorContains(t, err, `wait "port"`)
	assert.True(t, waiter.IsExhausted(err))
}
