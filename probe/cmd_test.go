package probe

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/waiter"
)

func TestCommand_ZeroExit(t *testing.T) {
	res, err := Command("sh", "-c", "exit 0")(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, res.ExitCode)
}

func TestCommand_NonZeroExitIsAValue(t *testing.T) {
	res, err := Command("sh", "-c", "exit 7")(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, res.ExitCode)
}

func TestCommand_CapturesOutput(t *testing.T) {
	res, err := Command("sh", "-c", "echo ready; echo oops 1>&2")(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ready\n", res.Stdout)
	assert.Equal(t, "oops\n", res.Stderr)
}

func TestCommand_StartFailureIsFailure(t *testing.T) {
	_, err := Command(filepath.Join(t.TempDir(), "missing-binary"))(context.Background())
	require.Error(t, err)
}

func TestCommand_WaitsForCondition(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "ready")

	w, err := waiter.New[CmdResult]("marker",
		waiter.WithStrategy[CmdResult](waiter.Strategy{MaxAttempts: 5, Backoff: waiter.None()}),
		waiter.WithAcceptor(waiter.SuccessWhen(func(r CmdResult) bool {
			return r.ExitCode == 0
		})),
		// The marker appears between the second and third attempt.
		waiter.OnRetry[CmdResult](func(ctx context.Context, attempt int, delay time.Duration) {
			if attempt == 2 {
				require.NoError(t, os.WriteFile(marker, nil, 0o644))
			}
		}),
	)
	require.NoError(t, err)

	resp, err := w.Run(context.Background(), Command("test", "-f", marker))
	require.NoError(t, err)
	require.Equal(t, 3, resp.Attempts())
}
