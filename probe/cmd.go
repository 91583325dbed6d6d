package probe

import (
	"bytes"
	"context"
	"errors"
	"os/exec"

	"github.com/bjaus/waiter"
)

// CmdResult is one observation of a local command run.
type CmdResult struct {
	ExitCode int
	Stdout   string
	Stderr   string
}

// Command returns an operation that runs the command once per attempt.
// A non-zero exit is a value, not a failure: acceptors judge exit
// codes. Failing to start the command, or being killed by context
// cancellation, is an operation failure.
func Command(name string, args ...string) waiter.Operation[CmdResult] {
	return func(ctx context.Context) (CmdResult, error) {
		cmd := exec.CommandContext(ctx, name, args...)

		var stdout, stderr bytes.Buffer
		cmd.Stdout = &stdout
		cmd.Stderr = &stderr

		err := cmd.Run()
		res := CmdResult{Stdout: stdout.String(), Stderr: stderr.String()}

		var exitErr *exec.ExitError
		switch {
		case err == nil:
			return res, nil
		case errors.As(err, &exitErr):
			if ctx.Err() != nil {
				return CmdResult{}, ctx.Err()
			}
			res.ExitCode = exitErr.ExitCode()
			return res, nil
		default:
			return CmdResult{}, err
		}
	}
}
