package waiter

import (
	"context"
	"time"
)

// Clock abstracts time for the blocking executor. Inject a fake with
// WithClock to test backoff behavior without real sleeps.
type Clock interface {
	Now() time.Time

	// Sleep blocks for d or until ctx is done, returning the context
	// error in the latter case.
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
