package waiter

import "time"

// Scheduler runs a callback after a delay. RunAsync uses it to chain
// attempts without holding a goroutine through the wait. The returned
// stop reports whether the callback was prevented from running.
//
// The default scheduler is the runtime timer. Supply a shared or fake
// implementation with WithScheduler.
type Scheduler interface {
	Schedule(d time.Duration, fn func()) (stop func() bool)
}

type timerScheduler struct{}

func (timerScheduler) Schedule(d time.Duration, fn func()) func() bool {
	return time.AfterFunc(d, fn).Stop
}
