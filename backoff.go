package waiter

import (
	"math"
	"math/rand"
	"time"
)

// Backoff computes the wait before the next polling attempt. Delay
// receives the 1-based count of attempts already completed and must
// return a non-negative duration.
type Backoff interface {
	Delay(attempt int) time.Duration
}

// BackoffFunc adapts a function to the Backoff interface.
type BackoffFunc func(attempt int) time.Duration

// Delay calls f.
func (f BackoffFunc) Delay(attempt int) time.Duration {
	return f(attempt)
}

// None waits not at all between attempts.
func None() Backoff {
	return BackoffFunc(func(int) time.Duration {
		return 0
	})
}

// Constant waits a fixed duration between attempts.
func Constant(d time.Duration) Backoff {
	return BackoffFunc(func(int) time.Duration {
		return d
	})
}

// Linear waits base times the attempt number.
func Linear(base time.Duration) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		return base * time.Duration(attempt)
	})
}

// Exponential doubles the wait with each attempt, starting at base.
func Exponential(base time.Duration) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		d := base
		for i := 1; i < attempt; i++ {
			d *= 2
			if d < 0 {
				return time.Duration(math.MaxInt64)
			}
		}
		return d
	})
}

// WithCap bounds a backoff from above.
func WithCap(b Backoff, cap time.Duration) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		d := b.Delay(attempt)
		if d > cap {
			return cap
		}
		return d
	})
}

// WithMin bounds a backoff from below.
func WithMin(b Backoff, min time.Duration) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		d := b.Delay(attempt)
		if d < min {
			return min
		}
		return d
	})
}

// WithJitter spreads a backoff by up to frac of itself in either
// direction, so that herds of waiters do not poll in lockstep.
func WithJitter(b Backoff, frac float64) Backoff {
	return BackoffFunc(func(attempt int) time.Duration {
		d := b.Delay(attempt)
		if frac <= 0 || d <= 0 {
			return d
		}
		spread := (rand.Float64()*2 - 1) * frac * float64(d)
		d += time.Duration(spread)
		if d < 0 {
			return 0
		}
		return d
	})
}
