// Package waiterprom exports waiter lifecycle hooks as Prometheus
// metrics. Attach the hooks with Options when constructing a waiter;
// every execution then feeds the shared collectors.
package waiterprom

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/bjaus/waiter"
)

// Metrics holds the Prometheus collectors for waiter executions.
type Metrics struct {
	// Attempts counts polling attempts. waiter_attempts_total{waiter}
	Attempts *prometheus.CounterVec

	// Runs counts finished executions by result.
	// waiter_runs_total{waiter,result}
	Runs *prometheus.CounterVec

	// RetryDelay accumulates the backoff waits in seconds.
	// waiter_retry_delay_seconds_total{waiter}
	RetryDelay *prometheus.CounterVec

	// AttemptsPerRun observes how many attempts each execution took.
	// waiter_attempts_per_run{waiter}
	AttemptsPerRun *prometheus.HistogramVec
}

// New registers the waiter collectors with the given registry. A nil
// registry falls back to the default Prometheus registerer.
func New(registry prometheus.Registerer) *Metrics {
	if registry == nil {
		registry = prometheus.DefaultRegisterer
	}
	return &Metrics{
		Attempts: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "waiter_attempts_total",
			Help: "Total polling attempts made",
		}, []string{"waiter"}),

		Runs: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "waiter_runs_total",
			Help: "Total finished executions by result",
		}, []string{"waiter", "result"}),

		RetryDelay: promauto.With(registry).NewCounterVec(prometheus.CounterOpts{
			Name: "waiter_retry_delay_seconds_total",
			Help: "Total time requested from backoff between attempts",
		}, []string{"waiter"}),

		AttemptsPerRun: promauto.With(registry).NewHistogramVec(prometheus.HistogramOpts{
			Name:    "waiter_attempts_per_run",
			Help:    "Attempts needed per execution",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		}, []string{"waiter"}),
	}
}

// Options returns the hook options that report a waiter's executions to
// m under the given label. Attach them alongside the waiter's other
// options. This is a function rather than a method because methods
// cannot introduce type parameters.
func Options[T any](m *Metrics, name string) []waiter.Option[T] {
	return []waiter.Option[T]{
		waiter.OnAttempt[T](func(ctx context.Context, attempt int) {
			m.Attempts.WithLabelValues(name).Inc()
		}),
		waiter.OnRetry[T](func(ctx context.Context, attempt int, delay time.Duration) {
			m.RetryDelay.WithLabelValues(name).Add(delay.Seconds())
		}),
		waiter.OnSuccess[T](func(ctx context.Context, attempts int) {
			m.Runs.WithLabelValues(name, "success").Inc()
			m.AttemptsPerRun.WithLabelValues(name).Observe(float64(attempts))
		}),
		waiter.OnFailure[T](func(ctx context.Context, attempts int, err error) {
			m.Runs.WithLabelValues(name, "failure").Inc()
			m.AttemptsPerRun.WithLabelValues(name).Observe(float64(attempts))
		}),
	}
}
