// Package probe provides ready-made polling operations for common
// readiness targets: HTTP endpoints, TCP ports, DNS records and local
// commands.
//
// Each probe observes its target once per attempt and reports a typed
// result so acceptors can judge it precisely. The line every probe
// draws is the same: a reachable target is a value, whatever it said;
// only failing to reach the target at all is an operation failure. Add
// an error acceptor when unreachable should mean "not yet" instead of
// "broken":
//
//	w, err := waiter.New[probe.HTTPResult]("api-ready",
//		waiter.WithStrategy[probe.HTTPResult](waiter.Strategy{
//			MaxAttempts: 30,
//			Backoff:     waiter.Constant(2 * time.Second),
//		}),
//		waiter.WithAcceptors(
//			waiter.SuccessWhen(func(r probe.HTTPResult) bool {
//				return r.Status == http.StatusOK
//			}),
//			waiter.RetryOnError[probe.HTTPResult](func(error) bool {
//				return true
//			}),
//		),
//	)
//	if err != nil {
//		return err
//	}
//	resp, err := w.Run(ctx, probe.HTTP(nil, http.MethodGet, url))
package probe
