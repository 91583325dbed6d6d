package probe

import (
	"context"
	"net"
	"time"

	"github.com/bjaus/waiter"
)

// TCPResult is one observation of a TCP endpoint.
type TCPResult struct {
	RemoteAddr string
	Elapsed    time.Duration
}

// TCP returns an operation that dials addr once per attempt and closes
// the connection immediately. Dial failures are operation failures.
// A nil dialer uses a zero net.Dialer.
func TCP(dialer *net.Dialer, addr string) waiter.Operation[TCPResult] {
	if dialer == nil {
		dialer = &net.Dialer{}
	}
	return func(ctx context.Context) (TCPResult, error) {
		start := time.Now()
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return TCPResult{}, err
		}
		remote := conn.RemoteAddr().String()
		_ = conn.Close()

		return TCPResult{RemoteAddr: remote, Elapsed: time.Since(start)}, nil
	}
}
