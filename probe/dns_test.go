package probe

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/miekg/dns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bjaus/waiter"
)

func rr(t *testing.T, s string) dns.RR {
	t.Helper()
	r, err := dns.NewRR(s)
	require.NoError(t, err)
	return r
}

func TestDNSOp_ParsesAnswers(t *testing.T) {
	exchange := func(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
		r := new(dns.Msg)
		r.SetReply(m)
		r.Answer = append(r.Answer,
			rr(t, "svc.internal. 300 IN A 10.0.0.5"),
			rr(t, "svc.internal. 300 IN A 10.0.0.6"),
		)
		return r, nil
	}

	res, err := dnsOp("svc.internal", dns.TypeA, exchange)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeSuccess, res.Rcode)
	assert.Equal(t, []string{"10.0.0.5", "10.0.0.6"}, res.Answers)
}

func TestDNSOp_ReportsRcodeAsValue(t *testing.T) {
	exchange := func(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
		r := new(dns.Msg)
		r.SetReply(m)
		r.Rcode = dns.RcodeNameError
		return r, nil
	}

	res, err := dnsOp("gone.internal", dns.TypeA, exchange)(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dns.RcodeNameError, res.Rcode)
	assert.Empty(t, res.Answers)
}

func TestDNSOp_ExchangeErrorIsFailure(t *testing.T) {
	timeout := errors.New("read timeout")
	exchange := func(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
		return nil, timeout
	}

	_, err := dnsOp("svc.internal", dns.TypeA, exchange)(context.Background())
	require.ErrorIs(t, err, timeout)
}

func TestAnswerData(t *testing.T) {
	cases := map[string]struct {
		record string
		want   string
	}{
		"a":     {record: "a.test. 60 IN A 192.0.2.1", want: "192.0.2.1"},
		"aaaa":  {record: "a.test. 60 IN AAAA 2001:db8::1", want: "2001:db8::1"},
		"cname": {record: "a.test. 60 IN CNAME b.test.", want: "b.test."},
		"txt":   {record: `a.test. 60 IN TXT "v=1" "ready"`, want: "v=1 ready"},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			require.Equal(t, tc.want, answerData(rr(t, tc.record)))
		})
	}
}

func TestDNS_AgainstLocalServer(t *testing.T) {
	pc, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)

	mux := dns.NewServeMux()
	mux.HandleFunc("svc.test.", func(w dns.ResponseWriter, req *dns.Msg) {
		m := new(dns.Msg)
		m.SetReply(req)
		m.Answer = append(m.Answer, rr(t, "svc.test. 60 IN A 127.0.0.9"))
		_ = w.WriteMsg(m)
	})

	srv := &dns.Server{PacketConn: pc, Handler: mux}
	go func() { _ = srv.ActivateAndServe() }()
	defer srv.Shutdown()

	// Retry through the waiter in case the first query beats the server
	// loop starting up.
	w, err := waiter.New[DNSResult]("dns-ready",
		waiter.WithStrategy[DNSResult](waiter.Strategy{MaxAttempts: 10, Backoff: waiter.Constant(50 * time.Millisecond)}),
		waiter.WithAcceptors(
			waiter.SuccessWhen(func(r DNSResult) bool {
				return r.Rcode == dns.RcodeSuccess && len(r.Answers) > 0
			}),
			waiter.RetryOnError[DNSResult](func(error) bool { return true }),
		),
	)
	require.NoError(t, err)

	resp, err := w.Run(context.Background(), DNS(pc.LocalAddr().String(), "svc.test", dns.TypeA))
	require.NoError(t, err)

	res, ok := resp.Value()
	require.True(t, ok)
	assert.Equal(t, []string{"127.0.0.9"}, res.Answers)
}
