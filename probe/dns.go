package probe

import (
	"context"
	"strings"

	"github.com/miekg/dns"

	"github.com/bjaus/waiter"
)

// DNSResult is one observation of a DNS name.
type DNSResult struct {
	Rcode   int
	Answers []string
}

// DNS returns an operation that queries server for one record per
// attempt. Every reply is a value, NXDOMAIN included, so acceptors can
// wait for a name to appear or to disappear. Exchange errors, such as
// timeouts or a refused server, are operation failures.
func DNS(server, name string, qtype uint16) waiter.Operation[DNSResult] {
	c := new(dns.Client)
	return dnsOp(name, qtype, func(ctx context.Context, m *dns.Msg) (*dns.Msg, error) {
		r, _, err := c.ExchangeContext(ctx, m, server)
		return r, err
	})
}

func dnsOp(name string, qtype uint16, exchange func(context.Context, *dns.Msg) (*dns.Msg, error)) waiter.Operation[DNSResult] {
	return func(ctx context.Context) (DNSResult, error) {
		m := new(dns.Msg)
		m.SetQuestion(dns.Fqdn(name), qtype)

		r, err := exchange(ctx, m)
		if err != nil {
			return DNSResult{}, err
		}

		res := DNSResult{Rcode: r.Rcode, Answers: make([]string, 0, len(r.Answer))}
		for _, rr := range r.Answer {
			res.Answers = append(res.Answers, answerData(rr))
		}
		return res, nil
	}
}

// answerData renders the data portion of a record, the part worth
// matching on.
func answerData(rr dns.RR) string {
	switch v := rr.(type) {
	case *dns.A:
		return v.A.String()
	case *dns.AAAA:
		return v.AAAA.String()
	case *dns.CNAME:
		return v.Target
	case *dns.TXT:
		return strings.Join(v.Txt, " ")
	default:
		return rr.String()
	}
}
