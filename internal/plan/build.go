package plan

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/miekg/dns"

	"github.com/bjaus/waiter"
	"github.com/bjaus/waiter/probe"
)

// Strategy builds the waiter strategy for these settings.
func (s Settings) Strategy() (waiter.Strategy, error) {
	bo, err := s.Backoff.Build()
	if err != nil {
		return waiter.Strategy{}, err
	}
	return waiter.Strategy{MaxAttempts: s.MaxAttempts, Backoff: bo}, nil
}

// Build constructs the named backoff algorithm.
func (b BackoffSpec) Build() (waiter.Backoff, error) {
	var bo waiter.Backoff
	switch b.Type {
	case "", "none":
		bo = waiter.None()
	case "constant", "linear", "exponential":
		if b.Base == "" {
			return nil, fmt.Errorf("backoff base is required for type %q", b.Type)
		}
		base, err := time.ParseDuration(b.Base)
		if err != nil {
			return nil, fmt.Errorf("backoff base: %w", err)
		}
		switch b.Type {
		case "constant":
			bo = waiter.Constant(base)
		case "linear":
			bo = waiter.Linear(base)
		case "exponential":
			bo = waiter.Exponential(base)
		}
	default:
		return nil, fmt.Errorf("unknown backoff type %q", b.Type)
	}

	if b.Cap != "" {
		d, err := time.ParseDuration(b.Cap)
		if err != nil {
			return nil, fmt.Errorf("backoff cap: %w", err)
		}
		bo = waiter.WithCap(bo, d)
	}
	if b.Min != "" {
		d, err := time.ParseDuration(b.Min)
		if err != nil {
			return nil, fmt.Errorf("backoff min: %w", err)
		}
		bo = waiter.WithMin(bo, d)
	}
	if b.Jitter < 0 || b.Jitter > 1 {
		return nil, fmt.Errorf("backoff jitter must be within [0, 1]")
	}
	if b.Jitter > 0 {
		bo = waiter.WithJitter(bo, b.Jitter)
	}
	return bo, nil
}

// RecordType maps a record mnemonic like "A" or "CNAME" to its wire
// type.
func RecordType(name string) (uint16, error) {
	rt, ok := dns.StringToType[strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("unknown record type %q", name)
	}
	return rt, nil
}

func rcode(name string) (int, error) {
	if name == "" {
		return dns.RcodeSuccess, nil
	}
	rc, ok := dns.StringToRcode[strings.ToUpper(name)]
	if !ok {
		return 0, fmt.Errorf("unknown rcode %q", name)
	}
	return rc, nil
}

// HTTPAcceptors builds the acceptor list for an HTTP expectation.
// Matching responses succeed, transport errors retry, any other
// response polls again.
func HTTPAcceptors(e Expect) []waiter.Acceptor[probe.HTTPResult] {
	match := func(r probe.HTTPResult) bool {
		if e.Status != 0 && r.Status != e.Status {
			return false
		}
		if e.JSONPath != "" {
			got := r.JSONString(jsonPath(e.JSONPath)...)
			switch {
			case e.Equals != "":
				return got == e.Equals
			case e.Contains != "":
				return strings.Contains(got, e.Contains)
			default:
				return got != ""
			}
		}
		if e.Contains != "" {
			return strings.Contains(string(r.Body), e.Contains)
		}
		return true
	}
	return []waiter.Acceptor[probe.HTTPResult]{
		waiter.SuccessWhen(match),
		waiter.RetryOnError[probe.HTTPResult](func(error) bool { return true }),
	}
}

// jsonPath splits a dotted path; numeric segments index arrays.
func jsonPath(s string) []any {
	parts := strings.Split(s, ".")
	path := make([]any, 0, len(parts))
	for _, part := range parts {
		if n, err := strconv.Atoi(part); err == nil {
			path = append(path, n)
			continue
		}
		path = append(path, part)
	}
	return path
}

// TCPAcceptors treats any established connection as success and dial
// errors as retries.
func TCPAcceptors() []waiter.Acceptor[probe.TCPResult] {
	return []waiter.Acceptor[probe.TCPResult]{
		waiter.SuccessWhen(func(probe.TCPResult) bool { return true }),
		waiter.RetryOnError[probe.TCPResult](func(error) bool { return true }),
	}
}

// DNSAcceptors builds the acceptor list for a DNS expectation. With no
// explicit rcode it waits for NOERROR and at least one answer; an
// NXDOMAIN rcode waits for the name to disappear.
func DNSAcceptors(e Expect) ([]waiter.Acceptor[probe.DNSResult], error) {
	want, err := rcode(e.Rcode)
	if err != nil {
		return nil, err
	}

	match := func(r probe.DNSResult) bool {
		if r.Rcode != want {
			return false
		}
		if e.Answer != "" {
			return slices.Contains(r.Answers, e.Answer)
		}
		if want == dns.RcodeSuccess {
			return len(r.Answers) > 0
		}
		return true
	}
	return []waiter.Acceptor[probe.DNSResult]{
		waiter.SuccessWhen(match),
		waiter.RetryOnError[probe.DNSResult](func(error) bool { return true }),
	}, nil
}

// CmdAcceptors waits for the expected exit code. Other exit codes poll
// again; failing to start the command at all is fatal.
func CmdAcceptors(e Expect) []waiter.Acceptor[probe.CmdResult] {
	return []waiter.Acceptor[probe.CmdResult]{
		waiter.SuccessWhen(func(r probe.CmdResult) bool {
			return r.ExitCode == e.ExitCode
		}),
	}
}
