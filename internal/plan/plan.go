// Package plan loads declarative wait plans: a YAML file naming
// several readiness checks, each with its own polling strategy.
package plan

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Wait types understood by the runner.
const (
	TypeHTTP = "http"
	TypeTCP  = "tcp"
	TypeDNS  = "dns"
	TypeCmd  = "cmd"
)

// Plan is a set of named waits with shared defaults.
type Plan struct {
	Defaults Settings `yaml:"defaults"`
	Waits    []Wait   `yaml:"waits"`
}

// Wait describes one readiness check. Strategy fields sit inline on the
// wait; zero fields inherit the plan defaults.
type Wait struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Target string `yaml:"target"`

	Method string   `yaml:"method"` // http, default GET
	Server string   `yaml:"server"` // dns
	Record string   `yaml:"record"` // dns, default A
	Args   []string `yaml:"args"`   // cmd

	Expect Expect `yaml:"expect"`

	Settings `yaml:",inline"`
}

// Settings is the polling strategy for a wait. Durations are strings
// like "2s".
type Settings struct {
	MaxAttempts int         `yaml:"max_attempts"`
	Backoff     BackoffSpec `yaml:"backoff"`
	Timeout     string      `yaml:"timeout"` // overall deadline, e.g. "2m"
}

// Deadline returns the parsed overall timeout, zero when unset.
func (s Settings) Deadline() (time.Duration, error) {
	if s.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(s.Timeout)
}

// BackoffSpec selects a backoff algorithm by name.
type BackoffSpec struct {
	Type   string  `yaml:"type"` // none, constant, linear, exponential
	Base   string  `yaml:"base"`
	Cap    string  `yaml:"cap"`
	Min    string  `yaml:"min"`
	Jitter float64 `yaml:"jitter"`
}

// Expect is the success condition for a wait. Empty fields do not
// constrain the match.
type Expect struct {
	Status   int    `yaml:"status"`    // http
	JSONPath string `yaml:"json_path"` // http, dotted path into the body
	Equals   string `yaml:"equals"`    // http, value at json_path
	Contains string `yaml:"contains"`  // http, substring of value or body

	Rcode  string `yaml:"rcode"`  // dns, e.g. NOERROR, NXDOMAIN
	Answer string `yaml:"answer"` // dns, required record data

	ExitCode int `yaml:"exit_code"` // cmd
}

// Load reads a plan file, applies defaults and validates it.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan file: %w", err)
	}

	p := &Plan{}
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("parse plan file: %w", err)
	}

	p.applyDefaults()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Plan) applyDefaults() {
	if p.Defaults.MaxAttempts == 0 {
		p.Defaults.MaxAttempts = 10
	}
	if p.Defaults.Backoff.Type == "" {
		p.Defaults.Backoff = BackoffSpec{Type: "constant", Base: "1s"}
	}

	for i := range p.Waits {
		w := &p.Waits[i]
		if w.MaxAttempts == 0 {
			w.MaxAttempts = p.Defaults.MaxAttempts
		}
		if w.Backoff.Type == "" {
			w.Backoff = p.Defaults.Backoff
		}
		if w.Timeout == "" {
			w.Timeout = p.Defaults.Timeout
		}

		switch w.Type {
		case TypeHTTP:
			if w.Method == "" {
				w.Method = "GET"
			}
			if w.Expect.Status == 0 && w.Expect.JSONPath == "" && w.Expect.Contains == "" {
				w.Expect.Status = 200
			}
		case TypeDNS:
			if w.Record == "" {
				w.Record = "A"
			}
		}
	}
}

// Validate checks the plan is runnable.
func (p *Plan) Validate() error {
	if len(p.Waits) == 0 {
		return fmt.Errorf("plan has no waits")
	}

	seen := make(map[string]bool, len(p.Waits))
	for i := range p.Waits {
		w := &p.Waits[i]
		if w.Name == "" {
			return fmt.Errorf("wait %d: name is required", i)
		}
		if seen[w.Name] {
			return fmt.Errorf("wait %q: duplicate name", w.Name)
		}
		seen[w.Name] = true

		if err := w.validate(); err != nil {
			return fmt.Errorf("wait %q: %w", w.Name, err)
		}
	}
	return nil
}

func (w *Wait) validate() error {
	if w.Target == "" {
		return fmt.Errorf("target is required")
	}
	if w.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if _, err := w.Strategy(); err != nil {
		return err
	}
	if _, err := w.Deadline(); err != nil {
		return fmt.Errorf("timeout: %w", err)
	}

	switch w.Type {
	case TypeHTTP, TypeTCP, TypeCmd:
	case TypeDNS:
		if w.Server == "" {
			return fmt.Errorf("server is required for dns waits")
		}
		if _, err := RecordType(w.Record); err != nil {
			return err
		}
		if _, err := rcode(w.Expect.Rcode); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown type %q", w.Type)
	}
	return nil
}
