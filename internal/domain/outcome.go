package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// FailureKind classifies why a backend call did not produce a usable payload.
type FailureKind string

const (
	FailureTimeout      FailureKind = "timeout"
	FailureUnreachable  FailureKind = "unreachable"
	FailureProtocol     FailureKind = "protocol_error"
	FailureRemote       FailureKind = "remote_error"
	FailureAuthRejected FailureKind = "auth_rejected"
)

// Failure is the failed half of an Outcome. It implements error so it can
// travel through regular error paths when convenient.
type Failure struct {
	Kind    FailureKind   `json:"kind"`
	Detail  string        `json:"detail,omitempty"`
	Elapsed time.Duration `json:"-"`
}

func (f *Failure) Error() string {
	if f.Detail == "" {
		return string(f.Kind)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Detail)
}

// Failf builds a Failure with a formatted detail.
func Failf(kind FailureKind, format string, args ...any) *Failure {
	return &Failure{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// Block is one content block of a tool result.
type Block struct {
	Type     string
	Text     string
	MIMEType string
}

// Payload is the opaque successful result of a tool call.
type Payload struct {
	Blocks     []Block
	Structured json.RawMessage
}

// Outcome is the result of exactly one (service, operation) call.
// Exactly one of Payload and Failure is set.
type Outcome struct {
	Service string
	Payload *Payload
	Failure *Failure
	Latency time.Duration
}

// OK reports whether the call succeeded.
func (o Outcome) OK() bool { return o.Failure == nil }

// Succeeded builds a successful outcome.
func Succeeded(service string, p *Payload, latency time.Duration) Outcome {
	if p == nil {
		p = &Payload{}
	}
	return Outcome{Service: service, Payload: p, Latency: latency}
}

// Failed builds a failed outcome.
func Failed(service string, f *Failure, latency time.Duration) Outcome {
	return Outcome{Service: service, Failure: f, Latency: latency}
}

// Outcomes keeps per-service outcomes in registry order.
type Outcomes struct {
	order []string
	byKey map[string]Outcome
}

// NewOutcomes returns an empty set sized for n services.
func NewOutcomes(n int) *Outcomes {
	return &Outcomes{
		order: make([]string, 0, n),
		byKey: make(map[string]Outcome, n),
	}
}

// Set records the outcome for its service. A second Set for the same
// service replaces the value but keeps the original position.
func (o *Outcomes) Set(out Outcome) {
	if _, ok := o.byKey[out.Service]; !ok {
		o.order = append(o.order, out.Service)
	}
	o.byKey[out.Service] = out
}

// Get returns the outcome recorded for service.
func (o *Outcomes) Get(service string) (Outcome, bool) {
	if o == nil {
		return Outcome{}, false
	}
	out, ok := o.byKey[service]
	return out, ok
}

// Len returns the number of recorded services.
func (o *Outcomes) Len() int {
	if o == nil {
		return 0
	}
	return len(o.order)
}

// Services returns service names in registry order.
func (o *Outcomes) Services() []string {
	if o == nil {
		return nil
	}
	return append([]string(nil), o.order...)
}

// Each iterates outcomes in registry order.
func (o *Outcomes) Each(fn func(Outcome)) {
	if o == nil {
		return
	}
	for _, name := range o.order {
		fn(o.byKey[name])
	}
}
