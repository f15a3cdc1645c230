package invoker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/MrSnakeDoc/integrator/internal/domain"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

const (
	toolsCallPath = "/tools/call"
	toolsListPath = "/tools/list"

	// maxResponseBytes caps how much of a backend reply is read.
	maxResponseBytes = 8 << 20

	requestIDHeader = "X-Request-ID"
)

var tracer = otel.Tracer("github.com/MrSnakeDoc/integrator/internal/invoker")

// Invoker performs one bounded call against one backend service.
type Invoker interface {
	// Invoke calls tool on svc and never blocks past timeout.
	Invoke(ctx context.Context, svc domain.ServiceDescriptor, tool string, args map[string]any, timeout time.Duration) domain.Outcome

	// Probe lists the tools of svc as a lightweight liveness check.
	Probe(ctx context.Context, svc domain.ServiceDescriptor, timeout time.Duration) ProbeResult
}

// ProbeResult is the outcome of a capability probe.
type ProbeResult struct {
	Service string
	Tools   int
	Latency time.Duration
	Failure *domain.Failure
}

// Options tunes the HTTP invoker.
type Options struct {
	// HTTPClient defaults to a client without its own timeout; deadlines
	// always come from the call context.
	HTTPClient *http.Client

	// RPS limits outbound calls per service. Zero disables limiting.
	RPS float64

	Logger logger.Logger
}

// Client is the HTTP implementation of Invoker.
type Client struct {
	http     *http.Client
	log      logger.Logger
	limiters map[string]*rate.Limiter // read-only after New; limiters synchronize themselves
}

// toolCallRequest is the body posted to {endpoint}/tools/call.
type toolCallRequest struct {
	Method string              `json:"method"`
	Params *mcp.CallToolParams `json:"params"`
}

// New builds an HTTP invoker for the given services.
func New(services []domain.ServiceDescriptor, opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyFromEnvironment,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     90 * time.Second,
			},
		}
	}
	log := opts.Logger
	if log == nil {
		log = logger.NewNop()
	}

	c := &Client{
		http: httpClient,
		log:  log,
	}
	if opts.RPS > 0 {
		c.limiters = make(map[string]*rate.Limiter, len(services))
		burst := int(opts.RPS)
		if burst < 1 {
			burst = 1
		}
		for _, svc := range services {
			c.limiters[svc.Name] = rate.NewLimiter(rate.Limit(opts.RPS), burst)
		}
	}
	return c
}

// Invoke implements Invoker.
func (c *Client) Invoke(ctx context.Context, svc domain.ServiceDescriptor, tool string, args map[string]any, timeout time.Duration) domain.Outcome {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "backend.call", trace.WithAttributes(
		attribute.String("integrator.service", svc.Name),
		attribute.String("integrator.tool", tool),
	))
	defer span.End()

	c.log.Debug("backend call",
		logger.String("service", svc.Name),
		logger.String("tool", tool),
		logger.Strings("arg_keys", argKeys(args)))

	type result struct {
		payload *domain.Payload
		failure *domain.Failure
	}
	done := make(chan result, 1)
	go func() {
		p, f := c.call(ctx, svc, tool, args)
		done <- result{payload: p, failure: f}
	}()

	var out domain.Outcome
	select {
	case r := <-done:
		if r.failure != nil {
			r.failure.Elapsed = time.Since(start)
			out = domain.Failed(svc.Name, r.failure, r.failure.Elapsed)
		} else {
			out = domain.Succeeded(svc.Name, r.payload, time.Since(start))
		}
	case <-ctx.Done():
		out = domain.Failed(svc.Name, timeoutFailure(start), time.Since(start))
	}

	if out.Failure != nil {
		span.SetStatus(codes.Error, out.Failure.Error())
		span.SetAttributes(attribute.String("integrator.failure", string(out.Failure.Kind)))
		c.log.Debug("backend call failed",
			logger.String("service", svc.Name),
			logger.String("tool", tool),
			logger.String("kind", string(out.Failure.Kind)),
			logger.Duration("elapsed", out.Latency))
	}
	return out
}

func (c *Client) call(ctx context.Context, svc domain.ServiceDescriptor, tool string, args map[string]any) (*domain.Payload, *domain.Failure) {
	start := time.Now()

	if f := c.wait(ctx, svc.Name, start); f != nil {
		return nil, f
	}

	if args == nil {
		args = map[string]any{}
	}
	body, err := json.Marshal(toolCallRequest{
		Method: "tools/call",
		Params: &mcp.CallToolParams{Name: tool, Arguments: args},
	})
	if err != nil {
		return nil, domain.Failf(domain.FailureProtocol, "encode arguments: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, svc.Endpoint+toolsCallPath, bytes.NewReader(body))
	if err != nil {
		return nil, domain.Failf(domain.FailureUnreachable, "build request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	c.decorate(ctx, req, svc)

	status, raw, f := c.do(ctx, req, start)
	if f != nil {
		return nil, f
	}
	if f := statusFailure(status, raw); f != nil {
		return nil, f
	}
	return decodeToolResult(raw)
}

// Probe implements Invoker.
func (c *Client) Probe(ctx context.Context, svc domain.ServiceDescriptor, timeout time.Duration) ProbeResult {
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "backend.probe", trace.WithAttributes(
		attribute.String("integrator.service", svc.Name),
	))
	defer span.End()

	done := make(chan ProbeResult, 1)
	go func() {
		tools, f := c.listTools(ctx, svc)
		done <- ProbeResult{Service: svc.Name, Tools: tools, Failure: f}
	}()

	var res ProbeResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = ProbeResult{Service: svc.Name, Failure: timeoutFailure(start)}
	}
	res.Latency = time.Since(start)
	if res.Failure != nil {
		res.Failure.Elapsed = res.Latency
		span.SetStatus(codes.Error, res.Failure.Error())
	}
	return res
}

func (c *Client) listTools(ctx context.Context, svc domain.ServiceDescriptor) (int, *domain.Failure) {
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, svc.Endpoint+toolsListPath, http.NoBody)
	if err != nil {
		return 0, domain.Failf(domain.FailureUnreachable, "build request: %v", err)
	}
	req.Header.Set("Accept", "application/json")
	c.decorate(ctx, req, svc)

	status, raw, f := c.do(ctx, req, start)
	if f != nil {
		return 0, f
	}
	if f := statusFailure(status, raw); f != nil {
		return 0, f
	}
	return decodeToolList(raw)
}

// wait applies the per-service outbound limiter. Waiting counts against
// the call deadline.
func (c *Client) wait(ctx context.Context, service string, start time.Time) *domain.Failure {
	l := c.limiters[service]
	if l == nil {
		return nil
	}
	if err := l.Wait(ctx); err != nil {
		return timeoutFailure(start)
	}
	return nil
}

// decorate sets correlation, tracing and credential headers.
func (c *Client) decorate(ctx context.Context, req *http.Request, svc domain.ServiceDescriptor) {
	req.Header.Set(requestIDHeader, uuid.NewString())
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	token, ok := CredentialFrom(ctx)
	if !ok {
		token = svc.Credential
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func (c *Client) do(ctx context.Context, req *http.Request, start time.Time) (int, []byte, *domain.Failure) {
	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, classify(ctx, err, start)
	}
	defer func() {
		_ = resp.Body.Close() // Nothing to do about close errors once the body is read
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, classify(ctx, err, start)
	}
	return resp.StatusCode, raw, nil
}

// classify maps transport errors onto Timeout or Unreachable. Timeout means
// the call deadline (or the caller) ended the call; a connection that could
// not be opened is Unreachable even when the dialer gave up on its own timer.
func classify(ctx context.Context, err error, start time.Time) *domain.Failure {
	if ctx.Err() != nil {
		return timeoutFailure(start)
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return domain.Failf(domain.FailureUnreachable, "%v", err)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return timeoutFailure(start)
	}
	return domain.Failf(domain.FailureUnreachable, "%v", err)
}

func timeoutFailure(start time.Time) *domain.Failure {
	elapsed := time.Since(start)
	return &domain.Failure{
		Kind:    domain.FailureTimeout,
		Detail:  fmt.Sprintf("no answer after %s", elapsed.Round(time.Millisecond)),
		Elapsed: elapsed,
	}
}

// statusFailure classifies non-2xx replies.
func statusFailure(status int, raw []byte) *domain.Failure {
	switch {
	case status >= 200 && status < 300:
		return nil
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return domain.Failf(domain.FailureAuthRejected, "status %d: %s", status, snippet(raw))
	}

	var env struct {
		Error json.RawMessage `json:"error"`
	}
	if json.Unmarshal(raw, &env) == nil && hasValue(env.Error) {
		f := remoteFailure(env.Error)
		f.Detail = fmt.Sprintf("status %d: %s", status, f.Detail)
		return f
	}
	return domain.Failf(domain.FailureRemote, "status %d: %s", status, snippet(raw))
}

func argKeys(args map[string]any) []string {
	keys := make([]string, 0, len(args))
	for k := range args {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func snippet(raw []byte) string {
	s := strings.TrimSpace(string(raw))
	const limit = 200
	if len(s) > limit {
		return s[:limit] + "..."
	}
	if s == "" {
		return "empty body"
	}
	return s
}
