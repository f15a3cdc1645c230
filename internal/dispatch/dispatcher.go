package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/MrSnakeDoc/integrator/internal/domain"
	"github.com/MrSnakeDoc/integrator/internal/invoker"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

var tracer = otel.Tracer("github.com/MrSnakeDoc/integrator/internal/dispatch")

// Resolver is the read side of the service registry.
type Resolver interface {
	Resolve(c domain.Capability) []domain.ServiceDescriptor
	All() []domain.ServiceDescriptor
}

// Dispatcher fans one logical operation out to every eligible service.
type Dispatcher struct {
	reg   Resolver
	inv   invoker.Invoker
	limit int
	log   logger.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithConcurrency caps in-flight backend calls per dispatch. Zero or
// negative means one goroutine per service.
func WithConcurrency(n int) Option {
	return func(d *Dispatcher) { d.limit = n }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// New builds a dispatcher.
func New(reg Resolver, inv invoker.Invoker, opts ...Option) *Dispatcher {
	d := &Dispatcher{reg: reg, inv: inv, log: logger.NewNop()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch calls tool on every service supporting c and waits for all of
// them. Each call is bounded by timeout and by ctx. The result holds exactly
// one outcome per eligible service, in registration order. A capability
// nobody supports yields an empty set.
func (d *Dispatcher) Dispatch(ctx context.Context, c domain.Capability, tool string, args map[string]any, timeout time.Duration) *domain.Outcomes {
	services := d.reg.Resolve(c)
	out := domain.NewOutcomes(len(services))
	if len(services) == 0 {
		return out
	}

	ctx, span := tracer.Start(ctx, "dispatch", trace.WithAttributes(
		attribute.String("integrator.capability", string(c)),
		attribute.Int("integrator.services", len(services)),
	))
	defer span.End()

	results := make([]domain.Outcome, len(services))
	d.fanOut(len(services), func(i int) {
		svc := services[i]
		name, callArgs := svc.CallFor(c, tool, args)
		results[i] = d.invoke(ctx, svc, name, callArgs, timeout)
	})

	failed := 0
	for _, r := range results {
		if !r.OK() {
			failed++
		}
		out.Set(r)
	}
	span.SetAttributes(attribute.Int("integrator.failed", failed))

	d.log.Debug("dispatch complete",
		logger.String("capability", string(c)),
		logger.Int("services", len(services)),
		logger.Int("failed", failed))

	return out
}

// Probe lists the tools of every registered service concurrently.
func (d *Dispatcher) Probe(ctx context.Context, timeout time.Duration) []invoker.ProbeResult {
	services := d.reg.All()
	results := make([]invoker.ProbeResult, len(services))
	if len(services) == 0 {
		return results
	}

	ctx, span := tracer.Start(ctx, "probe", trace.WithAttributes(
		attribute.Int("integrator.services", len(services)),
	))
	defer span.End()

	d.fanOut(len(services), func(i int) {
		results[i] = d.inv.Probe(ctx, services[i], timeout)
		results[i].Service = services[i].Name
	})
	return results
}

// invoke isolates one call: a panicking invoker becomes a failure of that
// service only.
func (d *Dispatcher) invoke(ctx context.Context, svc domain.ServiceDescriptor, tool string, args map[string]any, timeout time.Duration) (out domain.Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			d.log.Error("backend call panicked",
				logger.String("service", svc.Name),
				logger.String("panic", fmt.Sprint(r)))
			out = domain.Failed(svc.Name, domain.Failf(domain.FailureProtocol, "internal error: %v", r), time.Since(start))
		}
	}()

	out = d.inv.Invoke(ctx, svc, tool, args, timeout)
	out.Service = svc.Name
	return out
}

func (d *Dispatcher) fanOut(n int, fn func(i int)) {
	var g errgroup.Group
	if d.limit > 0 {
		g.SetLimit(d.limit)
	}
	for i := 0; i < n; i++ {
		g.Go(func() error {
			fn(i)
			return nil
		})
	}
	_ = g.Wait() // Calls report failures through their outcome, never an error
}
