package health

import (
	"context"
	"time"

	"github.com/MrSnakeDoc/integrator/internal/domain"
	"github.com/MrSnakeDoc/integrator/internal/invoker"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

// Prober runs the capability probe against every registered service.
type Prober interface {
	Probe(ctx context.Context, timeout time.Duration) []invoker.ProbeResult
}

// Services lists the registered services.
type Services interface {
	All() []domain.ServiceDescriptor
}

// Monitor classifies probe results. It keeps nothing between runs.
type Monitor struct {
	services Services
	prober   Prober
	timeout  time.Duration
	warn     time.Duration
	log      logger.Logger
	now      func() time.Time
}

// New builds a monitor. timeout bounds each probe; a probe slower than
// warn marks the service degraded.
func New(services Services, prober Prober, timeout, warn time.Duration, log logger.Logger) *Monitor {
	if log == nil {
		log = logger.NewNop()
	}
	return &Monitor{
		services: services,
		prober:   prober,
		timeout:  timeout,
		warn:     warn,
		log:      log,
		now:      time.Now,
	}
}

// CheckAll probes every service concurrently and summarizes the run.
func (m *Monitor) CheckAll(ctx context.Context) domain.HealthReport {
	services := m.services.All()
	results := m.prober.Probe(ctx, m.timeout)

	byName := make(map[string]invoker.ProbeResult, len(results))
	for _, r := range results {
		byName[r.Service] = r
	}

	report := domain.HealthReport{
		Timestamp: m.now(),
		Total:     len(services),
		Services:  make([]domain.HealthRecord, 0, len(services)),
	}

	for _, svc := range services {
		r, ok := byName[svc.Name]
		if !ok {
			r = invoker.ProbeResult{Service: svc.Name, Failure: domain.Failf(domain.FailureUnreachable, "not probed")}
		}
		rec := m.classify(svc, r)

		switch rec.Status {
		case domain.HealthUnreachable:
			report.Unhealthy++
			m.log.Warn("service unreachable",
				logger.String("service", svc.Name),
				logger.String("kind", string(rec.Error.Kind)))
		case domain.HealthDegraded:
			report.Healthy++
			report.Degraded++
			m.log.Info("service degraded",
				logger.String("service", svc.Name),
				logger.Duration("latency", rec.Latency))
		default:
			report.Healthy++
		}
		report.Services = append(report.Services, rec)
	}

	return report
}

func (m *Monitor) classify(svc domain.ServiceDescriptor, r invoker.ProbeResult) domain.HealthRecord {
	rec := domain.HealthRecord{
		Service:         svc.Name,
		Endpoint:        svc.Endpoint,
		Latency:         r.Latency,
		CapabilityCount: len(svc.Capabilities),
		ToolsAvailable:  r.Tools,
	}

	switch {
	case r.Failure != nil:
		rec.Status = domain.HealthUnreachable
		rec.Error = r.Failure
	case m.warn > 0 && r.Latency > m.warn:
		rec.Status = domain.HealthDegraded
	default:
		rec.Status = domain.HealthHealthy
	}
	return rec
}
