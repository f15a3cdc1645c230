package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/MrSnakeDoc/integrator/internal/aggregate"
	"github.com/MrSnakeDoc/integrator/internal/config"
	"github.com/MrSnakeDoc/integrator/internal/dispatch"
	"github.com/MrSnakeDoc/integrator/internal/health"
	"github.com/MrSnakeDoc/integrator/internal/httpserver"
	"github.com/MrSnakeDoc/integrator/internal/httpserver/deps"
	"github.com/MrSnakeDoc/integrator/internal/integrator"
	"github.com/MrSnakeDoc/integrator/internal/invoker"
	"github.com/MrSnakeDoc/integrator/internal/logger"
	"github.com/MrSnakeDoc/integrator/internal/mcpserver"
	"github.com/MrSnakeDoc/integrator/internal/registry"
	"github.com/MrSnakeDoc/integrator/internal/telemetry"
	"github.com/MrSnakeDoc/integrator/internal/version"
)

type App struct {
	cfg      *config.Config
	logger   logger.Logger
	registry *registry.Registry
	ops      *integrator.Service
	mcp      *mcpserver.Server
	tracing  func(context.Context) error
}

// New loads the configuration and wires every component. Registry errors
// are configuration errors and stop startup.
func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	loggerClient := logger.New(cfg.LogLevel, cfg.PrettyLog)
	loggerClient.Debug("configuration loaded", logger.String("config", fmt.Sprintf("%+v", cfg.Redacted())))

	specs, err := cfg.ServiceSpecs()
	if err != nil {
		return nil, fmt.Errorf("failed to read services: %w", err)
	}
	reg, err := registry.New(specs)
	if err != nil {
		return nil, err
	}
	if reg.Len() == 0 {
		loggerClient.Warn("no backend service configured, every view will be empty")
	}
	for _, svc := range reg.All() {
		loggerClient.Info("backend registered",
			logger.String("service", svc.Name),
			logger.String("url", svc.Endpoint),
			logger.Int("capabilities", len(svc.Capabilities)))
	}

	tracing, err := telemetry.Setup(context.Background(), mcpserver.Name, version.Version, cfg.OTelEndpoint)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	inv := invoker.New(reg.All(), invoker.Options{
		RPS:    cfg.BackendRPS,
		Logger: loggerClient.With(logger.String("component", "invoker")),
	})
	disp := dispatch.New(reg, inv,
		dispatch.WithConcurrency(cfg.MaxConcurrency),
		dispatch.WithLogger(loggerClient.With(logger.String("component", "dispatch"))),
	)
	monitor := health.New(reg, disp, cfg.HealthTimeout, cfg.HealthWarn, loggerClient)

	ops := integrator.New(reg, disp, monitor, integrator.Options{
		CallTimeout:        cfg.CallTimeout,
		RequestTimeout:     cfg.RequestTimeout,
		InboxLimit:         cfg.InboxLimit,
		BriefingInboxLimit: cfg.BriefingInboxLimit,
		SearchDays:         cfg.SearchDays,
		Thresholds: aggregate.Thresholds{
			Unread:   cfg.UnreadThreshold,
			Meetings: cfg.MeetingThreshold,
			Tasks:    cfg.TaskThreshold,
		},
	}, loggerClient)

	return &App{
		cfg:      cfg,
		logger:   loggerClient,
		registry: reg,
		ops:      ops,
		mcp:      mcpserver.New(ops, version.Version, loggerClient),
		tracing:  tracing,
	}, nil
}

// Run serves the HTTP API and streamable MCP until SIGINT/SIGTERM.
func (a *App) Run() error {
	defer a.close()

	a.logger.Infof("🚀 Starting Integrator v%s on %s", version.Version, a.cfg.ListenPort)
	a.logger.Infof("Integrator %s (commit=%s, built=%s, go=%s)",
		version.Version, version.Commit, version.BuildDate, version.GoVersion)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := deps.Deps{
		Logger:       a.logger,
		StartTime:    time.Now(),
		Version:      version.Version,
		Commit:       version.Commit,
		BuildDate:    version.BuildDate,
		GoVersion:    version.GoVersion,
		TimeNow:      time.Now,
		AllowedHosts: a.cfg.AllowedHosts,
		AllowedCIDRS: a.cfg.AllowedCIDRS,
		TrustProxy:   a.cfg.TrustProxy,
		Ops:          a.ops,
		MCP:          a.mcp.Handler(),
	}
	server := httpserver.New(a.cfg, a.logger, d)

	errCh := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errCh <- fmt.Errorf("http server error: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("⏳ Shutting down gracefully...")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop server: %w", err)
	}

	a.logger.Info("✅ Integrator stopped cleanly")
	return nil
}

// RunStdio serves MCP over stdin/stdout until the client disconnects or
// the process is interrupted. Logs stay on stderr.
func (a *App) RunStdio() error {
	defer a.close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("serving MCP over stdio", logger.Int("services", a.registry.Len()))
	if err := a.mcp.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp stdio: %w", err)
	}
	return nil
}

// Health runs one health check and returns the report.
func (a *App) Health(ctx context.Context) (integrator.HealthView, error) {
	defer a.close()
	return a.ops.Health(ctx)
}

func (a *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	if err := a.tracing(ctx); err != nil {
		a.logger.Warnf("failed to flush traces: %v", err)
	}
	_ = a.logger.Sync() // stderr sync errors are expected on some platforms
}
