package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	ListenPort      string        `env:"INTEGRATOR_LISTEN_PORT" envDefault:":8080"`    // ex: ":8080"
	ShutdownTimeout time.Duration `env:"INTEGRATOR_SHUTDOWN_TIMEOUT" envDefault:"5s"` // ex: 5s

	LogLevel  string `env:"INTEGRATOR_LOG_LEVEL" envDefault:"info"`  // "debug" | "info" | "warn" | "error"
	PrettyLog bool   `env:"INTEGRATOR_PRETTY_LOG" envDefault:"true"` // true => zap dev (color), false => zap prod (JSON)

	// Backend services. An empty URL keeps the service out of the registry.
	URLs   ServiceURLs
	Tokens ServiceTokens

	ServicesFile string `env:"INTEGRATOR_SERVICES_FILE"` // optional yaml/toml file adding or overriding services

	// Fan-out budgets
	CallTimeout    time.Duration `env:"INTEGRATOR_CALL_TIMEOUT" envDefault:"30s"`    // bound for one backend call
	RequestTimeout time.Duration `env:"INTEGRATOR_REQUEST_TIMEOUT" envDefault:"45s"` // bound for one whole operation
	MaxConcurrency int           `env:"INTEGRATOR_MAX_CONCURRENCY" envDefault:"0"`   // 0 = one goroutine per eligible service
	BackendRPS     float64       `env:"INTEGRATOR_BACKEND_RPS" envDefault:"0"`       // outbound calls per second per service, 0 = unlimited

	// Health monitor
	HealthTimeout time.Duration `env:"INTEGRATOR_HEALTH_TIMEOUT" envDefault:"10s"` // probe budget
	HealthWarn    time.Duration `env:"INTEGRATOR_HEALTH_WARN" envDefault:"1s"`     // latency above this => degraded

	// View defaults
	InboxLimit         int `env:"INTEGRATOR_INBOX_LIMIT" envDefault:"50"`
	BriefingInboxLimit int `env:"INTEGRATOR_BRIEFING_INBOX_LIMIT" envDefault:"100"`
	SearchDays         int `env:"INTEGRATOR_SEARCH_DAYS" envDefault:"30"`

	// Briefing recommendation thresholds (a rule fires when the value is above)
	UnreadThreshold  int `env:"INTEGRATOR_UNREAD_THRESHOLD" envDefault:"50"`
	MeetingThreshold int `env:"INTEGRATOR_MEETING_THRESHOLD" envDefault:"4"`
	TaskThreshold    int `env:"INTEGRATOR_TASK_THRESHOLD" envDefault:"20"`

	// Inbound rate limiting, off when burst is 0
	RateLimitBurst  int `env:"INTEGRATOR_RATE_LIMIT_BURST" envDefault:"0"`
	RateLimitPerMin int `env:"INTEGRATOR_RATE_LIMIT_PER_MIN" envDefault:"60"`

	AllowedHosts []string `env:"INTEGRATOR_ALLOWED_HOSTS" envSeparator:","` // optional, restrict access to specific Host headers
	AllowedCIDRS []string `env:"INTEGRATOR_ALLOWED_CIDRS" envSeparator:","` // optional, restrict access to specific IPs/CIDRs
	TrustProxy   bool     `env:"INTEGRATOR_TRUST_PROXY" envDefault:"false"`  // true => trust X-Forwarded-For headers

	OTelEndpoint string `env:"INTEGRATOR_OTEL_ENDPOINT"` // OTLP/HTTP traces endpoint, empty = tracing off
}

// ServiceURLs holds one address per known backend service.
type ServiceURLs struct {
	Outlook       string `env:"MCP_OUTLOOK_URL"`
	Google        string `env:"MCP_GOOGLE_URL"`
	Todoist       string `env:"MCP_TODOIST_URL"`
	Slack         string `env:"MCP_SLACK_URL"`
	Notion        string `env:"MCP_NOTION_URL"`
	GitHub        string `env:"MCP_GITHUB_URL"`
	HomeAssistant string `env:"MCP_HA_URL"`
	ICloud        string `env:"MCP_ICLOUD_URL"`
}

// ServiceTokens holds optional static bearer tokens per known service.
type ServiceTokens struct {
	Outlook       string `env:"MCP_OUTLOOK_TOKEN"`
	Google        string `env:"MCP_GOOGLE_TOKEN"`
	Todoist       string `env:"MCP_TODOIST_TOKEN"`
	Slack         string `env:"MCP_SLACK_TOKEN"`
	Notion        string `env:"MCP_NOTION_TOKEN"`
	GitHub        string `env:"MCP_GITHUB_TOKEN"`
	HomeAssistant string `env:"MCP_HA_TOKEN"`
	ICloud        string `env:"MCP_ICLOUD_TOKEN"`
}

// Load reads the configuration from the process environment and validates it.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	cfg.AllowedHosts = trimAll(cfg.AllowedHosts)
	cfg.AllowedCIDRS = trimAll(cfg.AllowedCIDRS)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects budgets and limits that would make the fan-out meaningless.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, d time.Duration) {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be > 0, got %v", name, d))
		}
	}
	positive("INTEGRATOR_CALL_TIMEOUT", c.CallTimeout)
	positive("INTEGRATOR_REQUEST_TIMEOUT", c.RequestTimeout)
	positive("INTEGRATOR_HEALTH_TIMEOUT", c.HealthTimeout)
	positive("INTEGRATOR_HEALTH_WARN", c.HealthWarn)
	positive("INTEGRATOR_SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	if c.InboxLimit <= 0 {
		errs = append(errs, fmt.Errorf("INTEGRATOR_INBOX_LIMIT must be > 0, got %d", c.InboxLimit))
	}
	if c.BriefingInboxLimit <= 0 {
		errs = append(errs, fmt.Errorf("INTEGRATOR_BRIEFING_INBOX_LIMIT must be > 0, got %d", c.BriefingInboxLimit))
	}
	if c.SearchDays <= 0 {
		errs = append(errs, fmt.Errorf("INTEGRATOR_SEARCH_DAYS must be > 0, got %d", c.SearchDays))
	}
	if c.MaxConcurrency < 0 {
		errs = append(errs, fmt.Errorf("INTEGRATOR_MAX_CONCURRENCY must be >= 0, got %d", c.MaxConcurrency))
	}
	if c.BackendRPS < 0 {
		errs = append(errs, fmt.Errorf("INTEGRATOR_BACKEND_RPS must be >= 0, got %v", c.BackendRPS))
	}
	if c.UnreadThreshold < 0 || c.MeetingThreshold < 0 || c.TaskThreshold < 0 {
		errs = append(errs, errors.New("briefing thresholds must be >= 0"))
	}
	return errors.Join(errs...)
}

// Redacted returns a copy safe to print in debug logs.
func (c *Config) Redacted() Config {
	cp := *c
	cp.Tokens = redactTokens(c.Tokens)
	return cp
}

func redactTokens(t ServiceTokens) ServiceTokens {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "***REDACTED***"
	}
	return ServiceTokens{
		Outlook:       mask(t.Outlook),
		Google:        mask(t.Google),
		Todoist:       mask(t.Todoist),
		Slack:         mask(t.Slack),
		Notion:        mask(t.Notion),
		GitHub:        mask(t.GitHub),
		HomeAssistant: mask(t.HomeAssistant),
		ICloud:        mask(t.ICloud),
	}
}

func trimAll(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	out := make([]string, 0, len(in))
	for _, part := range in {
		trimmed := strings.TrimSpace(part)
		// Remove surrounding quotes if present
		trimmed = strings.Trim(trimmed, `"'`)
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
