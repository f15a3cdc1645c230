package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/integrator/internal/config"
	"github.com/MrSnakeDoc/integrator/internal/domain"
	"github.com/MrSnakeDoc/integrator/internal/httpserver/deps"
	"github.com/MrSnakeDoc/integrator/internal/integrator"
	"github.com/MrSnakeDoc/integrator/internal/invoker"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

type fakeOps struct {
	mu         sync.Mutex
	inboxReq   integrator.InboxRequest
	searchReq  integrator.SearchRequest
	credential string
	services   []integrator.ServiceInfo
	err        error
}

func (f *fakeOps) remember(ctx context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credential, _ = invoker.CredentialFrom(ctx)
}

func (f *fakeOps) Inbox(ctx context.Context, req integrator.InboxRequest) (integrator.InboxView, error) {
	f.remember(ctx)
	f.mu.Lock()
	f.inboxReq = req
	f.mu.Unlock()
	if req.Limit != nil && *req.Limit <= 0 {
		return integrator.InboxView{}, &domain.InvalidRequestError{Field: "limit", Reason: "must be a positive integer"}
	}
	return integrator.InboxView{
		TotalUnread: 3,
		ByService:   map[string]int{"slack": 3},
		AllMessages: []domain.Message{{Service: "slack", Sender: "ana", Subject: "hello"}},
		Failures:    map[string]*domain.Failure{},
	}, nil
}

func (f *fakeOps) Calendar(ctx context.Context, req integrator.CalendarRequest) (integrator.CalendarView, error) {
	return integrator.CalendarView{Date: req.Date, ByService: map[string]int{}, Failures: map[string]*domain.Failure{}}, nil
}

func (f *fakeOps) Tasks(ctx context.Context) (integrator.TasksView, error) {
	if f.err != nil {
		return integrator.TasksView{}, f.err
	}
	return integrator.TasksView{
		ByService: map[string]int{},
		Failures: map[string]*domain.Failure{
			"todoist": {Kind: domain.FailureTimeout, Detail: "no answer after 30s"},
		},
	}, nil
}

func (f *fakeOps) Briefing(ctx context.Context) (integrator.BriefingView, error) {
	return integrator.BriefingView{Date: "2026-10-19", Recommendations: []string{}}, nil
}

func (f *fakeOps) Search(ctx context.Context, req integrator.SearchRequest) (integrator.SearchView, error) {
	f.mu.Lock()
	f.searchReq = req
	f.mu.Unlock()
	if req.Query == "" {
		return integrator.SearchView{}, &domain.InvalidRequestError{Field: "query", Reason: "is required"}
	}
	return integrator.SearchView{Query: req.Query, ByService: map[string]integrator.SearchGroupView{}, Failures: map[string]*domain.Failure{}}, nil
}

func (f *fakeOps) Health(ctx context.Context) (integrator.HealthView, error) {
	return integrator.HealthView{TotalServices: 1, HealthyServices: 1, Services: map[string]integrator.ServiceHealthView{}}, nil
}

func (f *fakeOps) Services() []integrator.ServiceInfo {
	return f.services
}

func newTestServer(t *testing.T, ops *fakeOps, mutate func(*config.Config, *deps.Deps)) http.Handler {
	t.Helper()

	cfg := &config.Config{ListenPort: ":0", RequestTimeout: 5 * time.Second}
	start := time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)
	d := deps.Deps{
		Logger:    logger.NewNop(),
		StartTime: start,
		Version:   "v1.2.3",
		TimeNow:   func() time.Time { return start.Add(90 * time.Second) },
		Ops:       ops,
	}
	if mutate != nil {
		mutate(cfg, &d)
	}
	return New(cfg, d.Logger, d).Handler()
}

func get(t *testing.T, h http.Handler, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestInboxEndpoint(t *testing.T) {
	ops := &fakeOps{}
	h := newTestServer(t, ops, nil)

	rec := get(t, h, "/api/inbox?limit=7", http.Header{"Authorization": {"Bearer caller-token"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	body := decode[map[string]any](t, rec)
	assert.EqualValues(t, 3, body["total_unread"])
	assert.Equal(t, map[string]any{}, body["failures"])

	require.NotNil(t, ops.inboxReq.Limit)
	assert.Equal(t, 7, *ops.inboxReq.Limit)
	assert.Equal(t, "caller-token", ops.credential)
}

func TestInboxEndpointWithoutLimitUsesDefault(t *testing.T) {
	ops := &fakeOps{}
	h := newTestServer(t, ops, nil)

	rec := get(t, h, "/api/inbox", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, ops.inboxReq.Limit)
	assert.Empty(t, ops.credential)
}

func TestInvalidRequestsAreBadRequest(t *testing.T) {
	h := newTestServer(t, &fakeOps{}, nil)

	tests := []struct {
		name   string
		target string
		field  string
	}{
		{name: "non numeric limit", target: "/api/inbox?limit=many", field: "limit"},
		{name: "zero limit", target: "/api/inbox?limit=0", field: "limit"},
		{name: "blank query", target: "/api/search?query=", field: "query"},
		{name: "non numeric days", target: "/api/search?query=x&days=week", field: "days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target, nil)
			require.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode[map[string]string](t, rec)
			assert.Contains(t, body["error"], tt.field)
		})
	}
}

func TestSearchEndpointPassesParameters(t *testing.T) {
	ops := &fakeOps{}
	h := newTestServer(t, ops, nil)

	rec := get(t, h, "/api/search?query=project+alpha&days=7", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "project alpha", ops.searchReq.Query)
	require.NotNil(t, ops.searchReq.Days)
	assert.Equal(t, 7, *ops.searchReq.Days)
}

func TestPartialFailureIsStillOK(t *testing.T) {
	h := newTestServer(t, &fakeOps{}, nil)

	rec := get(t, h, "/api/tasks", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode[map[string]any](t, rec)
	failures := body["failures"].(map[string]any)
	assert.Equal(t, "timeout", failures["todoist"].(map[string]any)["kind"])
}

func TestUnexpectedErrorIsInternal(t *testing.T) {
	h := newTestServer(t, &fakeOps{err: errors.New("boom")}, nil)

	rec := get(t, h, "/api/tasks", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "boom")
}

func TestProbeEndpoints(t *testing.T) {
	t.Run("healthz", func(t *testing.T) {
		h := newTestServer(t, &fakeOps{}, nil)
		rec := get(t, h, "/healthz", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode[map[string]any](t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, "v1.2.3", body["version"])
		assert.InDelta(t, 90, body["uptime_seconds"], 0.001)
	})

	t.Run("readyz without services", func(t *testing.T) {
		h := newTestServer(t, &fakeOps{}, nil)
		rec := get(t, h, "/readyz", nil)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, false, decode[map[string]any](t, rec)["ready"])
	})

	t.Run("readyz and services listing", func(t *testing.T) {
		ops := &fakeOps{services: []integrator.ServiceInfo{
			{Name: "outlook", URL: "http://mcp-outlook:3000", Capabilities: []string{"messages", "calendar"}},
			{Name: "slack", URL: "http://mcp-slack:3000", Capabilities: []string{"messages", "search"}},
		}}
		h := newTestServer(t, ops, nil)

		rec := get(t, h, "/readyz", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.EqualValues(t, 2, decode[map[string]any](t, rec)["services_loaded"])

		rec = get(t, h, "/services", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		listing := decode[struct {
			Total    int                      `json:"total"`
			Services []integrator.ServiceInfo `json:"services"`
		}](t, rec)
		assert.Equal(t, 2, listing.Total)
		assert.Equal(t, "outlook", listing.Services[0].Name)
	})
}

func TestAccessFilters(t *testing.T) {
	h := newTestServer(t, &fakeOps{}, func(_ *config.Config, d *deps.Deps) {
		d.AllowedCIDRS = []string{"10.0.0.0/8"}
		d.AllowedHosts = []string{"*.example.com"}
	})

	t.Run("foreign address", func(t *testing.T) {
		rec := get(t, h, "/api/tasks", nil) // httptest uses 192.0.2.1
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("allowed address and host", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "http://integrator.example.com/api/tasks", nil)
		req.RemoteAddr = "10.1.2.3:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("healthz is never filtered", func(t *testing.T) {
		rec := get(t, h, "/healthz", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestMCPMountedOnlyWhenConfigured(t *testing.T) {
	h := newTestServer(t, &fakeOps{}, nil)
	assert.Equal(t, http.StatusNotFound, get(t, h, "/mcp", nil).Code)

	var hit bool
	h = newTestServer(t, &fakeOps{}, func(_ *config.Config, d *deps.Deps) {
		d.MCP = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hit = true
			w.WriteHeader(http.StatusAccepted)
		})
	})

	req := httptest.NewRequest(http.MethodPost, "/mcp", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.True(t, hit)
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRateLimitConfigured(t *testing.T) {
	h := newTestServer(t, &fakeOps{}, func(cfg *config.Config, _ *deps.Deps) {
		cfg.RateLimitBurst = 2
		cfg.RateLimitPerMin = 1
	})

	assert.Equal(t, http.StatusOK, get(t, h, "/healthz", nil).Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/healthz", nil).Code)

	rec := get(t, h, "/healthz", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
