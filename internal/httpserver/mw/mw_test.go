package mw

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/integrator/internal/invoker"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func TestMatchHost(t *testing.T) {
	tests := []struct {
		host, pattern string
		want          bool
	}{
		{"integrator.lan", "integrator.lan", true},
		{"a.example.com", "*.example.com", true},
		{"example.com", "*.example.com", false},
		{"evil-example.com", "*.example.com", false},
		{"other.lan", "integrator.lan", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, matchHost(tt.host, tt.pattern), "%s vs %s", tt.host, tt.pattern)
	}
}

func TestEnforceHostIgnoresPortAndCase(t *testing.T) {
	h := EnforceHost([]string{"Integrator.LAN"}, logger.NewNop())(okHandler)

	req := httptest.NewRequest(http.MethodGet, "http://integrator.lan:8080/api/tasks", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "http://attacker.test/api/tasks", nil)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCredentials(t *testing.T) {
	var got string
	var present bool
	h := Credentials(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, present = invoker.CredentialFrom(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "bearer abc123")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, present)
	assert.Equal(t, "abc123", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, present)
}

func TestLimiterRefill(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 2, RefillPerIPPerMin: 60})
	now := time.Now()

	allowed, remaining, _ := l.allow("10.0.0.1", now)
	require.True(t, allowed)
	assert.Equal(t, 1, remaining)

	allowed, _, _ = l.allow("10.0.0.1", now)
	require.True(t, allowed)

	allowed, _, retry := l.allow("10.0.0.1", now)
	assert.False(t, allowed)
	assert.Equal(t, 1, retry)

	allowed, _, _ = l.allow("10.0.0.2", now)
	assert.True(t, allowed, "buckets are per client")

	allowed, _, _ = l.allow("10.0.0.1", now.Add(1100*time.Millisecond))
	assert.True(t, allowed, "one token refills per second")
}

func TestLimiterSweepsIdleClients(t *testing.T) {
	l := newLimiter(RateLimitConfig{Burst: 1, RefillPerIPPerMin: 1, IdleTTL: time.Minute, SweepInterval: time.Hour})
	now := time.Now()

	l.allow("10.0.0.1", now)
	l.allow("10.0.0.2", now.Add(2*time.Hour))

	l.mu.Lock()
	defer l.mu.Unlock()
	assert.Len(t, l.visitors, 1)
	assert.Contains(t, l.visitors, "10.0.0.2")
}

type flushRecorder struct {
	*httptest.ResponseRecorder
	flushed bool
}

func (f *flushRecorder) Flush() { f.flushed = true }

func TestLogKeepsFlusher(t *testing.T) {
	rec := &flushRecorder{ResponseRecorder: httptest.NewRecorder()}
	h := Log(logger.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("data: {}\n\n"))
		w.(http.Flusher).Flush()
	}))

	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.True(t, rec.flushed)
	assert.Equal(t, http.StatusOK, rec.Code)
}
