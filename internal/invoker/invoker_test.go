package invoker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrSnakeDoc/integrator/internal/domain"
)

func service(url string) domain.ServiceDescriptor {
	return domain.ServiceDescriptor{Name: "outlook", Endpoint: url, Credential: "static-token"}
}

func TestInvokeSuccessSendsToolCall(t *testing.T) {
	var got struct {
		Method string `json:"method"`
		Params struct {
			Name      string         `json:"name"`
			Arguments map[string]any `json:"arguments"`
		} `json:"params"`
	}
	var auth, reqID string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/tools/call", r.URL.Path)
		auth = r.Header.Get("Authorization")
		reqID = r.Header.Get("X-Request-ID")
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"content":[{"type":"text","text":"{\"emails\":[],\"unread_count\":3}"}]}`)
	}))
	defer ts.Close()

	inv := New(nil, Options{})
	out := inv.Invoke(context.Background(), service(ts.URL), "get_unread_emails", map[string]any{"limit": 10}, time.Second)

	require.True(t, out.OK(), "failure: %v", out.Failure)
	assert.Equal(t, "outlook", out.Service)
	require.Len(t, out.Payload.Blocks, 1)
	assert.Equal(t, "text", out.Payload.Blocks[0].Type)
	assert.JSONEq(t, `{"emails":[],"unread_count":3}`, out.Payload.Blocks[0].Text)

	assert.Equal(t, "tools/call", got.Method)
	assert.Equal(t, "get_unread_emails", got.Params.Name)
	assert.Equal(t, float64(10), got.Params.Arguments["limit"])
	assert.Equal(t, "Bearer static-token", auth)
	assert.NotEmpty(t, reqID)
}

func TestInvokePrefersCallerCredential(t *testing.T) {
	var auth string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = io.WriteString(w, `{"content":[]}`)
	}))
	defer ts.Close()

	ctx := WithCredential(context.Background(), "caller-token")
	out := New(nil, Options{}).Invoke(ctx, service(ts.URL), "x", nil, time.Second)

	require.True(t, out.OK())
	assert.Equal(t, "Bearer caller-token", auth)
}

func TestInvokeResponseShapes(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		structured string
		blocks     int
	}{
		{name: "bare array", body: `[{"title":"a"}]`, structured: `[{"title":"a"}]`},
		{name: "result wrapper", body: `{"result":{"content":[{"type":"text","text":"[]"}]}}`, blocks: 1},
		{name: "structured content", body: `{"content":[],"structuredContent":{"tasks":[]}}`, structured: `{"tasks":[]}`},
		{name: "raw object", body: `{"events":[]}`, structured: `{"events":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			out := New(nil, Options{}).Invoke(context.Background(), service(ts.URL), "x", nil, time.Second)
			require.True(t, out.OK(), "failure: %v", out.Failure)
			assert.Len(t, out.Payload.Blocks, tt.blocks)
			if tt.structured != "" {
				assert.JSONEq(t, tt.structured, string(out.Payload.Structured))
			}
		})
	}
}

func TestInvokeFailureClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   domain.FailureKind
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, body: `nope`, want: domain.FailureAuthRejected},
		{name: "forbidden", status: http.StatusForbidden, body: ``, want: domain.FailureAuthRejected},
		{name: "server error", status: http.StatusInternalServerError, body: `boom`, want: domain.FailureRemote},
		{name: "server error with auth kind", status: http.StatusBadGateway, body: `{"error":{"kind":"unauthorized","message":"token expired"}}`, want: domain.FailureAuthRejected},
		{name: "malformed json", status: http.StatusOK, body: `{"content":`, want: domain.FailureProtocol},
		{name: "empty body", status: http.StatusOK, body: ``, want: domain.FailureProtocol},
		{name: "plain text", status: http.StatusOK, body: `hello`, want: domain.FailureProtocol},
		{name: "error object", status: http.StatusOK, body: `{"error":"Unknown tool: get_tasks"}`, want: domain.FailureRemote},
		{name: "error with auth kind", status: http.StatusOK, body: `{"error":{"type":"auth","message":"expired"}}`, want: domain.FailureAuthRejected},
		{name: "tool error flag", status: http.StatusOK, body: `{"content":[{"type":"text","text":"quota exceeded"}],"isError":true}`, want: domain.FailureRemote},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			}))
			defer ts.Close()

			out := New(nil, Options{}).Invoke(context.Background(), service(ts.URL), "x", nil, time.Second)
			require.False(t, out.OK())
			assert.Nil(t, out.Payload)
			assert.Equal(t, tt.want, out.Failure.Kind, "detail: %s", out.Failure.Detail)
		})
	}
}

// dialTimeout is what a net.Dialer reports when its own connect timer fires.
type dialTimeout struct{}

func (dialTimeout) Error() string   { return "i/o timeout" }
func (dialTimeout) Timeout() bool   { return true }
func (dialTimeout) Temporary() bool { return true }

func TestInvokeTransportFailureClassification(t *testing.T) {
	tests := []struct {
		name string
		dial func(ctx context.Context, network, addr string) (net.Conn, error)
		want domain.FailureKind
	}{
		{
			name: "connect timeout before the call deadline",
			dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
				time.Sleep(50 * time.Millisecond)
				return nil, &net.OpError{Op: "dial", Net: network, Err: dialTimeout{}}
			},
			want: domain.FailureUnreachable,
		},
		{
			name: "connection refused",
			dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
				return nil, &net.OpError{Op: "dial", Net: network, Err: errors.New("connection refused")}
			},
			want: domain.FailureUnreachable,
		},
		{
			name: "dial outlives the call deadline",
			dial: func(ctx context.Context, network, addr string) (net.Conn, error) {
				<-ctx.Done()
				return nil, &net.OpError{Op: "dial", Net: network, Err: ctx.Err()}
			},
			want: domain.FailureTimeout,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &http.Client{Transport: &http.Transport{DialContext: tt.dial}}
			inv := New(nil, Options{HTTPClient: client})

			start := time.Now()
			out := inv.Invoke(context.Background(), service("http://backend.invalid"), "x", nil, 300*time.Millisecond)

			require.False(t, out.OK())
			assert.Equal(t, tt.want, out.Failure.Kind, "detail: %s", out.Failure.Detail)
			assert.Less(t, time.Since(start), time.Second)
		})
	}
}

func TestInvokeTimeoutReturnsAtDeadline(t *testing.T) {
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer ts.Close()
	defer close(release)

	start := time.Now()
	out := New(nil, Options{}).Invoke(context.Background(), service(ts.URL), "x", nil, 100*time.Millisecond)
	elapsed := time.Since(start)

	require.False(t, out.OK())
	assert.Equal(t, domain.FailureTimeout, out.Failure.Kind)
	assert.Less(t, elapsed, time.Second)
	assert.GreaterOrEqual(t, out.Failure.Elapsed, 100*time.Millisecond)
}

func TestInvokeUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	out := New(nil, Options{}).Invoke(context.Background(), service(url), "x", nil, time.Second)
	require.False(t, out.OK())
	assert.Equal(t, domain.FailureUnreachable, out.Failure.Kind)
}

func TestInvokeCancelledCallerIsTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := New(nil, Options{}).Invoke(ctx, service(ts.URL), "x", nil, time.Second)
	require.False(t, out.OK())
	assert.Equal(t, domain.FailureTimeout, out.Failure.Kind)
}

func TestInvokeRateLimitCountsAgainstDeadline(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"content":[]}`)
	}))
	defer ts.Close()

	svc := service(ts.URL)
	inv := New([]domain.ServiceDescriptor{svc}, Options{RPS: 0.5})

	first := inv.Invoke(context.Background(), svc, "x", nil, time.Second)
	require.True(t, first.OK())

	// The next token is two seconds away, beyond the call deadline.
	second := inv.Invoke(context.Background(), svc, "x", nil, 100*time.Millisecond)
	require.False(t, second.OK())
	assert.Equal(t, domain.FailureTimeout, second.Failure.Kind)
}

func TestProbe(t *testing.T) {
	t.Run("counts tools", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "/tools/list", r.URL.Path)
			_, _ = io.WriteString(w, `{"tools":[{"name":"a","inputSchema":{"type":"object"}},{"name":"b","inputSchema":{"type":"object"}}]}`)
		}))
		defer ts.Close()

		res := New(nil, Options{}).Probe(context.Background(), service(ts.URL), time.Second)
		require.Nil(t, res.Failure)
		assert.Equal(t, 2, res.Tools)
		assert.Equal(t, "outlook", res.Service)
	})

	t.Run("wrapped result", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = io.WriteString(w, `{"result":{"tools":[{"name":"a","inputSchema":{"type":"object"}}]}}`)
		}))
		defer ts.Close()

		res := New(nil, Options{}).Probe(context.Background(), service(ts.URL), time.Second)
		require.Nil(t, res.Failure)
		assert.Equal(t, 1, res.Tools)
	})

	t.Run("server error", func(t *testing.T) {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer ts.Close()

		res := New(nil, Options{}).Probe(context.Background(), service(ts.URL), time.Second)
		require.NotNil(t, res.Failure)
		assert.Equal(t, domain.FailureRemote, res.Failure.Kind)
	})
}

func TestBearerToken(t *testing.T) {
	assert.Equal(t, "abc", BearerToken("Bearer abc"))
	assert.Equal(t, "abc", BearerToken("  bearer   abc "))
	assert.Empty(t, BearerToken("Basic abc"))
	assert.Empty(t, BearerToken(""))
}

func TestCredentialFrom(t *testing.T) {
	_, ok := CredentialFrom(context.Background())
	assert.False(t, ok)

	ctx := WithCredential(context.Background(), "  ")
	_, ok = CredentialFrom(ctx)
	assert.False(t, ok, "blank tokens are not attached")

	token, ok := CredentialFrom(WithCredential(context.Background(), "t"))
	assert.True(t, ok)
	assert.Equal(t, "t", token)
}
