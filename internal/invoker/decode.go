package invoker

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/MrSnakeDoc/integrator/internal/domain"
)

// envelope covers the shapes backends answer with: a bare CallToolResult,
// the same wrapped in {"result": ...}, or an {"error": ...} object.
type envelope struct {
	Result     json.RawMessage `json:"result"`
	Error      json.RawMessage `json:"error"`
	Content    json.RawMessage `json:"content"`
	Structured json.RawMessage `json:"structuredContent"`
}

// decodeToolResult turns a 2xx body into a payload or a failure.
func decodeToolResult(raw []byte) (*domain.Payload, *domain.Failure) {
	return decodeToolResultDepth(bytes.TrimSpace(raw), 0)
}

func decodeToolResultDepth(raw []byte, depth int) (*domain.Payload, *domain.Failure) {
	if len(raw) == 0 {
		return nil, domain.Failf(domain.FailureProtocol, "empty response")
	}
	if !json.Valid(raw) {
		return nil, domain.Failf(domain.FailureProtocol, "response is not json: %s", snippet(raw))
	}

	switch raw[0] {
	case '[':
		return &domain.Payload{Structured: json.RawMessage(raw)}, nil
	case '{':
	default:
		return nil, domain.Failf(domain.FailureProtocol, "unexpected response: %s", snippet(raw))
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, domain.Failf(domain.FailureProtocol, "decode response: %v", err)
	}
	if hasValue(env.Error) {
		return nil, remoteFailure(env.Error)
	}
	if hasValue(env.Result) && depth == 0 {
		return decodeToolResultDepth(bytes.TrimSpace(env.Result), depth+1)
	}
	if !hasValue(env.Content) && !hasValue(env.Structured) {
		// Not a tool result at all: hand the raw object to the normalizer.
		return &domain.Payload{Structured: json.RawMessage(raw)}, nil
	}

	var res mcp.CallToolResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, domain.Failf(domain.FailureProtocol, "decode tool result: %v", err)
	}

	p := toPayload(&res)
	if res.IsError {
		return nil, domain.Failf(domain.FailureRemote, "%s", errorText(p))
	}
	return p, nil
}

func toPayload(res *mcp.CallToolResult) *domain.Payload {
	p := &domain.Payload{Blocks: make([]domain.Block, 0, len(res.Content))}
	for _, c := range res.Content {
		switch c := c.(type) {
		case *mcp.TextContent:
			p.Blocks = append(p.Blocks, domain.Block{Type: "text", Text: c.Text})
		case *mcp.ImageContent:
			p.Blocks = append(p.Blocks, domain.Block{Type: "image", MIMEType: c.MIMEType})
		case *mcp.EmbeddedResource:
			b := domain.Block{Type: "resource"}
			if c.Resource != nil {
				b.Text = c.Resource.Text
				b.MIMEType = c.Resource.MIMEType
			}
			p.Blocks = append(p.Blocks, b)
		default:
			p.Blocks = append(p.Blocks, domain.Block{Type: "other"})
		}
	}
	if res.StructuredContent != nil {
		if data, err := json.Marshal(res.StructuredContent); err == nil {
			p.Structured = data
		}
	}
	return p
}

func errorText(p *domain.Payload) string {
	var parts []string
	for _, b := range p.Blocks {
		if b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	if len(parts) == 0 {
		return "tool reported an error"
	}
	return strings.Join(parts, "; ")
}

// authKinds are error kinds a backend uses to say the credential was refused.
var authKinds = map[string]bool{
	"auth":            true,
	"auth_rejected":   true,
	"unauthorized":    true,
	"unauthenticated": true,
	"forbidden":       true,
}

// remoteFailure reads an error value that is either a string or an object
// with kind/type/code and message fields.
func remoteFailure(raw json.RawMessage) *domain.Failure {
	var msg string
	if json.Unmarshal(raw, &msg) == nil {
		return domain.Failf(domain.FailureRemote, "%s", msg)
	}

	var obj struct {
		Kind    string `json:"kind"`
		Type    string `json:"type"`
		Code    any    `json:"code"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &obj); err != nil {
		return domain.Failf(domain.FailureRemote, "%s", snippet(raw))
	}

	kind := obj.Kind
	if kind == "" {
		kind = obj.Type
	}
	detail := obj.Message
	if detail == "" {
		detail = snippet(raw)
	}
	if authKinds[strings.ToLower(kind)] {
		return domain.Failf(domain.FailureAuthRejected, "%s", detail)
	}
	if code, ok := obj.Code.(float64); ok && (code == 401 || code == 403) {
		return domain.Failf(domain.FailureAuthRejected, "%s", detail)
	}
	return domain.Failf(domain.FailureRemote, "%s", detail)
}

// decodeToolList counts the tools of a tools/list reply.
func decodeToolList(raw []byte) (int, *domain.Failure) {
	raw = bytes.TrimSpace(raw)

	var wrapped struct {
		Result *mcp.ListToolsResult `json:"result"`
		Error  json.RawMessage      `json:"error"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return 0, domain.Failf(domain.FailureProtocol, "decode tool list: %v", err)
	}
	if hasValue(wrapped.Error) {
		return 0, remoteFailure(wrapped.Error)
	}
	if wrapped.Result != nil {
		return len(wrapped.Result.Tools), nil
	}

	var res mcp.ListToolsResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return 0, domain.Failf(domain.FailureProtocol, "decode tool list: %v", err)
	}
	return len(res.Tools), nil
}

func hasValue(raw json.RawMessage) bool {
	s := bytes.TrimSpace(raw)
	return len(s) > 0 && !bytes.Equal(s, []byte("null"))
}
