package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/integrator/internal/httpserver/deps"
	"github.com/MrSnakeDoc/integrator/internal/httpserver/mw"
)

func init() { Register(registerMCP) }

// registerMCP mounts the streamable HTTP transport. It answers GET, POST
// and DELETE on the same path.
func registerMCP(r chi.Router, d deps.Deps) {
	if d.MCP == nil {
		return
	}
	r.With(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger)).Handle("/mcp", d.MCP)
}
