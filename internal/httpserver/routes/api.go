package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/integrator/internal/httpserver/deps"
	"github.com/MrSnakeDoc/integrator/internal/httpserver/handlers"
	"github.com/MrSnakeDoc/integrator/internal/httpserver/mw"
)

func init() { Register(registerAPI) }

func registerAPI(r chi.Router, d deps.Deps) {
	r.Route("/api", func(api chi.Router) {
		api.Use(mw.AllowOnlyCIDRS(d.AllowedCIDRS, d.TrustProxy, d.Logger), mw.EnforceHost(d.AllowedHosts, d.Logger))

		api.Get("/inbox", handlers.Inbox(d))
		api.Get("/calendar", handlers.Calendar(d))
		api.Get("/tasks", handlers.Tasks(d))
		api.Get("/briefing", handlers.Briefing(d))
		api.Get("/search", handlers.Search(d))
		api.Get("/health", handlers.Health(d))
	})
}
