package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/integrator/internal/httpserver/deps"
	"github.com/MrSnakeDoc/integrator/internal/integrator"
)

type servicesResponse struct {
	Total    int                      `json:"total"`
	Services []integrator.ServiceInfo `json:"services"`
}

// Services lists the registry in registration order.
func Services(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		list := d.Ops.Services()
		writeJSON(w, d, http.StatusOK, servicesResponse{
			Total:    len(list),
			Services: list,
		})
	}
}
