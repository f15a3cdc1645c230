package handlers

import (
	"net/http"

	"github.com/MrSnakeDoc/integrator/internal/httpserver/deps"
)

type readyzResponse struct {
	Ready          bool `json:"ready"`
	ServicesLoaded int  `json:"services_loaded"`
}

// Readyz is ready once at least one backend service is registered.
func Readyz(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		loaded := len(d.Ops.Services())
		status := http.StatusOK
		if loaded == 0 {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, d, status, readyzResponse{
			Ready:          loaded > 0,
			ServicesLoaded: loaded,
		})
	}
}
