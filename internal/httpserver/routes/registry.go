package routes

import (
	"github.com/go-chi/chi/v5"

	"github.com/MrSnakeDoc/integrator/internal/httpserver/deps"
)

// Registrar mounts one group of routes. Route files call Register from init().
type Registrar func(r chi.Router, d deps.Deps)

var registry []Registrar

// Register queues reg for RegisterAll.
func Register(reg Registrar) {
	registry = append(registry, reg)
}

// RegisterAll is called once from httpserver.New, after the global middlewares.
func RegisterAll(r chi.Router, d deps.Deps) {
	for _, reg := range registry {
		reg(r, d)
	}
}
