package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/MrSnakeDoc/integrator/internal/domain"
	"github.com/MrSnakeDoc/integrator/internal/httpserver/deps"
	"github.com/MrSnakeDoc/integrator/internal/integrator"
	"github.com/MrSnakeDoc/integrator/internal/logger"
)

type errorResponse struct {
	Error string `json:"error"`
}

// Inbox serves GET /api/inbox?limit=.
func Inbox(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := intParam(r, "limit")
		if err != nil {
			fail(w, d, err)
			return
		}
		serve(w, r, d, func(ctx context.Context) (any, error) {
			return d.Ops.Inbox(ctx, integrator.InboxRequest{Limit: limit})
		})
	}
}

// Calendar serves GET /api/calendar?date=.
func Calendar(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		req := integrator.CalendarRequest{Date: r.URL.Query().Get("date")}
		serve(w, r, d, func(ctx context.Context) (any, error) {
			return d.Ops.Calendar(ctx, req)
		})
	}
}

// Tasks serves GET /api/tasks.
func Tasks(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, d, func(ctx context.Context) (any, error) {
			return d.Ops.Tasks(ctx)
		})
	}
}

// Briefing serves GET /api/briefing.
func Briefing(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, d, func(ctx context.Context) (any, error) {
			return d.Ops.Briefing(ctx)
		})
	}
}

// Search serves GET /api/search?query=&days=.
func Search(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days, err := intParam(r, "days")
		if err != nil {
			fail(w, d, err)
			return
		}
		req := integrator.SearchRequest{Query: r.URL.Query().Get("query"), Days: days}
		serve(w, r, d, func(ctx context.Context) (any, error) {
			return d.Ops.Search(ctx, req)
		})
	}
}

// Health serves GET /api/health.
func Health(d deps.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		serve(w, r, d, func(ctx context.Context) (any, error) {
			return d.Ops.Health(ctx)
		})
	}
}

func serve(w http.ResponseWriter, r *http.Request, d deps.Deps, op func(ctx context.Context) (any, error)) {
	view, err := op(r.Context())
	if err != nil {
		fail(w, d, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, d, http.StatusOK, view)
}

// intParam reads an optional integer query parameter. Absent means nil.
func intParam(r *http.Request, name string) (*int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, &domain.InvalidRequestError{Field: name, Reason: "must be a positive integer"}
	}
	return &n, nil
}

func fail(w http.ResponseWriter, d deps.Deps, err error) {
	var invalid *domain.InvalidRequestError
	if errors.As(err, &invalid) {
		writeJSON(w, d, http.StatusBadRequest, errorResponse{Error: invalid.Error()})
		return
	}
	d.Logger.Error("operation failed", logger.Error(err))
	writeJSON(w, d, http.StatusInternalServerError, errorResponse{Error: http.StatusText(http.StatusInternalServerError)})
}

func writeJSON(w http.ResponseWriter, d deps.Deps, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		d.Logger.Debug("failed to write response", logger.Error(err))
	}
}
