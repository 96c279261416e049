package handler

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"
)

const healthTimeout = 3 * time.Second

// Checker verifies that an infrastructure dependency is reachable.
type Checker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a ping function (sqlite.DB.Ping, redis.Cache.Ping) to
// Checker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// HealthHandler reports the status of every registered dependency.
type HealthHandler struct {
	checks map[string]Checker
	logger *slog.Logger
}

func NewHealthHandler(checks map[string]Checker, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

// HealthStatus is one dependency's entry in the health response.
type HealthStatus struct {
	Status string `json:"status"`
}

// HandleHealth runs every check under one deadline.
//
// HTTP: GET /healthz
// RESPONSE: {"sqlite": {"status": "ok"}, "redis": {"status": "error"}}
// Any failed check turns the status into 503.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]HealthStatus, len(h.checks))
	status := http.StatusOK
	for _, name := range names {
		if err := h.checks[name].Check(ctx); err != nil {
			h.logger.Error("health check failed", slog.String("name", name), slog.String("error", err.Error()))
			results[name] = HealthStatus{Status: "error"}
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = HealthStatus{Status: "ok"}
	}

	writeJSON(w, status, results)
}
