package handler

import (
	"context"
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"
)

// HealthCheck probes one dependency.
type HealthCheck func(ctx context.Context) error

// Health reports liveness plus the state of the registered checks.
// Optional dependencies (redis, rabbitmq) are reported but never fail
// the probe; only checks named in critical do.
type Health struct {
	checks   map[string]HealthCheck
	critical map[string]bool
}

func NewHealth() *Health {
	return &Health{checks: map[string]HealthCheck{}, critical: map[string]bool{}}
}

// Register adds a named check.
func (h *Health) Register(name string, critical bool, fn HealthCheck) *Health {
	h.checks[name] = fn
	h.critical[name] = critical
	return h
}

// Handle serves GET /healthz.
func (h *Health) Handle(c echo.Context) error {
	ctx, cancel := reqCtx(c)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for n := range h.checks {
		names = append(names, n)
	}
	sort.Strings(names)

	status := http.StatusOK
	deps := echo.Map{}
	for _, n := range names {
		if err := h.checks[n](ctx); err != nil {
			deps[n] = "down"
			if h.critical[n] {
				status = http.StatusServiceUnavailable
			}
			continue
		}
		deps[n] = "up"
	}
	state := "ok"
	if status != http.StatusOK {
		state = "degraded"
	}
	return c.JSON(status, echo.Map{"status": state, "deps": deps})
}
