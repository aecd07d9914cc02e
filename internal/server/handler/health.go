package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// healthCheckTimeout bounds the whole probe fan-out so a wedged dependency
// cannot hang the endpoint.
const healthCheckTimeout = 5 * time.Second

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Probe func(ctx context.Context) error
}

// HealthHandler fans a request out to every registered dependency probe and
// reports per-component status.
type HealthHandler struct {
	checks []HealthCheck
	logger *slog.Logger
}

// NewHealthHandler creates a HealthHandler over the given probes.
func NewHealthHandler(checks []HealthCheck, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{checks: checks, logger: logger}
}

// Check reports overall and per-dependency health. Any failing probe turns
// the response into a 503 with the component errors listed.
// GET /api/health
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	components := make(map[string]string, len(h.checks))
	healthy := true
	for _, c := range h.checks {
		if err := c.Probe(ctx); err != nil {
			healthy = false
			components[c.Name] = err.Error()
			h.logger.WarnContext(ctx, "health probe failed",
				slog.String("dependency", c.Name),
				slog.String("error", err.Error()),
			)
			continue
		}
		components[c.Name] = "ok"
	}

	status := "ok"
	code := http.StatusOK
	if !healthy {
		status = "degraded"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
	})
}
