package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/notes-service/internal/logging"
)

// Health is a liveness probe used by load balancers and monitoring
// systems.  It returns a plain text "ok" with 200.
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Check is a named readiness probe.  A failing critical check makes the
// service unready; a failing optional one only degrades it.
type Check struct {
	Name     string
	Probe    func(ctx context.Context) error
	Critical bool
}

// ReadyHandler reports whether the service's dependencies are reachable.
type ReadyHandler struct {
	Checks  []Check
	Timeout time.Duration
	Log     *slog.Logger
}

type readyResp struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// Ready handles GET /readyz: 200 when every critical check passes, 503
// otherwise.  Probe errors are logged, never returned.
func (h *ReadyHandler) Ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), h.Timeout)
	defer cancel()

	resp := readyResp{Status: "ok", Checks: make(map[string]string, len(h.Checks))}
	code := http.StatusOK
	for _, chk := range h.Checks {
		if err := chk.Probe(ctx); err != nil {
			h.Log.WarnContext(ctx, "readiness check failed", slog.String("check", chk.Name), logging.Err(err))
			resp.Checks[chk.Name] = "down"
			if chk.Critical {
				resp.Status = "unavailable"
				code = http.StatusServiceUnavailable
			} else if resp.Status == "ok" {
				resp.Status = "degraded"
			}
			continue
		}
		resp.Checks[chk.Name] = "ok"
	}
	return c.JSON(code, resp)
}
