package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const readyTimeout = 2 * time.Second

// Pinger checks that a backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RunState reports whether a batch chain is currently executing.
type RunState interface {
	Busy() bool
}

// ProbeResponse is the body of the liveness and readiness probes.
type ProbeResponse struct {
	Status    string `json:"status"`
	RunActive *bool  `json:"run_active,omitempty"`
	Error     string `json:"error,omitempty"`
}

// HealthHandler serves /healthz and /readyz.
type HealthHandler struct {
	ledger Pinger
	runs   RunState
}

// NewHealthHandler creates a HealthHandler. runs may be nil when no
// background driver is running.
func NewHealthHandler(ledger Pinger, runs RunState) *HealthHandler {
	return &HealthHandler{ledger: ledger, runs: runs}
}

// Healthz reports that the process is up and whether a run is active.
func (h *HealthHandler) Healthz(c echo.Context) error {
	resp := ProbeResponse{Status: "ok"}
	if h.runs != nil {
		busy := h.runs.Busy()
		resp.RunActive = &busy
	}
	return c.JSON(http.StatusOK, resp)
}

// Readyz pings the ledger. The service is not ready when the ledger cannot
// be read, since every batch depends on it for de-duplication.
func (h *HealthHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), readyTimeout)
	defer cancel()

	if err := h.ledger.Ping(ctx); err != nil {
		return c.JSON(http.StatusServiceUnavailable, ProbeResponse{
			Status: "unavailable",
			Error:  "ledger: " + err.Error(),
		})
	}
	return c.JSON(http.StatusOK, ProbeResponse{Status: "ready"})
}
