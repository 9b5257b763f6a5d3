package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
)

// QuotaReporter exposes the search client's daily call accounting.
type QuotaReporter interface {
	MaxDaily() int64
	DailyCount() int64
	Remaining() int64
	ResetAt() time.Time
}

// QuotaHandler serves the search quota status.
type QuotaHandler struct {
	quota QuotaReporter
}

// NewQuotaHandler creates a QuotaHandler. A nil reporter yields zeroes.
func NewQuotaHandler(q QuotaReporter) *QuotaHandler {
	return &QuotaHandler{quota: q}
}

// QuotaStatus is the search quota in the current 24-hour window.
type QuotaStatus struct {
	DailyLimit int64     `json:"daily_limit" example:"50000"                doc:"Configured daily search call limit, 0 when unlimited"`
	DailyUsed  int64     `json:"daily_used"  example:"142"                  doc:"Search calls used in the current 24-hour window"`
	Remaining  int64     `json:"remaining"   example:"49858"                doc:"Search calls remaining in the current window, -1 when unlimited"`
	Exhausted  bool      `json:"exhausted"                                  doc:"True when further searches fail until the window resets"`
	ResetAt    time.Time `json:"reset_at"    example:"2026-06-16T14:30:00Z" doc:"When the current 24-hour window expires"`
}

// QuotaOutput wraps QuotaStatus as the response body.
type QuotaOutput struct {
	Body QuotaStatus
}

// GetQuota returns the current search quota status.
func (h *QuotaHandler) GetQuota(_ context.Context, _ *struct{}) (*QuotaOutput, error) {
	out := &QuotaOutput{}
	if h.quota == nil {
		return out, nil
	}

	out.Body = QuotaStatus{
		DailyLimit: h.quota.MaxDaily(),
		DailyUsed:  h.quota.DailyCount(),
		Remaining:  h.quota.Remaining(),
		ResetAt:    h.quota.ResetAt(),
	}
	out.Body.Exhausted = out.Body.Remaining == 0
	return out, nil
}

// RegisterQuotaRoutes registers the quota endpoint with the Huma API.
func RegisterQuotaRoutes(api huma.API, h *QuotaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/api/v1/quota",
		Summary:     "Get search quota status",
		Description: "Returns daily item search usage, remaining calls and when the window resets.",
		Tags:        []string{"search"},
	}, h.GetQuota)
}
