package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/shopping-notifier/internal/engine"
)

// BatchInvoker runs one batch synchronously. It refuses a new run while
// another is in flight.
type BatchInvoker interface {
	RunNow(ctx context.Context, p engine.Payload) (engine.Response, error)
}

// BatchSubmitter queues one batch for background processing.
type BatchSubmitter interface {
	Submit(ctx context.Context, p engine.Payload) error
}

// InvokeHandler starts batches over HTTP.
type InvokeHandler struct {
	invoker   BatchInvoker
	submitter BatchSubmitter
}

// NewInvokeHandler creates a new InvokeHandler.
func NewInvokeHandler(inv BatchInvoker, sub BatchSubmitter) *InvokeHandler {
	return &InvokeHandler{invoker: inv, submitter: sub}
}

// InvokeInput identifies the batch to run.
type InvokeInput struct {
	Body struct {
		CurrentBatch int    `json:"current_batch" minimum:"0" required:"false" doc:"Zero-based batch index"`
		RunID        string `json:"run_id"        required:"false"            doc:"Run the batch belongs to; generated for batch 0 when empty"`
	}
}

func (in *InvokeInput) payload() engine.Payload {
	return engine.Payload{CurrentBatch: in.Body.CurrentBatch, RunID: in.Body.RunID}
}

// InvokeOutput mirrors the batch response. The HTTP status equals
// statusCode.
type InvokeOutput struct {
	Status int
	Body   engine.Response
}

// Invoke runs a batch and waits for it to finish.
func (h *InvokeHandler) Invoke(ctx context.Context, in *InvokeInput) (*InvokeOutput, error) {
	resp, err := h.invoker.RunNow(ctx, in.payload())
	switch {
	case errors.Is(err, engine.ErrRunInProgress):
		return nil, huma.Error409Conflict("a run is already in progress")
	case err != nil:
		return nil, huma.Error500InternalServerError("running batch failed: " + err.Error())
	}
	return &InvokeOutput{Status: resp.StatusCode, Body: resp}, nil
}

// AcceptedOutput is the response body for the async endpoint.
type AcceptedOutput struct {
	Body StatusResponse
}

// InvokeAsync queues a batch and returns immediately.
func (h *InvokeHandler) InvokeAsync(ctx context.Context, in *InvokeInput) (*AcceptedOutput, error) {
	err := h.submitter.Submit(ctx, in.payload())
	switch {
	case errors.Is(err, engine.ErrRunInProgress):
		return nil, huma.Error409Conflict("a run is already in progress")
	case errors.Is(err, engine.ErrQueueFull):
		return nil, huma.Error503ServiceUnavailable("batch queue full")
	case err != nil:
		return nil, huma.Error500InternalServerError("queueing batch failed: " + err.Error())
	}

	return &AcceptedOutput{Body: StatusResponse{Status: "accepted"}}, nil
}

// RegisterInvokeRoutes registers the invoke endpoints with the Huma API.
func RegisterInvokeRoutes(api huma.API, h *InvokeHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "invoke-batch",
		Method:      http.MethodPost,
		Path:        "/api/v1/invoke",
		Summary:     "Run a batch",
		Description: "Runs one batch of rules: search, match, notify, persist the ledger, " +
			"and trigger the next batch. Responds with the batch status code and summary.",
		Tags:   []string{"batch"},
		Errors: []int{http.StatusBadRequest, http.StatusConflict, http.StatusInternalServerError},
	}, h.Invoke)

	huma.Register(api, huma.Operation{
		OperationID:   "invoke-batch-async",
		Method:        http.MethodPost,
		Path:          "/api/v1/invoke/async",
		Summary:       "Queue a batch",
		Description:   "Queues a batch for the background driver and returns immediately.",
		Tags:          []string{"batch"},
		DefaultStatus: http.StatusAccepted,
		Errors:        []int{http.StatusConflict, http.StatusServiceUnavailable},
	}, h.InvokeAsync)
}
