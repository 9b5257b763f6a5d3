// Package handlers implements the HTTP surface of the shopping notifier:
// batch invocation, quota status and health probes.
package handlers

// StatusResponse is a generic status response body.
type StatusResponse struct {
	Status string `json:"status" example:"ok"`
}
