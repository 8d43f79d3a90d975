package server

import "github.com/accessify/insight/internal/model"

// RunTestRequest is the payload for the scan endpoints.
type RunTestRequest struct {
	URL     string             `json:"url" example:"https://example.com"`
	Options *model.ScanOptions `json:"options,omitempty"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error" example:"test record not found"`
}

// HealthResponse reports process liveness.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
}
