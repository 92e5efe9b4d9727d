package server

import "github.com/aman-zulfiqar/jupiter-swap-api-client/internal/flags"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error          string `json:"error"`                     // Human-readable error message
	Code           int    `json:"code"`                      // HTTP status code
	UpstreamStatus int    `json:"upstream_status,omitempty"` // Status returned by the swap service, if any
	Details        any    `json:"details,omitempty"`         // Additional error details (dev mode only)
}

// HealthResponse represents the health check response
type HealthResponse struct {
	OK bool `json:"ok"`
}

// RoutesResponse lists the toggle state of every gateway route
type RoutesResponse struct {
	Items []*flags.Toggle `json:"items"`
}

// RouteUpdateRequest switches a gateway route on or off
type RouteUpdateRequest struct {
	Enabled *bool `json:"enabled"`
}
