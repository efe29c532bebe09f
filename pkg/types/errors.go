package types

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// ──────────────────────────────────────────────────────────────────────────────
// Validation error (returned during request parsing)
// ──────────────────────────────────────────────────────────────────────────────

type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s %s", e.Field, e.Reason)
}

// ──────────────────────────────────────────────────────────────────────────────
// APIError: structured error returned to callers
// ──────────────────────────────────────────────────────────────────────────────

type APIError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
	Details   any    `json:"details,omitempty"`
	HTTPCode  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// WriteJSON writes the error as JSON to the response writer.
func (e *APIError) WriteJSON(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.HTTPCode)
	_ = json.NewEncoder(w).Encode(e)
}

// ──────────────────────────────────────────────────────────────────────────────
// Common error constructors
// ──────────────────────────────────────────────────────────────────────────────

func ErrBadRequest(msg string) *APIError {
	return &APIError{Code: "BAD_REQUEST", Message: msg, HTTPCode: http.StatusBadRequest}
}

func ErrValidation(err error) *APIError {
	return &APIError{Code: "VALIDATION_ERROR", Message: err.Error(), HTTPCode: http.StatusUnprocessableEntity}
}

func ErrUnauthorized(msg string) *APIError {
	return &APIError{Code: "UNAUTHORIZED", Message: msg, HTTPCode: http.StatusUnauthorized}
}

func ErrNotFound(msg string) *APIError {
	return &APIError{Code: "NOT_FOUND", Message: msg, HTTPCode: http.StatusNotFound}
}

func ErrInternal(msg string) *APIError {
	return &APIError{Code: "INTERNAL_ERROR", Message: msg, Retryable: true, HTTPCode: http.StatusInternalServerError}
}

func ErrRateLimited() *APIError {
	return &APIError{Code: "RATE_LIMITED", Message: "too many requests", Retryable: true, HTTPCode: http.StatusTooManyRequests}
}

func ErrUnknownTool(name string) *APIError {
	return &APIError{Code: "UNKNOWN_TOOL", Message: fmt.Sprintf("no tool named %q", name), HTTPCode: http.StatusNotFound}
}

// ErrUpstream wraps a non-2xx Pipedrive response. The upstream status and
// body are passed through in Details so callers can act on them.
func ErrUpstream(status int, body string) *APIError {
	return &APIError{
		Code:      "PIPEDRIVE_ERROR",
		Message:   fmt.Sprintf("pipedrive returned %d", status),
		Retryable: status == http.StatusTooManyRequests || status >= 500,
		Details:   UpstreamDetails{Status: status, Body: body},
		HTTPCode:  http.StatusBadGateway,
	}
}

// UpstreamDetails is the Details payload of ErrUpstream.
type UpstreamDetails struct {
	Status int    `json:"status"`
	Body   string `json:"body"`
}

func ErrUpstreamUnavailable(detail string) *APIError {
	return &APIError{Code: "PIPEDRIVE_UNAVAILABLE", Message: detail, Retryable: true, HTTPCode: http.StatusBadGateway}
}

func ErrUpstreamTimeout() *APIError {
	return &APIError{Code: "PIPEDRIVE_TIMEOUT", Message: "pipedrive request timed out", Retryable: true, HTTPCode: http.StatusGatewayTimeout}
}
