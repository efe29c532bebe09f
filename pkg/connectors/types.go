// Package connectors defines the service-to-service execution protocol: a
// gateway posts an ExecRequest to a connector's /exec endpoint and receives
// an ExecResponse.
package connectors

import (
	"context"
	"encoding/json"
)

// Connector executes a tool action on an external system.
type Connector interface {
	Exec(ctx context.Context, req ExecRequest) ExecResponse
}

// ExecRequest is the payload sent from the gateway to a connector.
type ExecRequest struct {
	EventID  string          `json:"event_id"`
	TenantID string          `json:"tenant_id"`
	AgentID  string          `json:"agent_id"`
	Tool     string          `json:"tool"`
	Action   string          `json:"action"`
	Params   json.RawMessage `json:"params"`
	Resource string          `json:"resource,omitempty"`
}

// ExecResponse is what the connector returns.
type ExecResponse struct {
	Status     string          `json:"status"` // "success" | "error"
	OutputJSON json.RawMessage `json:"output_json,omitempty"`
	Error      string          `json:"error,omitempty"`
	// Code is a machine-readable error class, e.g. VALIDATION_ERROR.
	Code string `json:"code,omitempty"`
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Success wraps output in a success response.
func Success(output json.RawMessage) ExecResponse {
	return ExecResponse{Status: StatusSuccess, OutputJSON: output}
}

// Failure builds an error response.
func Failure(code, msg string) ExecResponse {
	return ExecResponse{Status: StatusError, Code: code, Error: msg}
}
