package evidence

import (
	"errors"
	"fmt"
	"time"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
	"github.com/bturcanu/pipedrive-connector/pkg/tools"
)

// Outcome statuses.
const (
	StatusSuccess  = "success"
	StatusInvalid  = "invalid"
	StatusUnknown  = "unknown_tool"
	StatusAPIError = "api_error"
	StatusError    = "error"
)

// Invocation is one journaled tool call.
type Invocation struct {
	CallID   string `json:"call_id"`
	TenantID string `json:"tenant_id"`
	AgentID  string `json:"agent_id,omitempty"`
	Tool     string `json:"tool"`
	ArgsHash string `json:"args_hash"`

	Status         string `json:"status"`
	UpstreamStatus int    `json:"upstream_status,omitempty"`
	Error          string `json:"error,omitempty"`
	ResultHash     string `json:"result_hash,omitempty"`
	DurationMS     int64  `json:"duration_ms"`

	ReceivedAt time.Time `json:"received_at"`
	Hash       string    `json:"hash"`
	PrevHash   string    `json:"prev_hash"`
}

// NewInvocation starts a journal entry. args are hashed, never stored.
func NewInvocation(callID, tenantID, agentID, tool string, args map[string]any) (*Invocation, error) {
	if args == nil {
		args = map[string]any{}
	}
	argsHash, err := HashPayload(args)
	if err != nil {
		return nil, err
	}
	return &Invocation{
		CallID:     callID,
		TenantID:   tenantID,
		AgentID:    agentID,
		Tool:       tool,
		ArgsHash:   argsHash,
		ReceivedAt: time.Now().UTC(),
	}, nil
}

// Complete records the outcome of the call.
func (inv *Invocation) Complete(res *tools.Result, err error, elapsed time.Duration) {
	inv.DurationMS = elapsed.Milliseconds()
	if err != nil {
		inv.Status = classify(err)
		inv.Error = err.Error()
		var apiErr *pipedrive.APIError
		if errors.As(err, &apiErr) {
			inv.UpstreamStatus = apiErr.StatusCode
			// The upstream body may echo CRM data.
			inv.Error = fmt.Sprintf("pipedrive API error %d", apiErr.StatusCode)
		}
		return
	}
	inv.Status = StatusSuccess
	inv.ResultHash = HashBytes([]byte(res.Text()))
}

func classify(err error) string {
	var ve *tools.ValidationError
	var apiErr *pipedrive.APIError
	switch {
	case errors.As(err, &ve):
		return StatusInvalid
	case errors.Is(err, tools.ErrUnknownTool):
		return StatusUnknown
	case errors.As(err, &apiErr):
		return StatusAPIError
	default:
		return StatusError
	}
}

type canonCall struct {
	CallID     string `json:"call_id"`
	TenantID   string `json:"tenant_id"`
	AgentID    string `json:"agent_id"`
	Tool       string `json:"tool"`
	ArgsHash   string `json:"args_hash"`
	ReceivedAt string `json:"received_at"`
}

type canonOutcome struct {
	Status         string `json:"status"`
	UpstreamStatus int    `json:"upstream_status"`
	Error          string `json:"error"`
	ResultHash     string `json:"result_hash"`
	DurationMS     int64  `json:"duration_ms"`
}

// Canonical returns the byte forms that feed the chain hash.
func (inv *Invocation) Canonical() (call, outcome []byte, err error) {
	call, err = CanonicalJSON(canonCall{
		CallID:     inv.CallID,
		TenantID:   inv.TenantID,
		AgentID:    inv.AgentID,
		Tool:       inv.Tool,
		ArgsHash:   inv.ArgsHash,
		ReceivedAt: inv.ReceivedAt.UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return nil, nil, err
	}
	outcome, err = CanonicalJSON(canonOutcome{
		Status:         inv.Status,
		UpstreamStatus: inv.UpstreamStatus,
		Error:          inv.Error,
		ResultHash:     inv.ResultHash,
		DurationMS:     inv.DurationMS,
	})
	if err != nil {
		return nil, nil, err
	}
	return call, outcome, nil
}

// Seal links inv to prevHash and returns the canonical bytes it hashed.
func (inv *Invocation) Seal(prevHash string) (call, outcome []byte, err error) {
	call, outcome, err = inv.Canonical()
	if err != nil {
		return nil, nil, err
	}
	inv.PrevHash = prevHash
	inv.Hash = ChainHash(prevHash, call, outcome)
	return call, outcome, nil
}
