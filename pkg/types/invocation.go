// Package types defines the wire schema of the connector's HTTP API.
package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
	"github.com/bturcanu/pipedrive-connector/pkg/tools"
)

// ──────────────────────────────────────────────────────────────────────────────
// Limits
// ──────────────────────────────────────────────────────────────────────────────

const (
	MaxArgumentsBytes = 64 * 1024 // 64 KB
	MaxCallIDBytes    = 256
	MaxAgentIDBytes   = 256
)

// ──────────────────────────────────────────────────────────────────────────────
// InvokeRequest: body of POST /v1/tools/{name}
// ──────────────────────────────────────────────────────────────────────────────

type InvokeRequest struct {
	// CallID is echoed back and journaled. Generated when empty.
	CallID    string          `json:"call_id,omitempty"`
	AgentID   string          `json:"agent_id,omitempty"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Validate enforces size limits and that arguments, if present, are a JSON
// object.
func (r *InvokeRequest) Validate() error {
	if len(r.CallID) > MaxCallIDBytes {
		return &ValidationError{Field: "call_id", Reason: fmt.Sprintf("exceeds %d bytes", MaxCallIDBytes)}
	}
	if len(r.AgentID) > MaxAgentIDBytes {
		return &ValidationError{Field: "agent_id", Reason: fmt.Sprintf("exceeds %d bytes", MaxAgentIDBytes)}
	}
	if len(r.Arguments) > MaxArgumentsBytes {
		return &ValidationError{Field: "arguments", Reason: fmt.Sprintf("exceeds %d bytes", MaxArgumentsBytes)}
	}
	if _, err := DecodeArguments(r.Arguments); err != nil {
		return &ValidationError{Field: "arguments", Reason: "must be a JSON object"}
	}
	return nil
}

// DecodeArguments parses a raw argument object. Numbers are kept as
// json.Number so large IDs survive. Empty input and null yield an empty map.
func DecodeArguments(raw json.RawMessage) (map[string]any, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return map[string]any{}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var args map[string]any
	if err := dec.Decode(&args); err != nil {
		return nil, fmt.Errorf("decode arguments: %w", err)
	}
	if args == nil {
		args = map[string]any{}
	}
	return args, nil
}

// ──────────────────────────────────────────────────────────────────────────────
// API responses
// ──────────────────────────────────────────────────────────────────────────────

type InvokeResponse struct {
	CallID     string          `json:"call_id"`
	Tool       string          `json:"tool"`
	Content    []tools.Content `json:"content"`
	DurationMS int64           `json:"duration_ms"`
}

// Text concatenates the text content items.
func (r *InvokeResponse) Text() string {
	return (&tools.Result{Content: r.Content}).Text()
}

type ToolList struct {
	Tools []ToolInfo `json:"tools"`
}

// ToolInfo is the public description of one catalog entry.
type ToolInfo struct {
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Method      string      `json:"method"`
	Path        string      `json:"path"`
	APIVersion  string      `json:"api_version"`
	ReadOnly    bool        `json:"read_only"`
	Destructive bool        `json:"destructive"`
	Params      []ParamInfo `json:"params,omitempty"`
}

type ParamInfo struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	In          string   `json:"in"`
	Required    bool     `json:"required,omitempty"`
	Description string   `json:"description,omitempty"`
	Enum        []string `json:"enum,omitempty"`
	Items       string   `json:"items,omitempty"`
}

// NewToolInfo describes d as it would be invoked with the given version
// override.
func NewToolInfo(d tools.Descriptor, forceLegacy bool) ToolInfo {
	info := ToolInfo{
		Name:        d.Name,
		Description: d.Description,
		Method:      d.Method,
		Path:        d.Path,
		APIVersion:  d.Version.String(),
		ReadOnly:    d.ReadOnly(),
		Destructive: d.Destructive(),
	}
	if forceLegacy && d.Version != pipedrive.V1 {
		info.APIVersion = pipedrive.V1.String()
		if d.LegacyMethod != "" {
			info.Method = d.LegacyMethod
		}
	}
	for _, p := range d.Params {
		info.Params = append(info.Params, ParamInfo{
			Name:        p.Name,
			Type:        string(p.Type),
			In:          p.In.String(),
			Required:    p.Required,
			Description: p.Description,
			Enum:        p.Enum,
			Items:       string(p.Items),
		})
	}
	return info
}
