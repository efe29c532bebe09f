// Package tools maps named Pipedrive operations to REST calls.
//
// Every tool is described by a static Descriptor. Invoking a tool type-checks
// the caller's arguments against the descriptor's parameter table, builds a
// single pipedrive.Request and wraps the raw JSON response in a text content
// envelope. No state is shared between invocations.
package tools

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

// ParamType is the semantic type of a tool parameter.
type ParamType string

const (
	String  ParamType = "string"
	Integer ParamType = "integer"
	Number  ParamType = "number"
	Boolean ParamType = "boolean"
	Array   ParamType = "array"
	Object  ParamType = "object"
)

// Location says where a parameter is placed in the outgoing request.
type Location int

const (
	InQuery Location = iota
	InPath
	InBody
)

func (l Location) String() string {
	switch l {
	case InPath:
		return "path"
	case InBody:
		return "body"
	default:
		return "query"
	}
}

// Param declares one accepted argument.
type Param struct {
	Name        string
	Type        ParamType
	In          Location
	Required    bool
	Description string
	Enum        []string
	// Items is the element type for Array params.
	Items ParamType
}

// Descriptor is the static definition of a tool.
type Descriptor struct {
	Name        string
	Description string
	Method      string
	// LegacyMethod replaces Method when a current-version tool is forced
	// onto the v1 API. Empty means Method is used on both.
	LegacyMethod string
	Path         string
	Version      pipedrive.APIVersion
	Params       []Param
	// ContactShim rewrites flat email/phone strings into the structured
	// multi-value shape before sending.
	ContactShim bool
}

// ReadOnly reports whether the tool never mutates remote state.
func (d Descriptor) ReadOnly() bool {
	return d.Method == http.MethodGet
}

// Destructive reports whether the tool deletes remote data.
func (d Descriptor) Destructive() bool {
	return d.Method == http.MethodDelete
}

// Content is one item of a tool result envelope.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is the uniform envelope returned to the host runtime.
type Result struct {
	Content []Content `json:"content"`
}

// TextResult wraps a raw JSON response as a single text content item.
func TextResult(raw json.RawMessage) *Result {
	return &Result{Content: []Content{{Type: "text", Text: string(raw)}}}
}

// Text concatenates the text of every content item.
func (r *Result) Text() string {
	if r == nil {
		return ""
	}
	var s string
	for _, c := range r.Content {
		s += c.Text
	}
	return s
}

// ValidationError is returned when arguments don't match the parameter table.
type ValidationError struct {
	Tool   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation: %s: %s %s", e.Tool, e.Field, e.Reason)
}
