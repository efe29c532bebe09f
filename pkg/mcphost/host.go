// Package mcphost exposes registered Pipedrive tools over the Model Context
// Protocol. Host implements plugin.Host so the plugin registers into it the
// same way it does into any other runtime.
package mcphost

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/bturcanu/pipedrive-connector/pkg/tools"
)

// Host collects tools into an MCP server.
type Host struct {
	server *server.MCPServer
	cfg    map[string]any
	log    *slog.Logger
	names  []string
}

// New creates a host backed by a fresh MCP server.
func New(name, version string, cfg map[string]any, log *slog.Logger) *Host {
	if log == nil {
		log = slog.Default()
	}
	return &Host{
		server: server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		cfg:    cfg,
		log:    log,
	}
}

func (h *Host) Config() map[string]any { return h.cfg }
func (h *Host) Logger() *slog.Logger    { return h.log }

// RegisterTool adds t to the MCP server.
func (h *Host) RegisterTool(t tools.Tool) {
	h.server.AddTool(ToolSchema(t.Descriptor), Handler(t))
	h.names = append(h.names, t.Name)
}

// ToolNames returns the registered tool names in registration order.
func (h *Host) ToolNames() []string {
	out := make([]string, len(h.names))
	copy(out, h.names)
	return out
}

// Server returns the underlying MCP server.
func (h *Host) Server() *server.MCPServer { return h.server }

// ServeStdio serves the protocol on stdin/stdout until EOF.
func (h *Host) ServeStdio() error {
	return server.ServeStdio(h.server)
}

// ToolSchema renders a descriptor as an MCP tool definition.
func ToolSchema(d tools.Descriptor) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(d.Description),
		mcp.WithReadOnlyHintAnnotation(d.ReadOnly()),
		mcp.WithDestructiveHintAnnotation(d.Destructive()),
		mcp.WithIdempotentHintAnnotation(d.Method != http.MethodPost),
		mcp.WithOpenWorldHintAnnotation(true),
	}
	for _, p := range d.Params {
		opts = append(opts, property(p))
	}
	return mcp.NewTool(d.Name, opts...)
}

func property(p tools.Param) mcp.ToolOption {
	var popts []mcp.PropertyOption
	if p.Required {
		popts = append(popts, mcp.Required())
	}
	if p.Description != "" {
		popts = append(popts, mcp.Description(p.Description))
	}
	if len(p.Enum) > 0 {
		popts = append(popts, mcp.Enum(p.Enum...))
	}

	switch p.Type {
	case tools.Integer:
		return mcp.WithNumber(p.Name, append(popts, schemaType(tools.Integer))...)
	case tools.Number:
		return mcp.WithNumber(p.Name, popts...)
	case tools.Boolean:
		return mcp.WithBoolean(p.Name, popts...)
	case tools.Array:
		if p.Items != "" {
			popts = append(popts, mcp.Items(map[string]any{"type": string(p.Items)}))
		}
		return mcp.WithArray(p.Name, popts...)
	case tools.Object:
		return mcp.WithObject(p.Name, popts...)
	default:
		return mcp.WithString(p.Name, popts...)
	}
}

// schemaType overrides the JSON Schema type set by the With* constructor.
func schemaType(t tools.ParamType) mcp.PropertyOption {
	return func(schema map[string]any) {
		schema["type"] = string(t)
	}
}

// Handler adapts a tool to an MCP handler. Every failure is reported as a
// tool error result so the calling model sees the message.
func Handler(t tools.Tool) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := t.Execute(ctx, uuid.NewString(), req.GetArguments())
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(res.Text()), nil
	}
}
