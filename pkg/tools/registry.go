package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
)

// ErrUnknownTool is returned by Invoke for a name not in the catalog.
var ErrUnknownTool = errors.New("unknown tool")

// Doer performs a single Pipedrive request. *pipedrive.Client satisfies it.
type Doer interface {
	Do(ctx context.Context, req pipedrive.Request) (json.RawMessage, error)
}

// Registry holds the catalog and dispatches invocations.
type Registry struct {
	doer        Doer
	log         *slog.Logger
	forceLegacy bool
	descriptors []Descriptor
	byName      map[string]int
	metrics     *callMetrics
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the logger used for per-call records.
func WithLogger(l *slog.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// WithForceLegacy routes every current-version tool to the v1 API.
func WithForceLegacy(on bool) Option {
	return func(r *Registry) { r.forceLegacy = on }
}

// WithDescriptors replaces the built-in catalog.
func WithDescriptors(ds []Descriptor) Option {
	return func(r *Registry) { r.descriptors = ds }
}

// NewRegistry validates the catalog and returns a ready registry.
func NewRegistry(doer Doer, opts ...Option) (*Registry, error) {
	r := &Registry{
		doer:        doer,
		log:         slog.Default(),
		descriptors: Catalog(),
		metrics:     newCallMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if err := ValidateCatalog(r.descriptors); err != nil {
		return nil, err
	}
	r.byName = make(map[string]int, len(r.descriptors))
	for i, d := range r.descriptors {
		r.byName[d.Name] = i
	}
	return r, nil
}

// Descriptors returns the catalog in registration order.
func (r *Registry) Descriptors() []Descriptor {
	out := make([]Descriptor, len(r.descriptors))
	copy(out, r.descriptors)
	return out
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Descriptor{}, false
	}
	return r.descriptors[i], true
}

// Tools returns one bound Tool per descriptor.
func (r *Registry) Tools() []Tool {
	out := make([]Tool, len(r.descriptors))
	for i, d := range r.descriptors {
		out[i] = Tool{Descriptor: d, registry: r}
	}
	return out
}

// Invoke runs the named tool. callID is only used for logging.
func (r *Registry) Invoke(ctx context.Context, callID, name string, args map[string]any) (*Result, error) {
	d, ok := r.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}

	req, err := d.Build(args, r.forceLegacy)
	if err != nil {
		r.metrics.record(ctx, d.Name, "invalid", 0)
		return nil, err
	}

	start := time.Now()
	raw, err := r.doer.Do(ctx, req)
	elapsed := time.Since(start)
	if err != nil {
		status := "error"
		var apiErr *pipedrive.APIError
		if errors.As(err, &apiErr) {
			status = "api_error"
		}
		r.metrics.record(ctx, d.Name, status, elapsed)
		r.log.WarnContext(ctx, "pipedrive tool failed",
			"tool", d.Name,
			"call_id", callID,
			"version", req.Version.String(),
			"duration_ms", elapsed.Milliseconds(),
			"error", err,
		)
		return nil, err
	}

	r.metrics.record(ctx, d.Name, "success", elapsed)
	r.log.DebugContext(ctx, "pipedrive tool call",
		"tool", d.Name,
		"call_id", callID,
		"method", req.Method,
		"version", req.Version.String(),
		"duration_ms", elapsed.Milliseconds(),
	)
	return TextResult(raw), nil
}

// Tool is a descriptor bound to the registry that executes it.
type Tool struct {
	Descriptor
	registry *Registry
}

// Execute invokes the tool with the given arguments.
func (t Tool) Execute(ctx context.Context, callID string, args map[string]any) (*Result, error) {
	return t.registry.Invoke(ctx, callID, t.Name, args)
}

var placeholderRE = regexp.MustCompile(`\{([a-z_]+)\}`)

// ValidateCatalog checks the static invariants of a descriptor set: unique
// names, and a one-to-one match between path placeholders and required path
// params.
func ValidateCatalog(ds []Descriptor) error {
	seen := make(map[string]bool, len(ds))
	for _, d := range ds {
		if d.Name == "" {
			return fmt.Errorf("catalog: descriptor with empty name (path %s)", d.Path)
		}
		if seen[d.Name] {
			return fmt.Errorf("catalog: duplicate tool name %q", d.Name)
		}
		seen[d.Name] = true

		placeholders := map[string]bool{}
		for _, m := range placeholderRE.FindAllStringSubmatch(d.Path, -1) {
			placeholders[m[1]] = true
		}
		params := map[string]bool{}
		for _, p := range d.Params {
			if params[p.Name] {
				return fmt.Errorf("catalog: %s declares %q twice", d.Name, p.Name)
			}
			params[p.Name] = true
			if p.In != InPath {
				continue
			}
			if !p.Required {
				return fmt.Errorf("catalog: %s path param %q must be required", d.Name, p.Name)
			}
			if !placeholders[p.Name] {
				return fmt.Errorf("catalog: %s path param %q not in path %s", d.Name, p.Name, d.Path)
			}
			delete(placeholders, p.Name)
		}
		for name := range placeholders {
			return fmt.Errorf("catalog: %s path placeholder {%s} has no param", d.Name, name)
		}
	}
	return nil
}
