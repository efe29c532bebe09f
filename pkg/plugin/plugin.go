// Package plugin wires the Pipedrive tools into a host runtime: it reads the
// host configuration, registers every catalog tool and scaffolds the skill
// file.
package plugin

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bturcanu/pipedrive-connector/pkg/config"
	"github.com/bturcanu/pipedrive-connector/pkg/pipedrive"
	"github.com/bturcanu/pipedrive-connector/pkg/skill"
	"github.com/bturcanu/pipedrive-connector/pkg/tools"
)

// ID is the plugin identifier reported to hosts.
const ID = "pipedrive"

// Host is the runtime that loads the plugin.
type Host interface {
	Config() map[string]any
	RegisterTool(t tools.Tool)
	Logger() *slog.Logger
}

// Options tune registration. The zero value is production behaviour.
type Options struct {
	// BaseURL replaces https://<domain>.pipedrive.com.
	BaseURL    string
	HTTPClient *http.Client
	// SkipSkill disables the skill-file scaffold.
	SkipSkill bool
}

// NewRegistry validates cfg and builds the client and tool registry.
func NewRegistry(cfg config.Plugin, opts Options, log *slog.Logger) (*tools.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var clientOpts []pipedrive.Option
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, pipedrive.WithBaseURL(opts.BaseURL))
	}
	if opts.HTTPClient != nil {
		clientOpts = append(clientOpts, pipedrive.WithHTTPClient(opts.HTTPClient))
	}
	client := pipedrive.NewClient(cfg, clientOpts...)

	reg, err := tools.NewRegistry(client,
		tools.WithLogger(log),
		tools.WithForceLegacy(cfg.ForceLegacy),
	)
	if err != nil {
		return nil, fmt.Errorf("build tool registry: %w", err)
	}
	return reg, nil
}

// Register registers every tool with host and returns how many were
// registered. Missing credentials are logged and yield zero tools; the
// skill file is only scaffolded after a successful registration.
func Register(host Host, opts Options) int {
	log := host.Logger()
	if log == nil {
		log = slog.Default()
	}
	log = log.With("plugin", ID)

	cfg := config.FromOptions(host.Config())
	reg, err := NewRegistry(cfg, opts, log)
	if err != nil {
		log.Warn("pipedrive plugin disabled", "error", err)
		return 0
	}

	n := 0
	for _, t := range reg.Tools() {
		host.RegisterTool(t)
		n++
	}
	log.Info("pipedrive tools registered",
		"count", n,
		"domain", pipedrive.NormalizeDomain(cfg.Domain),
		"legacy", cfg.ForceLegacy,
	)

	if !opts.SkipSkill {
		skill.Ensure(log, cfg.SkillDir)
	}
	return n
}
