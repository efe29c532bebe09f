package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/bturcanu/pipedrive-connector/pkg/mcphost"
	pdOtel "github.com/bturcanu/pipedrive-connector/pkg/otel"
	"github.com/bturcanu/pipedrive-connector/pkg/plugin"
)

var skipSkill bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the tool catalog over stdio MCP",
	Long: `Start a stdio MCP server with one tool per Pipedrive operation.

On first start the Pipedrive skill file is written to the skill directory
(PIPEDRIVE_SKILL_DIR, or ~/.openclause/skills/pipedrive). An edited skill
file is never overwritten; a newer template is written next to it as
SKILL.md.latest.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipSkill, "skip-skill", false, "Do not scaffold the skill file")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	log := stderrLogger()
	slog.SetDefault(log)

	otelShutdown, err := pdOtel.Setup(cmd.Context(), pdOtel.ConfigFromEnv("pipedrive-mcp", version, false))
	if err != nil {
		log.Error("otel setup failed", "error", err)
	} else {
		defer otelShutdown(context.Background()) //nolint:errcheck // best-effort shutdown
	}

	opts, err := loadOptions()
	if err != nil {
		return err
	}
	host := mcphost.New(plugin.ID, version, opts, log)
	if plugin.Register(host, plugin.Options{SkipSkill: skipSkill}) == 0 {
		return errors.New("no tools registered: set PIPEDRIVE_API_KEY and PIPEDRIVE_DOMAIN")
	}
	return host.ServeStdio()
}
