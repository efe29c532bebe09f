// pipedrive-mcp exposes the Pipedrive tool catalog to agents over the Model
// Context Protocol, and offers one-shot invocation from the shell.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/bturcanu/pipedrive-connector/pkg/config"
)

var (
	version    = "dev"
	configPath string
	verbose    bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pipedrive-mcp",
	Short: "Pipedrive CRM tools for AI agents",
	Long: `pipedrive-mcp registers Pipedrive CRM operations (deals, persons,
organizations, activities, pipelines, stages, notes, users and mail) as agent
tools.

Credentials come from a YAML file (--config) and PIPEDRIVE_* environment
variables, which take precedence:
  PIPEDRIVE_API_KEY, PIPEDRIVE_DOMAIN (or PIPEDRIVE_COMPANY_DOMAIN),
  PIPEDRIVE_API_VERSION, PIPEDRIVE_SKILL_DIR

Usage with an MCP client:
  {
    "mcpServers": {
      "pipedrive": {
        "command": "pipedrive-mcp",
        "args": ["serve"]
      }
    }
  }`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "pipedrive.yaml", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Log debug output to stderr")
}

// loadOptions merges the config file and the environment into a host
// options map.
func loadOptions() (map[string]any, error) {
	file, err := config.LoadFile(configPath)
	if err != nil {
		return nil, err
	}
	return config.EnvOptions(file.Options()), nil
}

// stderrLogger logs to stderr; stdout belongs to the protocol or to command
// output.
func stderrLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
