package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/bturcanu/pipedrive-connector/pkg/config"
	"github.com/bturcanu/pipedrive-connector/pkg/sdk/client"
	"github.com/bturcanu/pipedrive-connector/pkg/tools"
	"github.com/bturcanu/pipedrive-connector/pkg/types"
)

var (
	remoteURL    string
	remoteAPIKey string
	jsonOutput   bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tool catalog",
	Long: `List every tool with its HTTP method, API version and path.

With --remote the catalog is fetched from a running connector-pipedrive
service instead of the built-in table.`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&remoteURL, "remote", "", "Base URL of a connector-pipedrive service")
	toolsCmd.Flags().StringVar(&remoteAPIKey, "api-key", "", "API key for --remote (default $PIPEDRIVE_CONNECTOR_API_KEY)")
	toolsCmd.Flags().BoolVar(&jsonOutput, "json", false, "Print the catalog as JSON")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, _ []string) error {
	var list []types.ToolInfo
	if remoteURL != "" {
		var err error
		list, err = remoteClient().ListTools(cmd.Context())
		if err != nil {
			return fmt.Errorf("list remote tools: %w", err)
		}
	} else {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		cfg := config.FromOptions(opts)
		for _, d := range tools.Catalog() {
			list = append(list, types.NewToolInfo(d, cfg.ForceLegacy))
		}
	}

	out := cmd.OutOrStdout()
	if jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(types.ToolList{Tools: list})
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMETHOD\tVERSION\tPATH")
	for _, t := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.Name, t.Method, t.APIVersion, t.Path)
	}
	return tw.Flush()
}

func remoteClient() *client.Client {
	key := remoteAPIKey
	if key == "" {
		key = os.Getenv("PIPEDRIVE_CONNECTOR_API_KEY")
	}
	return client.New(remoteURL, key)
}
