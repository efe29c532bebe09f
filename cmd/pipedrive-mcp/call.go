package main

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/bturcanu/pipedrive-connector/pkg/config"
	"github.com/bturcanu/pipedrive-connector/pkg/plugin"
	"github.com/bturcanu/pipedrive-connector/pkg/types"
)

var (
	callArgs    string
	callBaseURL string
)

var callCmd = &cobra.Command{
	Use:   "call <tool>",
	Short: "Invoke one tool and print the raw Pipedrive response",
	Example: `  pipedrive-mcp call pipedrive_get_deal --args '{"id": 42}'
  pipedrive-mcp call pipedrive_list_deals --args '{"status": "open", "limit": 5}' \
    --remote http://localhost:8084`,
	Args: cobra.ExactArgs(1),
	RunE: runCall,
}

func init() {
	callCmd.Flags().StringVarP(&callArgs, "args", "a", "{}", "Tool arguments as a JSON object")
	callCmd.Flags().StringVar(&remoteURL, "remote", "", "Base URL of a connector-pipedrive service")
	callCmd.Flags().StringVar(&remoteAPIKey, "api-key", "", "API key for --remote (default $PIPEDRIVE_CONNECTOR_API_KEY)")
	callCmd.Flags().StringVar(&callBaseURL, "base-url", "", "Override the Pipedrive base URL")
	_ = callCmd.Flags().MarkHidden("base-url")
	rootCmd.AddCommand(callCmd)
}

func runCall(cmd *cobra.Command, args []string) error {
	name := args[0]
	toolArgs, err := types.DecodeArguments(json.RawMessage(callArgs))
	if err != nil {
		return fmt.Errorf("--args: %w", err)
	}

	var text string
	if remoteURL != "" {
		resp, err := remoteClient().Call(cmd.Context(), name, toolArgs)
		if err != nil {
			return err
		}
		text = resp.Text()
	} else {
		opts, err := loadOptions()
		if err != nil {
			return err
		}
		reg, err := plugin.NewRegistry(config.FromOptions(opts), plugin.Options{BaseURL: callBaseURL}, stderrLogger())
		if err != nil {
			return err
		}
		res, err := reg.Invoke(cmd.Context(), uuid.NewString(), name, toolArgs)
		if err != nil {
			return err
		}
		text = res.Text()
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), text)
	return err
}
