package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/harun/slackmcp/pkg/toolexecutor"
)

var toolsFormat string

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Print the tool registry",
	Long:  `Print every tool with its description and input schema, in registry order.`,
	Args:  cobra.NoArgs,
	RunE:  runTools,
}

func init() {
	toolsCmd.Flags().StringVar(&toolsFormat, "format", "json", "output format: json | yaml")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	tools := toolexecutor.Tools()
	out := cmd.OutOrStdout()

	switch toolsFormat {
	case "json":
		data, err := json.MarshalIndent(map[string]any{"tools": tools}, "", "  ")
		if err != nil {
			return fmt.Errorf("encoding tools: %w", err)
		}
		fmt.Fprintln(out, string(data))
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(map[string]any{"tools": tools}); err != nil {
			return fmt.Errorf("encoding tools: %w", err)
		}
		return enc.Close()
	default:
		return exitError(exitConfig, "unknown format %q (must be json or yaml)", toolsFormat)
	}
	return nil
}
