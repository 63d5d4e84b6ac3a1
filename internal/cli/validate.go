package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/harun/slackmcp/pkg/toolexecutor"
)

var validateCmd = &cobra.Command{
	Use:   "validate <tool> [arguments-json]",
	Short: "Check tool arguments without calling Slack",
	Long: `Validate arguments for a tool the same way tools/call does, without
contacting Slack. Arguments are read from stdin when omitted or "-".
Prints the normalized arguments (defaults applied) or the issues found.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	name := args[0]
	out := cmd.OutOrStdout()

	var raw []byte
	if len(args) == 2 && args[1] != "-" {
		raw = []byte(args[1])
	} else {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading arguments: %w", err)
		}
		raw = data
	}

	var arguments map[string]any
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &arguments); err != nil {
			return exitError(exitValidation, "arguments must be a JSON object: %v", err)
		}
	}

	normalized, err := toolexecutor.Validate(name, arguments)
	if err != nil {
		var te *toolexecutor.ToolError
		if errors.As(err, &te) && te.Failure != nil {
			for _, issue := range te.Failure.Issues {
				fmt.Fprintf(out, "  - %s\n", issue.String())
			}
		}
		return exitError(exitValidation, "%v", err)
	}

	data, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding arguments: %w", err)
	}
	fmt.Fprintln(out, string(data))
	return nil
}
