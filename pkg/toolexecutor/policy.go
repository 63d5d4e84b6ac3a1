package toolexecutor

import (
	"fmt"
	"path"

	"github.com/rs/zerolog/log"
)

// ToolPolicy limits which registry tools a server exposes. Entries are tool
// names or path.Match globs such as "slack_get_*".
type ToolPolicy struct {
	Allow []string `json:"allow" mapstructure:"allow"` // empty means all
	Deny  []string `json:"deny" mapstructure:"deny"`   // overrides allow
}

// IsToolAllowed checks if a tool is allowed by the policy
func (tp *ToolPolicy) IsToolAllowed(toolName string) bool {
	if tp == nil {
		return true
	}

	for _, denied := range tp.Deny {
		if matchTool(denied, toolName) {
			return false
		}
	}

	if len(tp.Allow) == 0 {
		return true
	}
	for _, allowed := range tp.Allow {
		if matchTool(allowed, toolName) {
			return true
		}
	}
	return false
}

// Validate rejects malformed patterns and warns about entries that match
// no registered tool.
func (tp *ToolPolicy) Validate() error {
	if tp == nil {
		return nil
	}

	for _, list := range [][]string{tp.Allow, tp.Deny} {
		for _, pattern := range list {
			if _, err := path.Match(pattern, ""); err != nil {
				return fmt.Errorf("invalid tool pattern %q: %w", pattern, err)
			}
			if !matchesAny(pattern) {
				log.Warn().Str("pattern", pattern).Msg("Tool policy entry matches no tool")
			}
		}
	}
	return nil
}

// FilterTools keeps the allowed definitions, preserving order.
func (tp *ToolPolicy) FilterTools(tools []ToolDefinition) []ToolDefinition {
	if tp == nil {
		return tools
	}

	filtered := make([]ToolDefinition, 0, len(tools))
	for _, tool := range tools {
		if tp.IsToolAllowed(tool.Name) {
			filtered = append(filtered, tool)
		}
	}
	return filtered
}

func matchTool(pattern, name string) bool {
	if pattern == name || pattern == "*" {
		return true
	}
	ok, err := path.Match(pattern, name)
	return err == nil && ok
}

func matchesAny(pattern string) bool {
	for _, spec := range registry {
		if matchTool(pattern, spec.name) {
			return true
		}
	}
	return false
}
