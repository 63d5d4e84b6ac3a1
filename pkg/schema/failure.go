package schema

import (
	"sort"
	"strings"
)

// Issue is one rule violation. Fields holds dotted paths; a joint rule
// lists every field it constrains.
type Issue struct {
	Fields  []string `json:"fields"`
	Message string   `json:"message"`
}

func (i Issue) String() string {
	fields := strings.Join(i.Fields, ", ")
	if fields == "" {
		return i.Message
	}
	return fields + ": " + i.Message
}

// ValidationFailure reports every issue found in one validation pass.
type ValidationFailure struct {
	Schema string  `json:"schema"`
	Issues []Issue `json:"issues"`
}

func (f *ValidationFailure) Error() string {
	parts := make([]string, 0, len(f.Issues))
	for _, issue := range f.Issues {
		parts = append(parts, issue.String())
	}
	return strings.Join(parts, "; ")
}

// HasField reports whether any issue names the given path.
func (f *ValidationFailure) HasField(path string) bool {
	for _, issue := range f.Issues {
		for _, field := range issue.Fields {
			if field == path {
				return true
			}
		}
	}
	return false
}

func newFailure(name string, issues []Issue) *ValidationFailure {
	seen := make(map[string]bool, len(issues))
	unique := make([]Issue, 0, len(issues))
	for _, issue := range issues {
		key := issue.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, issue)
	}
	sort.SliceStable(unique, func(i, j int) bool {
		a, b := strings.Join(unique[i].Fields, ","), strings.Join(unique[j].Fields, ",")
		if a != b {
			return a < b
		}
		return unique[i].Message < unique[j].Message
	})
	return &ValidationFailure{Schema: name, Issues: unique}
}

func joinPath(path []string, field string) string {
	if len(path) == 0 {
		return field
	}
	if field == "" {
		return strings.Join(path, ".")
	}
	return strings.Join(path, ".") + "." + field
}
