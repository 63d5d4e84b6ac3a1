package toolexecutor

import (
	"encoding/json"

	"github.com/harun/slackmcp/pkg/schema"
	"github.com/harun/slackmcp/pkg/slackapi"
)

const contentTypeText = "text"

// Content is one item of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ToolResult is the success envelope of a tool call.
type ToolResult struct {
	Content []Content `json:"content"`
}

// TextResult wraps text as a single-item result.
func TextResult(text string) *ToolResult {
	return &ToolResult{Content: []Content{{Type: contentTypeText, Text: text}}}
}

// Text returns the text of the first item.
func (r *ToolResult) Text() string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

// normalize validates a Slack body against the named output schema in
// permissive mode, decodes it into T and renders it as compact JSON. The
// pagination cursor passes through untouched.
func normalize[T any](schemaName string, resp slackapi.Response) (string, error) {
	validated, err := schemas.Validate(schemaName, map[string]any(resp), schema.Permissive)
	if err != nil {
		return "", err
	}
	typed, err := decodeAs[T](validated)
	if err != nil {
		return "", err
	}
	data, err := json.Marshal(typed)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// confirmation picks the action text; a thread timestamp always means a reply.
func confirmation(posted, threadTS string) string {
	if threadTS != "" {
		return "Reply sent to thread successfully"
	}
	return posted + " successfully"
}

// decodeAs converts a validated generic value into its typed form.
func decodeAs[T any](v map[string]any) (T, error) {
	var out T
	data, err := json.Marshal(v)
	if err != nil {
		return out, err
	}
	err = json.Unmarshal(data, &out)
	return out, err
}
