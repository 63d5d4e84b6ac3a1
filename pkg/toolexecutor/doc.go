// Package toolexecutor publishes the Slack tools and executes calls to them.
//
// Invariants:
// - The tool list is fixed and ordered; names are unique.
// - Arguments are validated in strict mode before any Slack request.
// - Each call makes at most one Slack request and is never retried.
// - Slack responses are normalized in permissive mode; unknown fields are dropped.
// - A call yields a *ToolResult or a *ToolError, never both.
// - An optional ToolPolicy hides tools; hidden tools behave as unknown.
// - Calls to write tools are reported to an optional Auditor, failures included.
//
// Usage:
//
//	exec := toolexecutor.New(client, toolexecutor.Options{})
//	res, err := exec.Dispatch(ctx, toolexecutor.ToolPostMessage, map[string]any{
//		"channel_id": "C123",
//		"text":       "hello",
//	})
package toolexecutor
