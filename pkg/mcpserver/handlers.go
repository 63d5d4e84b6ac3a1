package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/harun/slackmcp/pkg/toolexecutor"
)

// DefaultProtocolVersion is answered when the client does not name one.
const DefaultProtocolVersion = "2024-11-05"

// MCP methods.
const (
	MethodInitialize  = "initialize"
	MethodInitialized = "notifications/initialized"
	MethodPing        = "ping"
	MethodToolsList   = "tools/list"
	MethodToolsCall   = "tools/call"
)

// ToolService is the tool surface the server exposes.
type ToolService interface {
	Tools() []toolexecutor.ToolDefinition
	// Dispatch receives arguments as raw JSON, or nil when none were sent.
	Dispatch(ctx context.Context, name string, args any) (*toolexecutor.ToolResult, error)
}

func registerHandlers(r *Router, tools ToolService, info ServerInfo) {
	_ = r.RegisterMethod(MethodInitialize, func(_ context.Context, params json.RawMessage) (any, error) {
		var p initializeParams
		if len(params) > 0 {
			if err := json.Unmarshal(params, &p); err != nil {
				return nil, &RPCError{Code: InvalidParams, Message: "Invalid params", Data: err.Error()}
			}
		}
		version := p.ProtocolVersion
		if version == "" {
			version = DefaultProtocolVersion
		}
		return initializeResult{
			ProtocolVersion: version,
			Capabilities:    map[string]any{"tools": map[string]any{}},
			ServerInfo:      info,
		}, nil
	})

	_ = r.RegisterMethod(MethodPing, func(context.Context, json.RawMessage) (any, error) {
		return map[string]any{}, nil
	})

	_ = r.RegisterMethod(MethodToolsList, func(context.Context, json.RawMessage) (any, error) {
		return map[string]any{"tools": tools.Tools()}, nil
	})

	_ = r.RegisterMethod(MethodToolsCall, func(ctx context.Context, params json.RawMessage) (any, error) {
		if len(params) == 0 || bytes.Equal(params, []byte("null")) {
			return nil, &RPCError{Code: InvalidParams, Message: "Params are required"}
		}
		var p callToolParams
		if err := json.Unmarshal(params, &p); err != nil {
			return nil, &RPCError{Code: InvalidParams, Message: "Invalid params", Data: err.Error()}
		}

		var args any
		if len(p.Arguments) > 0 {
			args = p.Arguments
		}
		result, err := tools.Dispatch(ctx, p.Name, args)
		if err != nil {
			return nil, toolErrorToRPC(toolexecutor.MapError(err))
		}
		return result, nil
	})
}

// toolErrorToRPC keeps the tool error message as the JSON-RPC message and
// carries the kind and details in data.
func toolErrorToRPC(te *toolexecutor.ToolError) *RPCError {
	code := InternalError
	if te.Kind.CallerError() {
		code = InvalidParams
	}

	data := errorData{Kind: string(te.Kind), Tool: te.Tool, RemoteError: te.Remote}
	if te.Failure != nil {
		data.Issues = te.Failure.Issues
	}
	return &RPCError{Code: code, Message: te.Message, Data: data}
}
