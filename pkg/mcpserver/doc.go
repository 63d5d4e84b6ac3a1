// Package mcpserver serves a ToolService over the Model Context Protocol
// using newline-delimited JSON-RPC 2.0 on a reader/writer pair (stdio).
//
// Supported methods are initialize, ping, tools/list and tools/call.
// Notifications get no response. Tool failures keep their message and carry
// {kind, issues, remote_error} in the error data; caller errors use -32602,
// all other failures -32603.
package mcpserver
