package mcpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// Handler serves one JSON-RPC method. Returning an *RPCError controls the
// error code; any other error is reported as an internal error.
type Handler func(ctx context.Context, params json.RawMessage) (any, error)

// Router maps method names to handlers.
type Router struct {
	mu      sync.RWMutex
	methods map[string]Handler
}

// NewRouter creates an empty router.
func NewRouter() *Router {
	return &Router{methods: make(map[string]Handler)}
}

// RegisterMethod registers or replaces a method handler.
func (r *Router) RegisterMethod(name string, handler Handler) error {
	if name == "" {
		return fmt.Errorf("method name cannot be empty")
	}
	if handler == nil {
		return fmt.Errorf("handler cannot be nil")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.methods[name] = handler
	return nil
}

// HasMethod checks if a method is registered.
func (r *Router) HasMethod(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.methods[name]
	return exists
}

// Methods returns the registered method names, sorted.
func (r *Router) Methods() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.methods))
	for name := range r.methods {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseRequest decodes and validates one JSON-RPC message.
func (r *Router) ParseRequest(data []byte) (*Request, *RPCError) {
	if !json.Valid(data) {
		return nil, &RPCError{Code: ParseError, Message: "Parse error"}
	}

	var req Request
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, &RPCError{Code: InvalidRequest, Message: "Invalid request", Data: err.Error()}
	}
	if bytes.Equal(req.ID, []byte("null")) {
		req.ID = nil
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		return &req, &RPCError{Code: InvalidRequest, Message: "Invalid request: unsupported jsonrpc version"}
	}
	if req.Method == "" {
		return &req, &RPCError{Code: InvalidRequest, Message: "Invalid request: missing method field"}
	}
	req.JSONRPC = jsonRPCVersion
	return &req, nil
}

// RouteRequest runs the handler for req and builds its response.
func (r *Router) RouteRequest(ctx context.Context, req *Request) *Response {
	if req == nil {
		return errorResponse(nil, &RPCError{Code: InvalidRequest, Message: "Invalid request"})
	}

	r.mu.RLock()
	handler, exists := r.methods[req.Method]
	r.mu.RUnlock()

	if !exists {
		return errorResponse(req.ID, &RPCError{
			Code:    MethodNotFound,
			Message: fmt.Sprintf("Method not found: %s", req.Method),
		})
	}

	result, err := handler(ctx, req.Params)
	if err != nil {
		var rpcErr *RPCError
		if errors.As(err, &rpcErr) {
			return errorResponse(req.ID, rpcErr)
		}
		return errorResponse(req.ID, &RPCError{Code: InternalError, Message: err.Error()})
	}
	return &Response{JSONRPC: jsonRPCVersion, ID: req.ID, Result: result}
}

func errorResponse(id json.RawMessage, rpcErr *RPCError) *Response {
	return &Response{JSONRPC: jsonRPCVersion, ID: id, Error: rpcErr}
}
