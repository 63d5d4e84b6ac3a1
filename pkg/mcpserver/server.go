package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/harun/slackmcp/internal/tracing"
)

const (
	maxMessageSize = 16 * 1024 * 1024
	tracerName     = "github.com/harun/slackmcp/pkg/mcpserver"
)

// Options configures a Server.
type Options struct {
	Info   ServerInfo
	Logger *zerolog.Logger
}

// Server speaks MCP as newline-delimited JSON-RPC over a reader/writer pair.
// Requests run concurrently; each response is written as one line.
type Server struct {
	router *Router
	logger zerolog.Logger

	writeMu  sync.Mutex
	inFlight sync.WaitGroup
}

// New creates a server exposing tools.
func New(tools ToolService, opts Options) *Server {
	logger := log.With().Str("component", "mcpserver").Logger()
	if opts.Logger != nil {
		logger = opts.Logger.With().Str("component", "mcpserver").Logger()
	}

	router := NewRouter()
	registerHandlers(router, tools, opts.Info)
	return &Server{router: router, logger: logger}
}

// Router exposes the method table.
func (s *Server) Router() *Router {
	return s.router
}

// Serve reads messages from in until EOF or ctx is done, then waits for
// in-flight requests to finish.
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)

	go func() {
		scanner := bufio.NewScanner(in)
		scanner.Buffer(make([]byte, 64*1024), maxMessageSize)
		for scanner.Scan() {
			line := bytes.TrimSpace(scanner.Bytes())
			if len(line) == 0 {
				continue
			}
			msg := append([]byte(nil), line...)
			select {
			case lines <- msg:
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	s.logger.Info().Msg("MCP server running on stdio")

	for {
		select {
		case <-ctx.Done():
			s.inFlight.Wait()
			return ctx.Err()
		case err := <-readErr:
			s.inFlight.Wait()
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			s.logger.Info().Msg("Input closed, MCP server stopping")
			return nil
		case msg := <-lines:
			s.inFlight.Add(1)
			go func() {
				defer s.inFlight.Done()
				s.handle(ctx, msg, out)
			}()
		}
	}
}

func (s *Server) handle(ctx context.Context, msg []byte, out io.Writer) {
	var req *Request
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error().Interface("panic", r).Msg("Request handler panicked")
			if req != nil && !req.IsNotification() {
				s.write(out, errorResponse(req.ID, &RPCError{Code: InternalError, Message: fmt.Sprint(r)}))
			}
		}
	}()

	req, rpcErr := s.router.ParseRequest(msg)
	if rpcErr != nil {
		s.logger.Warn().Str("error", rpcErr.Message).Msg("Rejected message")
		var id json.RawMessage
		if req != nil {
			if req.IsNotification() {
				return
			}
			id = req.ID
		}
		s.write(out, errorResponse(id, rpcErr))
		return
	}

	if req.IsNotification() {
		if req.Method != MethodInitialized {
			s.logger.Debug().Str("method", req.Method).Msg("Ignoring notification")
		}
		return
	}

	ctx = tracing.WithRequestID(ctx, string(req.ID))
	ctx, span := tracing.StartSpan(ctx, tracerName, "rpc "+req.Method,
		attribute.String("rpc.system", "jsonrpc"),
		semconv.RPCMethod(req.Method),
	)
	defer span.End()

	logger := tracing.PropagateToLogger(ctx, s.logger)
	logger.Debug().Str("method", req.Method).Msg("Handling request")

	resp := s.router.RouteRequest(ctx, req)
	if resp.Error != nil {
		span.SetAttributes(semconv.RPCJsonrpcErrorCode(resp.Error.Code))
		span.SetStatus(codes.Error, resp.Error.Message)
	}
	s.write(out, resp)
}

func (s *Server) write(out io.Writer, resp *Response) {
	data, err := json.Marshal(resp)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
		data, _ = json.Marshal(errorResponse(resp.ID, &RPCError{Code: InternalError, Message: "failed to encode response"}))
	}
	data = append(data, '\n')

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if _, err := out.Write(data); err != nil {
		s.logger.Error().Err(err).Msg("Failed to write response")
	}
}
