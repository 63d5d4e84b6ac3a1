package toolexecutor

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/harun/slackmcp/internal/tracing"
	"github.com/harun/slackmcp/pkg/schema"
	"github.com/harun/slackmcp/pkg/slackapi"
)

const (
	tracerName = "github.com/harun/slackmcp/pkg/toolexecutor"

	statusSuccess = "success"
	statusError   = "error"

	// unknownToolLabel keeps arbitrary caller-supplied names out of metric labels.
	unknownToolLabel = "unknown"

	publicChannels = "public_channel"
)

// Observer records per-call metrics.
type Observer interface {
	ObserveToolCall(tool, status string, duration time.Duration)
	ObserveToolError(tool, kind string)
}

// AuditEntry describes one finished call to a tool that writes to Slack.
type AuditEntry struct {
	Tool      string
	CallID    string
	Channel   string
	ErrorKind string // empty on success
	Duration  time.Duration
}

// Auditor records calls that change Slack state.
type Auditor interface {
	AuditToolCall(ctx context.Context, entry AuditEntry)
}

// Options configures an Executor. Zero values fall back to the global
// logger, the global tracer provider and random call IDs.
type Options struct {
	Policy    *ToolPolicy
	Observer  Observer
	Auditor   Auditor
	Tracer    trace.Tracer
	Logger    *zerolog.Logger
	NewCallID func() string
}

type handlerFunc func(ctx context.Context, args map[string]any) (*ToolResult, error)

// Executor dispatches tool calls to Slack. It is immutable after New and
// safe for concurrent use.
type Executor struct {
	api       slackapi.API
	policy    *ToolPolicy
	handlers  map[string]handlerFunc
	observer  Observer
	auditor   Auditor
	tracer    trace.Tracer
	logger    zerolog.Logger
	newCallID func() string
}

// New creates an Executor bound to one Slack API client.
func New(api slackapi.API, opts Options) *Executor {
	e := &Executor{
		api:       api,
		policy:    opts.Policy,
		observer:  opts.Observer,
		auditor:   opts.Auditor,
		tracer:    opts.Tracer,
		newCallID: opts.NewCallID,
	}
	if e.tracer == nil {
		e.tracer = otel.Tracer(tracerName)
	}
	if e.newCallID == nil {
		e.newCallID = uuid.NewString
	}
	if opts.Logger != nil {
		e.logger = opts.Logger.With().Str("component", "toolexecutor").Logger()
	} else {
		e.logger = log.With().Str("component", "toolexecutor").Logger()
	}

	e.handlers = map[string]handlerFunc{
		ToolListChannels:      e.listChannels,
		ToolPostMessage:       e.postMessage,
		ToolPostRichMessage:   e.postRichMessage,
		ToolAddReaction:       e.addReaction,
		ToolGetChannelHistory: e.channelHistory,
		ToolGetThreadReplies:  e.threadReplies,
	}
	return e
}

// Tools lists the registry tools the policy allows, in registry order.
func (e *Executor) Tools() []ToolDefinition {
	return e.policy.FilterTools(Tools())
}

// Dispatch runs one tool call. args is a decoded object or its raw JSON;
// anything else fails validation. It validates args before any remote call,
// makes at most one Slack request and returns either a result or a
// *ToolError, never both.
func (e *Executor) Dispatch(ctx context.Context, name string, args any) (result *ToolResult, err error) {
	start := time.Now()
	callID := e.newCallID()
	ctx = ContextWithCallID(ctx, callID)

	ctx, span := e.tracer.Start(ctx, "tools/call "+name, trace.WithAttributes(
		attribute.String("tool.name", name),
		attribute.String("tool.call_id", callID),
	))
	defer span.End()

	logger := tracing.PropagateToLogger(ctx, e.logger.With().Str("tool", name).Str("call_id", callID).Logger())
	logger.Debug().Msg("Dispatching tool call")

	defer func() {
		if r := recover(); r != nil {
			result, err = nil, FromPanic(name, r)
			logger.Error().Interface("panic", r).Msg("Tool call panicked")
		}
		duration := time.Since(start)
		e.finish(span, logger, name, duration, err)
		if err != nil {
			err = MapError(err)
		}
		e.audit(ctx, name, callID, args, duration, err)
	}()

	return e.dispatch(ctx, name, args)
}

func (e *Executor) dispatch(ctx context.Context, name string, args any) (*ToolResult, error) {
	handler, ok := e.handlers[name]
	if !ok || !e.policy.IsToolAllowed(name) {
		return nil, unknownTool(name)
	}

	validated, err := schemas.Validate(name, args, schema.Strict)
	if err != nil {
		return nil, invalidArguments(name, err)
	}
	return handler(ctx, validated)
}

func (e *Executor) finish(span trace.Span, logger zerolog.Logger, name string, duration time.Duration, err error) {
	label := name
	if _, ok := e.handlers[name]; !ok {
		label = unknownToolLabel
	}

	if err == nil {
		span.SetStatus(codes.Ok, "")
		e.observe(label, statusSuccess, duration, "")
		logger.Info().Dur("duration", duration).Msg("Tool call completed")
		return
	}

	te := MapError(err)
	span.SetAttributes(attribute.String("error.kind", string(te.Kind)))
	span.SetStatus(codes.Error, te.Message)
	e.observe(label, statusError, duration, string(te.Kind))

	event := logger.Error()
	if te.Kind.CallerError() {
		event = logger.Warn()
	}
	event.Dur("duration", duration).Str("kind", string(te.Kind)).Str("error", te.Message).Msg("Tool call failed")
}

func (e *Executor) audit(ctx context.Context, name, callID string, args any, duration time.Duration, err error) {
	if e.auditor == nil {
		return
	}
	spec, ok := lookup(name)
	if !ok || !spec.writes {
		return
	}

	entry := AuditEntry{Tool: name, CallID: callID, Duration: duration}
	entry.Channel = channelArg(args)
	var te *ToolError
	if errors.As(err, &te) {
		entry.ErrorKind = string(te.Kind)
	}
	e.auditor.AuditToolCall(ctx, entry)
}

// channelArg extracts channel_id from the caller's arguments, if present.
func channelArg(args any) string {
	switch t := args.(type) {
	case map[string]any:
		channel, _ := t["channel_id"].(string)
		return channel
	case json.RawMessage:
		var v struct {
			ChannelID string `json:"channel_id"`
		}
		_ = json.Unmarshal(t, &v)
		return v.ChannelID
	}
	return ""
}

func (e *Executor) observe(tool, status string, duration time.Duration, kind string) {
	if e.observer == nil {
		return
	}
	e.observer.ObserveToolCall(tool, status, duration)
	if kind != "" {
		e.observer.ObserveToolError(tool, kind)
	}
}

// checkRemote turns a transport error, an unreadable body or an ok:false
// body into a *ToolError.
func checkRemote(tool string, resp slackapi.Response, err error) error {
	spec, _ := lookup(tool)
	if errors.Is(err, slackapi.ErrMalformedBody) {
		return malformedResponse(tool, spec.action, err)
	}
	if err != nil {
		return transportFailure(tool, spec.action, err)
	}
	if !resp.OK() {
		return remoteFailure(tool, spec.action, resp.RemoteError())
	}
	return nil
}

func listing[T any](tool, output string, resp slackapi.Response, err error) (*ToolResult, error) {
	if err := checkRemote(tool, resp, err); err != nil {
		return nil, err
	}
	text, err := normalize[T](output, resp)
	if err != nil {
		spec, _ := lookup(tool)
		return nil, malformedResponse(tool, spec.action, err)
	}
	return TextResult(text), nil
}

func (e *Executor) listChannels(ctx context.Context, args map[string]any) (*ToolResult, error) {
	in, err := decodeAs[ListChannelsArgs](args)
	if err != nil {
		return nil, invalidArguments(ToolListChannels, err)
	}
	resp, err := e.api.ListConversations(ctx, slackapi.ListConversationsParams{
		Cursor: in.Cursor,
		Limit:  in.Limit,
		Types:  []string{publicChannels},
	})
	return listing[ListChannelsResponse](ToolListChannels, listChannelsOutput, resp, err)
}

func (e *Executor) postMessage(ctx context.Context, args map[string]any) (*ToolResult, error) {
	in, err := decodeAs[PostMessageArgs](args)
	if err != nil {
		return nil, invalidArguments(ToolPostMessage, err)
	}
	resp, err := e.api.PostMessage(ctx, slackapi.PostMessageParams{
		Channel:  in.ChannelID,
		Text:     in.Text,
		ThreadTS: in.ThreadTS,
	})
	if err := checkRemote(ToolPostMessage, resp, err); err != nil {
		return nil, err
	}
	return TextResult(confirmation("Message posted", in.ThreadTS)), nil
}

func (e *Executor) postRichMessage(ctx context.Context, args map[string]any) (*ToolResult, error) {
	in, err := decodeAs[PostRichMessageArgs](args)
	if err != nil {
		return nil, invalidArguments(ToolPostRichMessage, err)
	}

	params := slackapi.PostMessageParams{
		Channel:     in.ChannelID,
		Text:        in.Text,
		ThreadTS:    in.ThreadTS,
		Parse:       in.Parse,
		UnfurlLinks: in.UnfurlLinks,
		UnfurlMedia: in.UnfurlMedia,
	}
	if in.Blocks != nil {
		params.Blocks, err = json.Marshal(in.Blocks)
		if err != nil {
			return nil, invalidArguments(ToolPostRichMessage, err)
		}
	}

	resp, err := e.api.PostMessage(ctx, params)
	if err := checkRemote(ToolPostRichMessage, resp, err); err != nil {
		return nil, err
	}
	return TextResult(confirmation("Rich message posted", in.ThreadTS)), nil
}

func (e *Executor) addReaction(ctx context.Context, args map[string]any) (*ToolResult, error) {
	in, err := decodeAs[AddReactionArgs](args)
	if err != nil {
		return nil, invalidArguments(ToolAddReaction, err)
	}
	resp, err := e.api.AddReaction(ctx, slackapi.AddReactionParams{
		Channel:   in.ChannelID,
		Timestamp: in.Timestamp,
		Name:      in.Reaction,
	})
	if err := checkRemote(ToolAddReaction, resp, err); err != nil {
		return nil, err
	}
	return TextResult("Reaction added successfully"), nil
}

func (e *Executor) channelHistory(ctx context.Context, args map[string]any) (*ToolResult, error) {
	in, err := decodeAs[ChannelHistoryArgs](args)
	if err != nil {
		return nil, invalidArguments(ToolGetChannelHistory, err)
	}
	resp, err := e.api.ConversationsHistory(ctx, slackapi.HistoryParams{
		Channel: in.ChannelID,
		Cursor:  in.Cursor,
		Limit:   in.Limit,
	})
	return listing[HistoryResponse](ToolGetChannelHistory, channelHistoryOutput, resp, err)
}

func (e *Executor) threadReplies(ctx context.Context, args map[string]any) (*ToolResult, error) {
	in, err := decodeAs[ThreadRepliesArgs](args)
	if err != nil {
		return nil, invalidArguments(ToolGetThreadReplies, err)
	}
	resp, err := e.api.ConversationsReplies(ctx, slackapi.RepliesParams{
		Channel: in.ChannelID,
		TS:      in.ThreadTS,
		Cursor:  in.Cursor,
		Limit:   in.Limit,
	})
	return listing[RepliesResponse](ToolGetThreadReplies, threadRepliesOutput, resp, err)
}
