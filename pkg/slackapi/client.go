package slackapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/slack-go/slack"
)

// Call outcomes reported to a Recorder.
const (
	StatusOK        = "ok"
	StatusRemote    = "remote_error"
	StatusTransport = "transport_error"
	StatusMalformed = "malformed"
)

// ErrMalformedBody reports a 200 reply whose body is not a JSON object.
var ErrMalformedBody = errors.New("malformed response body")

const errRateLimited = "ratelimited"

// Recorder observes every Slack API call.
type Recorder interface {
	RecordAPICall(method, status string)
}

// ClientConfig configures a Client.
type ClientConfig struct {
	Token    string
	APIURL   string
	Timeout  time.Duration
	Recorder Recorder
}

// Client implements API on top of slack-go. It holds no per-call state and
// is safe for concurrent use.
type Client struct {
	api      *slack.Client
	recorder Recorder
	logger   zerolog.Logger
}

// NewClient builds a Client. The token is required.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("slack token is required")
	}

	httpClient := &http.Client{
		Timeout:   cfg.Timeout,
		Transport: capturingTransport{next: http.DefaultTransport},
	}
	opts := []slack.Option{slack.OptionHTTPClient(httpClient)}
	if cfg.APIURL != "" {
		opts = append(opts, slack.OptionAPIURL(cfg.APIURL))
	}

	return &Client{
		api:      slack.New(cfg.Token, opts...),
		recorder: cfg.Recorder,
		logger:   log.With().Str("component", "slackapi").Logger(),
	}, nil
}

func (c *Client) ListConversations(ctx context.Context, p ListConversationsParams) (Response, error) {
	ctx, raw := withCapture(ctx)
	_, _, err := c.api.GetConversationsContext(ctx, &slack.GetConversationsParameters{
		Cursor: p.Cursor,
		Limit:  p.Limit,
		Types:  p.Types,
	})
	return c.reply("conversations.list", raw, err)
}

func (c *Client) PostMessage(ctx context.Context, p PostMessageParams) (Response, error) {
	opts := make([]slack.MsgOption, 0, 6)
	if p.Text != "" {
		opts = append(opts, slack.MsgOptionText(p.Text, false))
	}
	if p.Blocks != nil {
		blocks, err := rawBlocks(p.Blocks)
		if err != nil {
			return nil, fmt.Errorf("encode blocks: %w", err)
		}
		opts = append(opts, slack.MsgOptionBlocks(blocks...))
	}
	if p.ThreadTS != "" {
		opts = append(opts, slack.MsgOptionTS(p.ThreadTS))
	}
	if p.Parse != "" {
		opts = append(opts, slack.MsgOptionParse(p.Parse == "full"))
	}
	if p.UnfurlLinks != nil {
		if *p.UnfurlLinks {
			opts = append(opts, slack.MsgOptionEnableLinkUnfurl())
		} else {
			opts = append(opts, slack.MsgOptionDisableLinkUnfurl())
		}
	}
	// Media unfurling is on by default; only an explicit false is sent.
	if p.UnfurlMedia != nil && !*p.UnfurlMedia {
		opts = append(opts, slack.MsgOptionDisableMediaUnfurl())
	}

	ctx, raw := withCapture(ctx)
	_, _, err := c.api.PostMessageContext(ctx, p.Channel, opts...)
	return c.reply("chat.postMessage", raw, err)
}

func (c *Client) AddReaction(ctx context.Context, p AddReactionParams) (Response, error) {
	ctx, raw := withCapture(ctx)
	err := c.api.AddReactionContext(ctx, p.Name, slack.NewRefToMessage(p.Channel, p.Timestamp))
	return c.reply("reactions.add", raw, err)
}

func (c *Client) ConversationsHistory(ctx context.Context, p HistoryParams) (Response, error) {
	ctx, raw := withCapture(ctx)
	_, err := c.api.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: p.Channel,
		Cursor:    p.Cursor,
		Limit:     p.Limit,
	})
	return c.reply("conversations.history", raw, err)
}

func (c *Client) ConversationsReplies(ctx context.Context, p RepliesParams) (Response, error) {
	ctx, raw := withCapture(ctx)
	_, _, _, err := c.api.GetConversationRepliesContext(ctx, &slack.GetConversationRepliesParameters{
		ChannelID: p.Channel,
		Timestamp: p.TS,
		Cursor:    p.Cursor,
		Limit:     p.Limit,
	})
	return c.reply("conversations.replies", raw, err)
}

// reply builds the call result from the body Slack actually sent. slack-go
// decodes the same body into its own types; its decode errors are ignored
// here because the caller validates the raw shape itself.
func (c *Client) reply(method string, raw *capture, err error) (Response, error) {
	if !raw.received() {
		return c.failure(method, err)
	}

	var body Response
	if jsonErr := json.Unmarshal(raw.body, &body); jsonErr != nil || body == nil {
		c.record(method, StatusMalformed)
		if jsonErr == nil {
			jsonErr = errors.New("body is null")
		}
		return nil, fmt.Errorf("%s: %w: %v", method, ErrMalformedBody, jsonErr)
	}
	dropNulls(body)

	if !body.OK() {
		c.record(method, StatusRemote)
		c.logger.Debug().Str("method", method).Str("error", body.RemoteError()).Msg("Slack returned an error")
		return body, nil
	}
	c.record(method, StatusOK)
	return body, nil
}

// dropNulls removes null members so they read as absent fields.
func dropNulls(v any) {
	switch t := v.(type) {
	case Response:
		dropNulls(map[string]any(t))
	case map[string]any:
		for k, child := range t {
			if child == nil {
				delete(t, k)
				continue
			}
			dropNulls(child)
		}
	case []any:
		for _, child := range t {
			dropNulls(child)
		}
	}
}

// failure handles calls that produced no usable 200 body: Slack-reported
// errors become an ok:false body, everything else is a transport error.
func (c *Client) failure(method string, err error) (Response, error) {
	if err == nil {
		c.record(method, StatusMalformed)
		return nil, fmt.Errorf("%s: %w: no response body", method, ErrMalformedBody)
	}

	var rateErr *slack.RateLimitedError
	if errors.As(err, &rateErr) {
		c.record(method, StatusRemote)
		c.logger.Warn().Str("method", method).Dur("retry_after", rateErr.RetryAfter).Msg("Slack rate limit hit")
		return Response{"ok": false, "error": errRateLimited}, nil
	}

	var slackErr slack.SlackErrorResponse
	if errors.As(err, &slackErr) {
		c.record(method, StatusRemote)
		return Response{"ok": false, "error": slackErr.Err}, nil
	}

	c.record(method, StatusTransport)
	return nil, fmt.Errorf("%s: %w", method, err)
}

func (c *Client) record(method, status string) {
	if c.recorder != nil {
		c.recorder.RecordAPICall(method, status)
	}
}

// rawBlock forwards one pre-validated block to slack-go without re-modelling it.
type rawBlock struct {
	kind string
	id   string
	data json.RawMessage
}

func (b rawBlock) BlockType() slack.MessageBlockType { return slack.MessageBlockType(b.kind) }
func (b rawBlock) ID() string                        { return b.id }
func (b rawBlock) MarshalJSON() ([]byte, error)      { return b.data, nil }

func rawBlocks(data json.RawMessage) ([]slack.Block, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	blocks := make([]slack.Block, 0, len(items))
	for _, item := range items {
		var head struct {
			Type    string `json:"type"`
			BlockID string `json:"block_id"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return nil, err
		}
		blocks = append(blocks, rawBlock{kind: head.Type, id: head.BlockID, data: item})
	}
	return blocks, nil
}
