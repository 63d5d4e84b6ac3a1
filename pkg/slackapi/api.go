package slackapi

import (
	"context"
	"encoding/json"
)

// Response is a decoded Slack Web API body: ok, error and the method payload.
type Response map[string]any

// OK reports the body's ok flag.
func (r Response) OK() bool {
	ok, _ := r["ok"].(bool)
	return ok
}

// RemoteError returns the error string Slack reported, if any.
func (r Response) RemoteError() string {
	msg, _ := r["error"].(string)
	return msg
}

// ListConversationsParams maps to conversations.list.
type ListConversationsParams struct {
	Cursor string
	Limit  int
	Types  []string
}

// PostMessageParams maps to chat.postMessage. Empty Text and nil Blocks are
// not sent; nil flags leave Slack's defaults in place.
type PostMessageParams struct {
	Channel     string
	Text        string
	ThreadTS    string
	Blocks      json.RawMessage
	Parse       string
	UnfurlLinks *bool
	UnfurlMedia *bool
}

// AddReactionParams maps to reactions.add.
type AddReactionParams struct {
	Channel   string
	Timestamp string
	Name      string
}

// HistoryParams maps to conversations.history.
type HistoryParams struct {
	Channel string
	Cursor  string
	Limit   int
}

// RepliesParams maps to conversations.replies. TS is the parent message.
type RepliesParams struct {
	Channel string
	TS      string
	Cursor  string
	Limit   int
}

// API is the subset of the Slack Web API the tools use. Implementations
// return ok:false bodies as a Response, not an error; an error means the
// call itself did not complete.
type API interface {
	ListConversations(ctx context.Context, p ListConversationsParams) (Response, error)
	PostMessage(ctx context.Context, p PostMessageParams) (Response, error)
	AddReaction(ctx context.Context, p AddReactionParams) (Response, error)
	ConversationsHistory(ctx context.Context, p HistoryParams) (Response, error)
	ConversationsReplies(ctx context.Context, p RepliesParams) (Response, error)
}
