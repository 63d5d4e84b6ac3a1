package toolexecutor

import (
	"github.com/harun/slackmcp/pkg/blockkit"
	"github.com/harun/slackmcp/pkg/schema"
)

const (
	timestampPattern = `^\d{10}\.\d{6}$`
	timestampMessage = "Timestamp must be in the format '1234567890.123456'"

	defaultLimit = 100
	maxLimit     = 1000
)

// ListChannelsArgs are the validated arguments of slack_list_channels.
type ListChannelsArgs struct {
	Cursor string `json:"cursor,omitempty"`
	Limit  int    `json:"limit"`
}

// PostMessageArgs are the validated arguments of slack_post_message.
type PostMessageArgs struct {
	ChannelID string `json:"channel_id"`
	Text      string `json:"text"`
	ThreadTS  string `json:"thread_ts,omitempty"`
}

// PostRichMessageArgs are the validated arguments of slack_post_rich_message.
// A nil Blocks means the caller sent none.
type PostRichMessageArgs struct {
	ChannelID   string          `json:"channel_id"`
	Text        string          `json:"text,omitempty"`
	Blocks      blockkit.Blocks `json:"blocks,omitempty"`
	ThreadTS    string          `json:"thread_ts,omitempty"`
	Parse       string          `json:"parse,omitempty"`
	UnfurlLinks *bool           `json:"unfurl_links,omitempty"`
	UnfurlMedia *bool           `json:"unfurl_media,omitempty"`
}

// AddReactionArgs are the validated arguments of slack_add_reaction.
type AddReactionArgs struct {
	ChannelID string `json:"channel_id"`
	Reaction  string `json:"reaction"`
	Timestamp string `json:"timestamp"`
}

// ChannelHistoryArgs are the validated arguments of slack_get_channel_history.
type ChannelHistoryArgs struct {
	ChannelID string `json:"channel_id"`
	Cursor    string `json:"cursor,omitempty"`
	Limit     int    `json:"limit"`
}

// ThreadRepliesArgs are the validated arguments of slack_get_thread_replies.
type ThreadRepliesArgs struct {
	ChannelID string `json:"channel_id"`
	ThreadTS  string `json:"thread_ts"`
	Cursor    string `json:"cursor,omitempty"`
	Limit     int    `json:"limit"`
}

func timestamp(description string) *schema.Node {
	return schema.String(description).Match(timestampPattern, timestampMessage)
}

func cursor() *schema.Node {
	return schema.String("Pagination cursor for next page of results")
}

func limit(description string) *schema.Node {
	return schema.Integer(description).Range(1, maxLimit).WithDefault(defaultLimit)
}

func listChannelsInput() *schema.Node {
	return schema.Object(
		schema.Optional("cursor", cursor()),
		schema.Optional("limit", limit("Maximum number of channels to return (default 100)")),
	)
}

func postMessageInput() *schema.Node {
	return schema.Object(
		schema.Required("channel_id", schema.String("The ID of the channel to post to")),
		schema.Required("text", schema.String("The message text to post")),
		schema.Optional("thread_ts", timestamp("Optional timestamp of parent message to reply in thread. Format: '1234567890.123456'")),
	)
}

func postRichMessageInput() *schema.Node {
	return schema.Object(
		schema.Required("channel_id", schema.String("The ID of the channel to post to")),
		schema.Optional("text", schema.String("Fallback text for notifications and screen readers. Required if blocks is not provided.")),
		schema.Optional("blocks", blockkit.BlocksSchema("Block Kit blocks for structured message layout. Required if text is not provided.")),
		schema.Optional("thread_ts", timestamp("Optional timestamp of parent message to reply in thread. Format: '1234567890.123456'")),
		schema.Optional("parse", schema.String(`How to parse text content. "full" enables link and mrkdwn parsing.`).OneOf("full", "none")),
		schema.Optional("unfurl_links", schema.Boolean("Enable automatic link previews")),
		schema.Optional("unfurl_media", schema.Boolean("Enable automatic media previews")),
	).Refine(textOrBlocks)
}

// textOrBlocks accepts non-empty text or any blocks value, an empty list included.
func textOrBlocks(obj map[string]any) *schema.Issue {
	if text, _ := obj["text"].(string); text != "" {
		return nil
	}
	if _, ok := obj["blocks"]; ok {
		return nil
	}
	return &schema.Issue{Fields: []string{"text", "blocks"}, Message: "Either text or blocks must be provided"}
}

func addReactionInput() *schema.Node {
	return schema.Object(
		schema.Required("channel_id", schema.String("The ID of the channel containing the message")),
		schema.Required("reaction", schema.String("The name of the emoji reaction (without ::)")),
		schema.Required("timestamp", timestamp("The timestamp of the message to react to in the format '1234567890.123456'")),
	)
}

func channelHistoryInput() *schema.Node {
	return schema.Object(
		schema.Required("channel_id", schema.String("The ID of the channel. Use this tool for: browsing latest messages without filters, "+
			"getting ALL messages including bot/automation messages, sequential pagination.")),
		schema.Optional("cursor", cursor()),
		schema.Optional("limit", limit("Number of messages to retrieve (default 100)")),
	)
}

func threadRepliesInput() *schema.Node {
	return schema.Object(
		schema.Required("channel_id", schema.String("The ID of the channel containing the thread")),
		schema.Required("thread_ts", timestamp("The timestamp of the parent message in the format '1234567890.123456'. "+
			"Timestamps in the format without the period can be converted by adding the period such that 6 numbers come after it.")),
		schema.Optional("cursor", cursor()),
		schema.Optional("limit", limit("Number of replies to retrieve (default 100)")),
	)
}
