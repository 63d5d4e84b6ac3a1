package toolexecutor

import "github.com/harun/slackmcp/pkg/schema"

// Output schema names.
const (
	listChannelsOutput   = "slack_list_channels.response"
	channelHistoryOutput = "slack_get_channel_history.response"
	threadRepliesOutput  = "slack_get_thread_replies.response"
)

// Every remote field is optional: Slack may omit any of them.

type TopicInfo struct {
	Creator *string  `json:"creator,omitempty"`
	LastSet *float64 `json:"last_set,omitempty"`
	Value   *string  `json:"value,omitempty"`
}

type Channel struct {
	ConversationHostID *string    `json:"conversation_host_id,omitempty"`
	Created            *float64   `json:"created,omitempty"`
	ID                 *string    `json:"id,omitempty"`
	IsArchived         *bool      `json:"is_archived,omitempty"`
	Name               *string    `json:"name,omitempty"`
	NameNormalized     *string    `json:"name_normalized,omitempty"`
	NumMembers         *float64   `json:"num_members,omitempty"`
	Purpose            *TopicInfo `json:"purpose,omitempty"`
	SharedTeamIDs      []string   `json:"shared_team_ids,omitempty"`
	Topic              *TopicInfo `json:"topic,omitempty"`
	Updated            *float64   `json:"updated,omitempty"`
}

type Reaction struct {
	Count *float64 `json:"count,omitempty"`
	Name  *string  `json:"name,omitempty"`
	URL   *string  `json:"url,omitempty"`
	Users []string `json:"users,omitempty"`
}

type Message struct {
	Reactions       []Reaction `json:"reactions,omitempty"`
	ReplyCount      *float64   `json:"reply_count,omitempty"`
	ReplyUsers      []string   `json:"reply_users,omitempty"`
	ReplyUsersCount *float64   `json:"reply_users_count,omitempty"`
	Subtype         *string    `json:"subtype,omitempty"`
	Text            *string    `json:"text,omitempty"`
	ThreadTS        *string    `json:"thread_ts,omitempty"`
	TS              *string    `json:"ts,omitempty"`
	Type            *string    `json:"type,omitempty"`
	User            *string    `json:"user,omitempty"`
}

// ResponseMetadata carries the opaque pagination cursor.
type ResponseMetadata struct {
	NextCursor *string `json:"next_cursor,omitempty"`
}

type ListChannelsResponse struct {
	Error            *string           `json:"error,omitempty"`
	OK               *bool             `json:"ok,omitempty"`
	ResponseMetadata *ResponseMetadata `json:"response_metadata,omitempty"`
	Channels         []Channel         `json:"channels,omitempty"`
}

type HistoryResponse struct {
	Error            *string           `json:"error,omitempty"`
	OK               *bool             `json:"ok,omitempty"`
	ResponseMetadata *ResponseMetadata `json:"response_metadata,omitempty"`
	Messages         []Message         `json:"messages,omitempty"`
}

// RepliesResponse shares the history shape.
type RepliesResponse = HistoryResponse

func topicSchema() *schema.Node {
	return schema.Object(
		schema.Optional("creator", schema.String("")),
		schema.Optional("last_set", schema.Number("")),
		schema.Optional("value", schema.String("")),
	)
}

func channelSchema() *schema.Node {
	return schema.Object(
		schema.Optional("conversation_host_id", schema.String("")),
		schema.Optional("created", schema.Number("")),
		schema.Optional("id", schema.String("")),
		schema.Optional("is_archived", schema.Boolean("")),
		schema.Optional("name", schema.String("")),
		schema.Optional("name_normalized", schema.String("")),
		schema.Optional("num_members", schema.Number("")),
		schema.Optional("purpose", topicSchema()),
		schema.Optional("shared_team_ids", schema.Array(schema.String(""), "")),
		schema.Optional("topic", topicSchema()),
		schema.Optional("updated", schema.Number("")),
	)
}

func reactionSchema() *schema.Node {
	return schema.Object(
		schema.Optional("count", schema.Number("")),
		schema.Optional("name", schema.String("")),
		schema.Optional("url", schema.String("")),
		schema.Optional("users", schema.Array(schema.String(""), "")),
	)
}

func messageSchema() *schema.Node {
	return schema.Object(
		schema.Optional("reactions", schema.Array(reactionSchema(), "")),
		schema.Optional("reply_count", schema.Number("")),
		schema.Optional("reply_users", schema.Array(schema.String(""), "")),
		schema.Optional("reply_users_count", schema.Number("")),
		schema.Optional("subtype", schema.String("")),
		schema.Optional("text", schema.String("")),
		schema.Optional("thread_ts", schema.String("")),
		schema.Optional("ts", schema.String("")),
		schema.Optional("type", schema.String("")),
		schema.Optional("user", schema.String("")),
	)
}

// envelope builds the shared response shape around one payload list.
func envelope(payload string, items *schema.Node) *schema.Node {
	return schema.Object(
		schema.Optional("error", schema.String("")),
		schema.Optional("ok", schema.Boolean("")),
		schema.Optional("response_metadata", schema.Object(
			schema.Optional("next_cursor", schema.String("")),
		)),
		schema.Optional(payload, schema.Array(items, "")),
	)
}
