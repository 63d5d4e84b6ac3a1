package toolexecutor

import "github.com/harun/slackmcp/pkg/schema"

// Tool names.
const (
	ToolListChannels      = "slack_list_channels"
	ToolPostMessage       = "slack_post_message"
	ToolPostRichMessage   = "slack_post_rich_message"
	ToolAddReaction       = "slack_add_reaction"
	ToolGetChannelHistory = "slack_get_channel_history"
	ToolGetThreadReplies  = "slack_get_thread_replies"
)

// ToolDefinition is a tool as published to callers.
type ToolDefinition struct {
	Name        string         `json:"name" yaml:"name"`
	Description string         `json:"description" yaml:"description"`
	InputSchema map[string]any `json:"inputSchema" yaml:"inputSchema"`
}

type toolSpec struct {
	name        string
	description string
	input       *schema.Node
	// action completes "Failed to <action>: ..." messages.
	action string
	// writes marks tools that change Slack state; their calls are audited.
	writes bool
}

// registry is the fixed, ordered tool list.
var registry = []toolSpec{
	{
		name:        ToolListChannels,
		description: "List public channels in the workspace with pagination",
		input:       listChannelsInput(),
		action:      "list channels",
	},
	{
		name:        ToolPostMessage,
		description: "Post a plain text message to a Slack channel or reply to a thread",
		input:       postMessageInput(),
		action:      "post message",
		writes:      true,
	},
	{
		name: ToolPostRichMessage,
		description: "Post a rich structured message to Slack with Block Kit support. Can post to channels or reply to threads. " +
			"Supports plain text, markdown formatting, and rich Block Kit layouts with sections, images, dividers, headers, and more.",
		input:  postRichMessageInput(),
		action: "post rich message",
		writes: true,
	},
	{
		name:        ToolAddReaction,
		description: "Add a reaction emoji to a message",
		input:       addReactionInput(),
		action:      "add reaction",
		writes:      true,
	},
	{
		name: ToolGetChannelHistory,
		description: "Get messages from a channel in chronological order. Use this when: 1) You need the latest conversation flow " +
			"without specific filters, 2) You want ALL messages including bot/automation messages, 3) You need to browse " +
			"messages sequentially with pagination.",
		input:  channelHistoryInput(),
		action: "get channel history",
	},
	{
		name:        ToolGetThreadReplies,
		description: "Get all replies in a message thread",
		input:       threadRepliesInput(),
		action:      "get thread replies",
	},
}

// schemas holds every tool input under the tool name and every normalized
// response under its output name.
var schemas = newSchemaSet()

func newSchemaSet() *schema.Set {
	set := schema.NewSet()
	for _, spec := range registry {
		set.MustRegister(spec.name, spec.input)
	}
	set.MustRegister(listChannelsOutput, envelope("channels", channelSchema()))
	set.MustRegister(channelHistoryOutput, envelope("messages", messageSchema()))
	set.MustRegister(threadRepliesOutput, envelope("messages", messageSchema()))
	return set
}

// Tools lists every tool in registration order. The input schema is the
// strict JSON Schema rendering, so unknown arguments are advertised as invalid.
func Tools() []ToolDefinition {
	defs := make([]ToolDefinition, 0, len(registry))
	for _, spec := range registry {
		defs = append(defs, spec.definition())
	}
	return defs
}

// Lookup returns the named tool.
func Lookup(name string) (ToolDefinition, bool) {
	spec, ok := lookup(name)
	if !ok {
		return ToolDefinition{}, false
	}
	return spec.definition(), true
}

// Validate checks arguments for the named tool without calling Slack and
// returns them with defaults applied.
func Validate(name string, args map[string]any) (map[string]any, error) {
	if _, ok := lookup(name); !ok {
		return nil, unknownTool(name)
	}
	out, err := schemas.Validate(name, args, schema.Strict)
	if err != nil {
		return nil, invalidArguments(name, err)
	}
	return out, nil
}

func lookup(name string) (toolSpec, bool) {
	for _, spec := range registry {
		if spec.name == name {
			return spec, true
		}
	}
	return toolSpec{}, false
}

func (s toolSpec) definition() ToolDefinition {
	return ToolDefinition{
		Name:        s.name,
		Description: s.description,
		InputSchema: s.input.Document(schema.Strict),
	}
}
