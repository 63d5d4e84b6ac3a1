package mcpserver

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harun/slackmcp/pkg/schema"
	"github.com/harun/slackmcp/pkg/toolexecutor"
)

type fakeTools struct {
	mu    sync.Mutex
	calls []string
	args  []any
}

func (f *fakeTools) Tools() []toolexecutor.ToolDefinition {
	return []toolexecutor.ToolDefinition{{
		Name:        "echo",
		Description: "Echo text",
		InputSchema: map[string]any{"type": "object"},
	}}
}

func (f *fakeTools) Dispatch(_ context.Context, name string, args any) (*toolexecutor.ToolResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.args = append(f.args, args)
	f.mu.Unlock()

	switch name {
	case "echo":
		var in struct {
			Text string `json:"text"`
		}
		if raw, ok := args.(json.RawMessage); ok {
			_ = json.Unmarshal(raw, &in)
		}
		return toolexecutor.TextResult(in.Text), nil
	case "invalid":
		return nil, &toolexecutor.ToolError{
			Kind:    toolexecutor.KindInvalidArguments,
			Tool:    name,
			Message: "Invalid arguments for invalid: text: Required",
			Failure: &schema.ValidationFailure{Schema: name, Issues: []schema.Issue{{Fields: []string{"text"}, Message: "Required"}}},
		}
	case "remote":
		return nil, &toolexecutor.ToolError{
			Kind:    toolexecutor.KindRemoteFailure,
			Tool:    name,
			Message: "Failed to post message: channel_not_found",
			Remote:  "channel_not_found",
		}
	case "panic":
		panic("handler exploded")
	default:
		return nil, &toolexecutor.ToolError{Kind: toolexecutor.KindUnknownTool, Tool: name, Message: "Unknown tool: " + name}
	}
}

type rpcReply struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *struct {
		Code    int             `json:"code"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"error"`
}

// serve runs the server over the given lines and returns replies keyed by id.
func serve(t *testing.T, tools ToolService, lines ...string) map[string]rpcReply {
	t.Helper()
	srv := New(tools, Options{Info: ServerInfo{Name: "slack-mcp-server", Version: "test"}})

	var out bytes.Buffer
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	require.NoError(t, srv.Serve(context.Background(), in, &out))

	replies := make(map[string]rpcReply)
	scanner := bufio.NewScanner(&out)
	for scanner.Scan() {
		var reply rpcReply
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &reply), scanner.Text())
		assert.Equal(t, "2.0", reply.JSONRPC)
		replies[string(reply.ID)] = reply
	}
	return replies
}

func TestServer_Initialize(t *testing.T) {
	replies := serve(t, &fakeTools{},
		`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"c","version":"1"}}}`,
		`{"jsonrpc":"2.0","method":"notifications/initialized"}`,
		`{"jsonrpc":"2.0","id":2,"method":"initialize","params":{}}`,
		`{"jsonrpc":"2.0","id":"p","method":"ping"}`,
	)
	require.Len(t, replies, 3)

	assert.JSONEq(t, `{"protocolVersion":"2025-03-26","capabilities":{"tools":{}},"serverInfo":{"name":"slack-mcp-server","version":"test"}}`,
		string(replies["1"].Result))
	assert.JSONEq(t, `{"protocolVersion":"2024-11-05","capabilities":{"tools":{}},"serverInfo":{"name":"slack-mcp-server","version":"test"}}`,
		string(replies["2"].Result))
	assert.JSONEq(t, `{}`, string(replies[`"p"`].Result))
}

func TestServer_ToolsList(t *testing.T) {
	replies := serve(t, &fakeTools{}, `{"jsonrpc":"2.0","id":1,"method":"tools/list"}`)
	assert.JSONEq(t, `{"tools":[{"name":"echo","description":"Echo text","inputSchema":{"type":"object"}}]}`,
		string(replies["1"].Result))
}

func TestServer_ToolsCall(t *testing.T) {
	tools := &fakeTools{}
	replies := serve(t, tools,
		`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":{"text":"hi"}}}`,
		`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"invalid","arguments":{}}}`,
		`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"remote"}}`,
		`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"slack_delete_everything"}}`,
		`{"jsonrpc":"2.0","id":5,"method":"tools/call"}`,
		`{"jsonrpc":"2.0","id":6,"method":"tools/call","params":{"name":"panic"}}`,
	)
	require.Len(t, replies, 6)

	t.Run("success", func(t *testing.T) {
		assert.Nil(t, replies["1"].Error)
		assert.JSONEq(t, `{"content":[{"type":"text","text":"hi"}]}`, string(replies["1"].Result))
	})

	t.Run("invalid arguments", func(t *testing.T) {
		reply := replies["2"]
		require.NotNil(t, reply.Error)
		assert.Equal(t, InvalidParams, reply.Error.Code)
		assert.Equal(t, "Invalid arguments for invalid: text: Required", reply.Error.Message)
		assert.JSONEq(t, `{"kind":"InvalidArguments","tool":"invalid","issues":[{"fields":["text"],"message":"Required"}]}`,
			string(reply.Error.Data))
	})

	t.Run("remote failure", func(t *testing.T) {
		reply := replies["3"]
		require.NotNil(t, reply.Error)
		assert.Equal(t, InternalError, reply.Error.Code)
		assert.Contains(t, reply.Error.Message, "channel_not_found")
		assert.JSONEq(t, `{"kind":"RemoteFailure","tool":"remote","remote_error":"channel_not_found"}`, string(reply.Error.Data))
	})

	t.Run("unknown tool", func(t *testing.T) {
		reply := replies["4"]
		require.NotNil(t, reply.Error)
		assert.Equal(t, InvalidParams, reply.Error.Code)
		assert.Equal(t, "Unknown tool: slack_delete_everything", reply.Error.Message)
	})

	t.Run("missing params", func(t *testing.T) {
		reply := replies["5"]
		require.NotNil(t, reply.Error)
		assert.Equal(t, InvalidParams, reply.Error.Code)
		assert.Equal(t, "Params are required", reply.Error.Message)
	})

	t.Run("panic is contained", func(t *testing.T) {
		reply := replies["6"]
		require.NotNil(t, reply.Error)
		assert.Equal(t, InternalError, reply.Error.Code)
		assert.Contains(t, reply.Error.Message, "handler exploded")
	})
}

func TestServer_ToolsCallArguments(t *testing.T) {
	t.Run("should pass arguments through raw", func(t *testing.T) {
		tools := &fakeTools{}
		serve(t, tools,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"echo","arguments":["x"]}}`,
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"echo"}}`,
		)

		tools.mu.Lock()
		defer tools.mu.Unlock()
		require.Len(t, tools.args, 2)
		assert.ElementsMatch(t, []any{json.RawMessage(`["x"]`), nil}, tools.args)
	})

	t.Run("should report non-object arguments as invalid arguments", func(t *testing.T) {
		exec := toolexecutor.New(nil, toolexecutor.Options{})
		replies := serve(t, exec,
			`{"jsonrpc":"2.0","id":1,"method":"tools/call","params":{"name":"slack_list_channels","arguments":[]}}`,
			`{"jsonrpc":"2.0","id":2,"method":"tools/call","params":{"name":"slack_post_message","arguments":"x"}}`,
		)

		for _, id := range []string{"1", "2"} {
			reply := replies[id]
			require.NotNil(t, reply.Error, id)
			assert.Equal(t, InvalidParams, reply.Error.Code, id)

			var data struct {
				Kind   string         `json:"kind"`
				Issues []schema.Issue `json:"issues"`
			}
			require.NoError(t, json.Unmarshal(reply.Error.Data, &data))
			assert.Equal(t, string(toolexecutor.KindInvalidArguments), data.Kind, id)
			require.NotEmpty(t, data.Issues, id)
			assert.Contains(t, reply.Error.Message, "Expected: object", id)
		}
	})
}

func TestServer_ProtocolErrors(t *testing.T) {
	replies := serve(t, &fakeTools{},
		`{not json`,
		`{"jsonrpc":"2.0","id":7,"method":"resources/list"}`,
		`{"jsonrpc":"2.0","id":8}`,
		`{"jsonrpc":"2.0","method":"tools/call","params":{"name":"echo"}}`,
	)

	require.Contains(t, replies, "null")
	assert.Equal(t, ParseError, replies["null"].Error.Code)

	require.Contains(t, replies, "7")
	assert.Equal(t, MethodNotFound, replies["7"].Error.Code)
	assert.Equal(t, "Method not found: resources/list", replies["7"].Error.Message)

	require.Contains(t, replies, "8")
	assert.Equal(t, InvalidRequest, replies["8"].Error.Code)
}

func TestServer_RejectsBatch(t *testing.T) {
	replies := serve(t, &fakeTools{}, `[{"jsonrpc":"2.0","id":1,"method":"ping"}]`)
	require.Contains(t, replies, "null")
	assert.Equal(t, InvalidRequest, replies["null"].Error.Code)
}

func TestServer_NotificationsGetNoResponse(t *testing.T) {
	tools := &fakeTools{}
	srv := New(tools, Options{})

	var out bytes.Buffer
	in := strings.NewReader(`{"jsonrpc":"2.0","method":"notifications/initialized"}` + "\n" +
		`{"jsonrpc":"2.0","method":"notifications/cancelled","params":{"requestId":1}}` + "\n")
	require.NoError(t, srv.Serve(context.Background(), in, &out))
	assert.Empty(t, out.String())
	assert.Empty(t, tools.calls)
}

func TestServer_ContextCancel(t *testing.T) {
	srv := New(&fakeTools{}, Options{})
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, pr, &bytes.Buffer{}) }()

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}

func TestRouter(t *testing.T) {
	r := NewRouter()

	t.Run("should reject nil handler and empty name", func(t *testing.T) {
		assert.Error(t, r.RegisterMethod("x", nil))
		assert.Error(t, r.RegisterMethod("", func(context.Context, json.RawMessage) (any, error) { return nil, nil }))
	})

	t.Run("should list registered methods", func(t *testing.T) {
		srv := New(&fakeTools{}, Options{})
		assert.Equal(t, []string{"initialize", "ping", "tools/call", "tools/list"}, srv.Router().Methods())
		assert.True(t, srv.Router().HasMethod(MethodToolsCall))
		assert.False(t, srv.Router().HasMethod(MethodInitialized))
	})

	t.Run("should treat null id as notification", func(t *testing.T) {
		req, rpcErr := r.ParseRequest([]byte(`{"jsonrpc":"2.0","id":null,"method":"ping"}`))
		require.Nil(t, rpcErr)
		assert.True(t, req.IsNotification())
	})

	t.Run("should reject wrong version", func(t *testing.T) {
		_, rpcErr := r.ParseRequest([]byte(`{"jsonrpc":"1.0","id":1,"method":"ping"}`))
		require.NotNil(t, rpcErr)
		assert.Equal(t, InvalidRequest, rpcErr.Code)
	})
}
