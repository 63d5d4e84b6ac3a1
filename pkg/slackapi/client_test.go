package slackapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	method string
	status string
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []call
}

func (r *fakeRecorder) RecordAPICall(method, status string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{method, status})
}

func (r *fakeRecorder) last() call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

// fakeSlack serves canned bodies per method and captures the last form.
type fakeSlack struct {
	mu     sync.Mutex
	bodies map[string]string
	forms  map[string]url.Values
}

func newFakeSlack(bodies map[string]string) *fakeSlack {
	return &fakeSlack{bodies: bodies, forms: make(map[string]url.Values)}
}

func (f *fakeSlack) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	method := strings.TrimPrefix(r.URL.Path, "/api/")
	_ = r.ParseForm()

	f.mu.Lock()
	f.forms[method] = r.Form
	body, ok := f.bodies[method]
	f.mu.Unlock()

	if !ok {
		body = `{"ok":false,"error":"unknown_method"}`
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func (f *fakeSlack) form(method string) url.Values {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.forms[method]
}

func newTestClient(t *testing.T, fake *fakeSlack) (*Client, *fakeRecorder) {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	rec := &fakeRecorder{}
	client, err := NewClient(ClientConfig{
		Token:    "xoxb-test",
		APIURL:   srv.URL + "/api/",
		Timeout:  5 * time.Second,
		Recorder: rec,
	})
	require.NoError(t, err)
	return client, rec
}

func TestNewClient(t *testing.T) {
	_, err := NewClient(ClientConfig{})
	assert.Error(t, err)
}

func TestClient_ListConversations(t *testing.T) {
	fake := newFakeSlack(map[string]string{
		"conversations.list": `{"ok":true,"channels":[{"id":"C1","name":"general","num_members":3,
			"purpose":{"value":"chat","creator":"U1","last_set":1700000000}}],
			"response_metadata":{"next_cursor":"dGVhbTpDMDYx"}}`,
	})
	client, rec := newTestClient(t, fake)

	resp, err := client.ListConversations(context.Background(), ListConversationsParams{
		Cursor: "cur-1",
		Limit:  100,
		Types:  []string{"public_channel"},
	})
	require.NoError(t, err)
	assert.True(t, resp.OK())

	form := fake.form("conversations.list")
	assert.Equal(t, "public_channel", form.Get("types"))
	assert.Equal(t, "cur-1", form.Get("cursor"))
	assert.Equal(t, "100", form.Get("limit"))

	meta := resp["response_metadata"].(map[string]any)
	assert.Equal(t, "dGVhbTpDMDYx", meta["next_cursor"])

	channels := resp["channels"].([]any)
	require.Len(t, channels, 1)
	ch := channels[0].(map[string]any)
	assert.Equal(t, "C1", ch["id"])
	assert.Equal(t, "general", ch["name"])
	assert.Equal(t, "chat", ch["purpose"].(map[string]any)["value"])

	assert.Equal(t, call{"conversations.list", StatusOK}, rec.last())
}

func TestClient_PostMessage(t *testing.T) {
	t.Run("should forward text and thread", func(t *testing.T) {
		fake := newFakeSlack(map[string]string{
			"chat.postMessage": `{"ok":true,"channel":"C1","ts":"1234567890.000100"}`,
		})
		client, _ := newTestClient(t, fake)

		resp, err := client.PostMessage(context.Background(), PostMessageParams{
			Channel:  "C1",
			Text:     "hello",
			ThreadTS: "1234567890.123456",
		})
		require.NoError(t, err)
		assert.True(t, resp.OK())
		assert.Equal(t, "1234567890.000100", resp["ts"])

		form := fake.form("chat.postMessage")
		assert.Equal(t, "C1", form.Get("channel"))
		assert.Equal(t, "hello", form.Get("text"))
		assert.Equal(t, "1234567890.123456", form.Get("thread_ts"))
		assert.Empty(t, form.Get("blocks"))
	})

	t.Run("should forward blocks and flags verbatim", func(t *testing.T) {
		fake := newFakeSlack(map[string]string{
			"chat.postMessage": `{"ok":true,"channel":"C1","ts":"1234567890.000100"}`,
		})
		client, _ := newTestClient(t, fake)

		blocks := json.RawMessage(`[{"type":"divider","block_id":"d1"},{"type":"section","text":{"type":"mrkdwn","text":"*hi*"}}]`)
		no, yes := false, true
		_, err := client.PostMessage(context.Background(), PostMessageParams{
			Channel:     "C1",
			Blocks:      blocks,
			Parse:       "none",
			UnfurlLinks: &no,
			UnfurlMedia: &yes,
		})
		require.NoError(t, err)

		form := fake.form("chat.postMessage")
		assert.JSONEq(t, string(blocks), form.Get("blocks"))
		assert.Equal(t, "none", form.Get("parse"))
		assert.Equal(t, "false", form.Get("unfurl_links"))
		assert.Empty(t, form.Get("unfurl_media"))
		assert.Empty(t, form.Get("text"))
	})

	t.Run("should send explicit media unfurl opt-out", func(t *testing.T) {
		fake := newFakeSlack(map[string]string{
			"chat.postMessage": `{"ok":true,"channel":"C1","ts":"1234567890.000100"}`,
		})
		client, _ := newTestClient(t, fake)

		no := false
		_, err := client.PostMessage(context.Background(), PostMessageParams{Channel: "C1", Text: "x", UnfurlMedia: &no})
		require.NoError(t, err)
		assert.Equal(t, "false", fake.form("chat.postMessage").Get("unfurl_media"))
	})
}

func TestClient_AddReaction(t *testing.T) {
	fake := newFakeSlack(map[string]string{"reactions.add": `{"ok":true}`})
	client, _ := newTestClient(t, fake)

	resp, err := client.AddReaction(context.Background(), AddReactionParams{
		Channel:   "C1",
		Timestamp: "1234567890.123456",
		Name:      "thumbsup",
	})
	require.NoError(t, err)
	assert.Equal(t, Response{"ok": true}, resp)

	form := fake.form("reactions.add")
	assert.Equal(t, "C1", form.Get("channel"))
	assert.Equal(t, "1234567890.123456", form.Get("timestamp"))
	assert.Equal(t, "thumbsup", form.Get("name"))
}

func TestClient_HistoryAndReplies(t *testing.T) {
	messages := `"messages":[{"type":"message","user":"U1","text":"hi","ts":"1234567890.123456",
		"reactions":[{"name":"wave","count":2,"users":["U1","U2"]}]}]`
	fake := newFakeSlack(map[string]string{
		"conversations.history": `{"ok":true,` + messages + `,"has_more":true,"response_metadata":{"next_cursor":"next-h"}}`,
		"conversations.replies": `{"ok":true,` + messages + `,"has_more":false,"response_metadata":{"next_cursor":"next-r"}}`,
	})
	client, _ := newTestClient(t, fake)

	t.Run("history", func(t *testing.T) {
		resp, err := client.ConversationsHistory(context.Background(), HistoryParams{Channel: "C1", Cursor: "c", Limit: 10})
		require.NoError(t, err)
		assert.Equal(t, "next-h", resp["response_metadata"].(map[string]any)["next_cursor"])

		msgs := resp["messages"].([]any)
		require.Len(t, msgs, 1)
		msg := msgs[0].(map[string]any)
		assert.Equal(t, "hi", msg["text"])
		reaction := msg["reactions"].([]any)[0].(map[string]any)
		assert.Equal(t, "wave", reaction["name"])

		form := fake.form("conversations.history")
		assert.Equal(t, "C1", form.Get("channel"))
		assert.Equal(t, "c", form.Get("cursor"))
		assert.Equal(t, "10", form.Get("limit"))
	})

	t.Run("replies", func(t *testing.T) {
		resp, err := client.ConversationsReplies(context.Background(), RepliesParams{Channel: "C1", TS: "1234567890.123456", Limit: 5})
		require.NoError(t, err)
		assert.Equal(t, "next-r", resp["response_metadata"].(map[string]any)["next_cursor"])

		form := fake.form("conversations.replies")
		assert.Equal(t, "1234567890.123456", form.Get("ts"))
		assert.Equal(t, "5", form.Get("limit"))
	})
}

func TestClient_RemoteError(t *testing.T) {
	notFound := `{"ok":false,"error":"channel_not_found"}`
	fake := newFakeSlack(map[string]string{
		"conversations.list":    notFound,
		"chat.postMessage":      notFound,
		"reactions.add":         notFound,
		"conversations.history": notFound,
		"conversations.replies": notFound,
	})
	client, rec := newTestClient(t, fake)
	ctx := context.Background()

	calls := map[string]func() (Response, error){
		"conversations.list": func() (Response, error) {
			return client.ListConversations(ctx, ListConversationsParams{Limit: 1})
		},
		"chat.postMessage": func() (Response, error) {
			return client.PostMessage(ctx, PostMessageParams{Channel: "C1", Text: "x"})
		},
		"reactions.add": func() (Response, error) {
			return client.AddReaction(ctx, AddReactionParams{Channel: "C1", Timestamp: "1234567890.123456", Name: "x"})
		},
		"conversations.history": func() (Response, error) {
			return client.ConversationsHistory(ctx, HistoryParams{Channel: "C1", Limit: 1})
		},
		"conversations.replies": func() (Response, error) {
			return client.ConversationsReplies(ctx, RepliesParams{Channel: "C1", TS: "1234567890.123456", Limit: 1})
		},
	}

	for method, fn := range calls {
		t.Run(method, func(t *testing.T) {
			resp, err := fn()
			require.NoError(t, err)
			assert.False(t, resp.OK())
			assert.Equal(t, "channel_not_found", resp.RemoteError())
			assert.Equal(t, call{method, StatusRemote}, rec.last())
		})
	}
}

func TestClient_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	apiURL := srv.URL + "/api/"
	srv.Close()

	rec := &fakeRecorder{}
	client, err := NewClient(ClientConfig{Token: "xoxb-test", APIURL: apiURL, Timeout: time.Second, Recorder: rec})
	require.NoError(t, err)

	resp, err := client.AddReaction(context.Background(), AddReactionParams{Channel: "C1", Timestamp: "1234567890.123456", Name: "x"})
	assert.Error(t, err)
	assert.Nil(t, resp)
	assert.Equal(t, call{"reactions.add", StatusTransport}, rec.last())
}

func TestClient_ReturnsBodyAsSent(t *testing.T) {
	t.Run("should not add fields Slack omitted", func(t *testing.T) {
		fake := newFakeSlack(map[string]string{
			"conversations.list": `{"ok":true,"channels":[{"id":"C1","name":"gen"}]}`,
		})
		client, _ := newTestClient(t, fake)

		resp, err := client.ListConversations(context.Background(), ListConversationsParams{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, Response{
			"ok":       true,
			"channels": []any{map[string]any{"id": "C1", "name": "gen"}},
		}, resp)
	})

	t.Run("should keep members slack-go cannot decode", func(t *testing.T) {
		fake := newFakeSlack(map[string]string{
			"conversations.list": `{"ok":true,"channels":[{"id":"C1","num_members":"many"}]}`,
		})
		client, rec := newTestClient(t, fake)

		resp, err := client.ListConversations(context.Background(), ListConversationsParams{Limit: 1})
		require.NoError(t, err)
		ch := resp["channels"].([]any)[0].(map[string]any)
		assert.Equal(t, "many", ch["num_members"])
		assert.Equal(t, call{"conversations.list", StatusOK}, rec.last())
	})

	t.Run("should drop null members", func(t *testing.T) {
		fake := newFakeSlack(map[string]string{
			"conversations.history": `{"ok":true,"messages":[{"ts":"1234567890.123456","user":null}],"response_metadata":null}`,
		})
		client, _ := newTestClient(t, fake)

		resp, err := client.ConversationsHistory(context.Background(), HistoryParams{Channel: "C1", Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, Response{
			"ok":       true,
			"messages": []any{map[string]any{"ts": "1234567890.123456"}},
		}, resp)
	})
}

func TestClient_MalformedBody(t *testing.T) {
	for name, body := range map[string]string{
		"not json":   `<html>upstream error</html>`,
		"not object": `[1,2,3]`,
		"null":       `null`,
	} {
		t.Run(name, func(t *testing.T) {
			fake := newFakeSlack(map[string]string{"conversations.history": body})
			client, rec := newTestClient(t, fake)

			resp, err := client.ConversationsHistory(context.Background(), HistoryParams{Channel: "C1", Limit: 1})
			assert.Nil(t, resp)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedBody)
			assert.Equal(t, call{"conversations.history", StatusMalformed}, rec.last())
		})
	}
}

func TestClient_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(srv.Close)

	rec := &fakeRecorder{}
	client, err := NewClient(ClientConfig{Token: "xoxb-test", APIURL: srv.URL + "/api/", Timeout: time.Second, Recorder: rec})
	require.NoError(t, err)

	resp, err := client.PostMessage(context.Background(), PostMessageParams{Channel: "C1", Text: "x"})
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Equal(t, "ratelimited", resp.RemoteError())
	assert.Equal(t, call{"chat.postMessage", StatusRemote}, rec.last())
}
