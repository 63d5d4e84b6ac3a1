package toolexecutor

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/harun/slackmcp/pkg/slackapi"
)

type mockAPI struct {
	mock.Mock
}

func (m *mockAPI) response(args mock.Arguments) (slackapi.Response, error) {
	resp, _ := args.Get(0).(slackapi.Response)
	return resp, args.Error(1)
}

func (m *mockAPI) ListConversations(ctx context.Context, p slackapi.ListConversationsParams) (slackapi.Response, error) {
	return m.response(m.Called(ctx, p))
}

func (m *mockAPI) PostMessage(ctx context.Context, p slackapi.PostMessageParams) (slackapi.Response, error) {
	return m.response(m.Called(ctx, p))
}

func (m *mockAPI) AddReaction(ctx context.Context, p slackapi.AddReactionParams) (slackapi.Response, error) {
	return m.response(m.Called(ctx, p))
}

func (m *mockAPI) ConversationsHistory(ctx context.Context, p slackapi.HistoryParams) (slackapi.Response, error) {
	return m.response(m.Called(ctx, p))
}

func (m *mockAPI) ConversationsReplies(ctx context.Context, p slackapi.RepliesParams) (slackapi.Response, error) {
	return m.response(m.Called(ctx, p))
}

type observed struct {
	tool   string
	status string
	kind   string
}

type fakeObserver struct {
	mu     sync.Mutex
	calls  []observed
	errors []observed
}

func (o *fakeObserver) ObserveToolCall(tool, status string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, observed{tool: tool, status: status})
}

func (o *fakeObserver) ObserveToolError(tool, kind string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.errors = append(o.errors, observed{tool: tool, kind: kind})
}
