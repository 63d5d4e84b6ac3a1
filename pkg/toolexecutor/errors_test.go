package toolexecutor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/harun/slackmcp/pkg/schema"
)

func TestMapError(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.Nil(t, MapError(nil))
	})

	t.Run("tool errors pass through", func(t *testing.T) {
		orig := remoteFailure(ToolAddReaction, "add reaction", "already_reacted")
		wrapped := fmt.Errorf("outer: %w", orig)
		assert.Same(t, orig, MapError(wrapped))
		assert.Equal(t, "Failed to add reaction: already_reacted", orig.Error())
	})

	t.Run("validation failures become invalid arguments", func(t *testing.T) {
		_, err := schemas.Validate(ToolPostMessage, map[string]any{}, schema.Strict)
		te := MapError(err)
		assert.Equal(t, KindInvalidArguments, te.Kind)
		assert.NotNil(t, te.Failure)
		assert.True(t, errors.Is(te, err))
	})

	t.Run("plain errors become transport failures", func(t *testing.T) {
		te := MapError(errors.New("broken pipe"))
		assert.Equal(t, KindTransportFailure, te.Kind)
		assert.Equal(t, "broken pipe", te.Message)
	})

	t.Run("message is never empty", func(t *testing.T) {
		assert.Equal(t, unknownErrorMessage, MapError(errors.New("")).Message)
		assert.Equal(t, unknownErrorMessage, MapError(&ToolError{Kind: KindRemoteFailure}).Message)
	})

	t.Run("remote failure without error string", func(t *testing.T) {
		te := remoteFailure(ToolListChannels, "list channels", "")
		assert.Equal(t, "Failed to list channels: unknown_error", te.Message)
	})
}

func TestFromPanic(t *testing.T) {
	te := FromPanic(ToolPostMessage, "nil map")
	assert.Equal(t, KindTransportFailure, te.Kind)
	assert.Equal(t, ToolPostMessage, te.Tool)
	assert.Contains(t, te.Message, "nil map")

	te = FromPanic(ToolPostMessage, errors.New("bad"))
	assert.Equal(t, "bad", te.Message)
	assert.Equal(t, ToolPostMessage, te.Tool)
}

func TestErrorKind_CallerError(t *testing.T) {
	assert.True(t, KindUnknownTool.CallerError())
	assert.True(t, KindInvalidArguments.CallerError())
	assert.False(t, KindRemoteFailure.CallerError())
	assert.False(t, KindMalformedResponse.CallerError())
	assert.False(t, KindTransportFailure.CallerError())
}
