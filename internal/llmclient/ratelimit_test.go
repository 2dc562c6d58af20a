package llmclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/scout-cli/api/schemas"
)

func TestRateLimited_PassesThrough(t *testing.T) {
	next := &MockLLMClient{}
	req := schemas.GenerationRequest{UserPrompt: "hello"}
	next.On("Generate", mock.Anything, req).Return("world", nil).Once()

	limited := NewRateLimited(next, 600, setupTestLogger(t))
	out, err := limited.Generate(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "world", out)
	next.AssertExpectations(t)
}

func TestRateLimited_WaitHonorsContext(t *testing.T) {
	next := &MockLLMClient{}
	next.On("Generate", mock.Anything, mock.Anything).Return("first", nil).Once()

	// One request per minute: the second call cannot be admitted before the deadline.
	limited := NewRateLimited(next, 1, setupTestLogger(t))
	_, err := limited.Generate(context.Background(), schemas.GenerationRequest{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = limited.Generate(ctx, schemas.GenerationRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limiter wait failed")
	next.AssertNumberOfCalls(t, "Generate", 1)
}

func TestRateLimited_Close(t *testing.T) {
	next := &MockLLMClient{}
	next.On("Close").Return(nil).Once()

	assert.NoError(t, NewRateLimited(next, 30, setupTestLogger(t)).Close())
	next.AssertExpectations(t)
}
