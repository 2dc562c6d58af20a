package actions

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/xkilldash9x/scout-cli/internal/browser"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCode
	}{
		{browser.ErrNoSession, ErrCodeNoSession},
		{fmt.Errorf("wrapped: %w", browser.ErrSessionClosed), ErrCodeNoSession},
		{&browser.ResultIndexError{Index: 1, Total: 0}, ErrCodeElementNotFound},
		{fmt.Errorf("x: %w", browser.ErrLinkNotFound), ErrCodeElementNotFound},
		{fmt.Errorf("navigation timed out after 30s: %w", context.DeadlineExceeded), ErrCodeTimeoutError},
		{context.Canceled, ErrCodeCanceled},
		{errors.New("page load failed: net::ERR_CONNECTION_REFUSED"), ErrCodeNavigationError},
		{errors.New("could not find node with given id"), ErrCodeElementNotFound},
		{errors.New("websocket timeout"), ErrCodeTimeoutError},
		{errors.New("something else"), ErrCodeExecutionFailure},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyError(tt.err), tt.err.Error())
	}
}
