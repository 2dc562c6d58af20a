// internal/actions/errors.go
package actions

import (
	"context"
	"errors"
	"strings"

	"github.com/xkilldash9x/scout-cli/internal/browser"
)

// ErrorCode is a string type used for structured error reporting from action handlers.
type ErrorCode string

const (
	// -- General Execution Errors --
	ErrCodeExecutionFailure  ErrorCode = "EXECUTION_FAILURE"
	ErrCodeInvalidParameters ErrorCode = "INVALID_PARAMETERS"
	ErrCodeUnknownAction     ErrorCode = "UNKNOWN_ACTION_TYPE"
	ErrCodeCanceled          ErrorCode = "CANCELED"
	// -- Browser/DOM Errors --
	ErrCodeNoSession       ErrorCode = "NO_BROWSER_SESSION"
	ErrCodeElementNotFound ErrorCode = "ELEMENT_NOT_FOUND"
	ErrCodeTimeoutError    ErrorCode = "TIMEOUT_ERROR"
	ErrCodeNavigationError ErrorCode = "NAVIGATION_ERROR"
	// -- Internal System Errors --
	ErrCodeExecutorPanic ErrorCode = "EXECUTOR_PANIC"
)

// ClassifyError maps a browser error to an ErrorCode. Typed errors are
// checked first; chromedp surfaces some failures only as text.
func ClassifyError(err error) ErrorCode {
	var indexErr *browser.ResultIndexError
	switch {
	case errors.Is(err, browser.ErrNoSession), errors.Is(err, browser.ErrSessionClosed):
		return ErrCodeNoSession
	case errors.Is(err, browser.ErrLinkNotFound), errors.As(err, &indexErr):
		return ErrCodeElementNotFound
	case errors.Is(err, context.DeadlineExceeded):
		return ErrCodeTimeoutError
	case errors.Is(err, context.Canceled):
		return ErrCodeCanceled
	}

	errStr := err.Error()
	switch {
	case strings.Contains(errStr, "net::ERR"):
		return ErrCodeNavigationError
	case strings.Contains(errStr, "no element found") || strings.Contains(errStr, "could not find node"):
		return ErrCodeElementNotFound
	case strings.Contains(errStr, "timeout"):
		return ErrCodeTimeoutError
	}
	return ErrCodeExecutionFailure
}
