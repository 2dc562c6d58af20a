// internal/actions/registry.go
package actions

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/xkilldash9x/scout-cli/api/schemas"
	"github.com/xkilldash9x/scout-cli/internal/browser"
)

// Browser is the page driver the registry dispatches to. *browser.Session
// implements it.
type Browser interface {
	Search(ctx context.Context, query string) (browser.SearchResult, error)
	ClickLink(ctx context.Context, target browser.LinkTarget) (browser.ClickResult, error)
	PageContent(ctx context.Context, extractText bool) (browser.PageContent, error)
}

var _ Browser = (*browser.Session)(nil)

// ActionHandler runs one action against the browser.
type ActionHandler func(ctx context.Context, args map[string]any) schemas.ActionResult

// Registry dispatches action names to handlers and implements
// schemas.ActionExecutor and schemas.ActionCatalog.
type Registry struct {
	logger   *zap.Logger
	browser  Browser
	handlers map[string]ActionHandler
}

var (
	_ schemas.ActionExecutor = (*Registry)(nil)
	_ schemas.ActionCatalog  = (*Registry)(nil)
)

// NewRegistry creates a registry bound to one browser session.
func NewRegistry(logger *zap.Logger, b Browser) *Registry {
	r := &Registry{
		logger:   logger.Named("action_registry"),
		browser:  b,
		handlers: make(map[string]ActionHandler),
	}
	r.handlers[ActionSearch] = r.handleSearch
	r.handlers[ActionClickLink] = r.handleClickLink
	r.handlers[ActionPageContent] = r.handlePageContent
	return r
}

// Definitions lists the actions this registry dispatches.
func (r *Registry) Definitions() []schemas.ActionDefinition {
	return Catalog()
}

// Invoke runs the named action. It never returns an error or panics; every
// failure comes back as a result with Succeeded=false and an error_code.
func (r *Registry) Invoke(ctx context.Context, actionName string, arguments map[string]any) (result schemas.ActionResult) {
	handler, ok := r.handlers[actionName]
	if !ok {
		return failure(ErrCodeUnknownAction, fmt.Sprintf("Unknown function: %s", actionName), nil)
	}
	if arguments == nil {
		arguments = map[string]any{}
	}

	defer func() {
		if p := recover(); p != nil {
			r.logger.Error("Action handler panicked.",
				zap.String("action", actionName),
				zap.Any("panic", p),
				zap.String("stack", string(debug.Stack())),
			)
			result = failure(ErrCodeExecutorPanic, fmt.Sprintf("Action %s failed unexpectedly: %v", actionName, p), nil)
		}
	}()

	r.logger.Debug("Invoking action", zap.String("action", actionName), zap.Any("arguments", arguments))
	return handler(ctx, arguments)
}

func (r *Registry) handleSearch(ctx context.Context, args map[string]any) schemas.ActionResult {
	query, ok, err := stringArg(args, "query")
	if err != nil {
		return failure(ErrCodeInvalidParameters, err.Error(), nil)
	}
	if !ok {
		return failure(ErrCodeInvalidParameters, "argument 'query' is required", nil)
	}

	res, err := r.browser.Search(ctx, query)
	if err != nil {
		return failure(ClassifyError(err), fmt.Sprintf("Failed to search Google for '%s': %v", query, err), nil)
	}

	return schemas.ActionResult{
		Succeeded: true,
		Message:   fmt.Sprintf("Successfully searched Google for: '%s'. Found %d results.", res.Query, res.ResultCount),
		Payload: map[string]any{
			"query":        res.Query,
			"url":          res.URL,
			"result_count": res.ResultCount,
		},
	}
}

func (r *Registry) handleClickLink(ctx context.Context, args map[string]any) schemas.ActionResult {
	var target browser.LinkTarget
	var err error
	if target.Selector, _, err = stringArg(args, "css_selector"); err != nil {
		return failure(ErrCodeInvalidParameters, err.Error(), nil)
	}
	if target.Text, _, err = stringArg(args, "link_text"); err != nil {
		return failure(ErrCodeInvalidParameters, err.Error(), nil)
	}
	if target.Index, err = intArg(args, "link_index", 0); err != nil {
		return failure(ErrCodeInvalidParameters, err.Error(), nil)
	}
	if target.Index < 0 {
		return failure(ErrCodeInvalidParameters, "argument 'link_index' must not be negative", nil)
	}

	res, err := r.browser.ClickLink(ctx, target)
	if err != nil {
		return r.clickFailure(err)
	}

	return schemas.ActionResult{
		Succeeded: true,
		Message:   fmt.Sprintf("Successfully clicked on link using %s and navigated to new page", res.Method),
		Payload: map[string]any{
			"previous_page": pageMap(res.Previous),
			"clicked_link":  pageMap(res.Clicked),
			"current_page":  pageMap(res.Current),
		},
	}
}

func (r *Registry) clickFailure(err error) schemas.ActionResult {
	code := ClassifyError(err)
	var indexErr *browser.ResultIndexError
	switch {
	case code == ErrCodeNoSession:
		return failure(code, "No browser session found. Please search first.", nil)
	case errors.As(err, &indexErr):
		return failure(code,
			fmt.Sprintf("No search result found at index %d. Total results: %d", indexErr.Index, indexErr.Total),
			map[string]any{"total_results": indexErr.Total})
	case code == ErrCodeTimeoutError:
		return failure(code, "Timeout waiting for link to be clickable or page to load", nil)
	case code == ErrCodeElementNotFound:
		return failure(code, fmt.Sprintf("Could not find the specified link: %v", err), nil)
	default:
		return failure(code, fmt.Sprintf("Failed to analyze page and click link: %v", err), nil)
	}
}

func (r *Registry) handlePageContent(ctx context.Context, args map[string]any) schemas.ActionResult {
	extractText, err := boolArg(args, "extract_text", true)
	if err != nil {
		return failure(ErrCodeInvalidParameters, err.Error(), nil)
	}

	content, err := r.browser.PageContent(ctx, extractText)
	if err != nil {
		code := ClassifyError(err)
		if code == ErrCodeNoSession {
			return failure(code, "No browser session active", nil)
		}
		return failure(code, fmt.Sprintf("Failed to get page content: %v", err), nil)
	}

	payload := pageMap(content.PageRef)
	if extractText {
		if content.MainContent != "" {
			payload["main_content"] = content.MainContent
		} else {
			payload["body_content"] = content.BodyContent
		}
	}
	return schemas.ActionResult{
		Succeeded: true,
		Message:   "Successfully got the content of the current page",
		Payload:   payload,
	}
}

func pageMap(p browser.PageRef) map[string]any {
	return map[string]any{"title": p.Title, "url": p.URL}
}

// failure builds a failed result carrying code in its payload.
func failure(code ErrorCode, message string, extra map[string]any) schemas.ActionResult {
	payload := map[string]any{"error_code": string(code)}
	for k, v := range extra {
		payload[k] = v
	}
	return schemas.ActionResult{Succeeded: false, Message: message, Payload: payload}
}
