package actions

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/scout-cli/internal/browser"
)

// MockBrowser is a mock implementation of the Browser interface.
type MockBrowser struct {
	mock.Mock
}

func (m *MockBrowser) Search(ctx context.Context, query string) (browser.SearchResult, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(browser.SearchResult), args.Error(1)
}

func (m *MockBrowser) ClickLink(ctx context.Context, target browser.LinkTarget) (browser.ClickResult, error) {
	args := m.Called(ctx, target)
	return args.Get(0).(browser.ClickResult), args.Error(1)
}

func (m *MockBrowser) PageContent(ctx context.Context, extractText bool) (browser.PageContent, error) {
	args := m.Called(ctx, extractText)
	return args.Get(0).(browser.PageContent), args.Error(1)
}
