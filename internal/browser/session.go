// internal/browser/session.go
package browser

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/dom"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/xkilldash9x/scout-cli/internal/browser/stealth"
	"github.com/xkilldash9x/scout-cli/internal/config"
)

// clickScript clicks through JavaScript so overlays cannot intercept the event.
const clickScript = `function() { this.click(); }`

const (
	locationPollInterval = 250 * time.Millisecond
	linkTitleMaxChars    = 100
)

// Allocator carries the Chrome launch options. Every session started from it
// launches its own browser on first use, so parallel tasks share no page state.
type Allocator struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    config.Interface
	logger *zap.Logger
}

// NewAllocator prepares a Chrome allocator bound to parent.
func NewAllocator(parent context.Context, cfg config.Interface, logger *zap.Logger) *Allocator {
	ctx, cancel := chromedp.NewExecAllocator(parent, DefaultAllocatorOptions(cfg.Browser())...)
	return &Allocator{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: logger.Named("browser"),
	}
}

// NewSession returns a session with its own browser. Nothing is launched until
// the first navigation.
func (a *Allocator) NewSession(taskID string) *Session {
	return &Session{
		allocCtx: a.ctx,
		browser:  a.cfg.Browser(),
		network:  a.cfg.Network(),
		logger:   a.logger.With(zap.String("task_id", taskID)),
	}
}

// Close terminates any browser still running.
func (a *Allocator) Close() {
	a.cancel()
}

// PageRef identifies a page by title and URL.
type PageRef struct {
	Title string
	URL   string
}

// SearchResult describes a loaded search results page.
type SearchResult struct {
	Query       string
	URL         string
	ResultCount int
}

// LinkTarget selects the link to click. Selector wins over Text, and Text
// wins over Index into the search results.
type LinkTarget struct {
	Selector string
	Text     string
	Index    int
}

// ClickResult describes a successful click and the navigation it caused.
type ClickResult struct {
	Method   string
	Previous PageRef
	Clicked  PageRef
	Current  PageRef
}

// PageContent is the readable content of the current page. Only one of
// MainContent and BodyContent is set, depending on whether the page has a
// <main> element.
type PageContent struct {
	PageRef
	MainContent string
	BodyContent string
}

// Session is one browser tab used by a single task.
type Session struct {
	allocCtx context.Context
	browser  config.BrowserConfig
	network  config.NetworkConfig
	logger   *zap.Logger

	mu        sync.Mutex
	tabCtx    context.Context
	tabCancel context.CancelFunc
	closed    bool
}

// ensureTab opens the tab on first use.
func (s *Session) ensureTab(ctx context.Context) (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tabCtx != nil {
		return s.tabCtx, nil
	}

	s.logger.Info("Starting browser tab.")
	tabCtx, tabCancel := chromedp.NewContext(s.allocCtx, chromedp.WithErrorf(s.logger.Sugar().Debugf))

	// The first Run allocates the browser and target. It must not carry a
	// deadline, or the deadline would tear the browser down with it.
	if err := chromedp.Run(tabCtx); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to start browser tab: %w", err)
	}

	initCtx, initCancel := s.bind(ctx, tabCtx, s.network.NavigationTimeout)
	defer initCancel()

	if err := chromedp.Run(initCtx, stealth.Apply(stealth.DefaultPersona, s.logger)); err != nil {
		tabCancel()
		return nil, fmt.Errorf("failed to start browser tab: %w", err)
	}

	s.tabCtx, s.tabCancel = tabCtx, tabCancel
	return tabCtx, nil
}

// activeTab returns the open tab or ErrNoSession.
func (s *Session) activeTab() (context.Context, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.tabCtx == nil {
		return nil, ErrNoSession
	}
	return s.tabCtx, nil
}

// bind derives an operation context from the tab that also ends when the
// caller's ctx ends. A non-positive timeout means no extra deadline.
func (s *Session) bind(ctx, tabCtx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	var (
		opCtx  context.Context
		cancel context.CancelFunc
	)
	if timeout > 0 {
		opCtx, cancel = context.WithTimeout(tabCtx, timeout)
	} else {
		opCtx, cancel = context.WithCancel(tabCtx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return opCtx, func() {
		stop()
		cancel()
	}
}

// Search opens the results page for query and counts the result links.
func (s *Session) Search(ctx context.Context, query string) (SearchResult, error) {
	tabCtx, err := s.ensureTab(ctx)
	if err != nil {
		return SearchResult{}, err
	}

	searchURL := BuildSearchURL(s.browser.SearchURL, query)
	s.logger.Debug("Navigating to search results", zap.String("url", searchURL))

	navCtx, cancel := s.bind(ctx, tabCtx, s.network.NavigationTimeout)
	defer cancel()

	var results []*cdp.Node
	err = chromedp.Run(navCtx,
		chromedp.Navigate(searchURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Nodes(s.browser.ResultsSelector, &results, chromedp.ByQueryAll, chromedp.AtLeast(0)),
	)
	if err != nil {
		return SearchResult{}, wrapTimeout("navigation", s.network.NavigationTimeout, navCtx, err)
	}

	return SearchResult{Query: query, URL: searchURL, ResultCount: len(results)}, nil
}

// ClickLink clicks the selected link and waits for the URL to change.
func (s *Session) ClickLink(ctx context.Context, target LinkTarget) (ClickResult, error) {
	tabCtx, err := s.activeTab()
	if err != nil {
		return ClickResult{}, err
	}

	var result ClickResult
	if err := s.readPage(ctx, tabCtx, &result.Previous); err != nil {
		return ClickResult{}, err
	}

	node, method, err := s.findLink(ctx, tabCtx, target)
	if err != nil {
		return ClickResult{}, err
	}
	result.Method = method
	result.Clicked.URL = node.AttributeValue("href")

	elemCtx, cancel := s.bind(ctx, tabCtx, s.network.ElementTimeout)
	defer cancel()

	title := node.AttributeValue("title")
	if title == "" {
		if err := chromedp.Run(elemCtx, chromedp.Text([]cdp.NodeID{node.NodeID}, &title, chromedp.ByNodeID)); err != nil {
			s.logger.Debug("Could not read link text.", zap.Error(err))
		}
	}
	result.Clicked.Title = Truncate(strings.TrimSpace(title), linkTitleMaxChars)

	err = chromedp.Run(elemCtx, chromedp.ActionFunc(func(c context.Context) error {
		obj, err := dom.ResolveNode().WithNodeID(node.NodeID).Do(c)
		if err != nil {
			return err
		}
		_, exception, err := runtime.CallFunctionOn(clickScript).WithObjectID(obj.ObjectID).Do(c)
		if err != nil {
			return err
		}
		if exception != nil {
			return fmt.Errorf("click script failed: %s", exception.Text)
		}
		return nil
	}))
	if err != nil {
		return ClickResult{}, wrapTimeout("click", s.network.ElementTimeout, elemCtx, err)
	}

	if err := s.waitForNavigation(ctx, tabCtx, result.Previous.URL); err != nil {
		return ClickResult{}, err
	}
	if err := s.readPage(ctx, tabCtx, &result.Current); err != nil {
		return ClickResult{}, err
	}
	return result, nil
}

// findLink resolves the target to a single node and describes how it was found.
func (s *Session) findLink(ctx, tabCtx context.Context, target LinkTarget) (*cdp.Node, string, error) {
	elemCtx, cancel := s.bind(ctx, tabCtx, s.network.ElementTimeout)
	defer cancel()

	var nodes []*cdp.Node
	switch {
	case target.Selector != "":
		err := chromedp.Run(elemCtx,
			chromedp.WaitVisible(target.Selector, chromedp.ByQuery),
			chromedp.Nodes(target.Selector, &nodes, chromedp.ByQuery),
		)
		if err != nil {
			return nil, "", wrapTimeout("link lookup", s.network.ElementTimeout, elemCtx, err)
		}
		return firstNode(nodes, "CSS selector: "+target.Selector)

	case target.Text != "":
		query := LinkTextXPath(target.Text)
		err := chromedp.Run(elemCtx,
			chromedp.WaitVisible(query, chromedp.BySearch),
			chromedp.Nodes(query, &nodes, chromedp.BySearch),
		)
		if err != nil {
			return nil, "", wrapTimeout("link lookup", s.network.ElementTimeout, elemCtx, err)
		}
		return firstNode(nodes, "link text: "+target.Text)

	default:
		err := chromedp.Run(elemCtx, chromedp.Nodes(s.browser.ResultsSelector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0)))
		if err != nil {
			return nil, "", wrapTimeout("link lookup", s.network.ElementTimeout, elemCtx, err)
		}
		if target.Index < 0 || target.Index >= len(nodes) {
			return nil, "", &ResultIndexError{Index: target.Index, Total: len(nodes)}
		}
		return nodes[target.Index], fmt.Sprintf("search result #%d", target.Index+1), nil
	}
}

func firstNode(nodes []*cdp.Node, method string) (*cdp.Node, string, error) {
	if len(nodes) == 0 {
		return nil, "", fmt.Errorf("%w (%s)", ErrLinkNotFound, method)
	}
	return nodes[0], method, nil
}

// waitForNavigation polls the location until it differs from previous.
func (s *Session) waitForNavigation(ctx, tabCtx context.Context, previous string) error {
	waitCtx, cancel := s.bind(ctx, tabCtx, s.network.PostLoadWait)
	defer cancel()

	ticker := time.NewTicker(locationPollInterval)
	defer ticker.Stop()

	for {
		var current string
		if err := chromedp.Run(waitCtx, chromedp.Location(&current)); err != nil {
			return wrapTimeout("page load", s.network.PostLoadWait, waitCtx, err)
		}
		if current != previous {
			return nil
		}
		select {
		case <-waitCtx.Done():
			return wrapTimeout("page load", s.network.PostLoadWait, waitCtx, waitCtx.Err())
		case <-ticker.C:
		}
	}
}

func (s *Session) readPage(ctx, tabCtx context.Context, ref *PageRef) error {
	opCtx, cancel := s.bind(ctx, tabCtx, s.network.ElementTimeout)
	defer cancel()
	if err := chromedp.Run(opCtx, chromedp.Title(&ref.Title), chromedp.Location(&ref.URL)); err != nil {
		return wrapTimeout("page info", s.network.ElementTimeout, opCtx, err)
	}
	return nil
}

// PageContent returns the title, URL and, when extractText is set, the
// readable text of <main> (or <body> when the page has none).
func (s *Session) PageContent(ctx context.Context, extractText bool) (PageContent, error) {
	tabCtx, err := s.activeTab()
	if err != nil {
		return PageContent{}, err
	}

	var content PageContent
	if err := s.readPage(ctx, tabCtx, &content.PageRef); err != nil {
		return PageContent{}, err
	}
	if !extractText {
		return content, nil
	}

	opCtx, cancel := s.bind(ctx, tabCtx, s.network.ElementTimeout)
	defer cancel()

	var mains []*cdp.Node
	if err := chromedp.Run(opCtx, chromedp.Nodes("main", &mains, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return PageContent{}, wrapTimeout("content lookup", s.network.ElementTimeout, opCtx, err)
	}

	var markup string
	if len(mains) > 0 {
		if err := chromedp.Run(opCtx, chromedp.OuterHTML([]cdp.NodeID{mains[0].NodeID}, &markup, chromedp.ByNodeID)); err != nil {
			return PageContent{}, wrapTimeout("content read", s.network.ElementTimeout, opCtx, err)
		}
		content.MainContent = Truncate(ExtractText(markup), s.browser.ContentMaxChars)
		return content, nil
	}

	if err := chromedp.Run(opCtx, chromedp.OuterHTML("body", &markup, chromedp.ByQuery)); err != nil {
		return PageContent{}, wrapTimeout("content read", s.network.ElementTimeout, opCtx, err)
	}
	content.BodyContent = Truncate(ExtractText(markup), s.browser.ContentMaxChars)
	return content, nil
}

// Close shuts the session's browser down. It is safe to call more than once.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.tabCancel != nil {
		s.tabCancel()
		s.logger.Debug("Browser tab closed.")
	}
	return nil
}

// BuildSearchURL substitutes the escaped query into a search URL template
// containing one %s.
func BuildSearchURL(template, query string) string {
	return fmt.Sprintf(template, url.QueryEscape(query))
}

// LinkTextXPath matches anchors whose normalized text contains text.
func LinkTextXPath(text string) string {
	return fmt.Sprintf("//a[contains(normalize-space(.), %s)]", xpathLiteral(strings.TrimSpace(text)))
}

// xpathLiteral quotes s as an XPath 1.0 string literal. XPath has no escape
// sequences, so strings holding both quote kinds are built with concat().
func xpathLiteral(s string) string {
	if !strings.Contains(s, `"`) {
		return `"` + s + `"`
	}
	if !strings.Contains(s, "'") {
		return "'" + s + "'"
	}
	parts := strings.Split(s, `"`)
	quoted := make([]string, 0, 2*len(parts))
	for i, part := range parts {
		if i > 0 {
			quoted = append(quoted, `'"'`)
		}
		if part != "" {
			quoted = append(quoted, `"`+part+`"`)
		}
	}
	return "concat(" + strings.Join(quoted, ", ") + ")"
}

// wrapTimeout labels deadline failures of opCtx so callers can classify them.
func wrapTimeout(op string, timeout time.Duration, opCtx context.Context, err error) error {
	if errors.Is(opCtx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s timed out after %s: %w", op, timeout, context.DeadlineExceeded)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
