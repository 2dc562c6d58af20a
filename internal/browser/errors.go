package browser

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSession is returned when an operation needs a page but no tab was opened yet.
	ErrNoSession = errors.New("no browser session")
	// ErrLinkNotFound is returned when no element matches the requested link.
	ErrLinkNotFound = errors.New("link not found")
	// ErrSessionClosed is returned after Close.
	ErrSessionClosed = errors.New("browser session closed")
)

// ResultIndexError reports a result index past the end of the result list.
type ResultIndexError struct {
	Index int
	Total int
}

func (e *ResultIndexError) Error() string {
	return fmt.Sprintf("no search result found at index %d (total results: %d)", e.Index, e.Total)
}
