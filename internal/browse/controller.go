// Package browse implements the search/pagination controller: it owns the
// active query, the continuation offset, and the in-flight/exhausted guards,
// and feeds pages of results to a Sink in server order. A failed page fetch
// ends pagination for the active query; only a new search restarts it.
package browse

import (
	"context"
	"strings"
	"sync"

	"github.com/Allknowingroger/Commons-Explorer/internal/commons"
	"github.com/Allknowingroger/Commons-Explorer/internal/logging"
)

// Searcher fetches one page of results. *commons.Client implements it.
type Searcher interface {
	Search(ctx context.Context, query string, limit, offset int) (*commons.SearchPage, error)
}

// Sink receives result mutations. Implementations render them (TUI) or
// print them (CLI).
type Sink interface {
	// ResetResults clears everything rendered for the previous query.
	ResetResults()
	// AppendResults adds a page of results in server order.
	AppendResults(results []commons.Result)
	// ShowNoResults reports that the first page matched nothing.
	ShowNoResults(query string)
	// LoadFinished reports the end of a page load; err is non-nil when the
	// fetch or parse failed.
	LoadFinished(err error)
}

// Controller drives paginated search. Methods are safe for concurrent use;
// overlapping page fetches are prevented by the loading guard.
type Controller struct {
	mu       sync.Mutex
	searcher Searcher
	sink     Sink
	pageSize int

	query      string
	offset     int
	loading    bool
	hasMore    bool
	firstPage  bool
	generation uint64
}

// NewController creates a pagination controller over the given searcher
// and sink.
func NewController(searcher Searcher, sink Sink, pageSize int) *Controller {
	if pageSize <= 0 {
		pageSize = 24
	}
	return &Controller{
		searcher: searcher,
		sink:     sink,
		pageSize: pageSize,
	}
}

// Search starts a new search. Empty queries and the currently active query
// are silently ignored. Accepting a query resets pagination state, clears
// the sink, and loads the first page.
func (c *Controller) Search(ctx context.Context, query string) {
	query = strings.TrimSpace(query)

	c.mu.Lock()
	if query == "" || query == c.query {
		c.mu.Unlock()
		return
	}
	c.query = query
	c.offset = 0
	c.hasMore = true
	c.firstPage = true
	c.generation++
	c.mu.Unlock()

	logging.Search("new search: %q", query)
	c.sink.ResetResults()
	c.LoadNextPage(ctx)
}

// LoadNextPage fetches the next page for the active query. It is a no-op
// while a fetch is in flight, after pagination is exhausted or failed, and
// when no query is set.
func (c *Controller) LoadNextPage(ctx context.Context) {
	c.mu.Lock()
	if c.loading || !c.hasMore || c.query == "" {
		c.mu.Unlock()
		return
	}
	c.loading = true
	gen := c.generation
	query, offset, first := c.query, c.offset, c.firstPage
	c.mu.Unlock()

	page, err := c.searcher.Search(ctx, query, c.pageSize, offset)

	c.mu.Lock()
	if gen != c.generation {
		// A newer search was accepted while this fetch was in flight.
		// Drop the stale page and load the pending query instead.
		c.loading = false
		c.mu.Unlock()
		logging.SearchDebug("discarding stale page for %q offset=%d", query, offset)
		c.LoadNextPage(ctx)
		return
	}

	var noResults bool
	switch {
	case err != nil:
		// Fail closed: a single failed request permanently ends
		// pagination for this query
		c.hasMore = false
	case first && len(page.Results) == 0:
		c.hasMore = false
		noResults = true
	default:
		c.firstPage = false
		if page.HasMore {
			c.offset = page.NextOffset
		} else {
			c.hasMore = false
		}
	}
	c.mu.Unlock()

	switch {
	case err != nil:
		logging.SearchError("page fetch failed for %q offset=%d: %v", query, offset, err)
	case noResults:
		c.sink.ShowNoResults(query)
	case len(page.Results) > 0:
		c.sink.AppendResults(page.Results)
	}

	c.mu.Lock()
	c.loading = false
	c.mu.Unlock()
	c.sink.LoadFinished(err)
}

// CanLoadMore reports whether the infinite-scroll collaborator should
// request another page.
func (c *Controller) CanLoadMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore && !c.loading && c.query != ""
}

// Query returns the active query, or "" before the first search.
func (c *Controller) Query() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.query
}

// Loading reports whether a page fetch is in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}
