// Package commons implements a client for the Wikimedia Commons search API
// (the MediaWiki Action API restricted to the File namespace). It performs
// paginated full-text search over images and resolves single files to their
// URLs and attribution metadata.
package commons

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/Allknowingroger/Commons-Explorer/internal/logging"
)

const (
	// DefaultEndpoint is the production Commons API endpoint.
	DefaultEndpoint = "https://commons.wikimedia.org/w/api.php"

	// fileNamespace is the MediaWiki namespace holding media files.
	fileNamespace = "6"

	// gsrlimit is capped server-side for anonymous clients.
	maxPageSize = 50
)

// defaultUserAgent identifies this tool per the Wikimedia API etiquette.
const defaultUserAgent = "commons-explorer/1.0 (github.com/Allknowingroger/Commons-Explorer)"

// Config holds Commons client configuration.
type Config struct {
	Endpoint   string
	ThumbWidth int
	UserAgent  string
	Timeout    time.Duration
}

// DefaultConfig returns the standard Commons client configuration.
func DefaultConfig() Config {
	return Config{
		Endpoint:   DefaultEndpoint,
		ThumbWidth: 320,
		UserAgent:  defaultUserAgent,
		Timeout:    30 * time.Second,
	}
}

// Client queries the Commons API.
type Client struct {
	endpoint   string
	thumbWidth int
	userAgent  string
	httpClient *http.Client
}

// NewClient creates a Commons API client.
func NewClient(cfg Config) *Client {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.ThumbWidth <= 0 {
		cfg.ThumbWidth = 320
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		endpoint:   cfg.Endpoint,
		thumbWidth: cfg.ThumbWidth,
		userAgent:  cfg.UserAgent,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Search runs a full-text file search and returns one page of results.
// limit is clamped to the server-side maximum; offset selects the page start
// as provided by a previous page's continuation.
func (c *Client) Search(ctx context.Context, query string, limit, offset int) (*SearchPage, error) {
	if query == "" {
		return nil, fmt.Errorf("search query required")
	}
	if limit <= 0 {
		limit = 1
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrnamespace", fileNamespace)
	params.Set("gsrlimit", strconv.Itoa(limit))
	params.Set("gsroffset", strconv.Itoa(offset))
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|size|mime|extmetadata")
	params.Set("iiurlwidth", strconv.Itoa(c.thumbWidth))
	params.Set("iiextmetadatafilter", "Artist|LicenseShortName")

	timer := logging.StartTimer(logging.CategorySearch, fmt.Sprintf("search %q offset=%d", query, offset))
	resp, err := c.doQuery(ctx, params)
	timer.Stop()
	if err != nil {
		return nil, err
	}

	page := &SearchPage{}
	if resp.Continue != nil {
		page.NextOffset = resp.Continue.GsrOffset
		page.HasMore = true
	}

	// No query block at all means the search matched nothing
	if resp.Query == nil || len(resp.Query.Pages) == 0 {
		logging.SearchDebug("search %q offset=%d: no results", query, offset)
		return page, nil
	}

	pages := make([]pageInfo, 0, len(resp.Query.Pages))
	for _, p := range resp.Query.Pages {
		pages = append(pages, p)
	}
	// Map iteration order is meaningless; the generator's index field
	// carries the relevance order
	sort.Slice(pages, func(i, j int) bool { return pages[i].Index < pages[j].Index })

	page.Results = make([]Result, 0, len(pages))
	for _, p := range pages {
		page.Results = append(page.Results, resultFromPage(p))
	}

	logging.SearchDebug("search %q offset=%d: %d results, hasMore=%v",
		query, offset, len(page.Results), page.HasMore)
	return page, nil
}

// ImageInfo resolves a single file title (e.g. "File:Cat03.jpg") to its
// URLs and metadata.
func (c *Client) ImageInfo(ctx context.Context, title string) (*Result, error) {
	if title == "" {
		return nil, fmt.Errorf("file title required")
	}

	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("titles", title)
	params.Set("prop", "imageinfo")
	params.Set("iiprop", "url|size|mime|extmetadata")
	params.Set("iiurlwidth", strconv.Itoa(c.thumbWidth))
	params.Set("iiextmetadatafilter", "Artist|LicenseShortName")

	resp, err := c.doQuery(ctx, params)
	if err != nil {
		return nil, err
	}
	if resp.Query == nil || len(resp.Query.Pages) == 0 {
		return nil, fmt.Errorf("file %q not found", title)
	}
	for _, p := range resp.Query.Pages {
		if p.Missing != nil || len(p.ImageInfo) == 0 {
			return nil, fmt.Errorf("file %q not found", title)
		}
		r := resultFromPage(p)
		return &r, nil
	}
	return nil, fmt.Errorf("file %q not found", title)
}

// doQuery performs one GET against the API and decodes the envelope.
func (c *Client) doQuery(ctx context.Context, params url.Values) (*queryResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying commons api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("commons api returned status %d", resp.StatusCode)
	}

	var qr queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&qr); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if qr.Error != nil {
		return nil, fmt.Errorf("commons api: %s (%s)", qr.Error.Info, qr.Error.Code)
	}
	return &qr, nil
}

// resultFromPage flattens one page record into a Result.
func resultFromPage(p pageInfo) Result {
	r := Result{
		PageID: p.PageID,
		Title:  p.Title,
	}
	if len(p.ImageInfo) == 0 {
		return r
	}
	ii := p.ImageInfo[0]
	r.URL = ii.URL
	r.ThumbURL = ii.ThumbURL
	r.PageURL = ii.DescriptionURL
	r.MIME = ii.MIME
	r.Width = ii.Width
	r.Height = ii.Height
	r.Artist = ii.metadata("Artist")
	r.License = ii.metadata("LicenseShortName")
	return r
}
