package commons

import (
	"path"
	"strings"
)

// Result is one image search result.
type Result struct {
	PageID   int64  // MediaWiki page ID
	Title    string // Full page title, e.g. "File:Cat03.jpg"
	URL      string // Original file URL
	ThumbURL string // Scaled thumbnail URL
	PageURL  string // Description page on Commons
	MIME     string // e.g. "image/jpeg"
	Width    int    // Original pixel width
	Height   int    // Original pixel height
	Artist   string // Attribution, reduced to plain text
	License  string // License short name, e.g. "CC BY-SA 4.0"
}

// DisplayTitle returns the title without the File: prefix and extension.
func (r Result) DisplayTitle() string {
	t := strings.TrimPrefix(r.Title, "File:")
	return strings.TrimSuffix(t, path.Ext(t))
}

// SearchPage is one page of ordered results plus continuation state.
type SearchPage struct {
	Results    []Result
	NextOffset int  // Offset of the next page; valid only when HasMore
	HasMore    bool // Server provided a continuation token
}

// Wire format of the MediaWiki Action API query response. Pages arrive as a
// map keyed by page ID; ordering comes from the per-page index field.
type queryResponse struct {
	Continue *continueBlock `json:"continue"`
	Query    *queryBlock    `json:"query"`
	Error    *apiError      `json:"error"`
	Warnings map[string]any `json:"warnings"`
}

type continueBlock struct {
	GsrOffset int    `json:"gsroffset"`
	Continue  string `json:"continue"`
}

type queryBlock struct {
	Pages map[string]pageInfo `json:"pages"`
}

type pageInfo struct {
	PageID    int64       `json:"pageid"`
	Ns        int         `json:"ns"`
	Title     string      `json:"title"`
	Index     int         `json:"index"`
	Missing   *string     `json:"missing"`
	ImageInfo []imageInfo `json:"imageinfo"`
}

type imageInfo struct {
	URL            string                 `json:"url"`
	DescriptionURL string                 `json:"descriptionurl"`
	ThumbURL       string                 `json:"thumburl"`
	MIME           string                 `json:"mime"`
	Width          int                    `json:"width"`
	Height         int                    `json:"height"`
	ExtMetadata    map[string]metadataRow `json:"extmetadata"`
}

type metadataRow struct {
	Value string `json:"value"`
}

type apiError struct {
	Code string `json:"code"`
	Info string `json:"info"`
}

// metadata returns the named extmetadata value as plain text.
func (ii imageInfo) metadata(key string) string {
	row, ok := ii.ExtMetadata[key]
	if !ok {
		return ""
	}
	return plainText(row.Value)
}
