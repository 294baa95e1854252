package docstore

import (
	"fmt"
)

// Default search configuration values
const (
	DefaultSearchLimit  = 20
	DefaultSearchOffset = 0
	MaxSearchLimit      = 100
	DefaultLanguage     = "english"
)

// searchLanguages are the accepted text search configurations. The
// language is interpolated as a regconfig cast parameter, so anything
// outside this set is rejected before it reaches the query.
var searchLanguages = map[string]bool{
	"simple":     true,
	"danish":     true,
	"dutch":      true,
	"english":    true,
	"finnish":    true,
	"french":     true,
	"german":     true,
	"hungarian":  true,
	"italian":    true,
	"norwegian":  true,
	"portuguese": true,
	"russian":    true,
	"spanish":    true,
	"swedish":    true,
	"turkish":    true,
}

// SearchOptions configures an accessibility-scoped document search.
// Results are always restricted to documents the user owns or has an
// active share on; filters narrow within that set, never beyond it.
type SearchOptions struct {
	// UserID scopes the search to documents this user can access (required).
	UserID string

	// Query is an optional full-text query over title and description.
	// Empty query means "list everything accessible", ordered by recency.
	Query string

	// FolderID optionally filters to documents placed in a specific folder.
	FolderID *string

	// TagIDs optionally filters to documents carrying all of these tags.
	TagIDs []string

	// FileType optionally filters by file type (e.g. "application/pdf").
	FileType string

	// SharedOnly restricts results to documents shared with the user,
	// excluding documents they own ("shared with me" listings).
	SharedOnly bool

	// Pagination
	Limit  int // Number of results to return (default: 20, max: 100)
	Offset int // Number of results to skip (default: 0)

	// Language is the text search configuration used for stemming and
	// stop words when Query is set. Default: "english".
	Language string
}

// ApplyDefaults fills in default values for unset fields.
func (opts *SearchOptions) ApplyDefaults() {
	if opts.Limit <= 0 {
		opts.Limit = DefaultSearchLimit
	}
	if opts.Offset < 0 {
		opts.Offset = DefaultSearchOffset
	}
	if opts.Language == "" {
		opts.Language = DefaultLanguage
	}
}

// Validate checks that required fields are set and values are reasonable.
func (opts *SearchOptions) Validate() error {
	if opts.UserID == "" {
		return fmt.Errorf("search requires a user id")
	}
	if opts.Limit < 0 {
		return fmt.Errorf("limit cannot be negative")
	}
	if opts.Limit > MaxSearchLimit {
		return fmt.Errorf("limit cannot exceed %d (requested: %d)", MaxSearchLimit, opts.Limit)
	}
	if opts.Offset < 0 {
		return fmt.Errorf("offset cannot be negative")
	}
	if opts.Language != "" && !searchLanguages[opts.Language] {
		return fmt.Errorf("unsupported search language %q", opts.Language)
	}
	return nil
}

// SearchResult is a single matched document with its relevance score.
// Score is the ts_rank value when a query was given, 0 otherwise.
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// SearchResults is a page of matches plus the total count for pagination.
type SearchResults struct {
	Results []SearchResult `json:"results"`
	Total   int            `json:"total"`
	Limit   int            `json:"limit"`
	Offset  int            `json:"offset"`
}
