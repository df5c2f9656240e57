package query

import (
	"fmt"
	"strings"

	"vibebeat/internal/catalog"
	"vibebeat/pkg/models"

	"github.com/samber/lo"
)

// SearchStatus distinguishes an absent query from one without hits.
type SearchStatus int

const (
	NoQuery SearchStatus = iota
	NoMatches
	Matches
)

// SearchResult is the outcome of Search.
type SearchResult struct {
	Status SearchStatus
	Query  string
	Songs  []models.Song
}

// Message returns the text shown instead of a result list, or "" when there
// are matches to show.
func (r SearchResult) Message() string {
	switch r.Status {
	case NoQuery:
		return "Search for music"
	case NoMatches:
		return fmt.Sprintf("No results for '%s'", r.Query)
	default:
		return ""
	}
}

// Search matches text case-insensitively against title, artist and album.
// Results keep catalog insertion order.
func Search(c *catalog.Catalog, text string) SearchResult {
	q := strings.ToLower(strings.TrimSpace(text))
	if q == "" {
		return SearchResult{Status: NoQuery}
	}

	songs := lo.Filter(c.Songs(), func(s models.Song, _ int) bool {
		return strings.Contains(strings.ToLower(s.Title), q) ||
			strings.Contains(strings.ToLower(s.Artist), q) ||
			strings.Contains(strings.ToLower(s.Album), q)
	})

	if len(songs) == 0 {
		return SearchResult{Status: NoMatches, Query: strings.TrimSpace(text)}
	}
	return SearchResult{Status: Matches, Query: strings.TrimSpace(text), Songs: songs}
}
