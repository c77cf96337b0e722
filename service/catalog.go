package service

import (
	"context"
	"log"
	"strings"

	"github.com/luminalib/lumina/models"
	"github.com/luminalib/lumina/store"
)

// ExternalBook is an external catalog entry normalized to a uniform shape.
type ExternalBook struct {
	Title     string `json:"title"`
	Author    string `json:"author"`
	SourceURL string `json:"sourceUrl,omitempty"`
}

// SearchResults merges the local inventory with external suggestions.
type SearchResults struct {
	Local    []models.Book  `json:"local"`
	External []ExternalBook `json:"external"`
}

// Catalog searches the local inventory and, when a client is configured,
// the external catalog. External failures degrade to empty suggestions.
type Catalog struct {
	store  *store.Store
	client SearchClient
}

func NewCatalog(st *store.Store, client SearchClient) *Catalog {
	return &Catalog{store: st, client: client}
}

// Search returns the local books matching query (all of them when query is
// empty) plus best-effort external results. The local half never fails for
// catalog reasons; an unreachable external catalog is logged and yields an
// empty external list.
func (c *Catalog) Search(ctx context.Context, query string) (SearchResults, error) {
	local, err := c.store.SearchBooks(ctx, query)
	if err != nil {
		return SearchResults{}, err
	}
	results := SearchResults{Local: local, External: []ExternalBook{}}

	if c.client != nil && c.client.Enabled() {
		raw, err := c.client.Search(ctx, query)
		if err != nil {
			log.Printf("warning: external catalog lookup failed: %v", err)
		} else {
			results.External = normalizeResults(raw)
		}
	}
	return results, nil
}

// normalizeResults maps raw provider entries to ExternalBook, tolerating
// missing fields: title falls back through name, author through authors
// and creator, the source URL through link.
func normalizeResults(raw []RawResult) []ExternalBook {
	out := make([]ExternalBook, 0, len(raw))
	for _, entry := range raw {
		title := firstField(entry, "title", "name")
		if title == "" {
			title = "Untitled"
		}
		author := firstField(entry, "author", "authors", "creator")
		if author == "" {
			author = "Unknown"
		}
		out = append(out, ExternalBook{
			Title:     title,
			Author:    author,
			SourceURL: firstField(entry, "url", "link"),
		})
	}
	return out
}

func firstField(entry RawResult, keys ...string) string {
	for _, key := range keys {
		if s := fieldString(entry[key]); s != "" {
			return s
		}
	}
	return ""
}

// fieldString renders a raw field value: strings pass through, lists of
// strings (e.g. multiple authors) join with commas, anything else is
// treated as absent.
func fieldString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		parts := make([]string, 0, len(t))
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}
