// Package search provides web search backends that turn a research topic
// into ranked candidate URLs for fetching.
package search

import (
	"context"
	"fmt"
)

// Result is one ranked search hit.
type Result struct {
	URL   string `json:"url"`
	Title string `json:"title,omitempty"`
}

// Searcher issues a web search and returns up to max ranked results.
type Searcher interface {
	Search(ctx context.Context, query string, max int) ([]Result, error)
}

// Error represents a search backend failure.
type Error struct {
	Backend string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("search error (%s): %s: %v", e.Backend, e.Message, e.Cause)
	}
	return fmt.Sprintf("search error (%s): %s", e.Backend, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// dedupe keeps the first occurrence of each URL, preserving rank order.
func dedupe(results []Result) []Result {
	seen := make(map[string]bool, len(results))
	out := results[:0]
	for _, r := range results {
		if r.URL == "" || seen[r.URL] {
			continue
		}
		seen[r.URL] = true
		out = append(out, r)
	}
	return out
}
