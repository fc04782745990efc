package search

import (
	"context"

	"google.golang.org/api/customsearch/v1"
	"google.golang.org/api/option"
)

// GoogleSearcher uses the Google Custom Search JSON API. It is preferred
// when API credentials are configured; quota is ample for the low per-job
// query volume.
type GoogleSearcher struct {
	svc *customsearch.Service
	cx  string
}

// NewGoogleSearcher creates a Custom Search backed searcher.
func NewGoogleSearcher(ctx context.Context, apiKey, cx string) (*GoogleSearcher, error) {
	svc, err := customsearch.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &Error{Backend: "google", Message: "failed to create customsearch service", Cause: err}
	}
	return &GoogleSearcher{svc: svc, cx: cx}, nil
}

// Search returns up to max ranked results for the query.
func (g *GoogleSearcher) Search(ctx context.Context, query string, max int) ([]Result, error) {
	if max < 1 {
		max = 1
	}
	// The API returns at most 10 per call.
	num := int64(max)
	if num > 10 {
		num = 10
	}

	resp, err := g.svc.Cse.List().Cx(g.cx).Q(query).Num(num).Context(ctx).Do()
	if err != nil {
		return nil, &Error{Backend: "google", Message: "search request failed", Cause: err}
	}
	if len(resp.Items) == 0 {
		return nil, &Error{Backend: "google", Message: "no results for query " + query}
	}

	results := make([]Result, 0, len(resp.Items))
	for _, item := range resp.Items {
		results = append(results, Result{URL: item.Link, Title: item.Title})
	}
	results = dedupe(results)
	if len(results) > max {
		results = results[:max]
	}
	return results, nil
}
