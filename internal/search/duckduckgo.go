package search

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// defaultEndpoint is the DuckDuckGo HTML (no-JS) results page.
const defaultEndpoint = "https://html.duckduckgo.com/html/"

// searchUserAgent identifies the service on outbound search requests.
const searchUserAgent = "Mozilla/5.0 (compatible; DeckAgent/1.0)"

// DuckDuckGoSearcher scrapes the DuckDuckGo HTML results page. It needs no
// API key and serves as the fallback backend.
type DuckDuckGoSearcher struct {
	endpoint string
	client   *http.Client
}

// NewDuckDuckGoSearcher creates the scraping backend. endpoint overrides the
// results page URL; pass "" for the default (tests point it at a local
// server).
func NewDuckDuckGoSearcher(endpoint string) *DuckDuckGoSearcher {
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	return &DuckDuckGoSearcher{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 20 * time.Second},
	}
}

// Search returns up to max ranked results for the query.
func (d *DuckDuckGoSearcher) Search(ctx context.Context, query string, max int) ([]Result, error) {
	if max < 1 {
		max = 1
	}

	reqURL := fmt.Sprintf("%s?q=%s", d.endpoint, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Backend: "duckduckgo", Message: "failed to create request", Cause: err}
	}
	req.Header.Set("User-Agent", searchUserAgent)

	resp, err := d.client.Do(req)
	if err != nil {
		return nil, &Error{Backend: "duckduckgo", Message: "request failed", Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Backend: "duckduckgo", Message: fmt.Sprintf("HTTP status %d", resp.StatusCode)}
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, &Error{Backend: "duckduckgo", Message: "failed to parse results page", Cause: err}
	}

	var results []Result
	doc.Find("a.result__a").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, ok := sel.Attr("href")
		if !ok {
			return true
		}
		link := resolveRedirect(href)
		if !strings.HasPrefix(link, "http") {
			return true
		}
		results = append(results, Result{URL: link, Title: strings.TrimSpace(sel.Text())})
		return len(results) < max
	})

	results = dedupe(results)
	if len(results) == 0 {
		return nil, &Error{Backend: "duckduckgo", Message: "no results for query " + query}
	}
	return results, nil
}

// resolveRedirect unwraps DuckDuckGo's /l/?uddg= redirect links to the
// destination URL.
func resolveRedirect(href string) string {
	if !strings.Contains(href, "uddg=") {
		return href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if dest := parsed.Query().Get("uddg"); dest != "" {
		return dest
	}
	return href
}
