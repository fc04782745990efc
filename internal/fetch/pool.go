package fetch

import (
	"context"
	"log"

	"golang.org/x/sync/errgroup"

	"github.com/khoward/deck-agent/internal/search"
	"github.com/khoward/deck-agent/internal/types"
)

// Pool fetches a set of search results concurrently. Each fetch has an
// independent timeout and independent failure isolation: one source's
// failure never aborts its siblings.
type Pool struct {
	workers int
	opts    *Options
	// browserFallback renders JS-heavy pages in a headless browser when
	// the plain fetch yields too little content. Nil disables it.
	browserFallback BrowserFunc
}

// NewPool creates a fetch pool with the given worker bound.
func NewPool(workers int, opts *Options) *Pool {
	if workers < 1 {
		workers = 1
	}
	if opts == nil {
		opts = DefaultOptions()
	}
	return &Pool{workers: workers, opts: opts}
}

// WithBrowserFallback enables headless-browser rendering for pages whose
// plain fetch comes back nearly empty.
func (p *Pool) WithBrowserFallback(fn BrowserFunc) *Pool {
	p.browserFallback = fn
	return p
}

// FetchAll fetches every result and streams Sources on the returned channel
// in completion order, closing it once all fetches resolve. Duplicate URLs
// (after normalization) are fetched once. Cancelling ctx abandons
// outstanding fetches; their results are discarded.
func (p *Pool) FetchAll(ctx context.Context, results []search.Result) <-chan *types.Source {
	out := make(chan *types.Source)

	seen := make(map[string]bool, len(results))
	var unique []search.Result
	for _, r := range results {
		key := NormalizeURL(r.URL)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, r)
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)

	go func() {
		defer close(out)
		for _, r := range unique {
			result := r
			g.Go(func() error {
				src := p.fetchOne(gCtx, result)
				select {
				case out <- src:
				case <-gCtx.Done():
				}
				// Failures are recorded on the Source, never
				// returned, so siblings keep running.
				return nil
			})
		}
		_ = g.Wait()
	}()

	return out
}

// fetchOne fetches a single source, applying the browser fallback for thin
// pages when enabled.
func (p *Pool) fetchOne(ctx context.Context, r search.Result) *types.Source {
	src := &types.Source{
		URL:         r.URL,
		Title:       r.Title,
		FetchStatus: types.FetchPending,
	}

	fetchCtx, cancel := context.WithTimeout(ctx, p.opts.Timeout)
	defer cancel()

	result, err := URL(fetchCtx, r.URL, p.opts)
	if err != nil {
		if p.browserFallback == nil {
			src.FetchStatus = types.FetchFailed
			src.FailureReason = err.Error()
			log.Printf("[fetch] %s failed: %v", r.URL, err)
			return src
		}
		result = &Result{URL: r.URL}
	}

	if p.browserFallback != nil && ThinContent(result.HTML) {
		html, berr := p.browserFallback(fetchCtx, r.URL, p.opts.Timeout)
		if berr == nil {
			result.HTML = html
		} else if result.HTML == "" {
			src.FetchStatus = types.FetchFailed
			src.FailureReason = berr.Error()
			log.Printf("[fetch] %s browser fallback failed: %v", r.URL, berr)
			return src
		}
	}

	src.RawContent = result.HTML
	src.FetchStatus = types.FetchOK
	return src
}
