// Package fetch - browser.go provides headless browser rendering for
// JavaScript-heavy source pages.
package fetch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// thinContentThreshold is the raw HTML length below which a page is assumed
// to be a JavaScript-rendered shell worth retrying in a browser.
const thinContentThreshold = 500

// BrowserFunc renders a page and returns its HTML. It exists as a function
// type so the pool can be tested without a Chrome install.
type BrowserFunc func(ctx context.Context, url string, timeout time.Duration) (string, error)

// ThinContent reports whether fetched HTML is too small to hold real
// article content.
func ThinContent(html string) bool {
	return len(strings.TrimSpace(html)) < thinContentThreshold
}

// WithBrowser renders a page in a headless browser and returns the rendered
// HTML. Requires Chrome/Chromium on the host.
func WithBrowser(ctx context.Context, url string, timeout time.Duration) (string, error) {
	allocCtx, cancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)...,
	)
	defer cancel()

	browserCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	browserCtx, cancel = context.WithTimeout(browserCtx, timeout)
	defer cancel()

	var html string
	err := chromedp.Run(browserCtx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
		// Give client-side rendering a moment to settle.
		chromedp.Sleep(2*time.Second),
		chromedp.OuterHTML("html", &html),
	)
	if err != nil {
		return "", fmt.Errorf("browser rendering failed: %w", err)
	}
	return html, nil
}
