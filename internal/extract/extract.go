// Package extract converts fetched HTML into cleaned plain text and decides
// whether a source is usable for summarization.
package extract

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/khoward/deck-agent/internal/types"
)

// Error represents a failure to extract text from a source.
type Error struct {
	URL     string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("extraction error for %s: %s: %v", e.URL, e.Message, e.Cause)
	}
	return fmt.Sprintf("extraction error for %s: %s", e.URL, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Extractor strips markup and boilerplate from raw page content. The length
// bounds are tuning parameters, not structural constants.
type Extractor struct {
	// MinTextLen marks a source FAILED when its text is shorter.
	MinTextLen int
	// MaxTextLen truncates longer text rather than failing it.
	MaxTextLen int
}

// New creates an extractor with the given usable-text bounds.
func New(minLen, maxLen int) *Extractor {
	return &Extractor{MinTextLen: minLen, MaxTextLen: maxLen}
}

// Extract populates src.ExtractedText from src.RawContent, or marks the
// source FAILED when the page yields too little text. Overlong text is
// truncated, never failed.
func (x *Extractor) Extract(src *types.Source) {
	if src.FetchStatus != types.FetchOK {
		return
	}

	text, err := MainText(src.RawContent)
	if err != nil {
		src.FetchStatus = types.FetchFailed
		src.FailureReason = (&Error{URL: src.URL, Message: "failed to parse HTML", Cause: err}).Error()
		return
	}

	if len(text) < x.MinTextLen {
		src.FetchStatus = types.FetchFailed
		src.FailureReason = (&Error{
			URL:     src.URL,
			Message: fmt.Sprintf("extracted text too short (%d < %d chars)", len(text), x.MinTextLen),
		}).Error()
		return
	}

	if x.MaxTextLen > 0 && len(text) > x.MaxTextLen {
		text = truncate(text, x.MaxTextLen)
	}
	src.ExtractedText = text

	if src.Title == "" {
		src.Title = pageTitle(src.RawContent)
	}
	// Raw HTML is no longer needed once text is extracted.
	src.RawContent = ""
}

// contentSelectors are tried in order to locate the main article body.
var contentSelectors = []string{
	"main",
	"article",
	".content",
	"#content",
	".main-content",
	"#main-content",
}

// MainText parses HTML and returns the main body text with boilerplate
// removed. If no content selector matches it falls back to the body element.
func MainText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", err
	}

	doc.Find("nav, footer, header, script, style, noscript, iframe, form, .ad, .advertisement, .ads, .sidebar, .cookie-banner, .popup").Remove()

	var mainContent *goquery.Selection
	for _, selector := range contentSelectors {
		if selection := doc.Find(selector); selection.Length() > 0 {
			mainContent = selection.First()
			break
		}
	}
	if mainContent == nil {
		mainContent = doc.Find("body")
	}

	return cleanWhitespace(mainContent.Text()), nil
}

// pageTitle returns the document's <title>, if any.
func pageTitle(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(doc.Find("title").First().Text())
}

// truncate cuts text to at most maxLen bytes without splitting a rune.
func truncate(text string, maxLen int) string {
	if len(text) <= maxLen {
		return text
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// cleanWhitespace collapses blank lines and per-line padding.
func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	var cleaned []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
