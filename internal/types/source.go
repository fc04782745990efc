package types

// FetchStatus tracks the lifecycle of a single source page.
type FetchStatus string

// Source fetch states. A FAILED source is kept for audit but never passed
// to downstream stages.
const (
	FetchPending FetchStatus = "PENDING"
	FetchOK      FetchStatus = "OK"
	FetchFailed  FetchStatus = "FAILED"
)

// Source is one fetched web page and its derived text. It is mutated only by
// the fetcher (RawContent) and then the extractor (ExtractedText); after
// extraction it is read-only.
type Source struct {
	URL           string `json:"url"`
	Title         string `json:"title,omitempty"`
	RawContent    string `json:"-"`
	ExtractedText string `json:"-"`
	FetchStatus   FetchStatus `json:"fetch_status"`

	// FailureReason records why the source was marked FAILED.
	FailureReason string `json:"failure_reason,omitempty"`
}

// Usable reports whether the source can feed the summarizer.
func (s *Source) Usable() bool {
	return s.FetchStatus == FetchOK && s.ExtractedText != ""
}
