package types

// Insight is one synthesized, citation-backed claim about the topic.
// Insights are produced once by the summarizer and immutable afterward.
type Insight struct {
	Claim string `json:"claim"`
	// Section groups related insights onto the same slide.
	Section string `json:"section"`
	// SupportingURLs is a non-empty subset of the job's OK source URLs.
	SupportingURLs []string `json:"supporting_urls"`
	// Rank orders insights by confidence, 1 = strongest.
	Rank int `json:"rank"`
}
