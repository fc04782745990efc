// Package summarize turns extracted source text into ranked, grounded
// insights using LLM extraction.
package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/khoward/deck-agent/internal/llm"
	"github.com/khoward/deck-agent/internal/prompts"
	"github.com/khoward/deck-agent/internal/retry"
	"github.com/khoward/deck-agent/internal/schemas"
	"github.com/khoward/deck-agent/internal/types"
)

// Summarizer produces insights about a topic from usable sources.
type Summarizer interface {
	Summarize(ctx context.Context, topic string, sources []*types.Source) ([]types.Insight, error)
}

// Error represents a summarization failure.
type Error struct {
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("summarization error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("summarization error: %s", e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// LLMSummarizer extracts insights batch by batch so a single bad LLM response
// cannot sink the whole job.
type LLMSummarizer struct {
	client llm.Client
	policy retry.Policy
	// BatchSize is how many sources share one LLM call.
	BatchSize int
	// SimilarityThreshold is the token-overlap ratio above which two claims
	// are considered duplicates.
	SimilarityThreshold float64
}

// NewLLMSummarizer creates a summarizer over the given client.
func NewLLMSummarizer(client llm.Client, policy retry.Policy, batchSize int, similarity float64) *LLMSummarizer {
	if batchSize < 1 {
		batchSize = 1
	}
	return &LLMSummarizer{
		client:              client,
		policy:              policy,
		BatchSize:           batchSize,
		SimilarityThreshold: similarity,
	}
}

// insightsResponse mirrors the JSON shape the LLM is instructed to return.
type insightsResponse struct {
	Insights []struct {
		Claim          string   `json:"claim"`
		Section        string   `json:"section"`
		SupportingURLs []string `json:"supporting_urls"`
		Rank           int      `json:"rank"`
	} `json:"insights"`
}

// Summarize processes sources in batches, validates each LLM response, and
// merges the surviving insights into one deduplicated, re-ranked list.
// Claims whose supporting URLs all fall outside the given source set are
// dropped. It fails only when every batch fails.
func (s *LLMSummarizer) Summarize(ctx context.Context, topic string, sources []*types.Source) ([]types.Insight, error) {
	usable := make([]*types.Source, 0, len(sources))
	for _, src := range sources {
		if src.Usable() {
			usable = append(usable, src)
		}
	}
	if len(usable) == 0 {
		return nil, &Error{Message: "no usable sources to summarize"}
	}

	validURLs := make(map[string]bool, len(usable))
	for _, src := range usable {
		validURLs[src.URL] = true
	}

	var (
		all     []types.Insight
		lastErr error
		failed  int
		batches int
	)
	for start := 0; start < len(usable); start += s.BatchSize {
		end := start + s.BatchSize
		if end > len(usable) {
			end = len(usable)
		}
		batches++

		insights, err := s.summarizeBatch(ctx, topic, usable[start:end], validURLs)
		if err != nil {
			failed++
			lastErr = err
			log.Printf("[summarize] batch %d failed: %v", batches, err)
			continue
		}
		all = append(all, insights...)
	}

	if failed == batches {
		return nil, &Error{Message: "all summary batches failed", Cause: lastErr}
	}

	all = s.dedupe(all)
	sort.SliceStable(all, func(i, j int) bool { return all[i].Rank < all[j].Rank })
	for i := range all {
		all[i].Rank = i + 1
	}
	return all, nil
}

func (s *LLMSummarizer) summarizeBatch(ctx context.Context, topic string, batch []*types.Source, validURLs map[string]bool) ([]types.Insight, error) {
	prompt := buildSummaryPrompt(topic, batch)

	var raw string
	err := s.policy.Do(ctx, func(ctx context.Context) error {
		var genErr error
		raw, genErr = s.client.GenerateJSON(ctx, prompt, llm.TierStandard)
		return genErr
	})
	if err != nil {
		return nil, &Error{Message: "LLM call failed", Cause: err}
	}

	if err := schemas.Validate(schemas.InsightsSchema, raw); err != nil {
		return nil, &Error{Message: "LLM response failed schema validation", Cause: err}
	}

	var resp insightsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &Error{Message: "failed to parse LLM response", Cause: err}
	}

	insights := make([]types.Insight, 0, len(resp.Insights))
	for _, in := range resp.Insights {
		claim := strings.TrimSpace(in.Claim)
		if claim == "" {
			continue
		}

		var urls []string
		for _, u := range in.SupportingURLs {
			if validURLs[u] {
				urls = append(urls, u)
			}
		}
		// A claim nothing in the fetched corpus supports is not
		// evidence, it is hallucination.
		if len(urls) == 0 {
			log.Printf("[summarize] dropping unsupported claim: %q", claim)
			continue
		}

		section := strings.TrimSpace(in.Section)
		if section == "" {
			section = "Findings"
		}
		insights = append(insights, types.Insight{
			Claim:          claim,
			Section:        section,
			SupportingURLs: urls,
			Rank:           in.Rank,
		})
	}
	return insights, nil
}

// buildSummaryPrompt renders the extraction prompt for one batch of sources.
func buildSummaryPrompt(topic string, batch []*types.Source) string {
	var sb strings.Builder
	for i, src := range batch {
		fmt.Fprintf(&sb, "--- Source %d ---\nURL: %s\nTitle: %s\n%s\n\n", i+1, src.URL, src.Title, src.ExtractedText)
	}

	template := prompts.MustGet("research.json", "summarize_sources")
	return prompts.Format(template, map[string]string{
		"Topic":   topic,
		"Sources": sb.String(),
	})
}

// dedupe merges near-duplicate claims, keeping the better-ranked one and the
// union of supporting URLs.
func (s *LLMSummarizer) dedupe(insights []types.Insight) []types.Insight {
	var kept []types.Insight
	for _, candidate := range insights {
		merged := false
		for i := range kept {
			if tokenSimilarity(kept[i].Claim, candidate.Claim) < s.SimilarityThreshold {
				continue
			}
			if candidate.Rank < kept[i].Rank {
				urls := kept[i].SupportingURLs
				kept[i] = candidate
				kept[i].SupportingURLs = mergeURLs(candidate.SupportingURLs, urls)
			} else {
				kept[i].SupportingURLs = mergeURLs(kept[i].SupportingURLs, candidate.SupportingURLs)
			}
			merged = true
			break
		}
		if !merged {
			kept = append(kept, candidate)
		}
	}
	return kept
}

func mergeURLs(a, b []string) []string {
	seen := make(map[string]bool, len(a)+len(b))
	var out []string
	for _, u := range append(append([]string{}, a...), b...) {
		if !seen[u] {
			seen[u] = true
			out = append(out, u)
		}
	}
	return out
}

// tokenSimilarity computes the Jaccard similarity between the lowercase token
// sets of two claims.
func tokenSimilarity(a, b string) float64 {
	setA := tokenSet(a)
	setB := tokenSet(b)
	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for tok := range setA {
		if setB[tok] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection
	return float64(intersection) / float64(union)
}

func tokenSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tok = strings.Trim(tok, ".,;:!?\"'()")
		if tok != "" {
			set[tok] = true
		}
	}
	return set
}
