package summarize

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/khoward/deck-agent/internal/llm"
	"github.com/khoward/deck-agent/internal/prompts"
	"github.com/khoward/deck-agent/internal/retry"
	"github.com/khoward/deck-agent/internal/schemas"
	"github.com/khoward/deck-agent/internal/types"
)

// Recommender derives actionable recommendations from ranked insights.
type Recommender interface {
	Recommend(ctx context.Context, topic string, insights []types.Insight) ([]string, error)
}

// LLMRecommender produces recommendations with one cheap LLM call. It is an
// enrichment stage: callers treat its errors as a skipped stage, not a
// failed job.
type LLMRecommender struct {
	client llm.Client
	policy retry.Policy
	// MaxRecommendations bounds how many bullets the model may return.
	MaxRecommendations int
}

// NewLLMRecommender creates a recommender over the given client.
func NewLLMRecommender(client llm.Client, policy retry.Policy, maxRecommendations int) *LLMRecommender {
	if maxRecommendations < 1 {
		maxRecommendations = 4
	}
	return &LLMRecommender{client: client, policy: policy, MaxRecommendations: maxRecommendations}
}

type recommendationsResponse struct {
	Recommendations []string `json:"recommendations"`
}

// Recommend asks the model for imperative next steps grounded in the given
// insights, ordered most important first.
func (r *LLMRecommender) Recommend(ctx context.Context, topic string, insights []types.Insight) ([]string, error) {
	if len(insights) == 0 {
		return nil, &Error{Message: "no insights to recommend from"}
	}

	var sb strings.Builder
	for _, in := range insights {
		fmt.Fprintf(&sb, "- [%s] %s\n", in.Section, in.Claim)
	}
	template := prompts.MustGet("research.json", "recommend_actions")
	prompt := prompts.Format(template, map[string]string{
		"Topic":              topic,
		"Insights":           sb.String(),
		"MaxRecommendations": strconv.Itoa(r.MaxRecommendations),
	})

	var raw string
	err := r.policy.Do(ctx, func(ctx context.Context) error {
		var genErr error
		raw, genErr = r.client.GenerateJSON(ctx, prompt, llm.TierLite)
		return genErr
	})
	if err != nil {
		return nil, &Error{Message: "LLM call failed", Cause: err}
	}

	if err := schemas.Validate(schemas.RecommendationsSchema, raw); err != nil {
		return nil, &Error{Message: "LLM response failed schema validation", Cause: err}
	}

	var resp recommendationsResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, &Error{Message: "failed to parse LLM response", Cause: err}
	}

	recs := make([]string, 0, len(resp.Recommendations))
	for _, rec := range resp.Recommendations {
		rec = strings.TrimSpace(rec)
		if rec == "" {
			continue
		}
		recs = append(recs, rec)
		if len(recs) == r.MaxRecommendations {
			break
		}
	}
	return recs, nil
}
