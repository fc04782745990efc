package charts

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/khoward/deck-agent/internal/llm"
	"github.com/khoward/deck-agent/internal/prompts"
	"github.com/khoward/deck-agent/internal/retry"
	"github.com/khoward/deck-agent/internal/schemas"
	"github.com/khoward/deck-agent/internal/types"
)

// LLMPlanner asks the model to propose charts from the insight list. It
// trades the heuristic planner's determinism for better recall on irregular
// phrasings; any failure degrades to an empty plan so the deck proceeds
// text-only.
type LLMPlanner struct {
	client    llm.Client
	policy    retry.Policy
	MaxCharts int
}

// NewLLMPlanner creates an LLM-backed planner with the given chart cap.
func NewLLMPlanner(client llm.Client, policy retry.Policy, maxCharts int) *LLMPlanner {
	if maxCharts < 0 {
		maxCharts = 0
	}
	return &LLMPlanner{client: client, policy: policy, MaxCharts: maxCharts}
}

// chartPlanResponse mirrors the JSON shape the LLM is instructed to return.
type chartPlanResponse struct {
	Charts []struct {
		Type    string `json:"type"`
		Title   string `json:"title"`
		Caption string `json:"caption"`
		Series  []struct {
			Label string  `json:"label"`
			Value float64 `json:"value"`
		} `json:"series"`
	} `json:"charts"`
}

// Plan requests a chart plan from the model and validates it before use.
func (p *LLMPlanner) Plan(ctx context.Context, insights []types.Insight) []types.ChartSpec {
	if len(insights) == 0 || p.MaxCharts == 0 {
		return nil
	}

	var lines []string
	for _, in := range insights {
		lines = append(lines, fmt.Sprintf("- [%s] %s", in.Section, in.Claim))
	}

	template := prompts.MustGet("research.json", "plan_charts")
	prompt := prompts.Format(template, map[string]string{
		"Topic":     "",
		"Insights":  strings.Join(lines, "\n"),
		"MaxCharts": strconv.Itoa(p.MaxCharts),
	})

	var raw string
	err := p.policy.Do(ctx, func(ctx context.Context) error {
		var genErr error
		raw, genErr = p.client.GenerateJSON(ctx, prompt, llm.TierLite)
		return genErr
	})
	if err != nil {
		log.Printf("[charts] LLM plan failed, proceeding without charts: %v", err)
		return nil
	}

	if err := schemas.Validate(schemas.ChartPlanSchema, raw); err != nil {
		log.Printf("[charts] LLM plan failed validation, proceeding without charts: %v", err)
		return nil
	}

	var resp chartPlanResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		log.Printf("[charts] LLM plan unparseable, proceeding without charts: %v", err)
		return nil
	}

	var specs []types.ChartSpec
	for _, c := range resp.Charts {
		if len(specs) >= p.MaxCharts {
			break
		}
		spec := types.ChartSpec{
			Type:    types.ChartType(c.Type),
			Title:   c.Title,
			Caption: c.Caption,
		}
		for _, pt := range c.Series {
			spec.Series = append(spec.Series, types.SeriesPoint{Label: pt.Label, Value: pt.Value})
		}
		specs = append(specs, spec)
	}
	return specs
}
