package charts

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoward/deck-agent/internal/llm"
	"github.com/khoward/deck-agent/internal/retry"
	"github.com/khoward/deck-agent/internal/types"
)

type fakeClient struct {
	response string
	err      error
}

func (f *fakeClient) GenerateJSON(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	return f.response, f.err
}

func (f *fakeClient) Close() error { return nil }

func quickPolicy() retry.Policy {
	return retry.Policy{MaxAttempts: 1, BaseDelay: time.Millisecond, MaxDelay: time.Millisecond}
}

func TestLLMPlan_ParsesValidPlan(t *testing.T) {
	client := &fakeClient{response: `{
		"charts": [
			{
				"type": "bar",
				"title": "Deployments by Vendor",
				"caption": "Installed base comparison",
				"series": [
					{"label": "Alpha", "value": 320},
					{"label": "Beta", "value": 210}
				]
			}
		]
	}`}

	p := NewLLMPlanner(client, quickPolicy(), 4)
	specs := p.Plan(context.Background(), []types.Insight{
		insight("Vendor Alpha leads with 320 deployments while Vendor Beta reached 210.", "Adoption", 1),
	})

	require.Len(t, specs, 1)
	assert.Equal(t, types.ChartBar, specs[0].Type)
	assert.Equal(t, "Deployments by Vendor", specs[0].Title)
	require.Len(t, specs[0].Series, 2)
	assert.Equal(t, 320.0, specs[0].Series[0].Value)
}

func TestLLMPlan_FailureDegradesToEmpty(t *testing.T) {
	p := NewLLMPlanner(&fakeClient{err: errors.New("model down")}, quickPolicy(), 4)
	specs := p.Plan(context.Background(), []types.Insight{insight("claim", "Findings", 1)})
	assert.Empty(t, specs)
}

func TestLLMPlan_InvalidPlanDegradesToEmpty(t *testing.T) {
	client := &fakeClient{response: `{"charts": [{"type": "scatter", "title": "Bad", "series": [{"label": "x", "value": 1}]}]}`}

	p := NewLLMPlanner(client, quickPolicy(), 4)
	specs := p.Plan(context.Background(), []types.Insight{insight("claim", "Findings", 1)})
	assert.Empty(t, specs)
}

func TestLLMPlan_CapsChartCount(t *testing.T) {
	client := &fakeClient{response: `{
		"charts": [
			{"type": "bar", "title": "A", "series": [{"label": "x", "value": 1}]},
			{"type": "bar", "title": "B", "series": [{"label": "y", "value": 2}]}
		]
	}`}

	p := NewLLMPlanner(client, quickPolicy(), 1)
	specs := p.Plan(context.Background(), []types.Insight{insight("claim", "Findings", 1)})
	assert.Len(t, specs, 1)
}
