package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/khoward/deck-agent/internal/types"
)

func TestPrintSources(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintSources([]*types.Source{
		{URL: "https://a.example", FetchStatus: types.FetchOK},
		{URL: "https://b.example", FetchStatus: types.FetchFailed, FailureReason: "timeout"},
	})
	output := buf.String()

	assert.Contains(t, output, "FETCHED SOURCES")
	assert.Contains(t, output, "Fetched 2 sources, 1 usable")
	assert.Contains(t, output, "✓ https://a.example")
	assert.Contains(t, output, "✗ https://b.example")
	assert.Contains(t, output, "timeout")
}

func TestPrintSources_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintSources(nil)
	assert.Empty(t, buf.String())
}

func TestPrintInsights(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	insights := []types.Insight{
		{Claim: "Revenue grew 40% in 2024", Section: "Market", SupportingURLs: []string{"https://a.example"}, Rank: 1},
		{Claim: "Adoption concentrates in finance", Section: "Adoption", SupportingURLs: []string{"https://a.example", "https://b.example"}, Rank: 2},
	}
	p.PrintInsights(insights)
	output := buf.String()

	assert.Contains(t, output, "RANKED INSIGHTS")
	assert.Contains(t, output, "Extracted 2 insights")
	assert.Contains(t, output, "#1  [Market]")
	assert.Contains(t, output, "Sources: 2")
}

func TestPrintInsights_TruncatesList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	var insights []types.Insight
	for i := 0; i < 8; i++ {
		insights = append(insights, types.Insight{Claim: "claim", Section: "Findings", Rank: i + 1})
	}
	p.PrintInsights(insights)

	assert.Contains(t, buf.String(), "... and 3 more insights")
}

func TestPrintChartPlan(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintChartPlan([]types.ChartSpec{
		{Type: types.ChartLine, Title: "Market Over Time", Series: []types.SeriesPoint{{Label: "2023", Value: 1}, {Label: "2024", Value: 2}}, RenderedPath: "/outputs/c1.png"},
		{Type: types.ChartPie, Title: "Vendor Breakdown", Series: []types.SeriesPoint{{Label: "A", Value: 60}}},
	})
	output := buf.String()

	assert.Contains(t, output, "Planned 2 charts")
	assert.Contains(t, output, "✓ rendered Market Over Time (line)")
	assert.Contains(t, output, "✗ dropped Vendor Breakdown (pie)")
}

func TestPrintChartPlan_Empty(t *testing.T) {
	var buf bytes.Buffer
	NewPrinter(&buf).PrintChartPlan(nil)
	assert.Contains(t, buf.String(), "No chartable insights found")
}

func TestPrintDeckOutline(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintDeckOutline(&types.Deck{
		Slides: []types.Slide{
			{Layout: types.LayoutTitle, Title: "Quantum Computing"},
			{Layout: types.LayoutAgenda, Title: "Agenda"},
			{Layout: types.LayoutSources, Title: "Sources"},
		},
		ArtifactPath: "outputs/quantum_computing_20250101_120000.pptx",
	})
	output := buf.String()

	assert.Contains(t, output, "DECK OUTLINE")
	assert.Contains(t, output, "Assembled 3 slides")
	assert.Contains(t, output, "1. title")
	assert.Contains(t, output, "Quantum Computing")
	assert.Contains(t, output, "Written to outputs/quantum_computing")
}

func TestPrintBox_TruncatesLongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.printBox("TITLE", strings.Repeat("x", 200))
	for _, line := range strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, len([]rune(line)), boxWidth)
	}
}
