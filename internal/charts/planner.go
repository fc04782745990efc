// Package charts plans and renders chart images from quantitative insights.
package charts

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/khoward/deck-agent/internal/types"
)

// Planner derives chart specifications from insights. Planning never fails a
// job: an input with no chartable data yields an empty plan.
type Planner interface {
	Plan(ctx context.Context, insights []types.Insight) []types.ChartSpec
}

// HeuristicPlanner selects insights whose claim text carries explicit
// numbers and proposes at most MaxCharts specs. Planning is deterministic:
// the same insight set always yields the same specs.
type HeuristicPlanner struct {
	// MaxCharts bounds the number of proposed charts.
	MaxCharts int
}

// NewHeuristicPlanner creates a planner with the given chart cap.
func NewHeuristicPlanner(maxCharts int) *HeuristicPlanner {
	if maxCharts < 0 {
		maxCharts = 0
	}
	return &HeuristicPlanner{MaxCharts: maxCharts}
}

// Plan walks insights in rank order and proposes at most one chart per
// insight: a time series becomes a line chart, a set of shares becomes a pie
// chart, and labeled comparisons become a bar chart.
func (p *HeuristicPlanner) Plan(_ context.Context, insights []types.Insight) []types.ChartSpec {
	var specs []types.ChartSpec
	for _, in := range insights {
		if len(specs) >= p.MaxCharts {
			break
		}

		if series := yearSeries(in.Claim); len(series) >= 3 {
			specs = append(specs, types.ChartSpec{
				Type:    types.ChartLine,
				Title:   chartTitle(in.Section, "Over Time"),
				Caption: in.Claim,
				Series:  series,
			})
			continue
		}

		if series := percentShares(in.Claim); len(series) >= 2 && sharesSumPlausible(series) {
			specs = append(specs, types.ChartSpec{
				Type:    types.ChartPie,
				Title:   chartTitle(in.Section, "Breakdown"),
				Caption: in.Claim,
				Series:  series,
			})
			continue
		}

		if series := labeledValues(in.Claim); len(series) >= 2 {
			specs = append(specs, types.ChartSpec{
				Type:    types.ChartBar,
				Title:   chartTitle(in.Section, "Comparison"),
				Caption: in.Claim,
				Series:  series,
			})
		}
	}
	return specs
}

var (
	// A year followed closely by a magnitude, e.g. "2022 ($1.9B)" or
	// "in 2023 revenue hit 2.4 billion".
	yearValueRe = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b[^0-9%]{0,24}?\$?(\d+(?:\.\d+)?)\s*(trillion|billion|million|bn|B|M)?\b`)

	// A capitalized label followed closely by a percentage, e.g.
	// "Vendor A holds 45%" or "Asia at 38 percent".
	percentRe = regexp.MustCompile(`([A-Z][A-Za-z0-9&' -]{0,30}?)(?:\s+(?:holds?|at|with|took|controls?|accounts? for|represents?))\s+(\d+(?:\.\d+)?)\s*(?:%|percent)`)

	// A capitalized label followed by a verb and a plain magnitude, e.g.
	// "Vendor A leads with 320 deployments".
	labeledValueRe = regexp.MustCompile(`([A-Z][A-Za-z0-9&' -]{0,30}?)\s+(?:leads with|has|holds?|reached|reported|shipped|counts?|at)\s+\$?(\d+(?:\.\d+)?)\s*(trillion|billion|million|bn|B|M)?\b`)
)

// yearSeries extracts (year, value) pairs from a claim. Duplicate years keep
// the first occurrence so the series stays a function of year.
func yearSeries(claim string) []types.SeriesPoint {
	var series []types.SeriesPoint
	seen := make(map[string]bool)
	for _, m := range yearValueRe.FindAllStringSubmatch(claim, -1) {
		year, valueText, unit := m[1], m[2], m[3]
		if seen[year] {
			continue
		}
		value, err := strconv.ParseFloat(valueText, 64)
		if err != nil {
			continue
		}
		seen[year] = true
		series = append(series, types.SeriesPoint{Label: year, Value: value * unitMultiplier(unit)})
	}
	return series
}

// percentShares extracts (label, percent) pairs from a claim.
func percentShares(claim string) []types.SeriesPoint {
	var series []types.SeriesPoint
	for _, m := range percentRe.FindAllStringSubmatch(claim, -1) {
		value, err := strconv.ParseFloat(m[2], 64)
		if err != nil {
			continue
		}
		series = append(series, types.SeriesPoint{Label: strings.TrimSpace(m[1]), Value: value})
	}
	return series
}

// labeledValues extracts (label, magnitude) pairs for bar comparisons.
// Percentages are left to percentShares.
func labeledValues(claim string) []types.SeriesPoint {
	var series []types.SeriesPoint
	for _, idx := range labeledValueRe.FindAllStringSubmatchIndex(claim, -1) {
		rest := strings.TrimLeft(claim[idx[1]:], " ")
		if strings.HasPrefix(rest, "%") || strings.HasPrefix(rest, "percent") {
			continue
		}
		value, err := strconv.ParseFloat(claim[idx[4]:idx[5]], 64)
		if err != nil {
			continue
		}
		unit := ""
		if idx[6] >= 0 {
			unit = claim[idx[6]:idx[7]]
		}
		series = append(series, types.SeriesPoint{
			Label: strings.TrimSpace(claim[idx[2]:idx[3]]),
			Value: value * unitMultiplier(unit),
		})
	}
	return series
}

// sharesSumPlausible reports whether percent shares roughly cover a whole.
// Partial breakdowns ("two vendors hold 12% and 9%") make poor pies.
func sharesSumPlausible(series []types.SeriesPoint) bool {
	var sum float64
	for _, p := range series {
		sum += p.Value
	}
	return sum >= 60 && sum <= 140
}

func unitMultiplier(unit string) float64 {
	switch strings.ToLower(unit) {
	case "trillion":
		return 1e12
	case "billion", "bn", "b":
		return 1e9
	case "million", "m":
		return 1e6
	default:
		return 1
	}
}

func chartTitle(section, suffix string) string {
	if section == "" {
		return suffix
	}
	return section + " " + suffix
}
