// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/khoward/deck-agent/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintSources outputs the fetch outcome per source.
func (p *Printer) PrintSources(sources []*types.Source) {
	if len(sources) == 0 {
		return
	}

	var sb strings.Builder
	ok := 0
	for _, src := range sources {
		if src.FetchStatus == types.FetchOK {
			ok++
		}
	}
	sb.WriteString(fmt.Sprintf("Fetched %d sources, %d usable:\n\n", len(sources), ok))

	count := min(len(sources), maxItemsToShow)
	for i := 0; i < count; i++ {
		src := sources[i]
		mark := "✓"
		if src.FetchStatus != types.FetchOK {
			mark = "✗"
		}
		url := src.URL
		if len(url) > 48 {
			url = url[:45] + "..."
		}
		sb.WriteString(fmt.Sprintf("%s %s\n", mark, url))
		if src.FailureReason != "" {
			sb.WriteString(fmt.Sprintf("  %s\n", src.FailureReason))
		}
	}
	if len(sources) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more sources", len(sources)-maxItemsToShow))
	}

	p.printBox("FETCHED SOURCES", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintInsights outputs the ranked insights with their supporting sources.
func (p *Printer) PrintInsights(insights []types.Insight) {
	if len(insights) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Extracted %d insights:\n\n", len(insights)))

	count := min(len(insights), maxItemsToShow)
	for i := 0; i < count; i++ {
		in := insights[i]
		claim := in.Claim
		if len(claim) > 48 {
			claim = claim[:45] + "..."
		}
		sb.WriteString(fmt.Sprintf("#%d  [%s]\n", in.Rank, in.Section))
		sb.WriteString(fmt.Sprintf("    %s\n", claim))
		sb.WriteString(fmt.Sprintf("    Sources: %d\n", len(in.SupportingURLs)))
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(insights) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more insights", len(insights)-maxItemsToShow))
	}

	p.printBox("RANKED INSIGHTS", sb.String())
}

// PrintChartPlan outputs the planned charts and their render outcome.
func (p *Printer) PrintChartPlan(specs []types.ChartSpec) {
	if len(specs) == 0 {
		p.printBox("CHART PLAN", "No chartable insights found")
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Planned %d charts:\n\n", len(specs)))

	for i, spec := range specs {
		title := spec.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		mark := "✗ dropped"
		if spec.Rendered() {
			mark = "✓ rendered"
		}
		sb.WriteString(fmt.Sprintf("%s %s (%s)\n", mark, title, spec.Type))
		sb.WriteString(fmt.Sprintf("  %d data points\n", len(spec.Series)))
		if i < len(specs)-1 {
			sb.WriteString("\n")
		}
	}

	p.printBox("CHART PLAN", sb.String())
}

// PrintDeckOutline outputs the slide sequence of the assembled deck.
func (p *Printer) PrintDeckOutline(d *types.Deck) {
	if d == nil || len(d.Slides) == 0 {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Assembled %d slides:\n\n", len(d.Slides)))

	for i, slide := range d.Slides {
		title := slide.Title
		if len(title) > 40 {
			title = title[:37] + "..."
		}
		sb.WriteString(fmt.Sprintf("%2d. %-10s %s\n", i+1, slide.Layout, title))
	}
	if d.ArtifactPath != "" {
		sb.WriteString(fmt.Sprintf("\nWritten to %s", d.ArtifactPath))
	}

	p.printBox("DECK OUTLINE", strings.TrimSuffix(sb.String(), "\n"))
}
