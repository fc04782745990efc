package types

// ChartType selects the rendering shape for a planned chart.
type ChartType string

// Supported chart types.
const (
	ChartLine ChartType = "line"
	ChartBar  ChartType = "bar"
	ChartPie  ChartType = "pie"
)

// SeriesPoint is one labeled value in a chart's data series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// ChartSpec is a planned chart derived from quantitative insights, prior to
// rendering. RenderedPath is populated by the chart renderer; it stays empty
// if rendering fails, and the chart is then dropped from the deck.
type ChartSpec struct {
	Type         ChartType     `json:"chart_type"`
	Title        string        `json:"title"`
	Caption      string        `json:"caption"`
	Series       []SeriesPoint `json:"series"`
	RenderedPath string        `json:"rendered_path,omitempty"`
}

// Rendered reports whether the chart has a usable image on disk.
func (c *ChartSpec) Rendered() bool {
	return c.RenderedPath != ""
}
