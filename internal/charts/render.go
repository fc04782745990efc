package charts

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/khoward/deck-agent/internal/types"
)

// RenderError represents a failure to render one chart image. Render failures
// drop the chart from the deck; they never fail the job.
type RenderError struct {
	Chart   string
	Message string
	Cause   error
}

func (e *RenderError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("chart render error for %q: %s: %v", e.Chart, e.Message, e.Cause)
	}
	return fmt.Sprintf("chart render error for %q: %s", e.Chart, e.Message)
}

func (e *RenderError) Unwrap() error {
	return e.Cause
}

// Renderer draws chart specs as themed PNG files under OutputDir.
type Renderer struct {
	OutputDir string
	Width     int
	Height    int
}

// NewRenderer creates a renderer writing to outputDir.
func NewRenderer(outputDir string) *Renderer {
	return &Renderer{OutputDir: outputDir, Width: 900, Height: 560}
}

// Render draws the spec to "<baseName>.png" and records the file path in
// spec.RenderedPath. The spec is left unrendered on error.
func (r *Renderer) Render(spec *types.ChartSpec, theme types.ThemeConfig, baseName string) error {
	if len(spec.Series) == 0 {
		return &RenderError{Chart: spec.Title, Message: "empty series"}
	}

	theme = theme.WithDefaults()
	if err := os.MkdirAll(r.OutputDir, 0o755); err != nil {
		return &RenderError{Chart: spec.Title, Message: "failed to create output directory", Cause: err}
	}

	path := filepath.Join(r.OutputDir, baseName+".png")
	f, err := os.Create(path)
	if err != nil {
		return &RenderError{Chart: spec.Title, Message: "failed to create image file", Cause: err}
	}
	defer func() { _ = f.Close() }()

	switch spec.Type {
	case types.ChartLine:
		err = r.renderLine(spec, theme, f)
	case types.ChartBar:
		err = r.renderBar(spec, theme, f)
	case types.ChartPie:
		err = r.renderPie(spec, theme, f)
	default:
		err = fmt.Errorf("unknown chart type %q", spec.Type)
	}
	if err != nil {
		_ = os.Remove(path)
		return &RenderError{Chart: spec.Title, Message: "rendering failed", Cause: err}
	}

	spec.RenderedPath = path
	return nil
}

func (r *Renderer) renderLine(spec *types.ChartSpec, theme types.ThemeConfig, f *os.File) error {
	xs := make([]float64, len(spec.Series))
	ys := make([]float64, len(spec.Series))
	ticks := make([]chart.Tick, len(spec.Series))
	for i, p := range spec.Series {
		xs[i] = float64(i)
		ys[i] = p.Value
		ticks[i] = chart.Tick{Value: float64(i), Label: p.Label}
	}

	graph := chart.Chart{
		Title:      spec.Title,
		TitleStyle: chart.Style{FontColor: themeColor(theme.TextColor)},
		Width:      r.Width,
		Height:     r.Height,
		Background: chart.Style{FillColor: themeColor(theme.BackgroundColor)},
		Canvas:     chart.Style{FillColor: themeColor(theme.BackgroundColor)},
		XAxis: chart.XAxis{
			Style: chart.Style{FontColor: themeColor(theme.TextColor)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: themeColor(theme.TextColor)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
				Style: chart.Style{
					StrokeColor: themeColor(theme.BrandPrimary),
					StrokeWidth: 3.0,
				},
			},
		},
	}
	return graph.Render(chart.PNG, f)
}

func (r *Renderer) renderBar(spec *types.ChartSpec, theme types.ThemeConfig, f *os.File) error {
	palette := seriesPalette(theme)
	bars := make([]chart.Value, len(spec.Series))
	for i, p := range spec.Series {
		bars[i] = chart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: chart.Style{FillColor: palette[i%len(palette)]},
		}
	}

	graph := chart.BarChart{
		Title:      spec.Title,
		TitleStyle: chart.Style{FontColor: themeColor(theme.TextColor)},
		Width:      r.Width,
		Height:     r.Height,
		BarWidth:   60,
		Background: chart.Style{FillColor: themeColor(theme.BackgroundColor)},
		Canvas:     chart.Style{FillColor: themeColor(theme.BackgroundColor)},
		XAxis:      chart.Style{FontColor: themeColor(theme.TextColor)},
		YAxis: chart.YAxis{
			Style: chart.Style{FontColor: themeColor(theme.TextColor)},
		},
		Bars: bars,
	}
	return graph.Render(chart.PNG, f)
}

func (r *Renderer) renderPie(spec *types.ChartSpec, theme types.ThemeConfig, f *os.File) error {
	palette := seriesPalette(theme)
	values := make([]chart.Value, len(spec.Series))
	for i, p := range spec.Series {
		values[i] = chart.Value{
			Label: p.Label,
			Value: p.Value,
			Style: chart.Style{
				FillColor: palette[i%len(palette)],
				FontColor: themeColor(types.ContrastText(theme.BackgroundColor)),
			},
		}
	}

	graph := chart.PieChart{
		Title:      spec.Title,
		TitleStyle: chart.Style{FontColor: themeColor(theme.TextColor)},
		Width:      r.Height, // square canvas keeps the pie round
		Height:     r.Height,
		Background: chart.Style{FillColor: themeColor(theme.BackgroundColor)},
		Canvas:     chart.Style{FillColor: themeColor(theme.BackgroundColor)},
		Values:     values,
	}
	return graph.Render(chart.PNG, f)
}

// seriesPalette cycles the theme's three accent colors across series entries.
func seriesPalette(theme types.ThemeConfig) []drawing.Color {
	return []drawing.Color{
		themeColor(theme.BrandPrimary),
		themeColor(theme.BrandSecondary),
		themeColor(theme.AccentColor),
	}
}

func themeColor(hex string) drawing.Color {
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}
