package charts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/khoward/deck-agent/internal/types"
)

func TestRender_WritesPNGPerType(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir)
	theme := types.ThemeConfig{}.WithDefaults()

	specs := []types.ChartSpec{
		{
			Type:  types.ChartLine,
			Title: "Growth Over Time",
			Series: []types.SeriesPoint{
				{Label: "2022", Value: 1.2}, {Label: "2023", Value: 1.9}, {Label: "2024", Value: 2.4},
			},
		},
		{
			Type:  types.ChartBar,
			Title: "Deployments",
			Series: []types.SeriesPoint{
				{Label: "Alpha", Value: 320}, {Label: "Beta", Value: 210},
			},
		},
		{
			Type:  types.ChartPie,
			Title: "Market Share",
			Series: []types.SeriesPoint{
				{Label: "Alpha", Value: 45}, {Label: "Beta", Value: 30}, {Label: "Gamma", Value: 25},
			},
		},
	}

	for i := range specs {
		spec := &specs[i]
		require.NoError(t, r.Render(spec, theme, "chart_"+string(spec.Type)))
		assert.True(t, spec.Rendered())

		data, err := os.ReadFile(spec.RenderedPath)
		require.NoError(t, err)
		require.Greater(t, len(data), 8)
		// PNG magic bytes.
		assert.Equal(t, []byte{0x89, 'P', 'N', 'G'}, data[:4])
	}
}

func TestRender_EmptySeriesFails(t *testing.T) {
	r := NewRenderer(t.TempDir())
	spec := &types.ChartSpec{Type: types.ChartBar, Title: "Empty"}

	err := r.Render(spec, types.ThemeConfig{}, "empty")
	require.Error(t, err)

	var renderErr *RenderError
	assert.ErrorAs(t, err, &renderErr)
	assert.False(t, spec.Rendered())
}

func TestRender_UnknownTypeFails(t *testing.T) {
	dir := t.TempDir()
	r := NewRenderer(dir)
	spec := &types.ChartSpec{
		Type:   types.ChartType("scatter"),
		Title:  "Unknown",
		Series: []types.SeriesPoint{{Label: "x", Value: 1}},
	}

	err := r.Render(spec, types.ThemeConfig{}, "unknown")
	require.Error(t, err)
	assert.False(t, spec.Rendered())

	// Failed renders leave no partial file behind.
	_, statErr := os.Stat(filepath.Join(dir, "unknown.png"))
	assert.True(t, os.IsNotExist(statErr))
}
