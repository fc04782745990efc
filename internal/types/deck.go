package types

// LayoutKind selects the slide template a slide is rendered with.
type LayoutKind string

// Slide layouts used by the assembler's fixed template policy.
const (
	LayoutTitle   LayoutKind = "title"
	LayoutAgenda  LayoutKind = "agenda"
	LayoutBullets LayoutKind = "bullets"
	LayoutChart   LayoutKind = "chart"
	LayoutClosing LayoutKind = "closing"
	LayoutSources LayoutKind = "sources"
)

// Slide is one assembled slide. Exactly one of Bullets or ChartImagePath is
// populated depending on the layout.
type Slide struct {
	Layout   LayoutKind `json:"layout_kind"`
	Title    string     `json:"title"`
	Subtitle string     `json:"subtitle,omitempty"`
	Bullets  []string   `json:"bullets,omitempty"`
	// ChartImagePath points at the rendered PNG for chart slides.
	ChartImagePath string `json:"chart_image_path,omitempty"`
	OrderIndex     int    `json:"order_index"`
}

// Deck is the final ordered slide sequence plus theme and output location.
type Deck struct {
	Slides       []Slide     `json:"slides"`
	Theme        ThemeConfig `json:"theme_config"`
	ArtifactPath string      `json:"output_artifact_path,omitempty"`
}
