package types

import "strconv"

// Theme defaults, applied for any key the caller leaves unset.
const (
	DefaultBrandPrimary    = "#38BDF8"
	DefaultBrandSecondary  = "#818CF8"
	DefaultAccentColor     = "#F472B6"
	DefaultTextColor       = "#F0F0F0"
	DefaultBackgroundColor = "#121212"
	DefaultFontFamily      = "Arial"
	DefaultCornerRadius    = 40
)

// ThemeConfig holds the caller-supplied visual parameters applied uniformly
// to the rendered deck. Unrecognized keys in the request JSON are dropped by
// the decoder rather than treated as errors.
type ThemeConfig struct {
	BrandPrimary    string `json:"brand_primary,omitempty"`
	BrandSecondary  string `json:"brand_secondary,omitempty"`
	AccentColor     string `json:"accent_color,omitempty"`
	TextColor       string `json:"text_color,omitempty"`
	BackgroundColor string `json:"background_color,omitempty"`
	FontFamily      string `json:"font_family,omitempty"`
	CornerRadius    int    `json:"corner_radius,omitempty"`
}

// WithDefaults returns a copy with every unset key filled from the system
// defaults.
func (t ThemeConfig) WithDefaults() ThemeConfig {
	if t.BrandPrimary == "" {
		t.BrandPrimary = DefaultBrandPrimary
	}
	if t.BrandSecondary == "" {
		t.BrandSecondary = DefaultBrandSecondary
	}
	if t.AccentColor == "" {
		t.AccentColor = DefaultAccentColor
	}
	if t.TextColor == "" {
		t.TextColor = DefaultTextColor
	}
	if t.BackgroundColor == "" {
		t.BackgroundColor = DefaultBackgroundColor
	}
	if t.FontFamily == "" {
		t.FontFamily = DefaultFontFamily
	}
	if t.CornerRadius == 0 {
		t.CornerRadius = DefaultCornerRadius
	}
	return t
}

// IsDarkColor reports whether a hex color is dark, using relative luminance.
// Malformed values count as dark so text defaults to light.
func IsDarkColor(hex string) bool {
	r, g, b, ok := parseHexColor(hex)
	if !ok {
		return true
	}
	luminance := 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)
	return luminance < 128
}

// ContrastText picks a readable text color for the given background.
func ContrastText(bgHex string) string {
	if IsDarkColor(bgHex) {
		return "#FFFFFF"
	}
	return "#141414"
}

func parseHexColor(hex string) (r, g, b uint8, ok bool) {
	if len(hex) > 0 && hex[0] == '#' {
		hex = hex[1:]
	}
	if len(hex) != 6 {
		return 0, 0, 0, false
	}
	rv, err1 := strconv.ParseUint(hex[0:2], 16, 8)
	gv, err2 := strconv.ParseUint(hex[2:4], 16, 8)
	bv, err3 := strconv.ParseUint(hex[4:6], 16, 8)
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, 0, 0, false
	}
	return uint8(rv), uint8(gv), uint8(bv), true
}
