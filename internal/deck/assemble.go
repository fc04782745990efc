// Package deck maps insights, charts and a theme onto an ordered slide
// sequence and writes the final presentation artifact.
package deck

import (
	"fmt"

	"github.com/khoward/deck-agent/internal/types"
)

// Assembler applies the fixed slide-template policy: title, agenda, insight
// slides grouped by section, one slide per rendered chart, closing, sources.
type Assembler struct {
	// MaxSlides caps the deck size. Thin content yields fewer slides; the
	// assembler never pads with empty slides to reach the cap.
	MaxSlides int
	// BulletsPerSlide bounds how many claims share one insight slide.
	BulletsPerSlide int
}

// NewAssembler creates an assembler with the given slide cap.
func NewAssembler(maxSlides int) *Assembler {
	if maxSlides < 1 {
		maxSlides = 20
	}
	return &Assembler{MaxSlides: maxSlides, BulletsPerSlide: 5}
}

// Assemble builds the deck structure. Charts without a rendered image are
// skipped, not errors. Assembly fails only when there is no content at all.
func (a *Assembler) Assemble(topic string, insights []types.Insight, charts []types.ChartSpec, sources []*types.Source, theme types.ThemeConfig) (*types.Deck, error) {
	if len(insights) == 0 {
		return nil, &AssemblyError{Message: "no insights to build a deck from"}
	}

	theme = theme.WithDefaults()
	sections := sectionOrder(insights)

	var content []types.Slide
	for _, section := range sections {
		claims := claimsForSection(insights, section)
		for start := 0; start < len(claims); start += a.BulletsPerSlide {
			end := start + a.BulletsPerSlide
			if end > len(claims) {
				end = len(claims)
			}
			content = append(content, types.Slide{
				Layout:  types.LayoutBullets,
				Title:   section,
				Bullets: claims[start:end],
			})
		}
	}
	for _, c := range charts {
		if !c.Rendered() {
			continue
		}
		content = append(content, types.Slide{
			Layout:         types.LayoutChart,
			Title:          c.Title,
			Subtitle:       c.Caption,
			ChartImagePath: c.RenderedPath,
		})
	}

	// Four frame slides bracket the content; trim content before
	// sacrificing the frame.
	budget := a.MaxSlides - 4
	if budget < 1 {
		budget = 1
	}
	if len(content) > budget {
		content = content[:budget]
	}

	slides := make([]types.Slide, 0, len(content)+4)
	slides = append(slides, types.Slide{
		Layout:   types.LayoutTitle,
		Title:    topic,
		Subtitle: "Research Briefing",
	})
	slides = append(slides, types.Slide{
		Layout:  types.LayoutAgenda,
		Title:   "Agenda",
		Bullets: sections,
	})
	slides = append(slides, content...)
	slides = append(slides, types.Slide{
		Layout:  types.LayoutClosing,
		Title:   "Key Takeaways",
		Bullets: topClaims(insights, 3),
	})
	if srcBullets := sourceBullets(sources, 10); len(srcBullets) > 0 {
		slides = append(slides, types.Slide{
			Layout:  types.LayoutSources,
			Title:   "Sources",
			Bullets: srcBullets,
		})
	}

	if len(slides) > a.MaxSlides {
		slides = slides[:a.MaxSlides]
	}
	for i := range slides {
		slides[i].OrderIndex = i
	}

	return &types.Deck{Slides: slides, Theme: theme}, nil
}

// sectionOrder returns distinct section labels in first-appearance order,
// with insights assumed already rank-sorted.
func sectionOrder(insights []types.Insight) []string {
	seen := make(map[string]bool)
	var sections []string
	for _, in := range insights {
		if !seen[in.Section] {
			seen[in.Section] = true
			sections = append(sections, in.Section)
		}
	}
	return sections
}

func claimsForSection(insights []types.Insight, section string) []string {
	var claims []string
	for _, in := range insights {
		if in.Section == section {
			claims = append(claims, in.Claim)
		}
	}
	return claims
}

// topClaims returns the n best-ranked claims for the closing slide.
func topClaims(insights []types.Insight, n int) []string {
	if n > len(insights) {
		n = len(insights)
	}
	claims := make([]string, 0, n)
	for _, in := range insights[:n] {
		claims = append(claims, in.Claim)
	}
	return claims
}

// sourceBullets lists successfully fetched sources, titled when possible.
func sourceBullets(sources []*types.Source, limit int) []string {
	var bullets []string
	for _, src := range sources {
		if src.FetchStatus != types.FetchOK {
			continue
		}
		if len(bullets) >= limit {
			break
		}
		if src.Title != "" {
			bullets = append(bullets, fmt.Sprintf("%s (%s)", src.Title, src.URL))
		} else {
			bullets = append(bullets, src.URL)
		}
	}
	return bullets
}
