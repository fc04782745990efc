package deck

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/khoward/deck-agent/internal/types"
)

// WritePPTX renders the deck as a PowerPoint file named
// "<topic-slug>_<timestamp>.pptx" under outputDir, records the path on the
// deck, and returns the filename. Any failure leaves no partial file behind.
func WritePPTX(d *types.Deck, outputDir, topic string) (string, error) {
	if len(d.Slides) == 0 {
		return "", &AssemblyError{Message: "deck has no slides"}
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", &AssemblyError{Message: "failed to create output directory", Cause: err}
	}

	filename := fmt.Sprintf("%s_%s.pptx", slugify(topic), time.Now().Format("20060102_150405"))
	path := filepath.Join(outputDir, filename)

	f, err := os.Create(path)
	if err != nil {
		return "", &AssemblyError{Message: "failed to create output file", Cause: err}
	}

	if err := writePackage(f, d); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", err
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", &AssemblyError{Message: "failed to finalize output file", Cause: err}
	}

	d.ArtifactPath = path
	return filename, nil
}

// writePackage writes the full OOXML package to w.
func writePackage(w io.Writer, d *types.Deck) error {
	theme := d.Theme.WithDefaults()
	zw := zip.NewWriter(w)

	pres := presentationData{}
	ct := contentTypesData{}
	for i := range d.Slides {
		num := i + 1
		pres.Slides = append(pres.Slides, presSlide{
			Num:   num,
			SldID: 256 + i,
			RelID: fmt.Sprintf("rId%d", num+1),
		})
		ct.SlideCount = append(ct.SlideCount, num)
	}

	if err := writeTemplate(zw, "[Content_Types].xml", contentTypesTmpl, ct); err != nil {
		return err
	}
	if err := writePart(zw, "_rels/.rels", rootRelsXML); err != nil {
		return err
	}
	if err := writeTemplate(zw, "ppt/presentation.xml", presentationTmpl, pres); err != nil {
		return err
	}
	if err := writeTemplate(zw, "ppt/_rels/presentation.xml.rels", presentationRelsTmpl, pres); err != nil {
		return err
	}
	if err := writePart(zw, "ppt/slideMasters/slideMaster1.xml", slideMasterXML); err != nil {
		return err
	}
	if err := writePart(zw, "ppt/slideMasters/_rels/slideMaster1.xml.rels", slideMasterRelsXML); err != nil {
		return err
	}
	if err := writePart(zw, "ppt/slideLayouts/slideLayout1.xml", slideLayoutXML); err != nil {
		return err
	}
	if err := writePart(zw, "ppt/slideLayouts/_rels/slideLayout1.xml.rels", slideLayoutRelsXML); err != nil {
		return err
	}
	if err := writeTemplate(zw, "ppt/theme/theme1.xml", themeTmpl, themeData{
		Text:       hexVal(theme.TextColor),
		Background: hexVal(theme.BackgroundColor),
		Primary:    hexVal(theme.BrandPrimary),
		Secondary:  hexVal(theme.BrandSecondary),
		Accent:     hexVal(theme.AccentColor),
		Font:       escapeXML(theme.FontFamily),
	}); err != nil {
		return err
	}

	for i, slide := range d.Slides {
		num := i + 1

		imageName := ""
		if slide.Layout == types.LayoutChart && slide.ChartImagePath != "" {
			imageName = fmt.Sprintf("image%d.png", num)
			if err := copyImage(zw, "ppt/media/"+imageName, slide.ChartImagePath); err != nil {
				return err
			}
		}

		name := fmt.Sprintf("ppt/slides/slide%d.xml", num)
		if err := writeTemplate(zw, name, slideTmpl, buildSlideData(slide, theme, imageName != "")); err != nil {
			return err
		}
		relsName := fmt.Sprintf("ppt/slides/_rels/slide%d.xml.rels", num)
		if err := writeTemplate(zw, relsName, slideRelsTmpl, slideRelsData{ImageName: imageName}); err != nil {
			return err
		}
	}

	if err := zw.Close(); err != nil {
		return &AssemblyError{Message: "failed to close package", Cause: err}
	}
	return nil
}

// bodyTextColor returns the theme's text color, replaced by a
// luminance-contrasting one when it would vanish into the background.
func bodyTextColor(theme types.ThemeConfig) string {
	if types.IsDarkColor(theme.TextColor) == types.IsDarkColor(theme.BackgroundColor) {
		return types.ContrastText(theme.BackgroundColor)
	}
	return theme.TextColor
}

// buildSlideData maps a slide onto template geometry for its layout.
func buildSlideData(s types.Slide, theme types.ThemeConfig, hasImage bool) slideData {
	text := bodyTextColor(theme)
	data := slideData{
		Background:    hexVal(theme.BackgroundColor),
		Font:          escapeXML(theme.FontFamily),
		Title:         escapeXML(s.Title),
		TitleColor:    hexVal(theme.BrandPrimary),
		Subtitle:      escapeXML(s.Subtitle),
		SubtitleColor: hexVal(text),
		SubtitleSize:  2000,
		Bullets:       escapeAll(s.Bullets),
		BodyColor:     hexVal(text),
		BodySize:      1800,
		AccentColor:   hexVal(theme.AccentColor),
		CardColor:     hexVal(theme.BrandSecondary),
		CardCornerAdj: cornerAdj(theme.CornerRadius),
	}

	switch s.Layout {
	case types.LayoutTitle:
		data.TitleAlign = "ctr"
		data.TitleSize = 4400
		data.TitleX, data.TitleY = 914400, 2286000
		data.TitleW, data.TitleH = slideWidthEMU-2*914400, 1371600
		data.SubtitleY = 3886200
	case types.LayoutChart:
		data.TitleAlign = "l"
		data.TitleSize = 3200
		data.TitleX, data.TitleY = 685800, 365760
		data.TitleW, data.TitleH = slideWidthEMU-2*685800, 762000
		data.Accent = true
		data.AccentY = 1188720
		data.Bullets = nil
		if hasImage {
			data.ImageRel = "rId2"
			data.ImgW, data.ImgH = 7315200, 4551680
			data.ImgX = (slideWidthEMU - data.ImgW) / 2
			data.ImgY = 1554480
		}
		if data.Subtitle != "" {
			data.SubtitleY = 6217920
			data.SubtitleSize = 1400
		}
	default:
		// Agenda, bullet, closing and sources slides share one body
		// layout.
		data.TitleAlign = "l"
		data.TitleSize = 3200
		data.TitleX, data.TitleY = 685800, 365760
		data.TitleW, data.TitleH = slideWidthEMU-2*685800, 762000
		data.Accent = true
		data.AccentY = 1188720
		data.Card = len(data.Bullets) > 0
		data.Subtitle = ""
		if s.Layout == types.LayoutSources {
			data.BodySize = 1400
		}
	}
	return data
}

func writePart(zw *zip.Writer, name, content string) error {
	w, err := zw.Create(name)
	if err != nil {
		return &AssemblyError{Message: "failed to create package part " + name, Cause: err}
	}
	if _, err := io.WriteString(w, content); err != nil {
		return &AssemblyError{Message: "failed to write package part " + name, Cause: err}
	}
	return nil
}

func writeTemplate(zw *zip.Writer, name string, tmpl interface {
	Execute(io.Writer, any) error
}, data any) error {
	w, err := zw.Create(name)
	if err != nil {
		return &AssemblyError{Message: "failed to create package part " + name, Cause: err}
	}
	if err := tmpl.Execute(w, data); err != nil {
		return &TemplateError{Part: name, Message: "failed to execute template", Cause: err}
	}
	return nil
}

func copyImage(zw *zip.Writer, name, srcPath string) error {
	src, err := os.Open(srcPath)
	if err != nil {
		return &AssemblyError{Message: "failed to open chart image " + srcPath, Cause: err}
	}
	defer func() { _ = src.Close() }()

	w, err := zw.Create(name)
	if err != nil {
		return &AssemblyError{Message: "failed to create package part " + name, Cause: err}
	}
	if _, err := io.Copy(w, src); err != nil {
		return &AssemblyError{Message: "failed to embed chart image", Cause: err}
	}
	return nil
}

// cornerAdj converts the theme's pixel-ish corner radius into a roundRect
// adjustment value (0..50000).
func cornerAdj(radius int) int {
	adj := radius * 500
	if adj < 0 {
		adj = 0
	}
	if adj > 50000 {
		adj = 50000
	}
	return adj
}

// hexVal strips the leading '#' from a hex color for srgbClr values.
func hexVal(hex string) string {
	return strings.TrimPrefix(hex, "#")
}

var nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

// slugify converts a topic into a safe filename stem.
func slugify(topic string) string {
	slug := nonAlnumRe.ReplaceAllString(strings.ToLower(topic), "_")
	slug = strings.Trim(slug, "_")
	if len(slug) > 40 {
		slug = strings.Trim(slug[:40], "_")
	}
	if slug == "" {
		slug = "research"
	}
	return slug
}
