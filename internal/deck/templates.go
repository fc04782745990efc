package deck

import "text/template"

// Widescreen 16:9 slide geometry in EMU.
const (
	slideWidthEMU  = 12192000
	slideHeightEMU = 6858000
)

// Static document parts. Relationship ids inside each part are local to that
// part's .rels file.
const (
	rootRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument" Target="ppt/presentation.xml"/></Relationships>`

	slideMasterXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldMaster xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMap bg1="lt1" tx1="dk1" bg2="lt2" tx2="dk2" accent1="accent1" accent2="accent2" accent3="accent3" accent4="accent4" accent5="accent5" accent6="accent6" hlink="hlink" folHlink="folHlink"/><p:sldLayoutIdLst><p:sldLayoutId id="2147483649" r:id="rId1"/></p:sldLayoutIdLst></p:sldMaster>`

	slideMasterRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/><Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme" Target="../theme/theme1.xml"/></Relationships>`

	slideLayoutXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sldLayout xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/></p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sldLayout>`

	slideLayoutRelsXML = `<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="../slideMasters/slideMaster1.xml"/></Relationships>`
)

// themeData feeds the document theme: color scheme and fonts map the caller's
// ThemeConfig onto OOXML theme slots. Colors are hex without '#'.
type themeData struct {
	Text       string
	Background string
	Primary    string
	Secondary  string
	Accent     string
	Font       string
}

var themeTmpl = template.Must(template.New("theme").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<a:theme xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" name="DeckAgent"><a:themeElements><a:clrScheme name="DeckAgent"><a:dk1><a:srgbClr val="{{.Text}}"/></a:dk1><a:lt1><a:srgbClr val="{{.Background}}"/></a:lt1><a:dk2><a:srgbClr val="{{.Text}}"/></a:dk2><a:lt2><a:srgbClr val="{{.Background}}"/></a:lt2><a:accent1><a:srgbClr val="{{.Primary}}"/></a:accent1><a:accent2><a:srgbClr val="{{.Secondary}}"/></a:accent2><a:accent3><a:srgbClr val="{{.Accent}}"/></a:accent3><a:accent4><a:srgbClr val="{{.Primary}}"/></a:accent4><a:accent5><a:srgbClr val="{{.Secondary}}"/></a:accent5><a:accent6><a:srgbClr val="{{.Accent}}"/></a:accent6><a:hlink><a:srgbClr val="{{.Primary}}"/></a:hlink><a:folHlink><a:srgbClr val="{{.Secondary}}"/></a:folHlink></a:clrScheme><a:fontScheme name="DeckAgent"><a:majorFont><a:latin typeface="{{.Font}}"/><a:ea typeface=""/><a:cs typeface=""/></a:majorFont><a:minorFont><a:latin typeface="{{.Font}}"/><a:ea typeface=""/><a:cs typeface=""/></a:minorFont></a:fontScheme><a:fmtScheme name="DeckAgent"><a:fillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:fillStyleLst><a:lnStyleLst><a:ln w="9525"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="19050"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln><a:ln w="28575"><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:ln></a:lnStyleLst><a:effectStyleLst><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle><a:effectStyle><a:effectLst/></a:effectStyle></a:effectStyleLst><a:bgFillStyleLst><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill><a:solidFill><a:schemeClr val="phClr"/></a:solidFill></a:bgFillStyleLst></a:fmtScheme></a:themeElements></a:theme>`))

// contentTypesData lists the slide part names for the package manifest.
type contentTypesData struct {
	SlideCount []int
}

var contentTypesTmpl = template.Must(template.New("contentTypes").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Types xmlns="http://schemas.openxmlformats.org/package/2006/content-types"><Default Extension="rels" ContentType="application/vnd.openxmlformats-package.relationships+xml"/><Default Extension="xml" ContentType="application/xml"/><Default Extension="png" ContentType="image/png"/><Override PartName="/ppt/presentation.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"/><Override PartName="/ppt/slideMasters/slideMaster1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"/><Override PartName="/ppt/slideLayouts/slideLayout1.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"/><Override PartName="/ppt/theme/theme1.xml" ContentType="application/vnd.openxmlformats-officedocument.theme+xml"/>{{range .SlideCount}}<Override PartName="/ppt/slides/slide{{.}}.xml" ContentType="application/vnd.openxmlformats-officedocument.presentationml.slide+xml"/>{{end}}</Types>`))

// presentationData drives presentation.xml and its relationship file. Slide n
// maps to relationship id rId(n+1); rId1 is the slide master.
type presentationData struct {
	Slides []presSlide
}

type presSlide struct {
	Num   int // 1-based slide number
	SldID int // 256-based slide id
	RelID string
}

var presentationTmpl = template.Must(template.New("presentation").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:presentation xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:sldMasterIdLst><p:sldMasterId id="2147483648" r:id="rId1"/></p:sldMasterIdLst><p:sldIdLst>{{range .Slides}}<p:sldId id="{{.SldID}}" r:id="{{.RelID}}"/>{{end}}</p:sldIdLst><p:sldSz cx="12192000" cy="6858000"/><p:notesSz cx="6858000" cy="9144000"/></p:presentation>`))

var presentationRelsTmpl = template.Must(template.New("presentationRels").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster" Target="slideMasters/slideMaster1.xml"/>{{range .Slides}}<Relationship Id="{{.RelID}}" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide" Target="slides/slide{{.Num}}.xml"/>{{end}}</Relationships>`))

// slideRelsData drives one slide's relationship file. ImageName is empty for
// text-only slides.
type slideRelsData struct {
	ImageName string
}

var slideRelsTmpl = template.Must(template.New("slideRels").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships"><Relationship Id="rId1" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout" Target="../slideLayouts/slideLayout1.xml"/>{{if .ImageName}}<Relationship Id="rId2" Type="http://schemas.openxmlformats.org/officeDocument/2006/relationships/image" Target="../media/{{.ImageName}}"/>{{end}}</Relationships>`))

// slideData carries everything one slide template pass needs. All text is
// pre-escaped; all colors are hex without '#'; all geometry is EMU.
type slideData struct {
	Background string
	Font       string

	Title      string
	TitleColor string
	TitleSize  int // hundredths of a point
	TitleAlign string
	TitleX     int
	TitleY     int
	TitleW     int
	TitleH     int

	Subtitle      string
	SubtitleColor string
	SubtitleSize  int
	SubtitleY     int

	// Accent underline under the title on content slides.
	Accent      bool
	AccentColor string
	AccentY     int

	// Rounded content card behind the bullet body.
	Card          bool
	CardColor     string
	CardCornerAdj int

	Bullets   []string
	BodyColor string
	BodySize  int

	ImageRel string
	ImgX     int
	ImgY     int
	ImgW     int
	ImgH     int
}

var slideTmpl = template.Must(template.New("slide").Parse(`<?xml version="1.0" encoding="UTF-8" standalone="yes"?>
<p:sld xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main" xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships" xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main"><p:cSld><p:bg><p:bgPr><a:solidFill><a:srgbClr val="{{.Background}}"/></a:solidFill><a:effectLst/></p:bgPr></p:bg><p:spTree><p:nvGrpSpPr><p:cNvPr id="1" name=""/><p:cNvGrpSpPr/><p:nvPr/></p:nvGrpSpPr><p:grpSpPr/>{{if .Accent}}<p:sp><p:nvSpPr><p:cNvPr id="2" name="AccentBar"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="685800" y="{{.AccentY}}"/><a:ext cx="2560320" cy="45720"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom><a:solidFill><a:srgbClr val="{{.AccentColor}}"/></a:solidFill></p:spPr><p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>{{end}}{{if .Card}}<p:sp><p:nvSpPr><p:cNvPr id="3" name="ContentCard"/><p:cNvSpPr/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="685800" y="1371600"/><a:ext cx="10820400" cy="4800600"/></a:xfrm><a:prstGeom prst="roundRect"><a:avLst><a:gd name="adj" fmla="val {{.CardCornerAdj}}"/></a:avLst></a:prstGeom><a:solidFill><a:srgbClr val="{{.CardColor}}"><a:alpha val="12000"/></a:srgbClr></a:solidFill></p:spPr><p:txBody><a:bodyPr/><a:lstStyle/><a:p><a:endParaRPr lang="en-US"/></a:p></p:txBody></p:sp>{{end}}<p:sp><p:nvSpPr><p:cNvPr id="4" name="Title"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="{{.TitleX}}" y="{{.TitleY}}"/><a:ext cx="{{.TitleW}}" cy="{{.TitleH}}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr><p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/><a:p><a:pPr algn="{{.TitleAlign}}"/><a:r><a:rPr lang="en-US" sz="{{.TitleSize}}" b="1"><a:solidFill><a:srgbClr val="{{.TitleColor}}"/></a:solidFill><a:latin typeface="{{.Font}}"/></a:rPr><a:t>{{.Title}}</a:t></a:r></a:p></p:txBody></p:sp>{{if .Subtitle}}<p:sp><p:nvSpPr><p:cNvPr id="5" name="Subtitle"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="{{.TitleX}}" y="{{.SubtitleY}}"/><a:ext cx="{{.TitleW}}" cy="609600"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr><p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/><a:p><a:pPr algn="{{.TitleAlign}}"/><a:r><a:rPr lang="en-US" sz="{{.SubtitleSize}}"><a:solidFill><a:srgbClr val="{{.SubtitleColor}}"/></a:solidFill><a:latin typeface="{{.Font}}"/></a:rPr><a:t>{{.Subtitle}}</a:t></a:r></a:p></p:txBody></p:sp>{{end}}{{if .Bullets}}<p:sp><p:nvSpPr><p:cNvPr id="6" name="Body"/><p:cNvSpPr txBox="1"/><p:nvPr/></p:nvSpPr><p:spPr><a:xfrm><a:off x="1005840" y="1645920"/><a:ext cx="10180320" cy="4343400"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr><p:txBody><a:bodyPr wrap="square"><a:normAutofit/></a:bodyPr><a:lstStyle/>{{range .Bullets}}<a:p><a:pPr algn="l"><a:spcBef><a:spcPts val="800"/></a:spcBef></a:pPr><a:r><a:rPr lang="en-US" sz="{{$.BodySize}}"><a:solidFill><a:srgbClr val="{{$.BodyColor}}"/></a:solidFill><a:latin typeface="{{$.Font}}"/></a:rPr><a:t>&#8226; {{.}}</a:t></a:r></a:p>{{end}}</p:txBody></p:sp>{{end}}{{if .ImageRel}}<p:pic><p:nvPicPr><p:cNvPr id="7" name="Chart"/><p:cNvPicPr/><p:nvPr/></p:nvPicPr><p:blipFill><a:blip r:embed="{{.ImageRel}}"/><a:stretch><a:fillRect/></a:stretch></p:blipFill><p:spPr><a:xfrm><a:off x="{{.ImgX}}" y="{{.ImgY}}"/><a:ext cx="{{.ImgW}}" cy="{{.ImgH}}"/></a:xfrm><a:prstGeom prst="rect"><a:avLst/></a:prstGeom></p:spPr></p:pic>{{end}}</p:spTree></p:cSld><p:clrMapOvr><a:masterClrMapping/></p:clrMapOvr></p:sld>`))
