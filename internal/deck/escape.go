package deck

import "strings"

// xmlReplacer escapes the five XML special characters in text content.
var xmlReplacer = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// escapeXML makes arbitrary text safe to embed in document XML.
func escapeXML(s string) string {
	return xmlReplacer.Replace(s)
}

// escapeAll escapes every string in a slice.
func escapeAll(items []string) []string {
	out := make([]string, len(items))
	for i, s := range items {
		out[i] = escapeXML(s)
	}
	return out
}
