package scrape

import (
	"html"
	"regexp"
	"strings"
)

var (
	dropBlockRe = regexp.MustCompile(`(?is)<(script|style)\b[^>]*>.*?</(?:script|style)>`)
	tagRe       = regexp.MustCompile(`<[^>]+>`)
	spaceRe     = regexp.MustCompile(`\s+`)
)

// cleanText strips tags from an HTML fragment, decodes entities and
// collapses whitespace to single spaces.
func cleanText(fragment string) string {
	s := dropBlockRe.ReplaceAllString(fragment, " ")
	s = tagRe.ReplaceAllString(s, " ")
	s = html.UnescapeString(s)
	s = strings.ReplaceAll(s, "\u00a0", " ")
	return strings.TrimSpace(spaceRe.ReplaceAllString(s, " "))
}

// elements returns the inner HTML and attribute text of every tag element
// in doc. Nested elements of the same tag are not supported.
func elements(doc, tag string) []element {
	re := elementRe(tag)
	var out []element
	for _, m := range re.FindAllStringSubmatch(doc, -1) {
		out = append(out, element{Attrs: m[1], Inner: m[2]})
	}
	return out
}

type element struct {
	Attrs string
	Inner string
}

var elementRes = map[string]*regexp.Regexp{
	"dl":    regexp.MustCompile(`(?is)<dl\b([^>]*)>(.*?)</dl>`),
	"h2":    regexp.MustCompile(`(?is)<h2\b([^>]*)>(.*?)</h2>`),
	"table": regexp.MustCompile(`(?is)<table\b([^>]*)>(.*?)</table>`),
	"tr":    regexp.MustCompile(`(?is)<tr\b([^>]*)>(.*?)</tr>`),
}

func elementRe(tag string) *regexp.Regexp {
	if re, ok := elementRes[tag]; ok {
		return re
	}
	return regexp.MustCompile(`(?is)<` + tag + `\b([^>]*)>(.*?)</` + tag + `>`)
}

var classRe = regexp.MustCompile(`(?i)\bclass\s*=\s*["']([^"']*)["']`)

// hasClass reports whether an attribute string carries class name.
func hasClass(attrs, name string) bool {
	m := classRe.FindStringSubmatch(attrs)
	if m == nil {
		return false
	}
	for _, c := range strings.Fields(m[1]) {
		if c == name {
			return true
		}
	}
	return false
}
