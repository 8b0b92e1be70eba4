// Package citations post-processes an HTML answer so that only verifiably
// retrieved sources stay cited: the Sources list is rebuilt with verified
// hyperlinks, and an answer with no verifiable source is degraded to zero
// confidence.
package citations

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	sourcesRE  = regexp.MustCompile(`(?s)<h3>Источники</h3>\s*<ol>(.*?)</ol>`)
	listItemRE = regexp.MustCompile(`(?s)<li>(.*?)</li>`)
	tagRE      = regexp.MustCompile(`<[^>]+>`)
	markerRE   = regexp.MustCompile(`\[\d+\]`)
	accuracyRE = regexp.MustCompile(`Точность ответа:<b> \d+/10</b>`)
)

const (
	zeroAccuracy    = "Точность ответа:<b> 0/10</b>"
	notFoundSection = "<h3>Источники</h3>\n<p style=\"color: red;\">Не найдено!</p>"
)

// citation is one Sources list item paired with its resolution.
type citation struct {
	raw     string // inner HTML of the list item
	label   string // raw with nested tags stripped, trimmed
	link    string // resolved hyperlink, may be empty for a matched item
	matched bool   // label corresponds to an actually-retrieved document
}

// Validate rewrites the Sources section of answer against the set of
// actually-retrieved document paths and the path→link index.
//
// Each listed label is matched against the paths by mutual substring
// containment or by equality with the path's final segment. A matched label
// whose path has no index entry stays valid but unlinked, and an unmatched
// label is kept as a plain item. Only when no label matches any path at all
// is the whole answer treated as unsupported: bracket-numbered markers are
// stripped, the accuracy marker is forced to 0/10, and the Sources section
// is replaced with a fixed not-found notice.
//
// Validate is idempotent: running it on its own output changes nothing.
func Validate(answer string, docPaths []string, links map[string]string) string {
	m := sourcesRE.FindStringSubmatch(answer)
	if m == nil {
		// No Sources section means zero sources.
		return invalidate(answer)
	}

	items := listItemRE.FindAllStringSubmatch(m[1], -1)
	cites := make([]citation, 0, len(items))
	for _, it := range items {
		c := citation{raw: it[1], label: strings.TrimSpace(tagRE.ReplaceAllString(it[1], ""))}
		for _, path := range docPaths {
			if strings.Contains(path, c.label) ||
				strings.Contains(c.label, path) ||
				c.label == lastSegment(path) {
				c.matched = true
				c.link = links[path]
				break
			}
		}
		cites = append(cites, c)
	}

	anyMatched := false
	for _, c := range cites {
		if c.matched {
			anyMatched = true
			break
		}
	}
	if !anyMatched {
		return invalidate(answer)
	}

	var b strings.Builder
	for _, c := range cites {
		if c.matched && c.link != "" {
			fmt.Fprintf(&b, `<li><a href="%s" target="_blank">%s</a></li>`, c.link, c.label)
		} else {
			fmt.Fprintf(&b, "<li>%s</li>", c.raw)
		}
	}
	section := "<h3>Источники</h3><ol>" + b.String() + "</ol>"
	return sourcesRE.ReplaceAllLiteralString(answer, section)
}

// invalidate applies the unsupported-answer degradation.
func invalidate(answer string) string {
	answer = markerRE.ReplaceAllString(answer, "")
	answer = accuracyRE.ReplaceAllString(answer, zeroAccuracy)
	return sourcesRE.ReplaceAllLiteralString(answer, notFoundSection)
}

func lastSegment(path string) string {
	if i := strings.LastIndexByte(path, '/'); i >= 0 {
		return path[i+1:]
	}
	return path
}
