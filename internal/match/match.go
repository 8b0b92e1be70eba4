// Package match implements template selection: text normalization, per-template
// scoring, and priority-weighted best-of search over a registry snapshot.
package match

import (
	"regexp"
	"strings"

	"github.com/pmartynov/otvet/internal/registry"
)

var whitespaceRE = regexp.MustCompile(`\s+`)

// Normalize prepares free text for substring matching: the Unicode ellipsis
// becomes three periods, whitespace runs collapse to single spaces, commas
// are removed, and the result is trimmed and lower-cased.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "…", "...")
	text = whitespaceRE.ReplaceAllString(text, " ")
	text = strings.ReplaceAll(text, ",", "")
	return strings.ToLower(strings.TrimSpace(text))
}

// Result describes one matched template.
type Result struct {
	Template *registry.Template
	// Score is matchRatio*100 + priority, where matchRatio is the share of
	// main patterns found (0 when the template has no main patterns).
	Score float64
	// Matched is the number of main patterns found in the query.
	Matched int
}

// Score evaluates one template against an already-normalized query.
// The second return value is false when the template does not match.
//
// A template matches when every main pattern is a substring of the query,
// or when all members of any alternative AND-group are. A template with no
// main patterns can only match through its alternative groups.
func Score(t *registry.Template, normalizedQuery string) (Result, bool) {
	hits := 0
	for _, p := range t.Patterns {
		if strings.Contains(normalizedQuery, strings.ToLower(p)) {
			hits++
		}
	}

	altMatch := false
	for _, group := range t.AlternativePatterns {
		all := len(group) > 0
		for _, p := range group {
			if !strings.Contains(normalizedQuery, strings.ToLower(p)) {
				all = false
				break
			}
		}
		if all {
			altMatch = true
			break
		}
	}

	mainSatisfied := len(t.Patterns) > 0 && hits == len(t.Patterns)
	if !mainSatisfied && !altMatch {
		return Result{}, false
	}

	ratio := 0.0
	if len(t.Patterns) > 0 {
		ratio = float64(hits) / float64(len(t.Patterns))
	}
	return Result{
		Template: t,
		Score:    ratio*100 + float64(t.Priority),
		Matched:  hits,
	}, true
}

// FindBest scores every template in the snapshot against the query and
// returns the best match, or nil when nothing matches.
//
// contextText (retrieved-document excerpts) is accepted for call-site parity
// but deliberately never scored: selection is driven by user intent alone.
//
// Templates are iterated in the snapshot's priority-descending order and the
// maximum is tracked with strict greater-than, so the first template at a
// given score wins ties.
func FindBest(snap *registry.Snapshot, query, contextText string) *Result {
	_ = contextText

	normalized := Normalize(query)

	var best *Result
	bestScore := 0.0
	for i := range snap.Templates {
		res, ok := Score(&snap.Templates[i], normalized)
		if !ok {
			continue
		}
		if res.Score > bestScore {
			bestScore = res.Score
			r := res
			best = &r
		}
	}
	return best
}
