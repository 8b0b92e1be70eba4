package match

import (
	"testing"

	"github.com/pmartynov/otvet/internal/registry"
)

func snapshot(templates ...registry.Template) *registry.Snapshot {
	return &registry.Snapshot{Templates: templates}
}

func TestNormalize(t *testing.T) {
	in := "  Ошибка,  Duplicate\tPO … found  "
	want := "ошибка duplicate po ... found"
	if got := Normalize(in); got != want {
		t.Errorf("Normalize = %q, want %q", got, want)
	}
}

func TestNormalize_CommasAndCase(t *testing.T) {
	if got := Normalize("A, B, C"); got != "a b c" {
		t.Errorf("Normalize = %q, want %q", got, "a b c")
	}
}

func TestScore_AllMainPatternsRequired(t *testing.T) {
	tmpl := registry.Template{Patterns: []string{"duplicate po", "ruedigiper"}, Priority: 50}

	res, ok := Score(&tmpl, Normalize("Ошибка Duplicate PO (RUEDIGIPER)"))
	if !ok {
		t.Fatal("expected match")
	}
	if res.Score != 150 {
		t.Errorf("score = %v, want 150", res.Score)
	}
	if res.Matched != 2 {
		t.Errorf("matched = %d, want 2", res.Matched)
	}

	// One pattern missing: no match, regardless of priority.
	if _, ok := Score(&tmpl, Normalize("Ошибка Duplicate PO")); ok {
		t.Error("partial main-pattern hit must not match")
	}
}

func TestScore_CaseInsensitivePatterns(t *testing.T) {
	tmpl := registry.Template{Patterns: []string{"Duplicate PO"}}
	if _, ok := Score(&tmpl, Normalize("duplicate po found")); !ok {
		t.Error("pattern case must not matter")
	}
}

func TestScore_AlternativeGroups(t *testing.T) {
	tmpl := registry.Template{
		Patterns:            []string{"never-present"},
		AlternativePatterns: [][]string{{"лента", "gln"}, {"ruedimaksi", "ru3a-01"}},
		Priority:            5,
	}

	// Second group fully present: matches even though the main pattern is absent.
	res, ok := Score(&tmpl, Normalize("Для клиента (RUEDIMAKSI) размещение заказов RU3A-01"))
	if !ok {
		t.Fatal("expected alternative-group match")
	}
	// Ratio is 0/1, so the score is the bare priority.
	if res.Score != 5 {
		t.Errorf("score = %v, want 5", res.Score)
	}

	// Group only partially present: no match.
	if _, ok := Score(&tmpl, Normalize("лента без второго слова")); ok {
		t.Error("partial AND-group must not match")
	}
}

func TestScore_EmptyPatterns(t *testing.T) {
	// Empty main patterns with a satisfied alternative group: match.
	withAlt := registry.Template{AlternativePatterns: [][]string{{"gln"}}, Priority: 3}
	if _, ok := Score(&withAlt, "заменить gln"); !ok {
		t.Error("empty patterns with satisfied alt group must match")
	}

	// Empty main patterns and no alternatives: never a match.
	bare := registry.Template{Priority: 100}
	if _, ok := Score(&bare, "любой запрос"); ok {
		t.Error("template with no patterns at all must never match")
	}
}

func TestFindBest_PriorityWeighted(t *testing.T) {
	snap := snapshot(
		registry.Template{ID: "strong", Patterns: []string{"duplicate po"}, Priority: 50},
		registry.Template{ID: "weak", Patterns: []string{"duplicate po"}, Priority: 10},
	)

	res := FindBest(snap, "Duplicate PO found", "")
	if res == nil || res.Template.ID != "strong" {
		t.Fatalf("FindBest = %+v, want strong", res)
	}
}

func TestFindBest_TieKeepsFirst(t *testing.T) {
	// Equal scores: the template earlier in registry order must win, because
	// later equal scores never replace the tracked maximum.
	snap := snapshot(
		registry.Template{ID: "first", Patterns: []string{"gln"}, Priority: 10},
		registry.Template{ID: "second", Patterns: []string{"gln"}, Priority: 10},
	)

	res := FindBest(snap, "замена gln", "")
	if res == nil || res.Template.ID != "first" {
		t.Fatalf("FindBest = %+v, want first", res)
	}
}

func TestFindBest_ContextNeverScored(t *testing.T) {
	snap := snapshot(
		registry.Template{ID: "ctx", Patterns: []string{"только в контексте"}, Priority: 90},
	)

	if res := FindBest(snap, "запрос без паттерна", "текст только в контексте"); res != nil {
		t.Errorf("context text must not drive matching, got %s", res.Template.ID)
	}
}

func TestFindBest_NoMatch(t *testing.T) {
	snap := snapshot(registry.Template{ID: "a", Patterns: []string{"duplicate po"}})
	if res := FindBest(snap, "совсем другой вопрос", ""); res != nil {
		t.Errorf("expected no match, got %s", res.Template.ID)
	}
}

func TestFindBest_HigherRatioBeatsLowerPriorityGap(t *testing.T) {
	// Full match on a low-priority template scores 100+10=110 and beats a
	// priority-90 alternative-only match scoring 90.
	snap := snapshot(
		registry.Template{ID: "alt", AlternativePatterns: [][]string{{"gln"}}, Priority: 90},
		registry.Template{ID: "full", Patterns: []string{"gln"}, Priority: 10},
	)

	res := FindBest(snap, "заменить gln", "")
	if res == nil || res.Template.ID != "full" {
		t.Fatalf("FindBest = %+v, want full", res)
	}
}
