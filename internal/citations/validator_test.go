package citations

import (
	"strings"
	"testing"
)

const answerWithSources = `<p>Ответ по документации [1][2].</p>
Точность ответа:<b> 8/10</b>
<h3>Источники</h3>
<ol><li>1.docx</li><li>2.pdf</li></ol>`

func TestValidate_MatchedSourcesKept(t *testing.T) {
	docs := []string{"kb/1.docx", "kb/2.pdf"}
	links := map[string]string{"kb/2.pdf": "https://portal.example.com/2.pdf"}

	got := Validate(answerWithSources, docs, links)

	// Linked source gets an anchor with the clean label.
	wantAnchor := `<li><a href="https://portal.example.com/2.pdf" target="_blank">2.pdf</a></li>`
	if !strings.Contains(got, wantAnchor) {
		t.Errorf("missing anchor %q in:\n%s", wantAnchor, got)
	}
	// Matched but unlinked source stays as a plain item.
	if !strings.Contains(got, "<li>1.docx</li>") {
		t.Errorf("unlinked matched source dropped:\n%s", got)
	}
	// The rest of the answer is untouched.
	if !strings.Contains(got, "[1][2]") {
		t.Errorf("citation markers stripped from a supported answer:\n%s", got)
	}
	if !strings.Contains(got, "Точность ответа:<b> 8/10</b>") {
		t.Errorf("accuracy marker altered:\n%s", got)
	}
}

func TestValidate_NoRetrievedDocuments(t *testing.T) {
	got := Validate(answerWithSources, nil, nil)

	if strings.Contains(got, "[1]") || strings.Contains(got, "[2]") {
		t.Errorf("citation markers kept in unsupported answer:\n%s", got)
	}
	if !strings.Contains(got, "Точность ответа:<b> 0/10</b>") {
		t.Errorf("accuracy not forced to 0/10:\n%s", got)
	}
	if !strings.Contains(got, "Не найдено!") {
		t.Errorf("not-found notice missing:\n%s", got)
	}
	if strings.Contains(got, "<ol>") {
		t.Errorf("original source list survived invalidation:\n%s", got)
	}
}

func TestValidate_MissingSourcesSection(t *testing.T) {
	answer := "<p>Ответ без источников [1].</p>\nТочность ответа:<b> 7/10</b>"
	got := Validate(answer, []string{"kb/1.docx"}, nil)

	if strings.Contains(got, "[1]") {
		t.Errorf("markers kept without a sources section:\n%s", got)
	}
	if !strings.Contains(got, "Точность ответа:<b> 0/10</b>") {
		t.Errorf("accuracy not degraded:\n%s", got)
	}
}

func TestValidate_UnmatchedItemKeptWhenAnotherMatches(t *testing.T) {
	got := Validate(answerWithSources, []string{"kb/1.docx"}, nil)

	if !strings.Contains(got, "<li>1.docx</li>") {
		t.Errorf("matched source missing:\n%s", got)
	}
	// 2.pdf matches nothing but one sibling did, so it is kept as-is.
	if !strings.Contains(got, "<li>2.pdf</li>") {
		t.Errorf("unmatched sibling dropped:\n%s", got)
	}
}

func TestValidate_LabelMatchesFinalPathSegment(t *testing.T) {
	answer := `<h3>Источники</h3><ol><li>regulations.docx</li></ol>`
	got := Validate(answer, []string{"shared/docs/regulations.docx"}, nil)

	if !strings.Contains(got, "<li>regulations.docx</li>") {
		t.Errorf("final-segment match failed:\n%s", got)
	}
}

func TestValidate_NestedMarkupStrippedForMatching(t *testing.T) {
	answer := `<h3>Источники</h3><ol><li><b>1.docx</b></li></ol>`
	links := map[string]string{"kb/1.docx": "https://portal.example.com/1.docx"}

	got := Validate(answer, []string{"kb/1.docx"}, links)

	// The anchor wraps the clean label, not the original inner markup.
	want := `<li><a href="https://portal.example.com/1.docx" target="_blank">1.docx</a></li>`
	if !strings.Contains(got, want) {
		t.Errorf("got:\n%s\nwant item %q", got, want)
	}
}

func TestValidate_Idempotent(t *testing.T) {
	docs := []string{"kb/1.docx", "kb/2.pdf"}
	links := map[string]string{"kb/2.pdf": "https://portal.example.com/2.pdf"}

	once := Validate(answerWithSources, docs, links)
	twice := Validate(once, docs, links)
	if once != twice {
		t.Errorf("second run changed the answer:\nfirst:\n%s\nsecond:\n%s", once, twice)
	}

	// Invalidation is idempotent too.
	inv := Validate(answerWithSources, nil, nil)
	if again := Validate(inv, nil, nil); again != inv {
		t.Errorf("second invalidation changed the answer:\nfirst:\n%s\nsecond:\n%s", inv, again)
	}
}
