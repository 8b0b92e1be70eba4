package pipeline

import (
	"encoding/json"
	"regexp"
	"strings"
)

// MailFields are the mail parameters carried alongside an answer.
type MailFields struct {
	To      string `json:"to"`
	CC      string `json:"cc"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

type mailEnvelope struct {
	Mailto *MailFields `json:"mailto"`
}

var (
	labeledFenceRE = regexp.MustCompile("(?i)```json\\s*(\\{[\\s\\S]*?\\})\\s*```")
	anyFenceRE     = regexp.MustCompile("```\\s*(\\{[\\s\\S]*?\\})\\s*```")
	mailtoObjectRE = regexp.MustCompile(`\{[^}]*"mailto"[^}]*\{[^}]*\}[^}]*\}`)
)

// extractMailBlock finds the trailing JSON mail block in generated text.
// Three fixed strategies are tried in order: a ```json fence, any fence
// holding an object, then a bare object containing a "mailto" key. On
// success the block is removed from the visible text. A block that fails
// to parse is dropped silently: the text is returned unchanged and ok is
// false, and the answer proceeds without mail fields.
func extractMailBlock(text string) (mailto *MailFields, cleaned string, ok bool) {
	for _, re := range []*regexp.Regexp{labeledFenceRE, anyFenceRE} {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		env, err := parseTolerant(m[1])
		if err != nil {
			return nil, text, false
		}
		cleaned = strings.TrimSpace(strings.ReplaceAll(text, m[0], ""))
		return env.Mailto, cleaned, true
	}

	// Last resort: an unfenced object mentioning mailto, latest occurrence.
	objects := mailtoObjectRE.FindAllString(text, -1)
	for i := len(objects) - 1; i >= 0; i-- {
		env, err := parseTolerant(objects[i])
		if err != nil || env.Mailto == nil {
			continue
		}
		cleaned = strings.TrimSpace(strings.ReplaceAll(text, objects[i], ""))
		return env.Mailto, cleaned, true
	}

	return nil, text, false
}

// parseTolerant decodes a JSON object, forgiving raw control characters
// inside string literals (models routinely emit literal newlines in the
// letter body).
func parseTolerant(s string) (*mailEnvelope, error) {
	var env mailEnvelope
	if err := json.Unmarshal([]byte(s), &env); err == nil {
		return &env, nil
	}
	if err := json.Unmarshal([]byte(escapeControlChars(s)), &env); err != nil {
		return nil, err
	}
	return &env, nil
}

// escapeControlChars rewrites raw control characters that occur inside
// string literals as their JSON escape sequences. Structural whitespace
// outside strings is left alone.
func escapeControlChars(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	inString := false
	escaped := false
	for _, r := range s {
		if inString {
			switch {
			case escaped:
				escaped = false
			case r == '\\':
				escaped = true
			case r == '"':
				inString = false
			case r == '\n':
				b.WriteString(`\n`)
				continue
			case r == '\r':
				b.WriteString(`\r`)
				continue
			case r == '\t':
				b.WriteString(`\t`)
				continue
			case r < 0x20:
				continue
			}
		} else if r == '"' {
			inString = true
		}
		b.WriteRune(r)
	}
	return b.String()
}
