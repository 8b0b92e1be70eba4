// Package pipeline orchestrates a single answer: template matching, letter
// assembly or external generation, and citation validation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/pmartynov/otvet/internal/apperr"
	"github.com/pmartynov/otvet/internal/citations"
	"github.com/pmartynov/otvet/internal/generator"
	"github.com/pmartynov/otvet/internal/letters"
	"github.com/pmartynov/otvet/internal/match"
	"github.com/pmartynov/otvet/internal/registry"
)

// Request modes.
const (
	ModeLetter = "letter"
	ModeNormal = "normal"
)

// DocumentRef identifies one actually-retrieved document supplied with a
// request. Link, when set, overrides the link index for that path.
type DocumentRef struct {
	Path string
	Link string
}

// Request is one query to answer.
type Request struct {
	Text      string
	Context   string // retrieved-document excerpts, fed to the prompt only
	Mode      string // ModeLetter or ModeNormal
	Documents []DocumentRef
}

// Answer is the final payload for the caller.
type Answer struct {
	Text   string      `json:"text"`
	Mailto *MailFields `json:"mailto,omitempty"`
}

// Pipeline wires the registry, letter assembler, generation client, and
// citation validation into one request flow.
type Pipeline struct {
	reg       *registry.Registry
	assembler *letters.Assembler
	gen       generator.Client
	linksPath string
}

// New creates a Pipeline. linksPath points at the JSON link index; it may
// name a file that does not exist yet.
func New(reg *registry.Registry, assembler *letters.Assembler, gen generator.Client, linksPath string) *Pipeline {
	return &Pipeline{reg: reg, assembler: assembler, gen: gen, linksPath: linksPath}
}

// Respond answers one request.
//
// Letter mode first tries the template registry: a matched template whose
// letter assembles cleanly is returned without calling the generator at all.
// A matcher miss or a missing letter file falls back to generation with the
// mail-block prompt extension. Normal mode goes straight to generation.
// Both branches finish by validating citations against the request's
// retrieved documents.
func (p *Pipeline) Respond(ctx context.Context, req Request) (*Answer, error) {
	links := citations.LoadLinkIndex(p.linksPath)
	paths := make([]string, 0, len(req.Documents))
	for _, doc := range req.Documents {
		paths = append(paths, doc.Path)
		if doc.Link != "" {
			links[doc.Path] = doc.Link
		}
	}

	if req.Mode == ModeLetter {
		return p.respondLetter(ctx, req, paths, links)
	}

	out, err := p.gen.Generate(ctx, systemPrompt+contextSection(req.Context), req.Text)
	if err != nil {
		return nil, err
	}
	return &Answer{Text: citations.Validate(out, paths, links)}, nil
}

func (p *Pipeline) respondLetter(ctx context.Context, req Request, paths []string, links map[string]string) (*Answer, error) {
	snap := p.reg.Snapshot()

	if res := match.FindBest(snap, req.Text, req.Context); res != nil {
		payload, err := p.assembler.Assemble(snap, res.Template)
		switch {
		case err == nil:
			slog.Info("letter template applied",
				slog.String("template", res.Template.ID),
				slog.Float64("score", res.Score))
			text := citations.Validate(letterHTML(payload, res.Template.Action), paths, links)
			return &Answer{
				Text: text,
				Mailto: &MailFields{
					To:      payload.To,
					CC:      payload.CC,
					Subject: payload.Subject,
					Body:    payload.Body,
				},
			}, nil
		case errors.Is(err, apperr.ErrLetterNotFound):
			slog.Warn("letter body unavailable, falling back to generation",
				slog.String("template", res.Template.ID),
				slog.String("error", err.Error()))
		default:
			return nil, err
		}
	}

	out, err := p.gen.Generate(ctx, systemPrompt+letterPromptExt+contextSection(req.Context), req.Text)
	if err != nil {
		return nil, err
	}

	mailto, cleaned, ok := extractMailBlock(out)
	if !ok {
		slog.Warn("generated answer carries no usable mail block")
	}
	return &Answer{Text: citations.Validate(cleaned, paths, links), Mailto: mailto}, nil
}

// letterHTML renders the templated explanation shown to the user. The letter
// body itself travels only in the mailto fields.
func letterHTML(p *letters.Payload, actionKey string) string {
	var b strings.Builder
	b.WriteString("<h3>Решение найдено</h3>\n")
	fmt.Fprintf(&b, "<p><strong>Используется шаблон:</strong> %s</p>\n", p.TemplateDescription)
	if info := letters.ActionInfo(actionKey); info != "" {
		b.WriteString(info + "\n")
	}
	b.WriteString("<hr>\n<h4>Инструкция:</h4>\n")
	fmt.Fprintf(&b, `<div style="white-space: pre-wrap;">%s</div>`, p.ActionText)
	return b.String()
}
