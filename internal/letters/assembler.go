package letters

import (
	"github.com/pmartynov/otvet/internal/registry"
)

// Payload is the assembled mail payload for a matched template.
type Payload struct {
	To      string `json:"to"`
	CC      string `json:"cc"`
	Subject string `json:"subject"`
	Body    string `json:"body"`

	ActionText          string `json:"action_text"`
	NotifyCSA           bool   `json:"notify_csa"`
	TemplateID          string `json:"template_id"`
	TemplateDescription string `json:"template_description"`
}

// Assembler resolves a matched template into a Payload.
type Assembler struct {
	store Store
	// fallbackTo is used when a letter file carries no recipient.
	fallbackTo string
}

// NewAssembler creates an Assembler over the given store.
func NewAssembler(store Store, fallbackTo string) *Assembler {
	return &Assembler{store: store, fallbackTo: fallbackTo}
}

// Assemble loads the template's letter body and combines it with the action
// metadata from the snapshot. A missing letter file surfaces as
// apperr.ErrLetterNotFound so the caller can fall back to generation.
func (a *Assembler) Assemble(snap *registry.Snapshot, t *registry.Template) (*Payload, error) {
	letter, err := a.store.Load(t.LetterFile)
	if err != nil {
		return nil, err
	}

	to := letter.To
	if to == "" {
		to = a.fallbackTo
	}

	action := snap.ActionFor(t.Action)
	return &Payload{
		To:                  to,
		CC:                  letter.CC,
		Subject:             letter.Subject,
		Body:                letter.Body,
		ActionText:          action.DisplayName,
		NotifyCSA:           action.NotifyCSA,
		TemplateID:          t.ID,
		TemplateDescription: t.Description,
	}, nil
}

// ActionInfo returns the HTML annotation for a recognized action key.
// Unrecognized keys produce no annotation.
func ActionInfo(action string) string {
	switch action {
	case "block_and_notify":
		return "<p><strong>⚠️ ДЕЙСТВИЕ:</strong> Блокировать IDoc и оповестить CSA</p>"
	case "block_no_notify":
		return "<p><strong>⚠️ ДЕЙСТВИЕ:</strong> Блокировать IDoc БЕЗ оповещения CSA</p>"
	case "push_and_notify":
		return "<p><strong>✅ ДЕЙСТВИЕ:</strong> Протолкнуть IDoc и оповестить</p>"
	case "lenta_gln_change":
		return "<p><strong>🏪 ДЕЙСТВИЕ:</strong> Замена GLN для Ленты</p>"
	}
	return ""
}
