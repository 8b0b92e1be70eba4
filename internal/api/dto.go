package api

import (
	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/pmartynov/otvet/internal/pipeline"
	"github.com/pmartynov/otvet/internal/registry"
)

// DocumentRefDTO is one retrieved document reference supplied by the caller.
type DocumentRefDTO struct {
	Path string `json:"path"`
	Link string `json:"link,omitempty"`
}

// MessageRequest is the request body for POST /messages.
type MessageRequest struct {
	Text      string           `json:"text"`
	Mode      string           `json:"mode"`
	Context   string           `json:"context,omitempty"`
	Documents []DocumentRefDTO `json:"documents,omitempty"`
}

// Validate checks the request shape.
func (r MessageRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Text, validation.Required),
		validation.Field(&r.Mode, validation.Required, validation.In(pipeline.ModeLetter, pipeline.ModeNormal)),
	)
}

// MailtoDTO carries the mail fields for the reply button.
type MailtoDTO struct {
	To      string `json:"to"`
	CC      string `json:"cc"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// MessageResponse is the final answer payload.
type MessageResponse struct {
	Type   string     `json:"type"`
	Text   string     `json:"text"`
	Mailto *MailtoDTO `json:"mailto,omitempty"`
}

// AddTemplateRequest is the request body for POST /templates.
// Priority defaults to 10 when omitted.
type AddTemplateRequest struct {
	ID                  string     `json:"id"`
	Name                string     `json:"name"`
	Description         string     `json:"description"`
	Patterns            []string   `json:"patterns"`
	AlternativePatterns [][]string `json:"alternative_patterns,omitempty"`
	Action              string     `json:"action"`
	LetterFile          string     `json:"letter_file"`
	Priority            *int       `json:"priority,omitempty"`
	Comment             string     `json:"comment,omitempty"`
}

// Validate checks the request shape.
func (r AddTemplateRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.ID, validation.Required),
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Action, validation.Required),
		validation.Field(&r.LetterFile, validation.Required),
	)
}

// Template converts the request into a registry template.
func (r AddTemplateRequest) Template() registry.Template {
	priority := 10
	if r.Priority != nil {
		priority = *r.Priority
	}
	return registry.Template{
		ID:                  r.ID,
		Name:                r.Name,
		Description:         r.Description,
		Patterns:            r.Patterns,
		AlternativePatterns: r.AlternativePatterns,
		Action:              r.Action,
		LetterFile:          r.LetterFile,
		Priority:            priority,
		Comment:             r.Comment,
	}
}

// TemplateListResponse wraps the template listing.
type TemplateListResponse struct {
	Templates []registry.Template `json:"templates"`
	Total     int                 `json:"total"`
}
