// Package apperr defines sentinel errors shared across the service.
package apperr

import "errors"

var (
	// ErrNotFound is returned for lookups of templates that do not exist.
	ErrNotFound = errors.New("not found")

	// ErrTemplateExists is returned when adding a template whose id is taken.
	ErrTemplateExists = errors.New("template already exists")

	// ErrLetterNotFound is returned when a template's letter file is missing
	// or unreadable. Callers fall back to generation instead of failing.
	ErrLetterNotFound = errors.New("letter not found")

	// ErrGenerationUnavailable is returned when the generation backend cannot
	// be reached or answers with a non-success status. Never retried.
	ErrGenerationUnavailable = errors.New("generation service unavailable")
)
