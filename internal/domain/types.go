package domain

import (
	"strings"
	"unicode/utf8"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// DefaultMaxMarkdownSize bounds request bodies accepted for generation.
const DefaultMaxMarkdownSize = 500_000

// MaxTitleLength bounds caller supplied titles, counted in runes.
const MaxTitleLength = 200

// GenerationRequest carries the Markdown document and optional display title
// for one generation run.
type GenerationRequest struct {
	Markdown string `json:"markdown"`
	Title    string `json:"title,omitempty"`
}

// Check enforces the request limits in order: size first so oversize input is
// rejected before any decoding work, then encoding, then field rules.
func (r GenerationRequest) Check(maxSize int) error {
	if maxSize <= 0 {
		maxSize = DefaultMaxMarkdownSize
	}
	if len(r.Markdown) > maxSize {
		return InputTooLarge(len(r.Markdown), maxSize)
	}
	if !utf8.ValidString(r.Markdown) || !utf8.ValidString(r.Title) {
		return InvalidInput("markdown must be valid UTF-8")
	}
	if err := r.Validate(); err != nil {
		return InvalidInputFrom(err)
	}
	return nil
}

// Validate applies the field level rules.
func (r GenerationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Markdown, validation.By(func(value any) error {
			if strings.TrimSpace(value.(string)) == "" {
				return validation.NewError("markmap.request.markdown_required", "markdown content is required")
			}
			return nil
		})),
		validation.Field(&r.Title, validation.RuneLength(0, MaxTitleLength)),
	)
}
