package embed

import (
	"fmt"
	"unicode/utf8"

	"github.com/aleister1102/courier/internal/common/errorwrapper"
	"github.com/aleister1102/courier/internal/models"
)

// Server-side embed limits, counted in characters.
const (
	MaxTitleLength       = 256
	MaxDescriptionLength = 4096
	MaxFields            = 25
	MaxFieldNameLength   = 256
	MaxFieldValueLength  = 1024
	MaxFooterTextLength  = 2048
	MaxAuthorNameLength  = 256
	MaxTotalLength       = 6000
)

// Validator validates embed objects
type Validator struct{}

// NewValidator creates a new embed validator
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateEmbed validates an embed
func (v *Validator) ValidateEmbed(embed models.Embed) error {
	total := 0
	count := func(s string) int {
		n := utf8.RuneCountInString(s)
		total += n
		return n
	}

	if count(embed.Title) > MaxTitleLength {
		return errorwrapper.NewValidationError("title", embed.Title, "title cannot exceed 256 characters")
	}

	if count(embed.Description) > MaxDescriptionLength {
		return errorwrapper.NewValidationError("description", embed.Description, "description cannot exceed 4096 characters")
	}

	if len(embed.Fields) > MaxFields {
		return errorwrapper.NewValidationError("fields", len(embed.Fields), "cannot have more than 25 fields")
	}

	for i, field := range embed.Fields {
		if field.Name == "" {
			return errorwrapper.NewValidationError("field_name", field.Name, fmt.Sprintf("field %d name cannot be empty", i))
		}
		if field.Value == "" {
			return errorwrapper.NewValidationError("field_value", field.Value, fmt.Sprintf("field %d value cannot be empty", i))
		}
		if count(field.Name) > MaxFieldNameLength {
			return errorwrapper.NewValidationError("field_name", field.Name, fmt.Sprintf("field %d name cannot exceed 256 characters", i))
		}
		if count(field.Value) > MaxFieldValueLength {
			return errorwrapper.NewValidationError("field_value", field.Value, fmt.Sprintf("field %d value cannot exceed 1024 characters", i))
		}
	}

	if embed.Footer != nil && count(embed.Footer.Text) > MaxFooterTextLength {
		return errorwrapper.NewValidationError("footer_text", embed.Footer.Text, "footer text cannot exceed 2048 characters")
	}

	if embed.Author != nil && count(embed.Author.Name) > MaxAuthorNameLength {
		return errorwrapper.NewValidationError("author_name", embed.Author.Name, "author name cannot exceed 256 characters")
	}

	if total > MaxTotalLength {
		return errorwrapper.NewValidationError("embed", total, "embed text cannot exceed 6000 characters in total")
	}

	return nil
}
