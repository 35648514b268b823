package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// SkipReason explains why a record's content cannot be embedded.
type SkipReason string

const (
	SkipNone      SkipReason = ""
	SkipMissing   SkipReason = "missing"
	SkipWrongType SkipReason = "wrong-type"
	SkipBlank     SkipReason = "blank"
)

// Err returns the input error for the reason, or nil for SkipNone.
func (r SkipReason) Err() error {
	switch r {
	case SkipNone:
		return nil
	case SkipMissing:
		return fmt.Errorf("%w: %w", ErrInput, ErrMissingContent)
	case SkipWrongType:
		return fmt.Errorf("%w: %w", ErrInput, ErrWrongContentType)
	case SkipBlank:
		return fmt.Errorf("%w: %w", ErrInput, ErrBlankContent)
	default:
		return fmt.Errorf("%w: %s", ErrInput, string(r))
	}
}

// ValidateContent decides whether content can be sent to the embedding provider.
// It returns the trimmed text and SkipNone when it can, otherwise the skip reason.
func ValidateContent(content any) (string, SkipReason) {
	var text string
	switch v := content.(type) {
	case nil:
		return "", SkipMissing
	case string:
		text = v
	case *string:
		if v == nil {
			return "", SkipMissing
		}
		text = *v
	case []byte:
		if v == nil {
			return "", SkipMissing
		}
		if !utf8.Valid(v) {
			return "", SkipWrongType
		}
		text = string(v)
	default:
		return "", SkipWrongType
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", SkipBlank
	}
	return text, SkipNone
}

// ValidateRecord applies ValidateContent to a record.
func ValidateRecord(record *Record) (string, SkipReason) {
	if record == nil {
		return "", SkipMissing
	}
	return ValidateContent(record.Content)
}
