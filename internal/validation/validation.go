package validation

import (
	"strings"

	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"
)

// ValidateHandshake checks a requested language against the closed set
// before the repository is asked to create a chatmate.
func ValidateHandshake(language string) (models.Language, error) {
	lang, ok := models.ParseLanguage(language)
	if !ok {
		return "", errors.New(errors.ErrValidation, "unsupported language")
	}
	return lang, nil
}

// ValidatePagination rejects a limit outside 0..100 before it reaches a
// query. The repository itself applies no upper cap; it substitutes 10 for
// a non-positive limit.
func ValidatePagination(limit int) error {
	if limit < 0 || limit > 100 {
		return errors.NewWithDetails(errors.ErrValidation, "limit must be between 0 and 100", map[string]interface{}{"limit": limit})
	}
	return nil
}

// SanitizeTranscript strips control characters from a transcribed prompt
// before it's persisted or handed to the generation provider.
func SanitizeTranscript(input string) string {
	input = strings.TrimSpace(input)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != '\n' && r != '\r' && r != '\t' {
			return -1
		}
		return r
	}, input)
}
