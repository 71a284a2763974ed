package speech

import (
	"strings"
	"unicode"
)

// SanitizeSuggestion cleans one follow-up suggestion for verbatim
// insertion inside quotes in the SSML utterance. Markup-significant
// characters are dropped rather than entity-escaped: suggestions are
// short spoken phrases, and stray angle brackets or ampersands read by
// TTS sound worse than their absence.
func SanitizeSuggestion(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}

	var b strings.Builder
	b.Grow(len(raw))
	prevSpace := true

	for _, r := range raw {
		switch {
		case r == '<' || r == '>' || r == '&' || r == '\'':
			continue
		case unicode.IsSpace(r):
			if !prevSpace {
				b.WriteByte(' ')
				prevSpace = true
			}
		case unicode.IsControl(r):
			continue
		default:
			b.WriteRune(r)
			prevSpace = false
		}
	}

	return strings.TrimSpace(b.String())
}
