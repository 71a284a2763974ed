// Package speech renders workflow answers into SSML-safe utterances,
// appending spoken follow-up suggestions when the workflow offers any.
package speech

import "strings"

// Pause is the spoken pause inserted between the answer and the
// suggestion segment. The response envelope wraps output in <speak>,
// so the directive is emitted verbatim.
const Pause = `<break time="0.5s"/>`

const (
	suggestionLeadIn  = "You could ask: "
	suggestionClosing = "What would you like to know?"
)

// Format combines an answer with optional follow-up suggestions into a
// single utterance. The answer is trimmed; suggestions are sanitized
// and blank ones dropped. With no usable suggestions the trimmed
// answer is returned unchanged.
func Format(answer string, followups []string) string {
	out := strings.TrimSpace(answer)

	cleaned := filterFollowups(followups)
	if len(cleaned) == 0 {
		return out
	}

	var b strings.Builder
	b.WriteString(out)
	b.WriteString(" " + Pause + " ")
	b.WriteString(suggestionLeadIn)
	b.WriteString(joinQuoted(cleaned))
	b.WriteString(". " + Pause + " ")
	b.WriteString(suggestionClosing)
	return b.String()
}

func filterFollowups(followups []string) []string {
	out := make([]string, 0, len(followups))
	for _, f := range followups {
		if s := SanitizeSuggestion(f); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// joinQuoted renders suggestions as 'A', 'B', or 'C'. A single
// suggestion is just quoted, with no connector.
func joinQuoted(items []string) string {
	if len(items) == 1 {
		return "'" + items[0] + "'"
	}
	var b strings.Builder
	for i, item := range items[:len(items)-1] {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("'" + item + "'")
	}
	b.WriteString(", or '" + items[len(items)-1] + "'")
	return b.String()
}
