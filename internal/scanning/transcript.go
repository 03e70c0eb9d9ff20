package scanning

import "strings"

// cleanTranscript strips the markdown fence LLMs sometimes wrap replies in
func cleanTranscript(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	text = strings.TrimPrefix(text, "```")
	// Drop a language tag on the opening fence line
	if i := strings.IndexByte(text, '\n'); i >= 0 && !strings.ContainsAny(text[:i], " \t") {
		text = text[i+1:]
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}
