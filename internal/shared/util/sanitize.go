package util

import (
	"regexp"
	"strings"
)

var (
	controlChars      = regexp.MustCompile(`[\x00-\x08\x0B\x0C\x0E-\x1F\x7F]`)
	unicodeWhitespace = regexp.MustCompile(`[\x{00A0}\x{2000}-\x{200B}\x{202F}\x{205F}\x{3000}]`)
	repeatedSpaces    = regexp.MustCompile(` +`)
	excessNewlines    = regexp.MustCompile(`\n{3,}`)
)

// SanitizeText strips control characters, normalizes unicode whitespace and
// collapses excess blank lines. Prepares extracted text for LLM input.
func SanitizeText(text string) string {
	text = controlChars.ReplaceAllString(text, "")
	text = unicodeWhitespace.ReplaceAllString(text, " ")
	text = repeatedSpaces.ReplaceAllString(text, " ")
	text = excessNewlines.ReplaceAllString(text, "\n\n")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
