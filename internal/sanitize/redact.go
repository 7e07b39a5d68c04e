// Package sanitize scrubs credentials from text before it is logged or
// written to disk.
package sanitize

import (
	"regexp"
	"strings"
)

const mask = "[REDACTED]"

var secretPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(authorization:\s*bearer\s+)[A-Za-z0-9._~+/=-]+`),
	regexp.MustCompile(`(?i)(bearer\s+)[A-Za-z0-9._~+/=-]{16,}`),
	regexp.MustCompile(`()\b(?:gsk|sk|sk-proj|sk-ant)[-_][A-Za-z0-9_-]{16,}`),
	regexp.MustCompile(`(?i)("?(?:api[_-]?key|secret|password|token)"?\s*[:=]\s*"?)[^\s",}]{6,}`),
}

// Redact replaces API keys, bearer tokens and key=value secrets with a
// fixed mask.
func Redact(text string) string {
	for _, re := range secretPatterns {
		text = re.ReplaceAllString(text, "${1}"+mask)
	}
	return text
}

// Excerpt returns Redact(text) cut to at most n runes.
func Excerpt(text string, n int) string {
	text = strings.TrimSpace(Redact(text))
	runes := []rune(text)
	if n <= 0 || len(runes) <= n {
		return text
	}
	return string(runes[:n]) + "…"
}
