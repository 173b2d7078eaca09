package answer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// minUsableTokens is the smallest remaining budget worth filling with a
// truncated item; below it the budgeter stops instead.
const minUsableTokens = 25

var whitespaceRe = regexp.MustCompile(`\s+`)

// BuildContext packs ranked texts into a prompt context of at most maxTokens
// estimated tokens. Items shorter than minItemTokens are skipped; the first
// item that overflows the budget is included as a truncated, ellipsis-marked
// prefix when enough budget remains, and packing stops there. Each included
// item is tagged "[<label> N]" with its 1-based rank for traceability.
func BuildContext(items []string, maxTokens, minItemTokens int, label string) string {
	var parts []string
	total := 0

	for i, raw := range items {
		clean := strings.TrimSpace(whitespaceRe.ReplaceAllString(raw, " "))
		tokens := EstimateTokens(clean)
		if tokens < minItemTokens {
			continue
		}

		if total+tokens > maxTokens {
			remaining := maxTokens - total
			if remaining > minUsableTokens {
				truncated := truncateAtBoundary(clean, remaining*charsPerToken)
				parts = append(parts, fmt.Sprintf("[%s %d] %s...", label, i+1, truncated))
			}
			break
		}

		parts = append(parts, fmt.Sprintf("[%s %d] %s", label, i+1, clean))
		total += tokens
	}

	return strings.Join(parts, "\n\n")
}

// truncateAtBoundary cuts text to at most maxChars, preferring the last
// sentence end in the prefix and falling back to the last word boundary.
func truncateAtBoundary(text string, maxChars int) string {
	if len(text) <= maxChars {
		return text
	}
	// Back up to a rune boundary so the cut never leaves invalid UTF-8.
	for maxChars > 0 && !utf8.RuneStart(text[maxChars]) {
		maxChars--
	}
	prefix := text[:maxChars]

	if idx := strings.LastIndex(prefix, ". "); idx > maxChars/2 {
		return prefix[:idx+1]
	}
	if idx := strings.LastIndexByte(prefix, ' '); idx > 0 {
		return prefix[:idx]
	}
	return prefix
}
