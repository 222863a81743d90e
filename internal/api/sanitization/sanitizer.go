package sanitization

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/osa911/contactform/internal/api/dto/v1/contact"
)

// StripTags removes markup tags, comments and doctypes from input and keeps
// text exactly as written, entities included. A tag left open at the end of
// input is dropped.
func StripTags(input string) string {
	if !strings.ContainsRune(input, '<') {
		return input
	}

	z := html.NewTokenizer(strings.NewReader(input))
	var b strings.Builder
	b.Grow(len(input))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Raw())
		}
	}
}

// SanitizeString strips markup and surrounding whitespace. It repeats until
// nothing changes, so the result is stable under another pass: removing one
// tag can otherwise join "<" and ">" fragments into a new one.
func SanitizeString(input string) string {
	current := input
	for {
		next := strings.TrimSpace(StripTags(current))
		if next == current {
			return current
		}
		current = next
	}
}

// Submission returns a copy of sub with every string value sanitized.
// Non-string values pass through unchanged.
func Submission(sub contact.Submission) contact.Submission {
	out := make(contact.Submission, len(sub))
	for key, value := range sub {
		if s, ok := value.(string); ok {
			out[key] = SanitizeString(s)
			continue
		}
		out[key] = value
	}
	return out
}
