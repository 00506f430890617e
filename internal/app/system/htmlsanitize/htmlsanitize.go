// Package htmlsanitize strips markup from user-entered text before it is
// stored. Experiment fields are plain text; the client renders them as
// text, never as HTML.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// strict removes every element. Content of script and style is dropped
// with the element.
var strict = bluemonday.StrictPolicy()

// PlainText returns s with all tags removed. Entities produced by the
// policy are decoded again so quotes and ampersands survive unchanged.
// Decoding can reveal markup that was escaped in the input, so the pass
// repeats until the text stops changing; PlainText(PlainText(s)) equals
// PlainText(s).
func PlainText(s string) string {
	for i := 0; i <= len(s) && !IsPlainText(s); i++ {
		next := html.UnescapeString(strict.Sanitize(s))
		if next == s {
			break
		}
		s = next
	}
	return s
}

// Line is PlainText with surrounding whitespace trimmed. Names go through
// it on every write.
func Line(s string) string {
	return strings.TrimSpace(PlainText(s))
}

// IsPlainText reports whether s contains nothing that looks like a tag.
func IsPlainText(s string) bool {
	i := strings.IndexByte(s, '<')
	if i < 0 {
		return true
	}
	return !strings.Contains(s[i:], ">")
}
