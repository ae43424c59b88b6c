// Package sanitizer cleans user-supplied plain-text fields (report
// reasons, feature request text, annotation labels) before they are
// stored or forwarded to external issue trackers.
package sanitizer

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// PlainText strips any markup from input and collapses surrounding
// whitespace. Use it for fields that must never carry HTML; rich
// comment bodies go through bluemonday instead.
func PlainText(input string) string {
	return StripTags(input)
}

// StripTags removes all HTML/XML tags from the input, keeping only text
// content. It walks the input with an HTML tokenizer and extracts text
// nodes.
//
// Note: this is content cleanup, not an XSS defense.
func StripTags(input string) string {
	input = strings.TrimSpace(input)
	if input == "" {
		return ""
	}

	if !strings.Contains(input, "<") {
		return input
	}

	tokenizer := html.NewTokenizer(strings.NewReader(input))
	var buf strings.Builder

	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			if tokenizer.Err() == io.EOF {
				break
			}
			return ""
		}

		if tt == html.TextToken {
			buf.WriteString(tokenizer.Token().Data)
		}
	}

	return strings.TrimSpace(buf.String())
}

// Truncate cuts s to at most max runes, appending an ellipsis when
// something was dropped. Issue trackers cap title lengths.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
