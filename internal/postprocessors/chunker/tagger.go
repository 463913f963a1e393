// Package chunker splits page text into bounded, overlapping chunks.
//
// Two strategies share one recursive splitter: a generic separator-driven
// split, and a header-aware split that first marks numbered section headers
// with a sentinel and then splits only at those marks.
package chunker

import (
	"regexp"
	"strings"
)

// HeaderSentinel marks a candidate section boundary. It never survives
// into chunk text.
const HeaderSentinel = "||MAIN_HEADER||"

// headerPattern matches a line that starts with a 1-2 digit numeral followed
// by whitespace and a character that is neither a digit nor a period.
// Page numbers and list indices that start a line match too.
var headerPattern = regexp.MustCompile(`(?m)^\d{1,2}\s+[^\d.]`)

// Tag inserts HeaderSentinel immediately before every header match.
// No other character is changed. Tagging tagged text is a no-op because a
// tagged line starts with the sentinel rather than a numeral.
func Tag(text string) string {
	matches := headerPattern.FindAllStringIndex(text, -1)
	if len(matches) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text) + len(matches)*len(HeaderSentinel))
	last := 0
	for _, m := range matches {
		b.WriteString(text[last:m[0]])
		b.WriteString(HeaderSentinel)
		last = m[0]
	}
	b.WriteString(text[last:])
	return b.String()
}

// StripSentinel removes every sentinel occurrence.
func StripSentinel(text string) string {
	return strings.ReplaceAll(text, HeaderSentinel, "")
}
