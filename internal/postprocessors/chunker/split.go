package chunker

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// splitter is the recursive separator splitter shared by both strategies.
// Sizes are measured in runes.
type splitter struct {
	maxSize    int
	overlap    int
	separators []string
}

// split returns the untrimmed chunk texts for text, in order.
// Chunk i is the tail of piece i-1 (at most overlap runes, and only as much
// as fits under maxSize) followed by piece i.
func (s splitter) split(text string) []string {
	pieces := s.pieces(text, s.separators)
	out := make([]string, 0, len(pieces))
	for i, p := range pieces {
		chunk := p
		if i > 0 && s.overlap > 0 {
			room := s.maxSize - runeLen(p)
			if n := min(s.overlap, room); n > 0 {
				chunk = tailRunes(pieces[i-1], n) + p
			}
		}
		out = append(out, chunk)
	}
	return out
}

// pieces splits text at every occurrence of the first separator found in it.
// Pieces still over maxSize are split with the remaining separators, and
// finally cut into windows.
func (s splitter) pieces(text string, seps []string) []string {
	for i, sep := range seps {
		if !strings.Contains(text, sep) {
			continue
		}
		var out []string
		for _, p := range splitKeep(text, sep) {
			if runeLen(p) <= s.maxSize {
				out = append(out, p)
				continue
			}
			out = append(out, s.pieces(p, seps[i+1:])...)
		}
		return out
	}
	if runeLen(text) <= s.maxSize {
		return []string{text}
	}
	return hardSplit(text, s.maxSize)
}

// splitKeep splits text at sep and keeps the separator at the head of the
// following piece, so no character is lost.
func splitKeep(text, sep string) []string {
	parts := strings.Split(text, sep)
	out := make([]string, 0, len(parts))
	for i, p := range parts {
		if i > 0 {
			p = sep + p
		}
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// hardSplit cuts text into windows of at most size runes, preferring to break
// before whitespace in the second half of a window.
func hardSplit(text string, size int) []string {
	runes := []rune(text)
	var out []string
	for len(runes) > size {
		cut := size
		for j := size - 1; j > size/2; j-- {
			if unicode.IsSpace(runes[j]) {
				cut = j
				break
			}
		}
		out = append(out, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		out = append(out, string(runes))
	}
	return out
}

func tailRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}

func runeLen(s string) int {
	return utf8.RuneCountInString(s)
}
