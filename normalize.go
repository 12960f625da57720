package kygeo

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalize prepares free text for matching.
//
// The result is lower-case, contains only the bytes [a-z0-9 ], has no runs of
// more than one space, and begins and ends with a single space. Punctuation is
// replaced rather than dropped, so "Knox-Laurel-Clay" becomes
// " knox laurel clay " and never "knoxlaurelclay". Accented Latin letters are
// folded to their base letter first ("Pádúcah" matches "paducah"); any other
// non-ASCII rune becomes a separator.
//
// Normalize is total: the empty string normalizes to " ".
func Normalize(text string) string {
	folded := foldDiacritics(text)

	var b strings.Builder
	b.Grow(len(folded) + 2)
	b.WriteByte(' ')
	space := true
	for i := 0; i < len(folded); i++ {
		c := folded[i]
		if 'A' <= c && c <= 'Z' {
			c += 'a' - 'A'
		}
		if ('a' <= c && c <= 'z') || ('0' <= c && c <= '9') {
			b.WriteByte(c)
			space = false
			continue
		}
		if !space {
			b.WriteByte(' ')
			space = true
		}
	}
	if !space {
		b.WriteByte(' ')
	}
	return b.String()
}

// normalizeKey normalizes a gazetteer name for use as a map key.
func normalizeKey(name string) string {
	return strings.TrimSpace(Normalize(name))
}

// foldDiacritics strips combining marks after canonical decomposition.
//
// WHY A NEW TRANSFORMER PER CALL: transform.Chain keeps internal buffers and is
// not safe for concurrent use. Detection runs concurrently over one shared
// Gazetteer, so the chain cannot live in a package variable.
func foldDiacritics(s string) string {
	if isASCII(s) {
		return s
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// token is one word of normalized text with its byte span.
type token struct {
	text       string
	start, end int
}

// span returns the byte range covered by tokens[i:j].
func span(tokens []token, i, j int) Range {
	return Range{Start: tokens[i].start, End: tokens[j-1].end}
}

// tokenize splits normalized text on spaces.
func tokenize(normalized string) []token {
	var toks []token
	start := -1
	for i := 0; i < len(normalized); i++ {
		if normalized[i] == ' ' {
			if start >= 0 {
				toks = append(toks, token{text: normalized[start:i], start: start, end: i})
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		toks = append(toks, token{text: normalized[start:], start: start, end: len(normalized)})
	}
	return toks
}

// joinTokens rebuilds the normalized phrase for tokens.
func joinTokens(tokens []token) string {
	switch len(tokens) {
	case 0:
		return ""
	case 1:
		return tokens[0].text
	}
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.text
	}
	return strings.Join(parts, " ")
}
