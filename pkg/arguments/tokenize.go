package arguments

import (
	"regexp"
	"strings"
)

// DefaultSplit separates tokens on runs of whitespace.
var DefaultSplit = regexp.MustCompile(`\s+`)

// Tokenize splits content on split, keeping double-quoted runs together with the
// quotes stripped. A quote only opens a run at the start of a token; an unterminated
// run extends to the end of the input. When limit > 0 at most limit tokens are
// produced and the remaining text becomes the last token verbatim.
func Tokenize(content string, split *regexp.Regexp, limit int) []string {
	if split == nil {
		split = DefaultSplit
	}
	var tokens []string
	rest := content
	for {
		rest = trimSeparators(rest, split)
		if rest == "" {
			return tokens
		}
		if limit > 0 && len(tokens) == limit-1 {
			return append(tokens, rest)
		}
		var token string
		token, rest = next(rest, split)
		tokens = append(tokens, token)
	}
}

// Skip drops the first n tokens of content and returns the remaining text.
func Skip(content string, split *regexp.Regexp, n int) string {
	if split == nil {
		split = DefaultSplit
	}
	rest := content
	for i := 0; i < n; i++ {
		rest = trimSeparators(rest, split)
		if rest == "" {
			return ""
		}
		_, rest = next(rest, split)
	}
	return trimSeparators(rest, split)
}

// next reads one token from the start of s, which must not begin with a separator.
func next(s string, split *regexp.Regexp) (token, rest string) {
	if s[0] == '"' {
		end := strings.IndexByte(s[1:], '"')
		if end < 0 {
			return s[1:], ""
		}
		return s[1 : end+1], s[end+2:]
	}
	start, stop := nextSeparator(s, split)
	if start < 0 {
		return s, ""
	}
	return s[:start], s[stop:]
}

func trimSeparators(s string, split *regexp.Regexp) string {
	for s != "" {
		loc := split.FindStringIndex(s)
		if loc == nil || loc[0] != 0 || loc[1] == 0 {
			return s
		}
		s = s[loc[1]:]
	}
	return s
}

// nextSeparator returns the bounds of the first non-empty separator match, or -1.
func nextSeparator(s string, split *regexp.Regexp) (int, int) {
	for _, loc := range split.FindAllStringIndex(s, -1) {
		if loc[1] > loc[0] {
			return loc[0], loc[1]
		}
	}
	return -1, -1
}

// Join rebuilds text from tokens so that Tokenize returns the same tokens again.
// Tokens that are empty or contain a separator are quoted.
func Join(tokens []string, split *regexp.Regexp) string {
	if split == nil {
		split = DefaultSplit
	}
	var sb strings.Builder
	for i, t := range tokens {
		if i > 0 {
			sb.WriteByte(' ')
		}
		if t == "" || split.MatchString(t) {
			sb.WriteByte('"')
			sb.WriteString(t)
			sb.WriteByte('"')
			continue
		}
		sb.WriteString(t)
	}
	return sb.String()
}
