// Package textmatch holds the case-insensitive, whole-word matching helpers used by the detector.
package textmatch

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// wordChars is the set of characters that make up a "word" for boundary checks.
const wordChars = `\p{L}\p{N}_`

// Normalize trims and lower-cases a name or text for matching
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// IsBlank reports whether s is empty or whitespace only
func IsBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// WholeWordPattern compiles a pattern matching name as a standalone token.
// The name is quoted, so regexp metacharacters ("C++", "Ask.com") match literally.
// Group 1 spans the name itself; the surrounding groups consume the boundary characters.
func WholeWordPattern(name string) (*regexp.Regexp, error) {
	quoted := regexp.QuoteMeta(Normalize(name))
	return regexp.Compile(`(?:^|[^` + wordChars + `])(` + quoted + `)(?:$|[^` + wordChars + `])`)
}

// FindWholeWord returns the byte offsets of the first whole-word match in lowered text
func FindWholeWord(re *regexp.Regexp, lowered string) (start, end int, ok bool) {
	loc := re.FindStringSubmatchIndex(lowered)
	if loc == nil || len(loc) < 4 || loc[2] < 0 {
		return 0, 0, false
	}
	return loc[2], loc[3], true
}

// Window returns text[start:end] extended by radius characters on each side, clamped to the text.
// Offsets are byte offsets; the radius is counted in runes so multi-byte text is never split.
func Window(text string, start, end, radius int) string {
	if start < 0 {
		start = 0
	}
	if end > len(text) {
		end = len(text)
	}
	if start > end {
		start = end
	}

	from := start
	for i := 0; i < radius && from > 0; i++ {
		_, size := utf8.DecodeLastRuneInString(text[:from])
		from -= size
	}

	to := end
	for i := 0; i < radius && to < len(text); i++ {
		_, size := utf8.DecodeRuneInString(text[to:])
		to += size
	}

	return text[from:to]
}

// ContainsAny reports whether text contains any of the phrases. Phrases are expected lower-case.
func ContainsAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if phrase != "" && strings.Contains(text, phrase) {
			return true
		}
	}
	return false
}

// MustWholeWordPatterns compiles a whole-word pattern per word. Blank words are skipped.
func MustWholeWordPatterns(words ...string) []*regexp.Regexp {
	patterns := make([]*regexp.Regexp, 0, len(words))
	for _, w := range words {
		if IsBlank(w) {
			continue
		}
		re, err := WholeWordPattern(w)
		if err != nil {
			panic(err)
		}
		patterns = append(patterns, re)
	}
	return patterns
}

// CountWholeWords returns how many of the patterns match lowered text as whole words
func CountWholeWords(lowered string, patterns []*regexp.Regexp) int {
	count := 0
	for _, re := range patterns {
		if _, _, ok := FindWholeWord(re, lowered); ok {
			count++
		}
	}
	return count
}
