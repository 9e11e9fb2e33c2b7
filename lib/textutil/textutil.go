package textutil

import (
	"regexp"
	"strings"

	"github.com/antzucaro/matchr"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

// Normalize lowercases s and collapses runs of whitespace into single spaces.
func Normalize(s string) string {
	s = strings.ToLower(s)
	s = strings.TrimSpace(s)
	return whitespaceRegex.ReplaceAllString(s, " ")
}

// FuzzyContains reports whether text contains phrase, ignoring case and
// spacing. When it does not, the start of text is compared against phrase
// with Jaro-Winkler so that small wording or typo differences still match.
func FuzzyContains(text, phrase string, threshold float64) bool {
	text = Normalize(text)
	phrase = Normalize(phrase)
	if phrase == "" {
		return true
	}
	if strings.Contains(text, phrase) {
		return true
	}

	head := text
	if runes := []rune(text); len(runes) > len([]rune(phrase)) {
		head = string(runes[:len([]rune(phrase))])
	}
	return matchr.JaroWinkler(head, phrase, false) >= threshold
}

// TrimPrefixFold removes prefix from s when s starts with it, ignoring
// case. ok reports whether the prefix was present.
func TrimPrefixFold(s, prefix string) (rest string, ok bool) {
	if len(s) < len(prefix) || !strings.EqualFold(s[:len(prefix)], prefix) {
		return s, false
	}
	return s[len(prefix):], true
}
