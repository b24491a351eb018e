package textutil

import (
	"regexp"
	"strings"
	"unicode"
)

var umlautReplacer = strings.NewReplacer(
	"ä", "ae",
	"ö", "oe",
	"ü", "ue",
	"ß", "ss",
)

var whitespaceRegex = regexp.MustCompile(`\s+`)
var underscoreRuns = regexp.MustCompile(`__+`)

// CleanKey turns arbitrary label text into an identifier that is safe to
// use as a CSV column name. It never fails; input without any usable
// characters yields the empty string, which callers treat as "no key".
func CleanKey(text string) string {
	text = umlautReplacer.Replace(text)
	text = strings.Map(func(r rune) rune {
		if r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			return r
		}
		return -1
	}, text)
	text = whitespaceRegex.ReplaceAllString(text, "_")
	text = underscoreRuns.ReplaceAllString(text, "_")
	return strings.Trim(text, "_")
}

// NormalizeName lowercases and strips all whitespace, for loose
// comparisons of human-entered names.
func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}
