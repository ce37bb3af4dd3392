package sanitizer

import (
	"regexp"
	"strings"
	"unicode"
)

type Strategy func(string) string

type Pipeline []Strategy

func (p Pipeline) Apply(s string) string {
	for _, fn := range p {
		s = fn(s)
	}
	return s
}

var (
	reTagSeparators = regexp.MustCompile(`[\s_]+`)
	reMultiHyphen   = regexp.MustCompile(`-+`)
)

func stripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsControl(r) && !unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func lower(s string) string {
	return strings.ToLower(s)
}

func hyphenate(s string) string {
	s = reTagSeparators.ReplaceAllString(s, "-")
	s = reMultiHyphen.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// SanitizeText trims a free text value such as a search query. Inner spacing
// is kept because the value is matched as a substring.
func SanitizeText(input string) string {
	return Pipeline{stripControl, strings.TrimSpace}.Apply(input)
}

// SanitizeTag normalizes a category or amenity tag: "Swimming Pool" becomes "swimming-pool".
func SanitizeTag(input string) string {
	return Pipeline{stripControl, TrimAndNormalize, lower, hyphenate}.Apply(input)
}

// SanitizeReference trims an opaque reference such as an evidence URI or a caller id
// without otherwise interpreting it.
func SanitizeReference(input string) string {
	return Pipeline{stripControl, strings.TrimSpace}.Apply(input)
}
