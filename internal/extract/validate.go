package extract

import (
	"strings"
	"unicode/utf8"
)

// Verdict reasons.
const (
	ReasonTooShort       = "too short"
	ReasonLowReadability = "low readability"
)

// Verdict is the outcome of a readability check.
type Verdict struct {
	Readable       bool
	Reason         string
	ReadableRatio  float64
	CommonWordHits int
}

// Policy configures the readability check.
type Policy struct {
	// MinLength is the minimum number of characters; shorter text is "too short".
	MinLength int
	// MinRatio is the lowest accepted share of alphanumeric characters.
	MinRatio float64
	// RatioCountsWhitespace counts whitespace as readable when computing the ratio.
	RatioCountsWhitespace bool
	// MinCommonWords is the number of distinct CommonWords that must appear.
	MinCommonWords int
	// RequireBoth demands both signals instead of either one.
	RequireBoth bool
	CommonWords []string
}

// LenientPolicy accepts text when either the character ratio or the common word
// signal passes.
func LenientPolicy() Policy {
	return Policy{
		MinLength:      20,
		MinRatio:       0.15,
		MinCommonWords: 2,
		CommonWords:    []string{"the", "and", "or", "to", "of", "in", "a", "is", "that", "for", "as", "with", "by"},
	}
}

// StrictPolicy requires long text that passes both signals.
func StrictPolicy() Policy {
	return Policy{
		MinLength:             100,
		MinRatio:              0.5,
		RatioCountsWhitespace: true,
		MinCommonWords:        3,
		RequireBoth:           true,
		CommonWords:           []string{"the", "and", "or", "to", "a", "an", "is", "in", "on", "at", "for", "with", "by"},
	}
}

// Validate decides whether text looks like prose rather than binary noise.
func Validate(text string, p Policy) Verdict {
	total := utf8.RuneCountInString(text)
	if total < p.MinLength || total == 0 {
		return Verdict{Reason: ReasonTooShort}
	}

	v := Verdict{
		ReadableRatio:  ReadableRatio(text, p.RatioCountsWhitespace),
		CommonWordHits: CountCommonWords(text, p.CommonWords),
	}
	ratioOK := v.ReadableRatio >= p.MinRatio
	wordsOK := v.CommonWordHits >= p.MinCommonWords

	if p.RequireBoth {
		v.Readable = ratioOK && wordsOK
	} else {
		v.Readable = ratioOK || wordsOK
	}
	if !v.Readable {
		v.Reason = ReasonLowReadability
	}
	return v
}

// ReadableRatio is the share of [A-Za-z0-9] characters in text, optionally
// counting whitespace as readable too.
func ReadableRatio(text string, countWhitespace bool) float64 {
	var total, readable int
	for _, r := range text {
		total++
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			readable++
		case countWhitespace && (r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'):
			readable++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(readable) / float64(total)
}

// CountCommonWords reports how many of words occur in text as whole words,
// ignoring case. Each word counts at most once.
func CountCommonWords(text string, words []string) int {
	present := make(map[string]struct{})
	for _, tok := range strings.FieldsFunc(strings.ToLower(text), isNotWordChar) {
		present[tok] = struct{}{}
	}
	hits := 0
	for _, w := range words {
		if _, ok := present[strings.ToLower(w)]; ok {
			hits++
		}
	}
	return hits
}

func isNotWordChar(r rune) bool {
	return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '_')
}
