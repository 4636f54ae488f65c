package ai

import (
	"strings"
	"unicode/utf8"
)

// DefaultMaxContextChars bounds how much document text goes into one prompt.
const DefaultMaxContextChars = 30000

const truncationMarker = " ...[content truncated]"

// BuildPrompt embeds the document text and the question in the user turn.
func BuildPrompt(req Request, maxContextChars int) string {
	var b strings.Builder
	b.WriteString("Here is the content extracted from a PDF document:\n\n")
	b.WriteString(Truncate(req.Context, maxContextChars))
	b.WriteString("\n\nUser Question: ")
	b.WriteString(strings.TrimSpace(req.Question))
	b.WriteString("\n\nPlease provide a helpful and accurate answer based on the PDF content above. ")
	b.WriteString("If the answer cannot be found in the document, please say so clearly.")
	return b.String()
}

// Truncate keeps the first max characters of s and marks the cut.
// A non-positive max disables truncation.
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	n := 0
	for i := range s {
		if n == max {
			return s[:i] + truncationMarker
		}
		n++
	}
	return s
}

var refusalPhrases = []string{
	"i am unable to",
	"i cannot fulfill",
	"i cannot provide",
	"as a large language model",
	"as an ai language model",
}

// LooksLikeRefusal reports whether an answer reads as a model refusal.
func LooksLikeRefusal(answer string) bool {
	lower := strings.ToLower(answer)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}
