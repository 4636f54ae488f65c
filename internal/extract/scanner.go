package extract

import (
	"regexp"
	"strings"
)

// literalBody matches the inside of a PDF string literal: anything but bare
// parentheses or backslashes, or a backslash escape. Balanced unescaped
// parentheses inside a literal are not supported.
const literalBody = `((?:[^()\\]|\\.)*)`

var (
	textBlockRegex   = regexp.MustCompile(`(?s)\bBT\b(.*?)\bET\b`)
	showTextRegex    = regexp.MustCompile(`(?s)\(` + literalBody + `\)\s*Tj`)
	showLiteralRegex = regexp.MustCompile(`(?s)\(` + literalBody + `\)\s*TJ`)
	showArrayRegex   = regexp.MustCompile(`(?s)\[((?:[^\[\]\\]|\\.)*)\]\s*TJ`)
	literalRegex     = regexp.MustCompile(`(?s)\(` + literalBody + `\)`)
	streamRegex      = regexp.MustCompile(`(?s)stream(.*?)endstream`)
)

// scanOperators appends the text of every Tj/TJ operation found inside BT…ET
// blocks to out, one space after each literal. Reading order, spacing and
// completeness are best effort.
func scanOperators(doc string, out *strings.Builder) {
	for _, block := range textBlockRegex.FindAllStringSubmatch(doc, -1) {
		body := block[1]
		for _, m := range showTextRegex.FindAllStringSubmatch(body, -1) {
			appendLiteral(out, UnescapeLiteral(m[1]))
		}
		for _, m := range showLiteralRegex.FindAllStringSubmatch(body, -1) {
			appendLiteral(out, UnescapeLiteral(m[1]))
		}
		for _, m := range showArrayRegex.FindAllStringSubmatch(body, -1) {
			appendLiteral(out, joinArrayLiterals(m[1]))
		}
	}
}

// joinArrayLiterals concatenates the strings of a TJ array, skipping the
// numeric kerning adjustments between them.
func joinArrayLiterals(array string) string {
	var b strings.Builder
	for _, m := range literalRegex.FindAllStringSubmatch(array, -1) {
		b.WriteString(UnescapeLiteral(m[1]))
	}
	return b.String()
}

// scanStreams appends every parenthesized run found inside stream…endstream
// regions whose cleaned text is longer than minLen and has a letter in it.
// BT…ET blocks belong to scanOperators and are skipped, so no literal is
// emitted twice. Compressed streams produce nothing here.
func scanStreams(doc string, minLen int, out *strings.Builder) {
	for _, region := range streamRegex.FindAllStringSubmatch(doc, -1) {
		body := textBlockRegex.ReplaceAllString(region[1], " ")
		for _, m := range literalRegex.FindAllStringSubmatch(body, -1) {
			clean := strings.TrimSpace(UnescapeLiteral(m[1]))
			if len(clean) > minLen && hasASCIILetter(clean) {
				appendLiteral(out, clean)
			}
		}
	}
}

func appendLiteral(out *strings.Builder, s string) {
	out.WriteString(s)
	out.WriteByte(' ')
}

func hasASCIILetter(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			return true
		}
	}
	return false
}
