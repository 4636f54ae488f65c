package extract

import "strings"

// literalUnescaper resolves the escapes found in PDF string literals in a single
// left-to-right pass. At any position the earliest listed rule wins, so "\\(" is
// read as an escaped backslash followed by a bare parenthesis.
//
// Octal escapes and line continuations are left as they are.
var literalUnescaper = strings.NewReplacer(
	`\n`, " ",
	`\r`, " ",
	`\t`, " ",
	`\(`, "(",
	`\)`, ")",
	`\\`, `\`,
)

// UnescapeLiteral returns the text value of the body of a parenthesized PDF string.
func UnescapeLiteral(raw string) string {
	if !strings.Contains(raw, `\`) {
		return raw
	}
	return literalUnescaper.Replace(raw)
}
