package wordoc

import (
	"fmt"
	"strings"
)

const rtfHeader = "{\\rtf1\\ansi\\deff0\n" +
	"{\\fonttbl{\\f0\\froman\\fcharset0 Times New Roman;}}\n" +
	"{\\colortbl;\\red0\\green0\\blue0;}\n" +
	"\\f0\\fs24\n"

func renderRTF(title string, paragraphs [][]string) []byte {
	var b strings.Builder
	b.WriteString(rtfHeader)
	fmt.Fprintf(&b, "{\\b\\fs32 %s\\par}\n\\par\n", escapeRTF(title))
	for _, lines := range paragraphs {
		for i, line := range lines {
			if i > 0 {
				b.WriteString("\\line ")
			}
			b.WriteString(escapeRTF(line))
		}
		b.WriteString("\\par\n")
	}
	b.WriteString("}")
	return []byte(b.String())
}

// escapeRTF escapes control characters and writes non-ASCII runes as \uN?
// with N as a signed 16-bit value.
func escapeRTF(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\\' || r == '{' || r == '}':
			b.WriteByte('\\')
			b.WriteRune(r)
		case r < 0x80:
			b.WriteRune(r)
		case r <= 0xffff:
			fmt.Fprintf(&b, "\\u%d?", int16(r))
		default:
			// Outside the BMP: emit the UTF-16 surrogate pair.
			r -= 0x10000
			fmt.Fprintf(&b, "\\u%d?\\u%d?", int16(0xd800+(r>>10)), int16(0xdc00+(r&0x3ff)))
		}
	}
	return b.String()
}
