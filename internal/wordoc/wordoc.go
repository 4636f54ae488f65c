// Package wordoc renders extracted text as documents a word processor can open.
package wordoc

import (
	"fmt"
	"strings"
)

// Format is an output document format.
type Format string

const (
	FormatDOCX Format = "docx"
	FormatRTF  Format = "rtf"
)

const (
	ContentTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	ContentTypeRTF  = "application/rtf"
)

// maxParagraph is the length after which a paragraph is broken at the next
// sentence end. Extracted text arrives as one long run.
const maxParagraph = 1000

// Document is a rendered file.
type Document struct {
	Data        []byte
	ContentType string
	Extension   string
}

// ParseFormat maps a user-supplied name to a Format. The empty string selects def.
func ParseFormat(s string, def Format) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "":
		return def, nil
	case FormatDOCX, "word":
		return FormatDOCX, nil
	case FormatRTF:
		return FormatRTF, nil
	default:
		return "", fmt.Errorf("unsupported document format %q (expected docx or rtf)", s)
	}
}

// Render builds a document with a bold title followed by the text.
func Render(format Format, title, text string) (*Document, error) {
	paragraphs := Paragraphs(text)
	switch format {
	case FormatDOCX:
		data, err := renderDOCX(title, paragraphs)
		if err != nil {
			return nil, err
		}
		return &Document{Data: data, ContentType: ContentTypeDOCX, Extension: ".docx"}, nil
	case FormatRTF:
		return &Document{Data: renderRTF(title, paragraphs), ContentType: ContentTypeRTF, Extension: ".rtf"}, nil
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

// BaseName strips a trailing .pdf extension, in any case, from a file name.
func BaseName(filename string) string {
	name := strings.TrimSpace(filename)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if len(name) > 4 && strings.EqualFold(name[len(name)-4:], ".pdf") {
		name = name[:len(name)-4]
	}
	if name == "" {
		return "document"
	}
	return name
}

// Paragraphs splits text on blank lines, then breaks long paragraphs at the
// first sentence end past maxParagraph characters. Lines inside a paragraph
// are kept.
func Paragraphs(text string) [][]string {
	var out [][]string
	for _, block := range strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		for _, para := range splitLong(block) {
			var lines []string
			for _, line := range strings.Split(para, "\n") {
				if line = strings.TrimSpace(line); line != "" {
					lines = append(lines, line)
				}
			}
			out = append(out, lines)
		}
	}
	return out
}

func splitLong(block string) []string {
	var parts []string
	for len(block) > maxParagraph {
		cut := strings.Index(block[maxParagraph:], ". ")
		if cut < 0 {
			break
		}
		cut += maxParagraph + 1
		parts = append(parts, strings.TrimSpace(block[:cut]))
		block = strings.TrimSpace(block[cut:])
	}
	if block != "" {
		parts = append(parts, block)
	}
	return parts
}
