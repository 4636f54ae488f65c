package extract

import (
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// decodeLatin1 maps every byte to exactly one character. PDF syntax tokens are
// single-byte ASCII whatever the payload encoding is, so this keeps offsets of
// operators and delimiters intact.
func decodeLatin1(data []byte) (string, error) {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("latin-1 decode: %w", err)
	}
	return string(out), nil
}
