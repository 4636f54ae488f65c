package extract

import (
	"errors"
	"fmt"
)

// ErrNoFileProvided is returned when Extract is called without any bytes.
var ErrNoFileProvided = errors.New("no PDF file provided")

// DecodeError reports an unexpected failure while decoding or scanning a document.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode failure: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// UnreadableError is returned when the extracted text fails the readability check.
// Text is the normalized text that was rejected.
type UnreadableError struct {
	Verdict Verdict
	Text    string
}

func (e *UnreadableError) Error() string {
	return fmt.Sprintf("unreadable: %s", e.Verdict.Reason)
}
