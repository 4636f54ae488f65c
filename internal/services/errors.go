package services

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Lllllllleong/pdftools/internal/extract"
)

// RequestError is a failure that should be reported to the caller with a
// specific status code and message.
type RequestError struct {
	Status  int
	Message string
	Err     error
}

func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *RequestError) Unwrap() error { return e.Err }

func badRequest(message string, err error) *RequestError {
	return &RequestError{Status: http.StatusBadRequest, Message: message, Err: err}
}

func internalError(message string, err error) *RequestError {
	return &RequestError{Status: http.StatusInternalServerError, Message: message, Err: err}
}

// extractionMessages holds the wording one function uses for extraction failures.
type extractionMessages struct {
	unreadable    string
	failurePrefix string
}

var (
	extractMessages = extractionMessages{
		unreadable: "The PDF seems scanned or unreadable. The extracted text appears to be garbled or contains mostly non-text content. " +
			"Please try a different PDF with selectable text, or use an OCR tool to convert scanned documents first.",
		failurePrefix: "Failed to process PDF",
	}
	convertMessages = extractionMessages{
		unreadable: "The PDF seems scanned or unreadable. Cannot generate a meaningful Word document from this content. " +
			"Please try a different PDF with selectable text.",
		failurePrefix: "Conversion failed",
	}
	chatMessages = extractionMessages{
		unreadable: "The PDF content appears to be garbled or unreadable. This usually happens with scanned PDFs or PDFs with complex formatting. " +
			"Please try a different PDF with selectable text.",
		failurePrefix: "Failed to process PDF",
	}
)

// classify maps an extraction failure to the status code and message shown to the user.
func (m extractionMessages) classify(err error) *RequestError {
	var unreadable *extract.UnreadableError
	switch {
	case errors.Is(err, extract.ErrNoFileProvided):
		return badRequest("No PDF file provided", err)
	case errors.As(err, &unreadable):
		return badRequest(m.unreadable, err)
	default:
		return internalError(fmt.Sprintf("%s: %v. Please ensure the file is a valid PDF with extractable text.", m.failurePrefix, err), err)
	}
}
