package services

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/Lllllllleong/pdftools/internal/extract"
	"github.com/Lllllllleong/pdftools/internal/pdfdoc"
)

// Multipart field names.
const (
	FieldPDF   = "pdf"
	FieldFiles = "files"
)

// DefaultMaxUploadBytes bounds a whole multipart request.
const DefaultMaxUploadBytes int64 = 25 << 20

// multipartMemory is how much of a form is held in memory before spilling to disk.
const multipartMemory = 8 << 20

// Upload is one PDF received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Data        []byte
}

// IsMultipart reports whether r carries a multipart/form-data body.
func IsMultipart(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "multipart/form-data"
}

// ParseUploads reads every file sent under field. The whole request body is
// limited to maxBytes. Each file must declare a PDF media type.
func ParseUploads(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) ([]Upload, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, &RequestError{
				Status:  http.StatusRequestEntityTooLarge,
				Message: fmt.Sprintf("File is too large. The limit is %d MB.", maxBytes>>20),
				Err:     err,
			}
		}
		return nil, badRequest("Expected a multipart/form-data request", err)
	}

	headers := r.MultipartForm.File[field]
	if len(headers) == 0 {
		return nil, badRequest("No PDF file provided", extract.ErrNoFileProvided)
	}
	uploads := make([]Upload, 0, len(headers))
	for _, fh := range headers {
		up, err := readUpload(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, up)
	}
	return uploads, nil
}

// ParseUpload reads the single file sent under field.
func ParseUpload(w http.ResponseWriter, r *http.Request, field string, maxBytes int64) (*Upload, error) {
	uploads, err := ParseUploads(w, r, field, maxBytes)
	if err != nil {
		return nil, err
	}
	return &uploads[0], nil
}

func readUpload(fh *multipart.FileHeader) (Upload, error) {
	file, err := fh.Open()
	if err != nil {
		return Upload{}, internalError("Failed to read uploaded file", err)
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		return Upload{}, internalError("Failed to read uploaded file", err)
	}
	up := Upload{
		Filename:    filepath.Base(fh.Filename),
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}
	if !up.isPDF() {
		return Upload{}, badRequest("Please select only PDF files", fmt.Errorf("%s has media type %q", up.Filename, up.ContentType))
	}
	return up, nil
}

// isPDF checks the declared media type. Browsers sometimes send PDFs as
// octet-stream, which is accepted when the name and header agree.
func (u Upload) isPDF() bool {
	mediaType, _, err := mime.ParseMediaType(u.ContentType)
	if err != nil {
		mediaType = ""
	}
	switch mediaType {
	case "application/pdf":
		return true
	case "", "application/octet-stream":
		return strings.EqualFold(filepath.Ext(u.Filename), ".pdf") && pdfdoc.IsPDF(u.Data)
	default:
		return false
	}
}
