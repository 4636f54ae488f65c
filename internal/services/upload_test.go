package services

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Lllllllleong/pdftools/internal/extract"
	"github.com/Lllllllleong/pdftools/internal/models"
)

func TestParseUpload(t *testing.T) {
	pdf := readablePDF(nil)
	tests := []struct {
		name       string
		part       filePart
		wantStatus int
	}{
		{"pdf media type", filePart{FieldPDF, "report.pdf", "application/pdf", pdf}, 0},
		{"octet-stream with pdf name and header", filePart{FieldPDF, "report.PDF", "application/octet-stream", pdf}, 0},
		{"octet-stream without pdf header", filePart{FieldPDF, "report.pdf", "application/octet-stream", []byte("hello")}, http.StatusBadRequest},
		{"text file", filePart{FieldPDF, "notes.txt", "text/plain", []byte("hello")}, http.StatusBadRequest},
		{"image named pdf", filePart{FieldPDF, "scan.pdf", "image/png", pdf}, http.StatusBadRequest},
		{"wrong field", filePart{"document", "report.pdf", "application/pdf", pdf}, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := multipartRequest(t, []filePart{tt.part}, nil)
			up, err := ParseUpload(httptest.NewRecorder(), req, FieldPDF, DefaultMaxUploadBytes)
			if tt.wantStatus != 0 {
				assertStatus(t, err, tt.wantStatus)
				return
			}
			if err != nil {
				t.Fatalf("ParseUpload: %v", err)
			}
			assertEqual(t, up.Filename, tt.part.filename)
			assertEqual(t, len(up.Data), len(pdf))
		})
	}
}

func TestParseUploadMissingFile(t *testing.T) {
	req := multipartRequest(t, nil, map[string]string{"question": "hi"})
	_, err := ParseUpload(httptest.NewRecorder(), req, FieldPDF, DefaultMaxUploadBytes)
	reqErr := assertStatus(t, err, http.StatusBadRequest)
	assertEqual(t, reqErr.Message, "No PDF file provided")
	if !errors.Is(err, extract.ErrNoFileProvided) {
		t.Errorf("expected ErrNoFileProvided in chain, got %v", err)
	}
}

func TestParseUploadTooLarge(t *testing.T) {
	part := filePart{FieldPDF, "big.pdf", "application/pdf", make([]byte, 4096)}
	req := multipartRequest(t, []filePart{part}, nil)
	_, err := ParseUpload(httptest.NewRecorder(), req, FieldPDF, 1024)
	assertStatus(t, err, http.StatusRequestEntityTooLarge)
}

func TestParseUploadsKeepsOrder(t *testing.T) {
	files := []filePart{
		{FieldFiles, "b.pdf", "application/pdf", readablePDF(nil)},
		{FieldFiles, "a.pdf", "application/pdf", readablePDF(nil)},
	}
	uploads, err := ParseUploads(httptest.NewRecorder(), multipartRequest(t, files, nil), FieldFiles, DefaultMaxUploadBytes)
	if err != nil {
		t.Fatalf("ParseUploads: %v", err)
	}
	assertEqual(t, len(uploads), 2)
	assertEqual(t, uploads[0].Filename, "b.pdf")
	assertEqual(t, uploads[1].Filename, "a.pdf")
}

func TestWithCORS(t *testing.T) {
	called := false
	handler := WithCORS(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodOptions, "/", nil))
	assertEqual(t, rec.Code, http.StatusNoContent)
	assertEqual(t, rec.Header().Get("Access-Control-Allow-Origin"), "*")
	assertEqual(t, rec.Header().Get("Access-Control-Allow-Headers"), allowedHeaders)
	assertEqual(t, called, false)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assertEqual(t, rec.Code, http.StatusMethodNotAllowed)

	rec = httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodPost, "/", nil))
	assertEqual(t, rec.Code, http.StatusOK)
	assertEqual(t, called, true)
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantMsg    string
	}{
		{"request error", badRequest("Please select only PDF files", nil), http.StatusBadRequest, "Please select only PDF files"},
		{"plain error", errors.New("boom"), http.StatusInternalServerError, "Internal server error"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			WriteError(rec, tt.err)
			assertEqual(t, rec.Code, tt.wantStatus)
			assertEqual(t, rec.Header().Get("Content-Type"), "application/json")
			var body models.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			assertEqual(t, body.Success, false)
			assertEqual(t, body.Error, tt.wantMsg)
		})
	}
}
