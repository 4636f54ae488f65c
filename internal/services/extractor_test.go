package services

import (
	"context"
	"net/http"
	"testing"
)

func newTestExtractor(t *testing.T, config ExtractionConfig) *ExtractorFunction {
	t.Helper()
	f, err := newExtractorFunction(config)
	if err != nil {
		t.Fatalf("newExtractorFunction: %v", err)
	}
	return f
}

func TestExtractorProcess(t *testing.T) {
	f := newTestExtractor(t, testExtractionConfig())
	up := &Upload{
		Filename:    "report.pdf",
		ContentType: "application/pdf",
		Data:        readablePDF(map[string]string{"Title": "Annual Report", "Producer": "pdftest"}),
	}

	resp, err := f.Process(context.Background(), up)
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertEqual(t, resp.Success, true)
	assertEqual(t, resp.Text, readableSentence)
	assertEqual(t, resp.Metadata.Title, "Annual Report")
	assertEqual(t, resp.Metadata.Author, "Unknown")
	assertEqual(t, resp.Metadata.Creator, "Unknown")
	assertEqual(t, resp.Metadata.Producer, "pdftest")
	assertEqual(t, resp.Metadata.PageCount, 1)
	assertEqual(t, resp.Metadata.CharacterCount, len(readableSentence))
	if resp.Metadata.ReadableRatio < 0.5 {
		t.Errorf("ReadableRatio = %v, expected a mostly alphanumeric text", resp.Metadata.ReadableRatio)
	}
}

func TestExtractorMetadataDefaults(t *testing.T) {
	f := newTestExtractor(t, testExtractionConfig())
	// Not a well-formed PDF, but the text is still found by the operator scan.
	data := []byte("%PDF-1.4\nBT (" + readableSentence + ") Tj ET\n%%EOF")

	resp, err := f.Process(context.Background(), &Upload{Filename: "notes.pdf", Data: data})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}
	assertEqual(t, resp.Metadata.Title, "notes.pdf")
	assertEqual(t, resp.Metadata.Author, "Unknown")
	assertEqual(t, resp.Metadata.Subject, "")
	assertEqual(t, resp.Metadata.PageCount, 1)
}

func TestExtractorFailures(t *testing.T) {
	f := newTestExtractor(t, testExtractionConfig())
	tests := []struct {
		name       string
		data       []byte
		wantStatus int
		wantMsg    string
	}{
		{"empty upload", nil, http.StatusBadRequest, "No PDF file provided"},
		{"scanned document", unreadablePDF(), http.StatusBadRequest, "The PDF seems scanned or unreadable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Process(context.Background(), &Upload{Filename: "x.pdf", Data: tt.data})
			reqErr := assertStatus(t, err, tt.wantStatus)
			assertContains(t, reqErr.Message, tt.wantMsg)
		})
	}
}

func TestExtractionConfigPolicy(t *testing.T) {
	config := testExtractionConfig()
	config.ReadabilityPolicy = "paranoid"
	if _, err := newExtractorFunction(config); err == nil {
		t.Fatal("expected an error for an unknown policy")
	}

	config.ReadabilityPolicy = PolicyStrict
	f := newTestExtractor(t, config)
	assertEqual(t, f.extractor.Policy().RequireBoth, true)
}

func TestLoadExtractionConfig(t *testing.T) {
	t.Setenv("MAX_UPLOAD_BYTES", "1048576")
	t.Setenv("FALLBACK_THRESHOLD", "80")
	t.Setenv("READABILITY_POLICY", "STRICT")

	config, err := loadExtractionConfig()
	if err != nil {
		t.Fatalf("loadExtractionConfig: %v", err)
	}
	assertEqual(t, config.MaxUploadBytes, int64(1048576))
	assertEqual(t, config.FallbackThreshold, 80)
	assertEqual(t, config.MinFallbackLiteral, 2)
	assertEqual(t, config.ReadabilityPolicy, PolicyStrict)

	t.Setenv("MAX_UPLOAD_BYTES", "0")
	if _, err := loadExtractionConfig(); err == nil {
		t.Error("expected an error for a zero upload limit")
	}
}
