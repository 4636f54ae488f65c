package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/pdftools/internal/extract"
	"github.com/Lllllllleong/pdftools/internal/gcp"
	"github.com/Lllllllleong/pdftools/internal/models"
	"github.com/Lllllllleong/pdftools/internal/wordoc"
)

// ConverterConfig holds configuration for the PDF to Word conversion.
type ConverterConfig struct {
	ExtractionConfig
	DefaultFormat wordoc.Format
}

// ConverterFunction holds dependencies for the conversion logic.
type ConverterFunction struct {
	extractor *extract.Extractor
	config    ConverterConfig
}

// NewConverter creates a new ConverterFunction instance from the environment.
func NewConverter(ctx context.Context) (*ConverterFunction, error) {
	extraction, err := loadExtractionConfig()
	if err != nil {
		return nil, err
	}
	format, err := wordoc.ParseFormat(gcp.GetEnv("WORD_FORMAT", ""), wordoc.FormatDOCX)
	if err != nil {
		return nil, fmt.Errorf("invalid WORD_FORMAT: %w", err)
	}
	return newConverterFunction(ConverterConfig{ExtractionConfig: extraction, DefaultFormat: format})
}

func newConverterFunction(config ConverterConfig) (*ConverterFunction, error) {
	extractor, err := config.newExtractor()
	if err != nil {
		return nil, fmt.Errorf("failed to configure extractor: %w", err)
	}
	if config.DefaultFormat == "" {
		config.DefaultFormat = wordoc.FormatDOCX
	}
	slog.Info("PDF to Word converter initialized.", "format", config.DefaultFormat)
	return &ConverterFunction{extractor: extractor, config: config}, nil
}

// MaxUploadBytes is the request body limit.
func (f *ConverterFunction) MaxUploadBytes() int64 { return f.config.MaxUploadBytes }

// Convert extracts the text of a PDF and renders it as a word-processor document.
// An empty format selects the configured default.
func (f *ConverterFunction) Convert(ctx context.Context, up *Upload, format string) (*wordoc.Document, string, error) {
	logCtx := slog.With("file", up.Filename, "size", len(up.Data))

	outFormat, err := wordoc.ParseFormat(format, f.config.DefaultFormat)
	if err != nil {
		return nil, "", badRequest("Unsupported output format. Use docx or rtf.", err)
	}

	doc, err := extractDocument(logCtx, f.extractor, up.Filename, up.Data)
	if err != nil {
		return nil, "", convertMessages.classify(err)
	}

	title := wordoc.BaseName(up.Filename)
	rendered, err := wordoc.Render(outFormat, title, doc.Text)
	if err != nil {
		return nil, "", internalError(fmt.Sprintf("Conversion failed: %v", err), err)
	}
	logCtx.Info("Document rendered.", "format", outFormat, "bytes", len(rendered.Data))
	return rendered, title + rendered.Extension, nil
}

// Process converts an upload and returns the document base64 encoded.
func (f *ConverterFunction) Process(ctx context.Context, up *Upload, format string) (*models.ConvertResponse, error) {
	rendered, filename, err := f.Convert(ctx, up, format)
	if err != nil {
		return nil, err
	}
	return &models.ConvertResponse{
		Success:      true,
		WordDocument: base64.StdEncoding.EncodeToString(rendered.Data),
		Filename:     filename,
		ContentType:  rendered.ContentType,
	}, nil
}
