package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Lllllllleong/pdftools/internal/extract"
	"github.com/Lllllllleong/pdftools/internal/models"
)

// ExtractorFunction holds dependencies for the text extraction logic.
type ExtractorFunction struct {
	extractor *extract.Extractor
	config    ExtractionConfig
}

// NewExtractor creates a new ExtractorFunction instance from the environment.
func NewExtractor(ctx context.Context) (*ExtractorFunction, error) {
	config, err := loadExtractionConfig()
	if err != nil {
		return nil, err
	}
	return newExtractorFunction(config)
}

func newExtractorFunction(config ExtractionConfig) (*ExtractorFunction, error) {
	extractor, err := config.newExtractor()
	if err != nil {
		return nil, fmt.Errorf("failed to configure extractor: %w", err)
	}
	slog.Info("PDF extractor initialized.", "policy", config.ReadabilityPolicy, "fallbackThreshold", config.FallbackThreshold)
	return &ExtractorFunction{extractor: extractor, config: config}, nil
}

// MaxUploadBytes is the request body limit.
func (f *ExtractorFunction) MaxUploadBytes() int64 { return f.config.MaxUploadBytes }

// Process extracts the text and metadata of one uploaded PDF.
func (f *ExtractorFunction) Process(ctx context.Context, up *Upload) (*models.ExtractResponse, error) {
	logCtx := slog.With("file", up.Filename, "size", len(up.Data))
	logCtx.Info("Extracting text.")

	doc, err := extractDocument(logCtx, f.extractor, up.Filename, up.Data)
	if err != nil {
		return nil, extractMessages.classify(err)
	}
	return &models.ExtractResponse{
		Success:  true,
		Text:     doc.Text,
		Metadata: doc.Metadata,
	}, nil
}
