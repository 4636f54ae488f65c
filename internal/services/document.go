package services

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/Lllllllleong/pdftools/internal/extract"
	"github.com/Lllllllleong/pdftools/internal/gcp"
	"github.com/Lllllllleong/pdftools/internal/models"
	"github.com/Lllllllleong/pdftools/internal/pdfdoc"
)

// Readability policy names accepted in READABILITY_POLICY.
const (
	PolicyLenient = "lenient"
	PolicyStrict  = "strict"
)

// ExtractionConfig holds the settings shared by every function that extracts text.
type ExtractionConfig struct {
	MaxUploadBytes     int64
	FallbackThreshold  int
	MinFallbackLiteral int
	ReadabilityPolicy  string
}

func loadExtractionConfig() (ExtractionConfig, error) {
	config := ExtractionConfig{
		MaxUploadBytes:     gcp.GetEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		FallbackThreshold:  gcp.GetEnvInt("FALLBACK_THRESHOLD", extract.DefaultFallbackThreshold),
		MinFallbackLiteral: gcp.GetEnvInt("MIN_FALLBACK_LITERAL", extract.DefaultMinFallbackLiteral),
		ReadabilityPolicy:  strings.ToLower(gcp.GetEnv("READABILITY_POLICY", PolicyLenient)),
	}
	if config.MaxUploadBytes <= 0 {
		return config, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", config.MaxUploadBytes)
	}
	if config.FallbackThreshold < 0 || config.MinFallbackLiteral < 0 {
		return config, fmt.Errorf("FALLBACK_THRESHOLD and MIN_FALLBACK_LITERAL must not be negative")
	}
	if _, err := config.policy(); err != nil {
		return config, err
	}
	return config, nil
}

func (c ExtractionConfig) policy() (extract.Policy, error) {
	switch c.ReadabilityPolicy {
	case "", PolicyLenient:
		return extract.LenientPolicy(), nil
	case PolicyStrict:
		return extract.StrictPolicy(), nil
	default:
		return extract.Policy{}, fmt.Errorf("READABILITY_POLICY must be %q or %q, got %q", PolicyLenient, PolicyStrict, c.ReadabilityPolicy)
	}
}

// newExtractor builds the extractor described by the config.
func (c ExtractionConfig) newExtractor() (*extract.Extractor, error) {
	policy, err := c.policy()
	if err != nil {
		return nil, err
	}
	return extract.New(
		extract.WithFallbackThreshold(c.FallbackThreshold),
		extract.WithMinFallbackLiteral(c.MinFallbackLiteral),
		extract.WithPolicy(policy),
	), nil
}

// DocumentText is a document's extracted text together with its metadata.
type DocumentText struct {
	Text     string
	Metadata models.Metadata
	Result   *extract.Result
}

// extractDocument runs the extractor and reads the document information
// dictionary. Extraction errors are returned unchanged.
func extractDocument(logCtx *slog.Logger, extractor *extract.Extractor, filename string, data []byte) (*DocumentText, error) {
	res, err := extractor.Extract(data)
	if err != nil {
		return nil, err
	}
	logCtx.Info("Text extracted.",
		"characters", len(res.Text),
		"operatorChars", res.OperatorChars,
		"fallbackUsed", res.FallbackUsed,
		"readableRatio", res.Verdict.ReadableRatio,
		"commonWords", res.Verdict.CommonWordHits,
	)
	return &DocumentText{
		Text:     res.Text,
		Metadata: buildMetadata(logCtx, filename, data, res),
		Result:   res,
	}, nil
}

// buildMetadata fills the response metadata. Documents pdfcpu cannot read still
// get a title from their file name and a page count of one.
func buildMetadata(logCtx *slog.Logger, filename string, data []byte, res *extract.Result) models.Metadata {
	meta := models.Metadata{
		Title:          filename,
		Author:         "Unknown",
		Creator:        "Unknown",
		Producer:       "Unknown",
		PageCount:      1,
		CharacterCount: len(res.Text),
		ReadableRatio:  res.Verdict.ReadableRatio,
	}
	info, err := pdfdoc.Inspect(data)
	if err != nil {
		logCtx.Warn("Could not read PDF structure, using default metadata.", "error", err)
		return meta
	}
	if info.PageCount > 0 {
		meta.PageCount = info.PageCount
	}
	meta.Title = firstNonEmpty(info.Title, meta.Title)
	meta.Author = firstNonEmpty(info.Author, meta.Author)
	meta.Subject = info.Subject
	meta.Creator = firstNonEmpty(info.Creator, meta.Creator)
	meta.Producer = firstNonEmpty(info.Producer, meta.Producer)
	return meta
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
