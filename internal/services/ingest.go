package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdftools/internal/extract"
	"github.com/Lllllllleong/pdftools/internal/gcp"
	"github.com/Lllllllleong/pdftools/internal/models"
	"github.com/Lllllllleong/pdftools/internal/wordoc"
	"golang.org/x/sync/errgroup"
)

// IngestConfig holds configuration for the ingest function.
type IngestConfig struct {
	ExtractionConfig
	ProjectID      string
	OutputBucket   string
	CollectionName string
	WordFormat     wordoc.Format
	// StaleAfter is how long an EXTRACTING record may go without an update
	// before another invocation takes it over.
	StaleAfter time.Duration
}

// IngestFunction extracts the text of PDFs as they land in a bucket.
type IngestFunction struct {
	ledger    Ledger
	store     ObjectStore
	extractor *extract.Extractor
	config    IngestConfig
	now       func() time.Time
}

// GCSEvent is the payload of a Cloud Storage object finalized event.
type GCSEvent struct {
	Bucket      string `json:"bucket"`
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
}

// NewIngest creates a new IngestFunction instance.
func NewIngest(ctx context.Context) (*IngestFunction, error) {
	extraction, err := loadExtractionConfig()
	if err != nil {
		return nil, err
	}
	projectID := gcp.GetEnv("PROJECT_ID", "")
	if projectID == "" {
		return nil, fmt.Errorf("PROJECT_ID environment variable must be set")
	}
	format, err := wordoc.ParseFormat(gcp.GetEnv("WORD_FORMAT", ""), wordoc.FormatDOCX)
	if err != nil {
		return nil, fmt.Errorf("invalid WORD_FORMAT: %w", err)
	}
	config := IngestConfig{
		ExtractionConfig: extraction,
		ProjectID:        projectID,
		OutputBucket:     gcp.GetEnv("OUTPUT_BUCKET", ""),
		CollectionName:   gcp.GetEnv("FIRESTORE_COLLECTION", "documents"),
		WordFormat:       format,
		StaleAfter:       time.Duration(gcp.GetEnvInt("INGEST_STALE_SECONDS", 600)) * time.Second,
	}
	if config.OutputBucket == "" {
		return nil, fmt.Errorf("OUTPUT_BUCKET environment variable must be set")
	}

	client, documents, err := gcp.OpenCollection(ctx, config.ProjectID, config.CollectionName)
	if err != nil {
		return nil, fmt.Errorf("failed to open firestore collection: %w", err)
	}
	storageClient, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	f, err := newIngestFunction(config, NewFirestoreLedger(client, documents), NewGCSStore(storageClient))
	if err != nil {
		return nil, err
	}
	slog.Info("PDF ingest initialized.", "outputBucket", config.OutputBucket, "collection", config.CollectionName, "staleAfter", config.StaleAfter)
	return f, nil
}

func newIngestFunction(config IngestConfig, ledger Ledger, store ObjectStore) (*IngestFunction, error) {
	extractor, err := config.newExtractor()
	if err != nil {
		return nil, fmt.Errorf("failed to configure extractor: %w", err)
	}
	if config.StaleAfter <= 0 {
		config.StaleAfter = 10 * time.Minute
	}
	return &IngestFunction{
		ledger:    ledger,
		store:     store,
		extractor: extractor,
		config:    config,
		now:       time.Now,
	}, nil
}

// Process handles one uploaded object. Unreadable documents are recorded as
// FAILED without returning an error.
func (f *IngestFunction) Process(ctx context.Context, e GCSEvent) error {
	logCtx := slog.With("gcsBucket", e.Bucket, "gcsObject", e.Name)
	if !strings.HasSuffix(strings.ToLower(e.Name), ".pdf") {
		logCtx.Info("Not a PDF, skipping.")
		return nil
	}
	logCtx.Info("Processing new GCS object.")

	data, err := f.store.Read(ctx, e.Bucket, e.Name, f.config.MaxUploadBytes)
	if err != nil {
		logCtx.Error("Failed to download source PDF", "error", err)
		return err
	}

	fileHash := hashBytes(data)
	logCtx = logCtx.With("fileHash", fileHash)

	now := f.now()
	record := models.Document{
		FileHash:         fileHash,
		OriginalFilename: e.Name,
		SourceURI:        fmt.Sprintf("gs://%s/%s", e.Bucket, e.Name),
		Status:           models.StatusExtracting,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	docID, claimed, err := f.ledger.Claim(ctx, record, now.Add(-f.config.StaleAfter))
	if err != nil {
		logCtx.Error("Failed to claim Firestore document", "error", err)
		return err
	}
	if !claimed {
		logCtx.Info("Duplicate file detected. Skipping.", "existingDocId", docID)
		return nil
	}
	logCtx = logCtx.With("documentId", docID)
	logCtx.Info("Claimed master document in Firestore.")

	filename := path.Base(e.Name)
	doc, err := extractDocument(logCtx, f.extractor, filename, data)
	if err != nil {
		failure := f.handleError(ctx, logCtx, docID, "failed to extract text", err)
		if isPermanent(err) {
			return nil
		}
		return failure
	}

	outputs, err := buildOutputs(docID, filename, doc.Text, f.config.WordFormat)
	if err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to render document", err)
	}
	if err := f.writeOutputs(ctx, logCtx, outputs); err != nil {
		return f.handleError(ctx, logCtx, docID, "one or more outputs failed to upload", err)
	}

	result := models.Document{
		PageCount:      doc.Metadata.PageCount,
		CharacterCount: doc.Metadata.CharacterCount,
		ReadableRatio:  doc.Metadata.ReadableRatio,
		TextURI:        f.outputURI(outputs[0].object),
		WordURI:        f.outputURI(outputs[1].object),
		UpdatedAt:      f.now(),
	}
	if err := f.ledger.Complete(ctx, docID, result); err != nil {
		return f.handleError(ctx, logCtx, docID, "failed to update status to COMPLETED", err)
	}
	logCtx.Info("Ingest complete.", "pageCount", doc.Metadata.PageCount)
	return nil
}

// output is one object written for an ingested document.
type output struct {
	object      string
	contentType string
	data        []byte
}

// buildOutputs renders the text file and the word-processor file, in that order.
func buildOutputs(docID, filename, text string, format wordoc.Format) ([]output, error) {
	base := wordoc.BaseName(filename)
	rendered, err := wordoc.Render(format, base, text)
	if err != nil {
		return nil, err
	}
	return []output{
		{object: docID + "/text.txt", contentType: "text/plain; charset=utf-8", data: []byte(text)},
		{object: docID + "/" + base + rendered.Extension, contentType: rendered.ContentType, data: rendered.Data},
	}, nil
}

func (f *IngestFunction) writeOutputs(ctx context.Context, logCtx *slog.Logger, outputs []output) error {
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(len(outputs))
	for _, out := range outputs {
		eg.Go(func() error {
			if err := f.store.Write(gctx, f.config.OutputBucket, out.object, out.contentType, out.data); err != nil {
				return fmt.Errorf("%s: %w", out.object, err)
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}
	logCtx.Info("All outputs uploaded successfully.", "outputCount", len(outputs))
	return nil
}

func (f *IngestFunction) outputURI(object string) string {
	return fmt.Sprintf("gs://%s/%s", f.config.OutputBucket, object)
}

func (f *IngestFunction) handleError(ctx context.Context, logCtx *slog.Logger, docID, message string, originalErr error) error {
	fullError := fmt.Sprintf("%s: %v", message, originalErr)
	logCtx.Error(message, "error", originalErr)
	if err := f.ledger.Fail(ctx, docID, fullError, f.now()); err != nil {
		logCtx.Error("CRITICAL: Failed to update Firestore status to FAILED after a processing error.", "updateError", err)
	}
	return fmt.Errorf("%s: %w", message, originalErr)
}

// isPermanent reports extraction failures that will fail the same way again.
func isPermanent(err error) bool {
	var unreadable *extract.UnreadableError
	var decode *extract.DecodeError
	return errors.Is(err, extract.ErrNoFileProvided) || errors.As(err, &unreadable) || errors.As(err, &decode)
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
