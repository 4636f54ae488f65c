package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdftools/internal/gcp"
	"github.com/Lllllllleong/pdftools/internal/models"
	"github.com/Lllllllleong/pdftools/internal/pdfdoc"
	"golang.org/x/sync/errgroup"
)

// MergedFilename is the name the merged document is offered under.
const MergedFilename = "merged-document.pdf"

// MergerConfig holds configuration for the merge function.
type MergerConfig struct {
	MaxUploadBytes   int64
	OutputBucket     string
	FetchConcurrency int
	FetchAttempts    int
	InitialBackoff   time.Duration
}

// MergerFunction combines several PDFs into one.
type MergerFunction struct {
	config MergerConfig

	// The storage client is only needed for gs:// sources and saved output,
	// so it is created on first use. A failed attempt is retried on the next request.
	storeMu  sync.Mutex
	store    ObjectStore
	newStore func(ctx context.Context) (ObjectStore, error)
}

// MergeResult is a merged document.
type MergeResult struct {
	Data      []byte
	Filename  string
	PageCount int
	// OutputURI is set when the result was also saved to OUTPUT_BUCKET.
	OutputURI string
}

// NewMerger creates a new MergerFunction instance from the environment.
func NewMerger(ctx context.Context) (*MergerFunction, error) {
	config := MergerConfig{
		MaxUploadBytes:   gcp.GetEnvInt64("MAX_UPLOAD_BYTES", DefaultMaxUploadBytes),
		OutputBucket:     gcp.GetEnv("OUTPUT_BUCKET", ""),
		FetchConcurrency: 10,
		FetchAttempts:    3,
		InitialBackoff:   time.Second,
	}
	if config.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", config.MaxUploadBytes)
	}
	f := newMergerFunction(config, nil)
	f.newStore = func(ctx context.Context) (ObjectStore, error) {
		client, err := storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to create storage client: %w", err)
		}
		return NewGCSStore(client), nil
	}
	slog.Info("PDF merger initialized.", "outputBucket", config.OutputBucket)
	return f, nil
}

func newMergerFunction(config MergerConfig, store ObjectStore) *MergerFunction {
	if config.FetchConcurrency <= 0 {
		config.FetchConcurrency = 10
	}
	if config.FetchAttempts <= 0 {
		config.FetchAttempts = 1
	}
	f := &MergerFunction{config: config}
	if store != nil {
		f.newStore = func(context.Context) (ObjectStore, error) { return store, nil }
	}
	return f
}

// MaxUploadBytes is the request body limit.
func (f *MergerFunction) MaxUploadBytes() int64 { return f.config.MaxUploadBytes }

// objectStore returns the shared store, creating it if needed. The client
// outlives the request, so it is built on a background context.
func (f *MergerFunction) objectStore() (ObjectStore, error) {
	f.storeMu.Lock()
	defer f.storeMu.Unlock()
	if f.store != nil {
		return f.store, nil
	}
	if f.newStore == nil {
		return nil, errors.New("object storage is not configured")
	}
	store, err := f.newStore(context.Background())
	if err != nil {
		return nil, err
	}
	f.store = store
	return store, nil
}

// ProcessUploads merges uploaded PDFs in upload order.
func (f *MergerFunction) ProcessUploads(ctx context.Context, uploads []Upload) (*MergeResult, error) {
	docs := make([][]byte, len(uploads))
	for i, up := range uploads {
		docs[i] = up.Data
	}
	return f.merge(ctx, slog.With("source", "upload", "fileCount", len(uploads)), docs)
}

// ProcessGCS merges PDFs that already live in Cloud Storage, named either one
// by one or by a gs:// prefix.
func (f *MergerFunction) ProcessGCS(ctx context.Context, req *models.MergeRequest) (*MergeResult, error) {
	if len(req.Sources) == 0 && req.Prefix == "" {
		return nil, badRequest("Please provide sources or a prefix to merge", nil)
	}
	store, err := f.objectStore()
	if err != nil {
		return nil, internalError("Storage is unavailable", err)
	}
	logCtx := slog.With("source", "gcs", "prefix", req.Prefix)

	sources, err := f.resolveSources(ctx, store, req)
	if err != nil {
		return nil, err
	}
	logCtx = logCtx.With("fileCount", len(sources))
	if len(sources) < 2 {
		return nil, badRequest("Please select at least 2 PDF files to merge", pdfdoc.ErrNotEnoughInputs)
	}

	logCtx.Info("Fetching source PDFs.")
	docs := make([][]byte, len(sources))
	eg, gctx := errgroup.WithContext(ctx)
	eg.SetLimit(f.config.FetchConcurrency)
	for i, src := range sources {
		eg.Go(func() error {
			data, err := f.fetchWithRetry(gctx, store, src)
			if err != nil {
				return err
			}
			docs[i] = data
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		logCtx.Error("Failed to fetch source PDFs", "error", err)
		return nil, internalError("Failed to read one or more source PDFs", err)
	}
	return f.merge(ctx, logCtx, docs)
}

type objectRef struct {
	bucket, object string
}

func (o objectRef) String() string { return fmt.Sprintf("gs://%s/%s", o.bucket, o.object) }

func (f *MergerFunction) resolveSources(ctx context.Context, store ObjectStore, req *models.MergeRequest) ([]objectRef, error) {
	if req.Prefix != "" {
		bucket, prefix, err := gcp.ParseGCSURI(req.Prefix)
		if err != nil {
			return nil, badRequest("Invalid prefix, expected gs://bucket/path/", err)
		}
		names, err := store.List(ctx, bucket, prefix, ".pdf")
		if err != nil {
			return nil, internalError("Failed to list source PDFs", err)
		}
		refs := make([]objectRef, len(names))
		for i, name := range names {
			refs[i] = objectRef{bucket: bucket, object: name}
		}
		return refs, nil
	}

	refs := make([]objectRef, 0, len(req.Sources))
	for _, src := range req.Sources {
		bucket, object, err := gcp.ParseGCSURI(src)
		if err != nil || object == "" {
			return nil, badRequest(fmt.Sprintf("Invalid source %q, expected gs://bucket/object.pdf", src), err)
		}
		refs = append(refs, objectRef{bucket: bucket, object: object})
	}
	return refs, nil
}

func (f *MergerFunction) fetchWithRetry(ctx context.Context, store ObjectStore, src objectRef) ([]byte, error) {
	backoff := f.config.InitialBackoff
	var lastErr error
	for attempt := 1; attempt <= f.config.FetchAttempts; attempt++ {
		data, err := store.Read(ctx, src.bucket, src.object, f.config.MaxUploadBytes)
		if err == nil {
			if !pdfdoc.IsPDF(data) {
				return nil, fmt.Errorf("%s is not a PDF", src)
			}
			return data, nil
		}
		lastErr = err
		if attempt == f.config.FetchAttempts {
			break
		}
		slog.Warn("Download failed, will retry.",
			"gcsObject", src.String(),
			"attempt", attempt,
			"maxRetries", f.config.FetchAttempts,
			"backoff", backoff.String(),
			"error", err,
		)
		select {
		case <-time.After(backoff):
			backoff *= 2
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return nil, fmt.Errorf("download of %s failed after all retries: %w", src, lastErr)
}

func (f *MergerFunction) merge(ctx context.Context, logCtx *slog.Logger, docs [][]byte) (*MergeResult, error) {
	if len(docs) < 2 {
		return nil, badRequest("Please select at least 2 PDF files to merge", pdfdoc.ErrNotEnoughInputs)
	}
	merged, err := pdfdoc.MergeBytes(docs)
	if err != nil {
		logCtx.Error("Failed to merge PDFs", "error", err)
		return nil, badRequest("Failed to merge PDFs. Please ensure every file is a valid, unencrypted PDF.", err)
	}
	result := &MergeResult{Data: merged, Filename: MergedFilename}
	if pages, err := pdfdoc.PageCount(merged); err == nil {
		result.PageCount = pages
	}
	logCtx.Info("PDFs merged.", "pageCount", result.PageCount, "bytes", len(merged))

	if f.config.OutputBucket == "" {
		return result, nil
	}
	store, err := f.objectStore()
	if err != nil {
		return nil, internalError("Storage is unavailable", err)
	}
	// Content addressed, so a repeated request reuses the existing object.
	sum := sha256.Sum256(merged)
	object := fmt.Sprintf("merged/%s.pdf", hex.EncodeToString(sum[:8]))
	if err := store.Write(ctx, f.config.OutputBucket, object, "application/pdf", merged); err != nil {
		return nil, internalError("Failed to save merged PDF", err)
	}
	result.OutputURI = objectRef{bucket: f.config.OutputBucket, object: object}.String()
	logCtx.Info("Merged PDF saved.", "outputUri", result.OutputURI)
	return result, nil
}

// WriteMergeResult sends the merged document as a PDF attachment.
func WriteMergeResult(w http.ResponseWriter, result *MergeResult) {
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.Filename))
	if result.OutputURI != "" {
		w.Header().Set("X-Output-Uri", result.OutputURI)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Data); err != nil {
		slog.Error("Failed to write merged PDF", "error", err)
	}
}
