package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/Lllllllleong/pdftools/internal/ai"
	"github.com/Lllllllleong/pdftools/internal/extract"
	"github.com/Lllllllleong/pdftools/internal/models"
	"github.com/Lllllllleong/pdftools/internal/pdfdoc/pdftest"
)

const readableSentence = "The quarterly report is ready and the figures for the year are in the appendix for review"

func assertEqual[T comparable](t *testing.T, got, want T) {
	t.Helper()
	if got != want {
		t.Errorf("got %v, want %v", got, want)
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected %q to contain %q", got, want)
	}
}

// assertStatus checks that err is a *RequestError with the given status.
func assertStatus(t *testing.T, err error, status int) *RequestError {
	t.Helper()
	var reqErr *RequestError
	if !errors.As(err, &reqErr) {
		t.Fatalf("expected *RequestError with status %d, got %v", status, err)
	}
	if reqErr.Status != status {
		t.Fatalf("status = %d, want %d (%s)", reqErr.Status, status, reqErr.Message)
	}
	return reqErr
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testExtractionConfig() ExtractionConfig {
	return ExtractionConfig{
		MaxUploadBytes:     DefaultMaxUploadBytes,
		FallbackThreshold:  extract.DefaultFallbackThreshold,
		MinFallbackLiteral: extract.DefaultMinFallbackLiteral,
		ReadabilityPolicy:  PolicyLenient,
	}
}

func readablePDF(info map[string]string) []byte {
	return pdftest.Build(info, readableSentence)
}

// longPDF has enough text to ask questions about.
func longPDF() []byte {
	return pdftest.Build(nil, readableSentence, readableSentence)
}

func unreadablePDF() []byte {
	return pdftest.Build(nil, strings.Repeat("@#$% ", 15))
}

// filePart is one file in a multipart test request.
type filePart struct {
	field       string
	filename    string
	contentType string
	data        []byte
}

func multipartRequest(t *testing.T, files []filePart, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, f.field, f.filename))
		if f.contentType != "" {
			h.Set("Content-Type", f.contentType)
		}
		part, err := mw.CreatePart(h)
		if err != nil {
			t.Fatalf("CreatePart: %v", err)
		}
		if _, err := part.Write(f.data); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

// fakeProvider records requests and returns a canned answer or error.
type fakeProvider struct {
	mu       sync.Mutex
	answer   string
	err      error
	requests []ai.Request
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Answer(_ context.Context, req ai.Request) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	return p.answer, p.err
}

// memoryStore is an in-memory ObjectStore. failures makes the next reads of an
// object fail. writeErr fails every write.
type memoryStore struct {
	mu       sync.Mutex
	objects  map[string][]byte
	failures map[string]int
	reads    map[string]int
	writeErr error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		objects:  make(map[string][]byte),
		failures: make(map[string]int),
		reads:    make(map[string]int),
	}
}

func (s *memoryStore) put(bucket, object string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[bucket+"/"+object] = data
}

func (s *memoryStore) get(bucket, object string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[bucket+"/"+object]
	return data, ok
}

func (s *memoryStore) List(_ context.Context, bucket, prefix, suffix string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var names []string
	for key := range s.objects {
		name, ok := strings.CutPrefix(key, bucket+"/")
		if ok && strings.HasPrefix(name, prefix) && strings.HasSuffix(strings.ToLower(name), suffix) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *memoryStore) Read(_ context.Context, bucket, object string, _ int64) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := bucket + "/" + object
	s.reads[key]++
	if s.failures[key] > 0 {
		s.failures[key]--
		return nil, fmt.Errorf("transient failure reading %s", key)
	}
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return data, nil
}

func (s *memoryStore) Write(_ context.Context, bucket, object, _ string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.writeErr != nil {
		return s.writeErr
	}
	key := bucket + "/" + object
	if _, exists := s.objects[key]; !exists {
		s.objects[key] = data
	}
	return nil
}

// memoryLedger is an in-memory Ledger keyed by document ID.
type memoryLedger struct {
	mu      sync.Mutex
	records map[string]models.Document
	nextID  int
}

func newMemoryLedger() *memoryLedger {
	return &memoryLedger{records: make(map[string]models.Document)}
}

func (l *memoryLedger) put(id string, doc models.Document) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records[id] = doc
}

func (l *memoryLedger) get(id string) models.Document {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.records[id]
}

func (l *memoryLedger) Claim(_ context.Context, doc models.Document, staleBefore time.Time) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for id, existing := range l.records {
		if existing.FileHash != doc.FileHash {
			continue
		}
		if !claimable(existing, staleBefore) {
			return id, false, nil
		}
		existing.Status = models.StatusExtracting
		existing.SourceURI = doc.SourceURI
		existing.ErrorDetails = ""
		existing.UpdatedAt = doc.UpdatedAt
		l.records[id] = existing
		return id, true, nil
	}
	l.nextID++
	id := fmt.Sprintf("doc%d", l.nextID)
	l.records[id] = doc
	return id, true, nil
}

func (l *memoryLedger) Complete(_ context.Context, id string, doc models.Document) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.records[id]
	if !ok {
		return fmt.Errorf("document %s not found", id)
	}
	existing.Status = models.StatusCompleted
	existing.PageCount = doc.PageCount
	existing.CharacterCount = doc.CharacterCount
	existing.ReadableRatio = doc.ReadableRatio
	existing.TextURI = doc.TextURI
	existing.WordURI = doc.WordURI
	existing.UpdatedAt = doc.UpdatedAt
	l.records[id] = existing
	return nil
}

func (l *memoryLedger) Fail(_ context.Context, id, details string, at time.Time) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	existing, ok := l.records[id]
	if !ok {
		return fmt.Errorf("document %s not found", id)
	}
	existing.Status = models.StatusFailed
	existing.ErrorDetails = details
	existing.UpdatedAt = at
	l.records[id] = existing
	return nil
}
