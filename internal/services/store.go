package services

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/Lllllllleong/pdftools/internal/gcp"
	"google.golang.org/api/iterator"
)

// ObjectStore is the subset of Cloud Storage the merge and ingest functions use.
type ObjectStore interface {
	// List returns the names under prefix ending in suffix, sorted.
	List(ctx context.Context, bucket, prefix, suffix string) ([]string, error)
	Read(ctx context.Context, bucket, object string, maxBytes int64) ([]byte, error)
	// Write creates object unless it already exists.
	Write(ctx context.Context, bucket, object, contentType string, data []byte) error
}

// GCSStore implements ObjectStore on a storage client.
type GCSStore struct {
	client *storage.Client
}

// NewGCSStore wraps client.
func NewGCSStore(client *storage.Client) *GCSStore {
	return &GCSStore{client: client}
}

func (s *GCSStore) List(ctx context.Context, bucket, prefix, suffix string) ([]string, error) {
	it := s.client.Bucket(bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	var names []string
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list gs://%s/%s: %w", bucket, prefix, err)
		}
		if strings.HasSuffix(strings.ToLower(attrs.Name), suffix) {
			names = append(names, attrs.Name)
		}
	}
	sort.Strings(names)
	return names, nil
}

func (s *GCSStore) Read(ctx context.Context, bucket, object string, maxBytes int64) ([]byte, error) {
	return gcp.ReadObject(ctx, s.client, bucket, object, maxBytes)
}

func (s *GCSStore) Write(ctx context.Context, bucket, object, contentType string, data []byte) error {
	return gcp.SaveToGCSAtomically(ctx, s.client.Bucket(bucket), object, contentType, data)
}
