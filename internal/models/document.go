package models

import "time"

// Ingest job statuses.
const (
	StatusExtracting = "EXTRACTING"
	StatusCompleted  = "COMPLETED"
	StatusFailed     = "FAILED"
)

// Document is the Firestore record of one PDF picked up by the ingest function.
// It tracks the job status and where the outputs were written.
type Document struct {
	FileHash         string    `firestore:"fileHash,omitempty"`
	OriginalFilename string    `firestore:"originalFilename,omitempty"`
	SourceURI        string    `firestore:"sourceUri,omitempty"`
	Status           string    `firestore:"status,omitempty"`
	ErrorDetails     string    `firestore:"errorDetails,omitempty"`
	PageCount        int       `firestore:"pageCount,omitempty"`
	CharacterCount   int       `firestore:"characterCount,omitempty"`
	ReadableRatio    float64   `firestore:"readableRatio,omitempty"`
	TextURI          string    `firestore:"textUri,omitempty"`
	WordURI          string    `firestore:"wordUri,omitempty"`
	CreatedAt        time.Time `firestore:"createdAt,omitempty"`
	// UpdatedAt is refreshed on every status change. An EXTRACTING record
	// that stops being updated belongs to an invocation that died.
	UpdatedAt time.Time `firestore:"updatedAt,omitempty"`
}
