package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/Lllllllleong/pdftools/internal/models"
)

// Ledger records ingest jobs, one record per distinct file content.
type Ledger interface {
	// Claim creates the record for doc.FileHash, or takes over an existing
	// one that FAILED or has sat in EXTRACTING since before staleBefore.
	// claimed is false when the record is COMPLETED or still being worked on.
	Claim(ctx context.Context, doc models.Document, staleBefore time.Time) (id string, claimed bool, err error)
	// Complete stores the results of a finished job.
	Complete(ctx context.Context, id string, doc models.Document) error
	Fail(ctx context.Context, id, details string, at time.Time) error
}

// claimable reports whether an existing record may be processed again.
func claimable(existing models.Document, staleBefore time.Time) bool {
	switch existing.Status {
	case models.StatusFailed:
		return true
	case models.StatusExtracting:
		return existing.UpdatedAt.Before(staleBefore)
	default:
		return false
	}
}

// FirestoreLedger keeps the ledger in a Firestore collection.
type FirestoreLedger struct {
	client    *firestore.Client
	documents *firestore.CollectionRef
}

// NewFirestoreLedger uses documents, a collection of client.
func NewFirestoreLedger(client *firestore.Client, documents *firestore.CollectionRef) *FirestoreLedger {
	return &FirestoreLedger{client: client, documents: documents}
}

// Claim runs the duplicate check and the status change in one transaction so
// concurrent deliveries of the same file cannot both claim it.
func (l *FirestoreLedger) Claim(ctx context.Context, doc models.Document, staleBefore time.Time) (string, bool, error) {
	var (
		id      string
		claimed bool
	)
	err := l.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		id, claimed = "", false
		query := l.documents.Where("fileHash", "==", doc.FileHash).Limit(1)
		snaps, err := tx.Documents(query).GetAll()
		if err != nil {
			return fmt.Errorf("failed to query for duplicates: %w", err)
		}
		if len(snaps) == 0 {
			ref := l.documents.NewDoc()
			id, claimed = ref.ID, true
			return tx.Create(ref, doc)
		}

		var existing models.Document
		if err := snaps[0].DataTo(&existing); err != nil {
			return fmt.Errorf("failed to decode %s: %w", snaps[0].Ref.ID, err)
		}
		id = snaps[0].Ref.ID
		if !claimable(existing, staleBefore) {
			return nil
		}
		claimed = true
		return tx.Update(snaps[0].Ref, []firestore.Update{
			{Path: "status", Value: models.StatusExtracting},
			{Path: "sourceUri", Value: doc.SourceURI},
			{Path: "errorDetails", Value: firestore.Delete},
			{Path: "updatedAt", Value: doc.UpdatedAt},
		})
	})
	if err != nil {
		return "", false, fmt.Errorf("failed to claim document: %w", err)
	}
	return id, claimed, nil
}

func (l *FirestoreLedger) Complete(ctx context.Context, id string, doc models.Document) error {
	_, err := l.documents.Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.StatusCompleted},
		{Path: "pageCount", Value: doc.PageCount},
		{Path: "characterCount", Value: doc.CharacterCount},
		{Path: "readableRatio", Value: doc.ReadableRatio},
		{Path: "textUri", Value: doc.TextURI},
		{Path: "wordUri", Value: doc.WordURI},
		{Path: "updatedAt", Value: doc.UpdatedAt},
	})
	return err
}

func (l *FirestoreLedger) Fail(ctx context.Context, id, details string, at time.Time) error {
	_, err := l.documents.Doc(id).Update(ctx, []firestore.Update{
		{Path: "status", Value: models.StatusFailed},
		{Path: "errorDetails", Value: details},
		{Path: "updatedAt", Value: at},
	})
	return err
}
