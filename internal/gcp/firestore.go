package gcp

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
)

// OpenCollection connects to Firestore and returns the collection that holds
// document records. Callers close the client.
func OpenCollection(ctx context.Context, projectID, collection string) (*firestore.Client, *firestore.CollectionRef, error) {
	if projectID == "" {
		return nil, nil, fmt.Errorf("projectID must be provided to create a firestore client")
	}
	if collection == "" {
		return nil, nil, fmt.Errorf("a collection name is required")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}
	slog.Info("Firestore collection opened.", "projectId", projectID, "collection", collection)
	return client, client.Collection(collection), nil
}
