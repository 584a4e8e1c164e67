package gcp

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// NewStorageClient creates a Cloud Storage client for the archive mirror.
func NewStorageClient(ctx context.Context) (*storage.Client, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Storage client: %w", err)
	}
	return client, nil
}

// SaveObjectIfAbsent writes data to a GCS object only if it doesn't already
// exist. An object that is already present is a clean skip, which keeps the
// archive idempotent under at-least-once fulfillment retries.
func SaveObjectIfAbsent(ctx context.Context, bucket *storage.BucketHandle, objectName string, data []byte) error {
	writer := bucket.Object(objectName).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)

	if _, err := io.Copy(writer, bytes.NewReader(data)); err != nil {
		_ = writer.Close()
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			slog.Info("Skipping archive write, object already exists.", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to write to GCS: %w", err)
	}

	if err := writer.Close(); err != nil {
		if gerr, ok := err.(*googleapi.Error); ok && gerr.Code == 412 {
			slog.Info("Skipping archive write, object already exists.", "object", objectName)
			return nil
		}
		return fmt.Errorf("failed to finalize GCS write: %w", err)
	}
	return nil
}

// Archive mirrors uploaded artifacts into a GCS bucket.
type Archive struct {
	Bucket *storage.BucketHandle
}

// Store writes one artifact copy; a copy that already exists is not an error.
func (a *Archive) Store(ctx context.Context, name string, data []byte) error {
	return SaveObjectIfAbsent(ctx, a.Bucket, name, data)
}
