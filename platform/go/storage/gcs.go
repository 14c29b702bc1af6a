package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// GCSWriter writes blobs to Google Cloud Storage.
type GCSWriter struct {
	client *storage.Client
}

// NewGCSWriter wraps an authenticated client.
func NewGCSWriter(client *storage.Client) *GCSWriter {
	if client == nil {
		panic("storage client is required")
	}
	return &GCSWriter{client: client}
}

func (g *GCSWriter) Put(ctx context.Context, loc ObjectLocation, contentType string, data []byte) error {
	w := g.client.Bucket(loc.Bucket).Object(loc.FullPath).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return fmt.Errorf("write gs://%s/%s: %w", loc.Bucket, loc.FullPath, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close gs://%s/%s: %w", loc.Bucket, loc.FullPath, err)
	}
	return nil
}
