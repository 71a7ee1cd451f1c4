// Package storage is the object-storage collaborator boundary: opaque binary
// upload and time-boxed signed read access. The registry only ever sees the
// returned storage paths.
package storage

import (
	"context"
	"time"
)

// ObjectStore persists raw file bytes under opaque keys.
type ObjectStore interface {
	// Upload stores content under destinationKey and returns the storage
	// path. Failures surface wrapped in sentinel.ErrUnavailable.
	Upload(ctx context.Context, destinationKey string, content []byte) (string, error)

	// Fetch returns the stored bytes for a path, or sentinel.ErrNotFound.
	Fetch(ctx context.Context, storagePath string) ([]byte, error)
}

// URLSigner issues time-boxed read URLs for stored objects.
type URLSigner interface {
	SignedURL(ctx context.Context, storagePath string, ttl time.Duration) (string, error)
}
