package document

import (
	"context"
	"time"

	"seacert/internal/workflow"
	id "seacert/pkg/domain"
)

// Store is the document registry port. Implementations must make Create,
// UpdateState and CreateVersion each a single atomic write so a failure never
// leaves a partially updated record behind.
type Store interface {
	// Create persists a new document record with its seeded history.
	Create(ctx context.Context, doc *Document) error

	// Get returns the document with its history, or sentinel.ErrNotFound.
	Get(ctx context.Context, docID id.DocumentID) (*Document, error)

	// ListByOwner returns all documents for one application or institution.
	ListByOwner(ctx context.Context, kind OwnerKind, ownerID string) ([]*Document, error)

	// UpdateState is the sole write path for workflow transitions. It
	// compares the expected current state and version before writing and
	// returns sentinel.ErrConflict on a mismatch, so concurrent reviewer
	// actions cannot silently overwrite each other.
	UpdateState(ctx context.Context, docID id.DocumentID, expectedState workflow.State, expectedVersion int, entry workflow.HistoryEntry) (*Document, error)

	// AppendHistory appends a comment-only entry without touching state.
	AppendHistory(ctx context.Context, docID id.DocumentID, entry workflow.HistoryEntry) (*Document, error)

	// CreateVersion records a replacement upload: it snapshots the current
	// file fields as a Version row, strictly increments the document's
	// version, and swaps in the new file metadata and expiry.
	CreateVersion(ctx context.Context, docID id.DocumentID, file FileInfo, storagePath string, uploadDate time.Time, expiry *time.Time) (*Document, error)

	// ListVersions returns superseded versions newest-first.
	ListVersions(ctx context.Context, docID id.DocumentID) ([]*Version, error)
}
