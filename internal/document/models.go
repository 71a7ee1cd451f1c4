// Package document implements the document lifecycle: validation against
// requirement descriptors, registry records with versions and expiry, and the
// role-gated workflow transitions that move them.
package document

import (
	"time"

	"seacert/internal/workflow"
	id "seacert/pkg/domain"
)

// Status is the validation status of a document, distinct from its workflow
// state. It is derived on read from the workflow state and the expiry date;
// the stored record only keeps the pending snapshot taken at upload.
type Status string

const (
	StatusPending Status = "pending"
	StatusValid   Status = "valid"
	StatusInvalid Status = "invalid"
	StatusExpired Status = "expired"
)

// OwnerKind distinguishes whether a document belongs to an application or
// directly to an institution record.
type OwnerKind string

const (
	OwnerApplication OwnerKind = "application"
	OwnerInstitution OwnerKind = "institution"
)

// Document is one uploaded file slot with its lifecycle state. A document is
// exclusively owned by one application or institution and carries zero or
// more versions; creating a new version supersedes by reference and never
// deletes the prior one.
type Document struct {
	ID             id.DocumentID
	OwnerKind      OwnerKind
	OwnerID        string
	RequirementKey string
	Name           string
	MimeType       string
	SizeBytes      int64
	StoragePath    string
	Status         Status
	WorkflowState  workflow.State
	// Version is monotonically increasing per document; never reused.
	Version    int
	UploadDate time.Time
	// ExpiryDate is set only for slots whose descriptor specifies a validity
	// period; always upload date plus that many years at creation, recomputed
	// only when a new version is uploaded.
	ExpiryDate *time.Time
	Metadata   map[string]string
	History    []workflow.HistoryEntry
}

// CurrentState returns the workflow state, which by invariant equals the
// state of the most recent history entry.
func (d *Document) CurrentState() workflow.State { return d.WorkflowState }

// Version is one superseded (or current) upload of a document.
type Version struct {
	DocumentID  id.DocumentID
	Number      int
	Name        string
	MimeType    string
	SizeBytes   int64
	StoragePath string
	UploadDate  time.Time
}

// FileInfo describes a candidate upload presented to the validator.
type FileInfo struct {
	Name      string
	MimeType  string
	SizeBytes int64
	Content   []byte
}
