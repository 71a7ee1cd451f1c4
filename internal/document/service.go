package document

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"seacert/internal/audit"
	"seacert/internal/requirement"
	"seacert/internal/storage"
	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	dErrors "seacert/pkg/domain-errors"
	"seacert/pkg/platform/sentinel"
	"seacert/pkg/requestcontext"
)

var (
	uploadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seacert_document_uploads_total",
		Help: "Document upload attempts by outcome",
	}, []string{"outcome"})
	transitionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "seacert_workflow_transitions_total",
		Help: "Workflow transition attempts by outcome",
	}, []string{"outcome"})
)

// Service orchestrates the document lifecycle: validate, store bytes, create
// the registry record, drive role-gated transitions through the single
// compare-and-swap write path, and manage versions and signed URLs. It keeps
// orchestration out of handlers and domain logic thin.
type Service struct {
	store        Store
	objects      storage.ObjectStore
	signer       storage.URLSigner
	validator    *Validator
	descriptors  *requirement.Set
	auditor      audit.Recorder
	signedURLTTL time.Duration
}

// NewService wires the document service. descriptors must already be loaded;
// no upload is accepted without them.
func NewService(
	store Store,
	objects storage.ObjectStore,
	signer storage.URLSigner,
	validator *Validator,
	descriptors *requirement.Set,
	auditor audit.Recorder,
	signedURLTTL time.Duration,
) *Service {
	return &Service{
		store:        store,
		objects:      objects,
		signer:       signer,
		validator:    validator,
		descriptors:  descriptors,
		auditor:      auditor,
		signedURLTTL: signedURLTTL,
	}
}

// Upload validates a candidate file against its slot descriptor and, on
// success, stores the bytes and creates the registry record in draft. A
// failing file is never persisted; the validation result is returned either
// way so callers can show every violation.
func (s *Service) Upload(ctx context.Context, kind OwnerKind, ownerID, requirementKey string, file FileInfo) (*Document, ValidationResult, error) {
	desc, ok := s.descriptors.Get(requirementKey)
	if !ok {
		return nil, ValidationResult{}, dErrors.New(dErrors.CodeBadRequest, fmt.Sprintf("unknown document slot %q", requirementKey))
	}
	if ownerID == "" {
		return nil, ValidationResult{}, dErrors.New(dErrors.CodeBadRequest, "owner id is required")
	}

	actor := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	result := s.validator.Validate(ctx, file, desc)
	if !result.IsValid {
		uploadsTotal.WithLabelValues("invalid").Inc()
		s.auditor.Record(ctx, audit.Event{
			Action:    audit.ActionValidationFailed,
			ActorID:   actor,
			Subject:   requirementKey,
			Reason:    fmt.Sprintf("%d validation errors", len(result.Errors)),
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil, result, dErrors.New(dErrors.CodeValidationFailed, "file failed validation")
	}

	docID := id.NewDocumentID()
	key := fmt.Sprintf("documents/%s/%s/%s/%s", ownerID, requirementKey, uuid.UUID(docID).String(), file.Name)
	path, err := s.objects.Upload(ctx, key, file.Content)
	if err != nil {
		uploadsTotal.WithLabelValues("storage_error").Inc()
		return nil, result, dErrors.Wrap(dErrors.CodeUnavailable, "file storage failed", err)
	}

	doc := &Document{
		ID:             docID,
		OwnerKind:      kind,
		OwnerID:        ownerID,
		RequirementKey: requirementKey,
		Name:           file.Name,
		MimeType:       file.MimeType,
		SizeBytes:      file.SizeBytes,
		StoragePath:    path,
		Status:         StatusPending,
		WorkflowState:  workflow.Initial,
		Version:        1,
		UploadDate:     now,
		ExpiryDate:     ComputeExpiry(desc, now),
		Metadata:       result.Metadata,
		History: []workflow.HistoryEntry{{
			State:     workflow.Initial,
			Timestamp: now,
			ActorID:   actor,
		}},
	}
	if err := s.store.Create(ctx, doc); err != nil {
		uploadsTotal.WithLabelValues("persistence_error").Inc()
		return nil, result, dErrors.Wrap(dErrors.CodeInternal, "create document record", err)
	}

	uploadsTotal.WithLabelValues("success").Inc()
	s.auditor.Record(ctx, audit.Event{
		Action:     audit.ActionDocumentUploaded,
		ActorID:    actor,
		DocumentID: doc.ID.String(),
		Subject:    requirementKey,
		Outcome:    "created",
		RequestID:  requestcontext.RequestID(ctx),
	})
	return doc, result, nil
}

// deriveStatus classifies a document as of now: an approved document whose
// expiry date has not passed is valid, rejection or revocation makes it
// invalid, and a passed expiry date or the expired workflow state makes it
// expired regardless of how it got there. Everything else is still pending
// review. The status is computed on read so a document that lapses between
// requests is reported expired without a write.
func deriveStatus(doc *Document, now time.Time) Status {
	if doc.WorkflowState == workflow.StateExpired ||
		ClassifyExpiry(doc.ExpiryDate, now) == ExpiryExpired {
		return StatusExpired
	}
	switch doc.WorkflowState {
	case workflow.StateApproved:
		return StatusValid
	case workflow.StateRejected, workflow.StateRevoked:
		return StatusInvalid
	default:
		return StatusPending
	}
}

// Get returns one document with its history.
func (s *Service) Get(ctx context.Context, docID id.DocumentID) (*Document, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return nil, translateStoreErr(err, "document")
	}
	doc.Status = deriveStatus(doc, requestcontext.Now(ctx))
	return doc, nil
}

// ListByOwner returns every document belonging to one application or
// institution.
func (s *Service) ListByOwner(ctx context.Context, kind OwnerKind, ownerID string) ([]*Document, error) {
	if ownerID == "" {
		return nil, dErrors.New(dErrors.CodeBadRequest, "owner id is required")
	}
	docs, err := s.store.ListByOwner(ctx, kind, ownerID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list documents", err)
	}
	now := requestcontext.Now(ctx)
	for _, doc := range docs {
		doc.Status = deriveStatus(doc, now)
	}
	return docs, nil
}

// Transition moves a document along the workflow graph. The actor and role
// come from the request context; expectedVersion guards against a stale
// client view (zero skips the client-side check, the store still compares
// the version it read).
func (s *Service) Transition(ctx context.Context, docID id.DocumentID, target workflow.State, comment string, expectedVersion int) (*Document, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return nil, translateStoreErr(err, "document")
	}
	if expectedVersion > 0 && expectedVersion != doc.Version {
		transitionsTotal.WithLabelValues("conflict").Inc()
		return nil, dErrors.New(dErrors.CodeConflict, "document was modified by someone else; reload and retry")
	}

	role := workflow.Role(requestcontext.Role(ctx))
	actor := requestcontext.UserID(ctx)
	now := requestcontext.Now(ctx)

	entry, err := workflow.Apply(doc.WorkflowState, target, role, actor, comment, now)
	if err != nil {
		transitionsTotal.WithLabelValues("rejected").Inc()
		s.auditor.Record(ctx, audit.Event{
			Action:     audit.ActionTransitionRejected,
			ActorID:    actor,
			Role:       string(role),
			DocumentID: docID.String(),
			Subject:    string(target),
			Reason:     err.Error(),
			RequestID:  requestcontext.RequestID(ctx),
		})
		return nil, err
	}

	updated, err := s.store.UpdateState(ctx, docID, doc.WorkflowState, doc.Version, entry)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			transitionsTotal.WithLabelValues("conflict").Inc()
			return nil, dErrors.New(dErrors.CodeConflict, "document was modified by someone else; reload and retry")
		}
		transitionsTotal.WithLabelValues("persistence_error").Inc()
		return nil, translateStoreErr(err, "document")
	}

	transitionsTotal.WithLabelValues("applied").Inc()
	s.auditor.Record(ctx, audit.Event{
		Action:     audit.ActionTransitionApplied,
		ActorID:    actor,
		Role:       string(role),
		DocumentID: docID.String(),
		Subject:    string(target),
		Outcome:    string(entry.State),
		RequestID:  requestcontext.RequestID(ctx),
	})
	updated.Status = deriveStatus(updated, now)
	return updated, nil
}

// AddComment appends a comment-only history entry; the workflow state is
// untouched.
func (s *Service) AddComment(ctx context.Context, docID id.DocumentID, comment string) (*Document, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return nil, translateStoreErr(err, "document")
	}

	role := workflow.Role(requestcontext.Role(ctx))
	actor := requestcontext.UserID(ctx)

	entry, err := workflow.Comment(doc.WorkflowState, role, actor, comment, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	updated, err := s.store.AppendHistory(ctx, docID, entry)
	if err != nil {
		return nil, translateStoreErr(err, "document")
	}
	s.auditor.Record(ctx, audit.Event{
		Action:     audit.ActionCommentAdded,
		ActorID:    actor,
		Role:       string(role),
		DocumentID: docID.String(),
		RequestID:  requestcontext.RequestID(ctx),
	})
	updated.Status = deriveStatus(updated, requestcontext.Now(ctx))
	return updated, nil
}

// CreateVersion accepts a replacement upload: the file is validated against
// the same slot descriptor, stored, and recorded as the next version. The
// expiry date is recomputed from the new upload time; the workflow state is
// not changed by versioning.
func (s *Service) CreateVersion(ctx context.Context, docID id.DocumentID, file FileInfo) (*Document, ValidationResult, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return nil, ValidationResult{}, translateStoreErr(err, "document")
	}
	desc, ok := s.descriptors.Get(doc.RequirementKey)
	if !ok {
		return nil, ValidationResult{}, dErrors.New(dErrors.CodeInternal, "document references an unknown slot")
	}

	result := s.validator.Validate(ctx, file, desc)
	if !result.IsValid {
		uploadsTotal.WithLabelValues("invalid").Inc()
		return nil, result, dErrors.New(dErrors.CodeValidationFailed, "file failed validation")
	}

	now := requestcontext.Now(ctx)
	key := fmt.Sprintf("documents/%s/%s/%s/v%d/%s", doc.OwnerID, doc.RequirementKey, docID.String(), doc.Version+1, file.Name)
	path, err := s.objects.Upload(ctx, key, file.Content)
	if err != nil {
		return nil, result, dErrors.Wrap(dErrors.CodeUnavailable, "file storage failed", err)
	}

	updated, err := s.store.CreateVersion(ctx, docID, file, path, now, ComputeExpiry(desc, now))
	if err != nil {
		return nil, result, translateStoreErr(err, "document")
	}

	s.auditor.Record(ctx, audit.Event{
		Action:     audit.ActionVersionCreated,
		ActorID:    requestcontext.UserID(ctx),
		DocumentID: docID.String(),
		Outcome:    fmt.Sprintf("v%d", updated.Version),
		RequestID:  requestcontext.RequestID(ctx),
	})
	updated.Status = deriveStatus(updated, now)
	return updated, result, nil
}

// Versions lists a document's uploads newest-first.
func (s *Service) Versions(ctx context.Context, docID id.DocumentID) ([]*Version, error) {
	versions, err := s.store.ListVersions(ctx, docID)
	if err != nil {
		return nil, translateStoreErr(err, "document")
	}
	return versions, nil
}

// SignedURL issues time-boxed read access to the document's current file.
func (s *Service) SignedURL(ctx context.Context, docID id.DocumentID) (string, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return "", translateStoreErr(err, "document")
	}
	url, err := s.signer.SignedURL(ctx, doc.StoragePath, s.signedURLTTL)
	if err != nil {
		return "", dErrors.Wrap(dErrors.CodeUnavailable, "sign download url", err)
	}
	return url, nil
}

// Expiry classifies the document's staleness as of the request time.
func (s *Service) Expiry(ctx context.Context, docID id.DocumentID) (ExpiryStatus, *time.Time, error) {
	doc, err := s.store.Get(ctx, docID)
	if err != nil {
		return "", nil, translateStoreErr(err, "document")
	}
	return ClassifyExpiry(doc.ExpiryDate, requestcontext.Now(ctx)), doc.ExpiryDate, nil
}

func translateStoreErr(err error, entity string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, entity+" not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, entity+" was modified concurrently")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(dErrors.CodeUnavailable, entity+" registry unavailable", err)
	default:
		return dErrors.Wrap(dErrors.CodeInternal, entity+" registry error", err)
	}
}
