package renewal

import (
	"context"
	"errors"
	"time"

	"seacert/internal/audit"
	"seacert/internal/document"
	id "seacert/pkg/domain"
	dErrors "seacert/pkg/domain-errors"
	"seacert/pkg/platform/sentinel"
	"seacert/pkg/requestcontext"
)

// Store persists renewal requests.
type Store interface {
	Create(ctx context.Context, req *Request) error
	Get(ctx context.Context, reqID id.RenewalID) (*Request, error)
	ListByStatus(ctx context.Context, status RequestStatus) ([]*Request, error)
	ListPendingByDocument(ctx context.Context, docID id.DocumentID) ([]*Request, error)
	Complete(ctx context.Context, reqID id.RenewalID, completedAt time.Time) (*Request, error)
}

// Documents is the slice of the document service renewal needs.
type Documents interface {
	Get(ctx context.Context, docID id.DocumentID) (*document.Document, error)
}

// Service creates and resolves renewal requests.
type Service struct {
	store     Store
	documents Documents
	auditor   audit.Recorder
}

func NewService(store Store, documents Documents, auditor audit.Recorder) *Service {
	return &Service{store: store, documents: documents, auditor: auditor}
}

// RequestRenewal records a renewal request for an existing document. The
// document's workflow state is not touched.
func (s *Service) RequestRenewal(ctx context.Context, docID id.DocumentID) (*Request, error) {
	if _, err := s.documents.Get(ctx, docID); err != nil {
		return nil, err
	}

	req := &Request{
		ID:          id.NewRenewalID(),
		DocumentID:  docID,
		RequestedBy: requestcontext.UserID(ctx),
		RequestDate: requestcontext.Now(ctx),
		Status:      StatusPending,
	}
	if err := s.store.Create(ctx, req); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create renewal request", err)
	}

	s.auditor.Record(ctx, audit.Event{
		Action:     audit.ActionRenewalRequested,
		ActorID:    req.RequestedBy,
		DocumentID: docID.String(),
		RequestID:  requestcontext.RequestID(ctx),
	})
	return req, nil
}

// Complete marks a pending request as completed. Only admins and reviewers
// resolve renewals.
func (s *Service) Complete(ctx context.Context, reqID id.RenewalID) (*Request, error) {
	role := requestcontext.Role(ctx)
	if role != "admin" && role != "reviewer" {
		return nil, dErrors.New(dErrors.CodeForbidden, "role "+role+" may not complete renewals")
	}

	req, err := s.store.Complete(ctx, reqID, requestcontext.Now(ctx))
	if err != nil {
		switch {
		case errors.Is(err, sentinel.ErrNotFound):
			return nil, dErrors.New(dErrors.CodeNotFound, "renewal request not found")
		case errors.Is(err, sentinel.ErrInvalidState):
			return nil, dErrors.New(dErrors.CodeConflict, "renewal request already completed")
		default:
			return nil, dErrors.Wrap(dErrors.CodeInternal, "complete renewal request", err)
		}
	}

	s.auditor.Record(ctx, audit.Event{
		Action:     audit.ActionRenewalCompleted,
		ActorID:    requestcontext.UserID(ctx),
		Role:       role,
		DocumentID: req.DocumentID.String(),
		RequestID:  requestcontext.RequestID(ctx),
	})
	return req, nil
}

// ListByStatus returns renewal requests filtered by status.
func (s *Service) ListByStatus(ctx context.Context, status RequestStatus) ([]*Request, error) {
	if status != StatusPending && status != StatusCompleted {
		return nil, dErrors.New(dErrors.CodeBadRequest, "unknown renewal status "+string(status))
	}
	reqs, err := s.store.ListByStatus(ctx, status)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list renewal requests", err)
	}
	return reqs, nil
}

// PendingForDocument lists open requests for one document so reviewers can
// see duplicates.
func (s *Service) PendingForDocument(ctx context.Context, docID id.DocumentID) ([]*Request, error) {
	reqs, err := s.store.ListPendingByDocument(ctx, docID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list renewal requests", err)
	}
	return reqs, nil
}
