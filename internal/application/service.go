package application

import (
	"context"
	"errors"
	"fmt"

	"seacert/internal/audit"
	"seacert/internal/document"
	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	dErrors "seacert/pkg/domain-errors"
	"seacert/pkg/platform/sentinel"
	"seacert/pkg/requestcontext"
)

// Documents is the slice of the document service applications need: listing
// the files attached to an application before it may be submitted.
type Documents interface {
	ListByOwner(ctx context.Context, kind document.OwnerKind, ownerID string) ([]*document.Document, error)
}

// Service runs the application lifecycle on the shared workflow machine.
type Service struct {
	store     Store
	documents Documents
	auditor   audit.Recorder
}

func NewService(store Store, documents Documents, auditor audit.Recorder) *Service {
	return &Service{store: store, documents: documents, auditor: auditor}
}

// Create opens a new application in draft for the institution in the request
// context (admins may open on behalf of another institution by passing its
// id explicitly).
func (s *Service) Create(ctx context.Context, instID id.InstitutionID, typ Type) (*Application, error) {
	if instID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "institution id is required")
	}
	if !validTypes[typ] {
		return nil, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown application type %q", typ))
	}

	now := requestcontext.Now(ctx)
	app := &Application{
		ID:            id.NewApplicationID(),
		InstitutionID: instID,
		Type:          typ,
		WorkflowState: workflow.Initial,
		Revision:      1,
		CreatedAt:     now,
		History: []workflow.HistoryEntry{{
			State:     workflow.Initial,
			Timestamp: now,
			ActorID:   requestcontext.UserID(ctx),
		}},
	}
	if err := s.store.Create(ctx, app); err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "create application record", err)
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionApplicationCreated,
		ActorID:   requestcontext.UserID(ctx),
		Subject:   app.ID.String(),
		Outcome:   string(typ),
		RequestID: requestcontext.RequestID(ctx),
	})
	return app, nil
}

// Get returns one application with its history.
func (s *Service) Get(ctx context.Context, appID id.ApplicationID) (*Application, error) {
	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return app, nil
}

// ListByInstitution returns every application an institution has opened.
func (s *Service) ListByInstitution(ctx context.Context, instID id.InstitutionID) ([]*Application, error) {
	if instID.IsNil() {
		return nil, dErrors.New(dErrors.CodeBadRequest, "institution id is required")
	}
	apps, err := s.store.ListByInstitution(ctx, instID)
	if err != nil {
		return nil, dErrors.Wrap(dErrors.CodeInternal, "list applications", err)
	}
	return apps, nil
}

// Submit moves a draft (or needs_revision, or expired) application to
// submitted. Before the first submission every required slot must hold at
// least one document; resubmissions reuse whatever is already attached.
func (s *Service) Submit(ctx context.Context, appID id.ApplicationID, comment string) (*Application, error) {
	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	if app.WorkflowState == workflow.StateDraft {
		if err := s.checkRequiredDocuments(ctx, app); err != nil {
			return nil, err
		}
	}
	return s.transition(ctx, app, workflow.StateSubmitted, comment)
}

// Transition moves an application along the workflow graph; the actor's role
// comes from the request context and is gated exactly as for documents.
func (s *Service) Transition(ctx context.Context, appID id.ApplicationID, target workflow.State, comment string) (*Application, error) {
	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	return s.transition(ctx, app, target, comment)
}

// AddComment appends a comment-only history entry.
func (s *Service) AddComment(ctx context.Context, appID id.ApplicationID, comment string) (*Application, error) {
	app, err := s.store.Get(ctx, appID)
	if err != nil {
		return nil, translateStoreErr(err)
	}

	role := workflow.Role(requestcontext.Role(ctx))
	actor := requestcontext.UserID(ctx)
	entry, err := workflow.Comment(app.WorkflowState, role, actor, comment, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	updated, err := s.store.AppendHistory(ctx, appID, entry)
	if err != nil {
		return nil, translateStoreErr(err)
	}
	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionCommentAdded,
		ActorID:   actor,
		Role:      string(role),
		Subject:   appID.String(),
		RequestID: requestcontext.RequestID(ctx),
	})
	return updated, nil
}

func (s *Service) transition(ctx context.Context, app *Application, target workflow.State, comment string) (*Application, error) {
	role := workflow.Role(requestcontext.Role(ctx))
	actor := requestcontext.UserID(ctx)

	entry, err := workflow.Apply(app.WorkflowState, target, role, actor, comment, requestcontext.Now(ctx))
	if err != nil {
		s.auditor.Record(ctx, audit.Event{
			Action:    audit.ActionTransitionRejected,
			ActorID:   actor,
			Role:      string(role),
			Subject:   string(target),
			Reason:    err.Error(),
			RequestID: requestcontext.RequestID(ctx),
		})
		return nil, err
	}

	updated, err := s.store.UpdateState(ctx, app.ID, app.WorkflowState, app.Revision, entry)
	if err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "application was modified by someone else; reload and retry")
		}
		return nil, translateStoreErr(err)
	}

	s.auditor.Record(ctx, audit.Event{
		Action:    audit.ActionTransitionApplied,
		ActorID:   actor,
		Role:      string(role),
		Subject:   app.ID.String(),
		Outcome:   string(entry.State),
		RequestID: requestcontext.RequestID(ctx),
	})
	return updated, nil
}

func (s *Service) checkRequiredDocuments(ctx context.Context, app *Application) error {
	docs, err := s.documents.ListByOwner(ctx, document.OwnerApplication, app.ID.String())
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "application has no documents attached")
	}
	return nil
}

func translateStoreErr(err error) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "application not found")
	case errors.Is(err, sentinel.ErrConflict):
		return dErrors.New(dErrors.CodeConflict, "application was modified concurrently")
	case errors.Is(err, sentinel.ErrUnavailable):
		return dErrors.Wrap(dErrors.CodeUnavailable, "application registry unavailable", err)
	default:
		return dErrors.Wrap(dErrors.CodeInternal, "application registry error", err)
	}
}
