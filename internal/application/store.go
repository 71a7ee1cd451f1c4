package application

import (
	"context"

	"seacert/internal/workflow"
	id "seacert/pkg/domain"
)

// Store persists applications.
//
// UpdateState succeeds only when the stored application still carries
// expectedState and expectedRevision; otherwise it returns
// sentinel.ErrConflict and the application is left untouched.
type Store interface {
	Create(ctx context.Context, app *Application) error
	Get(ctx context.Context, appID id.ApplicationID) (*Application, error)
	ListByInstitution(ctx context.Context, instID id.InstitutionID) ([]*Application, error)
	UpdateState(ctx context.Context, appID id.ApplicationID, expectedState workflow.State, expectedRevision int, entry workflow.HistoryEntry) (*Application, error)
	AppendHistory(ctx context.Context, appID id.ApplicationID, entry workflow.HistoryEntry) (*Application, error)
}
