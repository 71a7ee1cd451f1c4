package application

import (
	"context"
	"sort"
	"sync"

	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	"seacert/pkg/platform/sentinel"
)

// InMemoryStore keeps applications in process memory. Used by unit tests and
// local development; the postgres store is the production implementation.
type InMemoryStore struct {
	mu   sync.RWMutex
	apps map[id.ApplicationID]*Application
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{apps: make(map[id.ApplicationID]*Application)}
}

func (s *InMemoryStore) Create(_ context.Context, app *Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.apps[app.ID]; exists {
		return sentinel.ErrConflict
	}
	s.apps[app.ID] = copyApplication(app)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, appID id.ApplicationID) (*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyApplication(app), nil
}

func (s *InMemoryStore) ListByInstitution(_ context.Context, instID id.InstitutionID) ([]*Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Application
	for _, app := range s.apps {
		if app.InstitutionID == instID {
			out = append(out, copyApplication(app))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) UpdateState(_ context.Context, appID id.ApplicationID, expectedState workflow.State, expectedRevision int, entry workflow.HistoryEntry) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if app.WorkflowState != expectedState || app.Revision != expectedRevision {
		return nil, sentinel.ErrConflict
	}
	app.WorkflowState = entry.State
	app.Revision++
	app.History = append(app.History, entry)
	return copyApplication(app), nil
}

func (s *InMemoryStore) AppendHistory(_ context.Context, appID id.ApplicationID, entry workflow.HistoryEntry) (*Application, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	app, ok := s.apps[appID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	app.History = append(app.History, entry)
	return copyApplication(app), nil
}

func copyApplication(app *Application) *Application {
	cp := *app
	cp.History = append([]workflow.HistoryEntry(nil), app.History...)
	return &cp
}
