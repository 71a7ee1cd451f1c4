package renewal

import (
	"context"
	"sort"
	"sync"
	"time"

	id "seacert/pkg/domain"
	"seacert/pkg/platform/sentinel"
)

// InMemoryStore keeps renewal requests in process memory.
type InMemoryStore struct {
	mu       sync.RWMutex
	requests map[id.RenewalID]*Request
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{requests: make(map[id.RenewalID]*Request)}
}

func (s *InMemoryStore) Create(_ context.Context, req *Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	s.requests[req.ID] = &cp
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, reqID id.RenewalID) (*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	req, ok := s.requests[reqID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	cp := *req
	return &cp, nil
}

func (s *InMemoryStore) ListByStatus(_ context.Context, status RequestStatus) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Request
	for _, req := range s.requests {
		if req.Status == status {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestDate.Before(out[j].RequestDate) })
	return out, nil
}

func (s *InMemoryStore) ListPendingByDocument(_ context.Context, docID id.DocumentID) ([]*Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Request
	for _, req := range s.requests {
		if req.DocumentID == docID && req.Status == StatusPending {
			cp := *req
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RequestDate.Before(out[j].RequestDate) })
	return out, nil
}

func (s *InMemoryStore) Complete(_ context.Context, reqID id.RenewalID, completedAt time.Time) (*Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	req, ok := s.requests[reqID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if req.Status == StatusCompleted {
		return nil, sentinel.ErrInvalidState
	}
	req.Status = StatusCompleted
	req.CompletedAt = &completedAt
	cp := *req
	return &cp, nil
}
