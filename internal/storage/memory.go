package storage

import (
	"context"
	"fmt"
	"sync"

	"seacert/pkg/platform/sentinel"
)

// InMemoryStore keeps object bytes in process memory for tests and local
// development.
type InMemoryStore struct {
	mu      sync.RWMutex
	objects map[string][]byte
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{objects: make(map[string][]byte)}
}

func (s *InMemoryStore) Upload(_ context.Context, destinationKey string, content []byte) (string, error) {
	if destinationKey == "" {
		return "", fmt.Errorf("upload: destination key is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[destinationKey] = append([]byte(nil), content...)
	return destinationKey, nil
}

func (s *InMemoryStore) Fetch(_ context.Context, storagePath string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	content, ok := s.objects[storagePath]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]byte(nil), content...), nil
}
