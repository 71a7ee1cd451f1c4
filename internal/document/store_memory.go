package document

import (
	"context"
	"sort"
	"sync"
	"time"

	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	"seacert/pkg/platform/sentinel"
)

// InMemoryStore keeps documents in process memory. Used by unit tests and
// local development; the postgres store is the production implementation.
type InMemoryStore struct {
	mu       sync.RWMutex
	docs     map[id.DocumentID]*Document
	versions map[id.DocumentID][]*Version
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		docs:     make(map[id.DocumentID]*Document),
		versions: make(map[id.DocumentID][]*Version),
	}
}

func (s *InMemoryStore) Create(_ context.Context, doc *Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.docs[doc.ID]; exists {
		return sentinel.ErrConflict
	}
	s.docs[doc.ID] = copyDocument(doc)
	s.versions[doc.ID] = []*Version{{
		DocumentID:  doc.ID,
		Number:      doc.Version,
		Name:        doc.Name,
		MimeType:    doc.MimeType,
		SizeBytes:   doc.SizeBytes,
		StoragePath: doc.StoragePath,
		UploadDate:  doc.UploadDate,
	}}
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, docID id.DocumentID) (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return copyDocument(doc), nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, kind OwnerKind, ownerID string) ([]*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Document
	for _, doc := range s.docs {
		if doc.OwnerKind == kind && doc.OwnerID == ownerID {
			out = append(out, copyDocument(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadDate.Before(out[j].UploadDate) })
	return out, nil
}

func (s *InMemoryStore) UpdateState(_ context.Context, docID id.DocumentID, expectedState workflow.State, expectedVersion int, entry workflow.HistoryEntry) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if doc.WorkflowState != expectedState || doc.Version != expectedVersion {
		return nil, sentinel.ErrConflict
	}
	doc.WorkflowState = entry.State
	doc.History = append(doc.History, entry)
	return copyDocument(doc), nil
}

func (s *InMemoryStore) AppendHistory(_ context.Context, docID id.DocumentID, entry workflow.HistoryEntry) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	doc.History = append(doc.History, entry)
	return copyDocument(doc), nil
}

func (s *InMemoryStore) CreateVersion(_ context.Context, docID id.DocumentID, file FileInfo, storagePath string, uploadDate time.Time, expiry *time.Time) (*Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	doc.Version++
	doc.Name = file.Name
	doc.MimeType = file.MimeType
	doc.SizeBytes = file.SizeBytes
	doc.StoragePath = storagePath
	doc.UploadDate = uploadDate
	doc.ExpiryDate = copyTime(expiry)
	s.versions[docID] = append(s.versions[docID], &Version{
		DocumentID:  docID,
		Number:      doc.Version,
		Name:        file.Name,
		MimeType:    file.MimeType,
		SizeBytes:   file.SizeBytes,
		StoragePath: storagePath,
		UploadDate:  uploadDate,
	})
	return copyDocument(doc), nil
}

func (s *InMemoryStore) ListVersions(_ context.Context, docID id.DocumentID) ([]*Version, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	versions, ok := s.versions[docID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	out := make([]*Version, 0, len(versions))
	for i := len(versions) - 1; i >= 0; i-- {
		v := *versions[i]
		out = append(out, &v)
	}
	return out, nil
}

func copyDocument(doc *Document) *Document {
	cp := *doc
	cp.ExpiryDate = copyTime(doc.ExpiryDate)
	cp.History = append([]workflow.HistoryEntry(nil), doc.History...)
	cp.Metadata = make(map[string]string, len(doc.Metadata))
	for k, v := range doc.Metadata {
		cp.Metadata[k] = v
	}
	return &cp
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	cp := *t
	return &cp
}
