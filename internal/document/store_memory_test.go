package document

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	"seacert/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	store *InMemoryStore
	ctx   context.Context
}

func (s *MemoryStoreSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.ctx = context.Background()
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) newDocument() *Document {
	now := time.Date(2026, 1, 15, 9, 0, 0, 0, time.UTC)
	return &Document{
		ID:             id.NewDocumentID(),
		OwnerKind:      OwnerApplication,
		OwnerID:        "app-1",
		RequirementKey: "accreditation_certificate",
		Name:           "cert.pdf",
		MimeType:       "application/pdf",
		SizeBytes:      1000,
		StoragePath:    "documents/app-1/cert.pdf",
		Status:         StatusPending,
		WorkflowState:  workflow.StateDraft,
		Version:        1,
		UploadDate:     now,
		Metadata:       map[string]string{},
		History: []workflow.HistoryEntry{{
			State:     workflow.StateDraft,
			Timestamp: now,
		}},
	}
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	doc := s.newDocument()
	s.Require().NoError(s.store.Create(s.ctx, doc))

	found, err := s.store.Get(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.Name, found.Name)
	s.Len(found.History, 1)

	s.Run("duplicate create conflicts", func() {
		s.Require().ErrorIs(s.store.Create(s.ctx, doc), sentinel.ErrConflict)
	})

	s.Run("unknown id is not found", func() {
		_, err := s.store.Get(s.ctx, id.NewDocumentID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned copy is isolated from the store", func() {
		found.History = append(found.History, workflow.HistoryEntry{State: workflow.StateSubmitted})
		found.Metadata["k"] = "v"

		again, err := s.store.Get(s.ctx, doc.ID)
		s.Require().NoError(err)
		s.Len(again.History, 1)
		s.Empty(again.Metadata)
	})
}

func (s *MemoryStoreSuite) TestUpdateState_CompareAndSwap() {
	doc := s.newDocument()
	s.Require().NoError(s.store.Create(s.ctx, doc))

	entry := workflow.HistoryEntry{State: workflow.StateSubmitted, Timestamp: time.Now()}

	s.Run("stale state mismatch conflicts", func() {
		_, err := s.store.UpdateState(s.ctx, doc.ID, workflow.StateSubmitted, 1, entry)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("stale version mismatch conflicts", func() {
		_, err := s.store.UpdateState(s.ctx, doc.ID, workflow.StateDraft, 2, entry)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("matching expectations apply the transition", func() {
		updated, err := s.store.UpdateState(s.ctx, doc.ID, workflow.StateDraft, 1, entry)
		s.Require().NoError(err)
		s.Equal(workflow.StateSubmitted, updated.WorkflowState)
		s.Len(updated.History, 2)
	})
}

func (s *MemoryStoreSuite) TestVersions() {
	doc := s.newDocument()
	s.Require().NoError(s.store.Create(s.ctx, doc))

	later := doc.UploadDate.AddDate(0, 2, 0)
	expiry := later.AddDate(3, 0, 0)
	updated, err := s.store.CreateVersion(s.ctx, doc.ID, FileInfo{
		Name:      "cert-v2.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 2000,
	}, "documents/app-1/cert-v2.pdf", later, &expiry)
	s.Require().NoError(err)
	s.Equal(2, updated.Version)
	s.Require().NotNil(updated.ExpiryDate)
	s.Equal(expiry, *updated.ExpiryDate)

	versions, err := s.store.ListVersions(s.ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(versions, 2)
	s.Equal(2, versions[0].Number)
	s.Equal(1, versions[1].Number)

	s.Run("unknown document has no versions", func() {
		_, err := s.store.ListVersions(s.ctx, id.NewDocumentID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestListByOwner() {
	first := s.newDocument()
	second := s.newDocument()
	second.OwnerID = "app-2"
	s.Require().NoError(s.store.Create(s.ctx, first))
	s.Require().NoError(s.store.Create(s.ctx, second))

	docs, err := s.store.ListByOwner(s.ctx, OwnerApplication, "app-1")
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(first.ID, docs[0].ID)
}
