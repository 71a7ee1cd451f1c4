//go:build integration

package document_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"seacert/internal/document"
	"seacert/internal/workflow"
	id "seacert/pkg/domain"
	"seacert/pkg/platform/sentinel"
	"seacert/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *document.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	mgr := containers.GetManager()
	s.postgres = mgr.GetPostgres(s.T())
	s.store = document.NewPostgresStore(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	err := s.postgres.TruncateTables(ctx,
		"renewal_requests", "document_versions", "document_history", "documents")
	s.Require().NoError(err)
}

func newTestDocument() *document.Document {
	now := time.Now().UTC().Truncate(time.Microsecond)
	expiry := now.AddDate(1, 0, 0)
	return &document.Document{
		ID:             id.NewDocumentID(),
		OwnerKind:      document.OwnerApplication,
		OwnerID:        id.NewApplicationID().String(),
		RequirementKey: "safety_management_certificate",
		Name:           "smc.pdf",
		MimeType:       "application/pdf",
		SizeBytes:      2048,
		StoragePath:    "documents/test/smc.pdf",
		Status:         document.StatusPending,
		WorkflowState:  workflow.StateDraft,
		Version:        1,
		UploadDate:     now,
		ExpiryDate:     &expiry,
		Metadata:       map[string]string{"pages": "4"},
		History: []workflow.HistoryEntry{{
			State:     workflow.StateDraft,
			Timestamp: now,
			ActorID:   id.NewUserID(),
		}},
	}
}

func (s *PostgresStoreSuite) TestCreateAndGetRoundTrip() {
	ctx := context.Background()
	doc := newTestDocument()
	s.Require().NoError(s.store.Create(ctx, doc))

	got, err := s.store.Get(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(doc.ID, got.ID)
	s.Equal(doc.RequirementKey, got.RequirementKey)
	s.Equal(workflow.StateDraft, got.WorkflowState)
	s.Equal(map[string]string{"pages": "4"}, got.Metadata)
	s.Require().NotNil(got.ExpiryDate)
	s.WithinDuration(*doc.ExpiryDate, *got.ExpiryDate, time.Millisecond)
	s.Require().Len(got.History, 1)
	s.Equal(doc.History[0].ActorID, got.History[0].ActorID)

	versions, err := s.store.ListVersions(ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(versions, 1)
	s.Equal(1, versions[0].Number)
}

func (s *PostgresStoreSuite) TestGetUnknown() {
	_, err := s.store.Get(context.Background(), id.NewDocumentID())
	s.Require().ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateStatePreconditions() {
	ctx := context.Background()
	doc := newTestDocument()
	s.Require().NoError(s.store.Create(ctx, doc))

	entry := workflow.HistoryEntry{
		State:     workflow.StateSubmitted,
		Timestamp: time.Now().UTC(),
		ActorID:   id.NewUserID(),
	}

	s.Run("stale state is rejected", func() {
		_, err := s.store.UpdateState(ctx, doc.ID, workflow.StateSubmitted, doc.Version, entry)
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("matching preconditions apply the transition", func() {
		updated, err := s.store.UpdateState(ctx, doc.ID, workflow.StateDraft, doc.Version, entry)
		s.Require().NoError(err)
		s.Equal(workflow.StateSubmitted, updated.WorkflowState)
		s.Len(updated.History, 2)
	})

	s.Run("unknown document", func() {
		_, err := s.store.UpdateState(ctx, id.NewDocumentID(), workflow.StateDraft, 1, entry)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

// TestConcurrentTransitions verifies that racing reviewers cannot both apply
// a transition from the same observed state.
func (s *PostgresStoreSuite) TestConcurrentTransitions() {
	ctx := context.Background()
	doc := newTestDocument()
	s.Require().NoError(s.store.Create(ctx, doc))

	const goroutines = 20
	var wg sync.WaitGroup
	var successCount, conflictCount atomic.Int32

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			entry := workflow.HistoryEntry{
				State:     workflow.StateSubmitted,
				Timestamp: time.Now().UTC(),
				ActorID:   id.NewUserID(),
			}
			_, err := s.store.UpdateState(ctx, doc.ID, workflow.StateDraft, doc.Version, entry)
			if err == nil {
				successCount.Add(1)
			} else if errors.Is(err, sentinel.ErrConflict) {
				conflictCount.Add(1)
			}
		}()
	}
	wg.Wait()

	s.Equal(int32(1), successCount.Load(), "exactly one transition should win")
	s.Equal(int32(goroutines-1), conflictCount.Load())

	got, err := s.store.Get(ctx, doc.ID)
	s.Require().NoError(err)
	s.Equal(workflow.StateSubmitted, got.WorkflowState)
	s.Len(got.History, 2)
}

func (s *PostgresStoreSuite) TestCreateVersion() {
	ctx := context.Background()
	doc := newTestDocument()
	s.Require().NoError(s.store.Create(ctx, doc))

	uploaded := time.Now().UTC().Truncate(time.Microsecond)
	updated, err := s.store.CreateVersion(ctx, doc.ID, document.FileInfo{
		Name:      "smc-v2.pdf",
		MimeType:  "application/pdf",
		SizeBytes: 4096,
	}, "documents/test/smc-v2.pdf", uploaded, nil)
	s.Require().NoError(err)
	s.Equal(2, updated.Version)
	s.Equal("smc-v2.pdf", updated.Name)
	s.Nil(updated.ExpiryDate)
	// versioning never touches the workflow state
	s.Equal(workflow.StateDraft, updated.WorkflowState)

	versions, err := s.store.ListVersions(ctx, doc.ID)
	s.Require().NoError(err)
	s.Require().Len(versions, 2)
	s.Equal(2, versions[0].Number)
	s.Equal(1, versions[1].Number)
}

func (s *PostgresStoreSuite) TestListByOwner() {
	ctx := context.Background()
	doc := newTestDocument()
	s.Require().NoError(s.store.Create(ctx, doc))

	other := newTestDocument()
	s.Require().NoError(s.store.Create(ctx, other))

	docs, err := s.store.ListByOwner(ctx, document.OwnerApplication, doc.OwnerID)
	s.Require().NoError(err)
	s.Require().Len(docs, 1)
	s.Equal(doc.ID, docs[0].ID)
}
