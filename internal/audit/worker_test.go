package audit

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu     sync.Mutex
	events []Event
	fail   bool
}

func (f *fakeSink) Publish(_ context.Context, event Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("broker unavailable")
	}
	f.events = append(f.events, event)
	return nil
}

func (f *fakeSink) published() []Event {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Event(nil), f.events...)
}

func TestCategoryDefaulting(t *testing.T) {
	assert.Equal(t, CategoryCompliance, ActionTransitionApplied.Category())
	assert.Equal(t, CategorySecurity, ActionLoginFailed.Category())
	assert.Equal(t, CategoryOperations, ActionCommentAdded.Category())
	assert.Equal(t, CategoryOperations, Action("unknown_action").Category())
}

func TestPublisherNeverBlocks(t *testing.T) {
	pub := NewPublisher(1)
	ctx := context.Background()

	// Second record overflows the buffer; it must return immediately.
	done := make(chan struct{})
	go func() {
		pub.Record(ctx, Event{Action: ActionCommentAdded})
		pub.Record(ctx, Event{Action: ActionCommentAdded})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publisher blocked on a full buffer")
	}
}

func TestWorkerPersistsAndMirrors(t *testing.T) {
	pub := NewPublisher(8)
	store := NewInMemoryStore()
	sink := &fakeSink{}
	worker := NewWorker(store, sink, pub.Inbox(), slog.New(slog.NewTextHandler(testWriter{t}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = worker.Run(ctx) }()

	pub.Record(ctx, Event{Action: ActionDocumentUploaded, DocumentID: "doc-1"})
	pub.Record(ctx, Event{Action: ActionTransitionApplied, DocumentID: "doc-1"})

	require.Eventually(t, func() bool {
		return len(store.All()) == 2 && len(sink.published()) == 2
	}, time.Second, 10*time.Millisecond)

	events, err := store.ListByDocument(ctx, "doc-1")
	require.NoError(t, err)
	assert.Len(t, events, 2)
	assert.Equal(t, CategoryCompliance, events[0].Category)
	assert.False(t, events[0].Timestamp.IsZero())
}

func TestWorkerSurvivesSinkFailure(t *testing.T) {
	pub := NewPublisher(8)
	store := NewInMemoryStore()
	sink := &fakeSink{fail: true}
	worker := NewWorker(store, sink, pub.Inbox(), slog.New(slog.NewTextHandler(testWriter{t}, nil)))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = worker.Run(ctx) }()

	pub.Record(ctx, Event{Action: ActionRenewalRequested, DocumentID: "doc-2"})

	require.Eventually(t, func() bool {
		return len(store.All()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, sink.published())
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}
