package audit

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var droppedEvents = promauto.NewCounter(prometheus.CounterOpts{
	Name: "seacert_audit_events_dropped_total",
	Help: "Audit events dropped because the publish buffer was full",
})

// Recorder is the interface domain services emit through.
type Recorder interface {
	Record(ctx context.Context, event Event)
}

// Publisher queues events on a bounded channel consumed by the Worker. It
// never blocks the request path: when the buffer is full the event is
// dropped and counted, which is acceptable for this trail because the
// registry itself (documents, history) remains the record of fact.
type Publisher struct {
	inbox chan Event
}

// NewPublisher creates a publisher with the given buffer size.
func NewPublisher(buffer int) *Publisher {
	if buffer <= 0 {
		buffer = 256
	}
	return &Publisher{inbox: make(chan Event, buffer)}
}

// Record fills in category and timestamp defaults and enqueues the event.
func (p *Publisher) Record(_ context.Context, event Event) {
	if event.Category == "" {
		event.Category = event.Action.Category()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	select {
	case p.inbox <- event:
	default:
		droppedEvents.Inc()
	}
}

// Inbox exposes the consuming side for the worker.
func (p *Publisher) Inbox() <-chan Event { return p.inbox }

// NopRecorder discards every event. Used in tests that do not assert on the
// audit trail.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, Event) {}
