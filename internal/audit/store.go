package audit

import "context"

// Store persists audit events. Append-only by contract: nothing in this
// package ever updates or deletes an event.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByDocument(ctx context.Context, documentID string) ([]Event, error)
}
