// Package renewal tracks requests to reissue expiring or expired documents.
// A renewal request is a side record: creating or completing one never
// touches the document's workflow state.
package renewal

import (
	"time"

	id "seacert/pkg/domain"
)

// RequestStatus is the lifecycle of a renewal request.
type RequestStatus string

const (
	StatusPending   RequestStatus = "pending"
	StatusCompleted RequestStatus = "completed"
)

// Request records that someone asked for a document to be reissued.
// Multiple pending requests per document are permitted; the portal surfaces
// duplicates to reviewers rather than deduplicating.
type Request struct {
	ID          id.RenewalID
	DocumentID  id.DocumentID
	RequestedBy id.UserID
	RequestDate time.Time
	Status      RequestStatus
	CompletedAt *time.Time
}
