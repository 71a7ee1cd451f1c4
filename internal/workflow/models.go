// Package workflow enforces the lifecycle state graph for documents and
// applications: which states exist, which moves are legal, who may make them,
// and the append-only history each move leaves behind.
package workflow

import (
	"time"

	id "seacert/pkg/domain"
)

// State is one of the named lifecycle stages a document or application
// passes through.
type State string

const (
	StateDraft         State = "draft"
	StateSubmitted     State = "submitted"
	StateUnderReview   State = "under_review"
	StateNeedsRevision State = "needs_revision"
	StateApproved      State = "approved"
	StateRejected      State = "rejected"
	StateExpired       State = "expired"
	StateRevoked       State = "revoked"
	StateDeleted       State = "deleted"
)

var validStates = map[State]bool{
	StateDraft:         true,
	StateSubmitted:     true,
	StateUnderReview:   true,
	StateNeedsRevision: true,
	StateApproved:      true,
	StateRejected:      true,
	StateExpired:       true,
	StateRevoked:       true,
	StateDeleted:       true,
}

// String returns the string representation of the state.
func (s State) String() string { return string(s) }

// IsValid reports whether s is a known lifecycle state.
func (s State) IsValid() bool { return validStates[s] }

// IsTerminal reports whether the state has no outgoing transitions.
func (s State) IsTerminal() bool { return len(transitions[s]) == 0 }

// Role identifies the capability level of the actor driving a transition.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleReviewer    Role = "reviewer"
	RoleSubmitter   Role = "submitter"
	RoleInstitution Role = "institution"
)

// CanTransition reports whether the role may change workflow state.
func (r Role) CanTransition() bool {
	return r == RoleAdmin || r == RoleReviewer
}

// CanComment reports whether the role may append comment-only history
// entries. Institutions read their records but never annotate them.
func (r Role) CanComment() bool {
	return r == RoleAdmin || r == RoleReviewer || r == RoleSubmitter
}

// HistoryEntry records one transition (or comment) against a record. Entries
// are immutable once appended and ordered by creation time; the record's
// current state always equals the state of its most recent entry.
type HistoryEntry struct {
	State     State
	Timestamp time.Time
	Comment   string
	ActorID   id.UserID
}
