package workflow

import (
	"fmt"
	"sort"
	"time"

	id "seacert/pkg/domain"
	dErrors "seacert/pkg/domain-errors"
)

// transitions is the exact adjacency table for the lifecycle graph. A state
// absent from a set is an illegal target, never a coercible one.
var transitions = map[State][]State{
	StateDraft:         {StateSubmitted, StateDeleted},
	StateSubmitted:     {StateUnderReview, StateRejected},
	StateUnderReview:   {StateApproved, StateNeedsRevision, StateRejected},
	StateNeedsRevision: {StateSubmitted},
	StateApproved:      {StateExpired, StateRevoked},
	StateRejected:      {StateDeleted},
	StateExpired:       {StateSubmitted},
	StateRevoked:       {},
	StateDeleted:       {},
}

// Initial is the sole state for newly created records.
const Initial = StateDraft

// Successors returns the legal next states from the given state, sorted for
// stable presentation. The returned slice is a copy.
func Successors(from State) []State {
	next := append([]State(nil), transitions[from]...)
	sort.Slice(next, func(i, j int) bool { return next[i] < next[j] })
	return next
}

// CanTransition reports whether from -> to is an edge in the lifecycle graph.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Apply validates a requested transition and, when legal, returns the history
// entry to append. It never mutates anything itself: callers persist the new
// state and entry through their store's single compare-and-swap write path,
// so an error here means the record is untouched.
func Apply(current, target State, role Role, actor id.UserID, comment string, now time.Time) (HistoryEntry, error) {
	if !current.IsValid() {
		return HistoryEntry{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown current state %q", current))
	}
	if !target.IsValid() {
		return HistoryEntry{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown target state %q", target))
	}
	if !role.CanTransition() {
		return HistoryEntry{}, dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("role %q may not change workflow state", role))
	}
	if !CanTransition(current, target) {
		return HistoryEntry{}, dErrors.New(dErrors.CodeInvalidTransition,
			fmt.Sprintf("%s -> %s is not a legal transition", current, target))
	}
	return HistoryEntry{
		State:     target,
		Timestamp: now,
		Comment:   comment,
		ActorID:   actor,
	}, nil
}

// Comment returns a comment-only history entry: the state recorded is the
// current one, so appending it never moves the record. Admins, reviewers and
// submitters may comment.
func Comment(current State, role Role, actor id.UserID, comment string, now time.Time) (HistoryEntry, error) {
	if !current.IsValid() {
		return HistoryEntry{}, dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown current state %q", current))
	}
	if comment == "" {
		return HistoryEntry{}, dErrors.New(dErrors.CodeBadRequest, "comment must not be empty")
	}
	if !role.CanComment() {
		return HistoryEntry{}, dErrors.New(dErrors.CodeForbidden, fmt.Sprintf("role %q may not comment", role))
	}
	return HistoryEntry{
		State:     current,
		Timestamp: now,
		Comment:   comment,
		ActorID:   actor,
	}, nil
}
