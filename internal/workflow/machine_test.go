package workflow

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "seacert/pkg/domain"
	dErrors "seacert/pkg/domain-errors"
)

var allStates = []State{
	StateDraft, StateSubmitted, StateUnderReview, StateNeedsRevision,
	StateApproved, StateRejected, StateExpired, StateRevoked, StateDeleted,
}

func TestSuccessors_ExactTable(t *testing.T) {
	want := map[State][]State{
		StateDraft:         {StateDeleted, StateSubmitted},
		StateSubmitted:     {StateRejected, StateUnderReview},
		StateUnderReview:   {StateApproved, StateNeedsRevision, StateRejected},
		StateNeedsRevision: {StateSubmitted},
		StateApproved:      {StateExpired, StateRevoked},
		StateRejected:      {StateDeleted},
		StateExpired:       {StateSubmitted},
		StateRevoked:       {},
		StateDeleted:       {},
	}
	for from, successors := range want {
		assert.Equal(t, successors, Successors(from), string(from))
	}
}

func TestTerminalStates(t *testing.T) {
	for _, s := range allStates {
		terminal := s == StateDeleted || s == StateRevoked
		assert.Equal(t, terminal, s.IsTerminal(), string(s))
	}
}

func TestApply(t *testing.T) {
	actor := id.NewUserID()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	t.Run("legal transition returns history entry", func(t *testing.T) {
		entry, err := Apply(StateSubmitted, StateUnderReview, RoleReviewer, actor, "", now)
		require.NoError(t, err)
		assert.Equal(t, StateUnderReview, entry.State)
		assert.Equal(t, now, entry.Timestamp)
		assert.Equal(t, actor, entry.ActorID)
		assert.Empty(t, entry.Comment)
	})

	t.Run("every illegal pair is rejected", func(t *testing.T) {
		for _, from := range allStates {
			for _, to := range allStates {
				if CanTransition(from, to) {
					continue
				}
				_, err := Apply(from, to, RoleAdmin, actor, "", now)
				require.Error(t, err, "%s -> %s", from, to)
				assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidTransition), "%s -> %s", from, to)
			}
		}
	})

	t.Run("every legal pair succeeds for admin and reviewer", func(t *testing.T) {
		for _, from := range allStates {
			for _, to := range Successors(from) {
				for _, role := range []Role{RoleAdmin, RoleReviewer} {
					entry, err := Apply(from, to, role, actor, "ok", now)
					require.NoError(t, err, "%s -> %s as %s", from, to, role)
					assert.Equal(t, to, entry.State)
				}
			}
		}
	})

	t.Run("deleted and revoked have no outgoing edges for any role", func(t *testing.T) {
		for _, from := range []State{StateDeleted, StateRevoked} {
			for _, to := range allStates {
				_, err := Apply(from, to, RoleAdmin, actor, "", now)
				require.Error(t, err)
			}
		}
	})

	t.Run("submitter and institution may not transition", func(t *testing.T) {
		for _, role := range []Role{RoleSubmitter, RoleInstitution, Role("auditor")} {
			_, err := Apply(StateDraft, StateSubmitted, role, actor, "", now)
			require.Error(t, err)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden), string(role))
		}
	})

	t.Run("role check on a legal edge still rejects before table check on an illegal one", func(t *testing.T) {
		// An unauthorized role on an illegal edge reports Forbidden, not
		// InvalidTransition: the caller learns nothing about the graph.
		_, err := Apply(StateDraft, StateApproved, RoleInstitution, actor, "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("unknown states are invalid input", func(t *testing.T) {
		_, err := Apply(State("archived"), StateDraft, RoleAdmin, actor, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

		_, err = Apply(StateDraft, State("archived"), RoleAdmin, actor, "", now)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})
}

func TestComment(t *testing.T) {
	actor := id.NewUserID()
	now := time.Now()

	t.Run("keeps current state", func(t *testing.T) {
		entry, err := Comment(StateUnderReview, RoleSubmitter, actor, "please check page 3", now)
		require.NoError(t, err)
		assert.Equal(t, StateUnderReview, entry.State)
		assert.Equal(t, "please check page 3", entry.Comment)
	})

	t.Run("institution may not comment", func(t *testing.T) {
		_, err := Comment(StateDraft, RoleInstitution, actor, "hello", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("empty comment rejected", func(t *testing.T) {
		_, err := Comment(StateDraft, RoleAdmin, actor, "", now)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}
