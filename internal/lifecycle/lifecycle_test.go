package lifecycle

import (
	"errors"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gestaozabele/zeladoria/internal/apperr"
)

func TestStatesAreOrdered(t *testing.T) {
	got := States()
	require.Len(t, got, 8)
	assert.Equal(t, StateNew, got[0])
	assert.Equal(t, StateReopened, got[7])
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Order(), got[i].Order())
	}
}

func TestTerminalStates(t *testing.T) {
	assert.Equal(t, []State{StateRejectedByLeader, StateClosed}, TerminalStates())
	assert.Equal(t, []string{"rejected_by_leader", "closed"}, TerminalStrings())
}

func TestAssigneeAllowedOnlyAfterAssignment(t *testing.T) {
	for _, s := range []State{StateAssigned, StateInProgress, StateResolved, StateClosed, StateReopened} {
		assert.True(t, s.AllowsAssignee(), s)
	}
	for _, s := range []State{StateNew, StateApprovedByLeader, StateRejectedByLeader} {
		assert.False(t, s.AllowsAssignee(), s)
	}
}

func TestNextFollowsTableOnly(t *testing.T) {
	actions := []Action{ActionApprove, ActionReject, ActionAssign, ActionStart, ActionResolve, ActionClose, ActionReopen}
	targets := map[Action]State{
		ActionApprove: StateApprovedByLeader,
		ActionReject:  StateRejectedByLeader,
		ActionAssign:  StateAssigned,
		ActionStart:   StateInProgress,
		ActionResolve: StateResolved,
		ActionClose:   StateClosed,
		ActionReopen:  StateReopened,
	}
	edges := map[State][]Action{
		StateNew:              {ActionApprove, ActionReject},
		StateApprovedByLeader: {ActionAssign},
		StateAssigned:         {ActionStart},
		StateInProgress:       {ActionResolve},
		StateResolved:         {ActionClose, ActionReopen},
		StateReopened:         {ActionAssign},
	}

	for _, from := range States() {
		for _, action := range actions {
			tr, err := Next(from, action)
			if slices.Contains(edges[from], action) {
				require.NoError(t, err, "%s --%s-->", from, action)
				assert.Equal(t, targets[action], tr.To)
				continue
			}
			require.Error(t, err, "%s --%s-->", from, action)
			assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
			appErr, ok := apperr.As(err)
			require.True(t, ok)
			assert.Equal(t, string(from), appErr.Details["current"])
			assert.Equal(t, string(targets[action]), appErr.Details["requested"])
		}
	}
	assert.Len(t, Table(), 8)
}

func TestTerminalStatesHaveNoOutgoingEdges(t *testing.T) {
	for _, tr := range Table() {
		assert.False(t, tr.From.Terminal(), "edge from terminal state %s", tr.From)
	}
}

func TestParsePriority(t *testing.T) {
	p, err := ParsePriority(" High ")
	require.NoError(t, err)
	assert.Equal(t, PriorityHigh, p)

	for _, raw := range []string{"", "urgent", "normal"} {
		_, err := ParsePriority(raw)
		assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeInvalidPriority}), raw)
	}
}

func TestParseMotive(t *testing.T) {
	_, err := ParseMotive("   ")
	assert.True(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeMissingMotive}))

	_, err = ParseMotive("because")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
	assert.False(t, errors.Is(err, &apperr.Error{Kind: apperr.KindValidation, Code: apperr.CodeMissingMotive}))

	m, err := ParseMotive("Duplicate")
	require.NoError(t, err)
	assert.Equal(t, MotiveDuplicate, m)
}

func TestParseState(t *testing.T) {
	s, err := ParseState("IN_PROGRESS")
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, s)

	_, err = ParseState("archived")
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
