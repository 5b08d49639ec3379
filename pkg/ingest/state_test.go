package ingest

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStateMachineHappyPath(t *testing.T) {
	sm := newStateMachine()
	for _, s := range []State{StateLoading, StateNormalizing, StateTransforming, StateDeduping, StatePersisting, StateDone} {
		require.NoError(t, sm.Transition(s))
	}
	assert.Equal(t, StateDone, sm.Current())
	assert.Equal(t, []State{
		StateIdle, StateLoading, StateNormalizing, StateTransforming,
		StateDeduping, StatePersisting, StateDone,
	}, sm.History())
}

func TestStateMachineRejectsIllegalTransitions(t *testing.T) {
	sm := newStateMachine()
	err := sm.Transition(StateDeduping)

	var te *TransitionError
	require.True(t, errors.As(err, &te))
	assert.Equal(t, StateIdle, te.From)
	assert.Equal(t, StateDeduping, te.To)
	assert.Equal(t, StateIdle, sm.Current())
}

func TestStateMachineFailsFromAnyOpenStage(t *testing.T) {
	sm := newStateMachine()
	require.NoError(t, sm.Transition(StateLoading))
	require.NoError(t, sm.Transition(StateNormalizing))
	require.NoError(t, sm.Transition(StateFailed))
	assert.True(t, sm.Current().Terminal())

	// No way out of a terminal stage
	assert.Error(t, sm.Transition(StateFailed))
	assert.Error(t, sm.Transition(StateLoading))
}

func TestStateMachineCannotFailAfterDone(t *testing.T) {
	sm := newStateMachine()
	for _, s := range []State{StateLoading, StateNormalizing, StateTransforming, StateDeduping, StatePersisting, StateDone} {
		require.NoError(t, sm.Transition(s))
	}
	assert.Error(t, sm.Transition(StateFailed))
	assert.Equal(t, StateDone, sm.Current())
}
