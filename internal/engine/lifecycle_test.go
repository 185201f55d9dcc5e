package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/ir"
)

func head(state ir.LifecycleState, lastUpdate int64) ir.ThreadStateSnapshot {
	return ir.ThreadStateSnapshot{
		ThreadID:       "t1",
		Lifecycle:      state,
		LastUpdateTick: lastUpdate,
	}
}

func TestSweepDormancy(t *testing.T) {
	l := NewLifecycle(config.Default())

	// Delta 2 is within the window; delta 3 exceeds it.
	assert.Nil(t, l.Sweep(head(ir.StateActive, 5), 7))

	res := l.Sweep(head(ir.StateActive, 5), 8)
	require.NotNil(t, res)
	assert.Equal(t, ir.StateDormant, res.To)
	assert.Equal(t, ir.TransitionDormant, res.Transition)
	assert.Nil(t, res.Absence)
}

func TestSweepEmergentDecaysLikeActive(t *testing.T) {
	l := NewLifecycle(config.Default())
	res := l.Sweep(head(ir.StateEmergent, 1), 4)
	require.NotNil(t, res)
	assert.Equal(t, ir.StateDormant, res.To)
}

func TestSweepUnresolvedRecordsAbsence(t *testing.T) {
	l := NewLifecycle(config.Default())

	// Dormant since last update at tick 5: delta 4 > 3 fires UNRESOLVED.
	assert.Nil(t, l.Sweep(head(ir.StateDormant, 5), 8))

	res := l.Sweep(head(ir.StateDormant, 5), 9)
	require.NotNil(t, res)
	assert.Equal(t, ir.StateUnresolved, res.To)
	require.NotNil(t, res.Absence)
	assert.Equal(t, ir.AbsenceBlock{FromTick: 6, ToTick: 9}, *res.Absence)
}

func TestSweepVanishDominates(t *testing.T) {
	l := NewLifecycle(config.Default())

	for _, state := range []ir.LifecycleState{
		ir.StateEmergent, ir.StateActive, ir.StateDormant, ir.StateUnresolved,
	} {
		res := l.Sweep(head(state, 5), 16)
		require.NotNil(t, res, "state %s", state)
		assert.Equal(t, ir.StateVanished, res.To)
		assert.Equal(t, state, res.From)
	}
}

func TestSweepVanishedIsAbsorbing(t *testing.T) {
	l := NewLifecycle(config.Default())
	assert.Nil(t, l.Sweep(head(ir.StateVanished, 5), 1000))
}

func TestSweepDeltaIsCumulative(t *testing.T) {
	l := NewLifecycle(config.Default())

	// A thread that went dormant at tick 8 still measures silence from its
	// last real update at tick 5, not from the dormancy transition.
	dormant := head(ir.StateDormant, 5)
	res := l.Sweep(dormant, 9)
	require.NotNil(t, res)
	assert.Equal(t, ir.StateUnresolved, res.To)
}

func TestReviveTransitions(t *testing.T) {
	l := NewLifecycle(config.Default())

	cases := []struct {
		from       ir.LifecycleState
		transition ir.Transition
	}{
		{ir.StateEmergent, ir.TransitionAttached},
		{ir.StateActive, ir.TransitionAttached},
		{ir.StateDormant, ir.TransitionResurrected},
		{ir.StateUnresolved, ir.TransitionResurrected},
	}
	for _, tc := range cases {
		state, transition := l.Revive(tc.from)
		assert.Equal(t, ir.StateActive, state, "from %s", tc.from)
		assert.Equal(t, tc.transition, transition, "from %s", tc.from)
	}
}
