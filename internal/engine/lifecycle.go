package engine

import (
	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/ir"
)

// SweepResult describes one silence-driven lifecycle transition.
type SweepResult struct {
	From       ir.LifecycleState
	To         ir.LifecycleState
	Transition ir.Transition

	// Absence is non-nil when the transition to UNRESOLVED records an
	// expected-but-missing continuation. The block is immutable from the
	// moment it exists.
	Absence *ir.AbsenceBlock
}

// Lifecycle advances threads through
// EMERGENT -> ACTIVE -> DORMANT -> UNRESOLVED -> VANISHED driven purely by
// silence measured in ticks. Arrival-driven transitions (attachment and
// resurrection) are handled by the engine at assembly time; this type owns
// only the decay side of the state machine.
type Lifecycle struct {
	cfg config.Config
}

// NewLifecycle builds the state machine with the configured tick offsets.
func NewLifecycle(cfg config.Config) *Lifecycle {
	return &Lifecycle{cfg: cfg}
}

// Sweep evaluates one thread at one tick with no new fragment. Returns nil
// when no transition fires. Delta is cumulative: measured from the thread's
// last actual update, not from the previous state change.
func (l *Lifecycle) Sweep(head ir.ThreadStateSnapshot, tick int64) *SweepResult {
	if head.Lifecycle.Terminal() {
		return nil
	}
	delta := tick - head.LastUpdateTick

	// Vanish dominates: once silence exceeds the terminal window the thread
	// archives regardless of which intermediate state it sits in.
	if delta > l.cfg.VanishedAfter {
		return &SweepResult{
			From:       head.Lifecycle,
			To:         ir.StateVanished,
			Transition: ir.TransitionVanished,
		}
	}

	switch head.Lifecycle {
	case ir.StateEmergent, ir.StateActive:
		if delta > l.cfg.DormantAfter {
			return &SweepResult{
				From:       head.Lifecycle,
				To:         ir.StateDormant,
				Transition: ir.TransitionDormant,
			}
		}
	case ir.StateDormant:
		if delta > l.cfg.UnresolvedAfter {
			// The gap starts right after the last observed update and runs
			// to the current tick. It is never resized by later events.
			return &SweepResult{
				From:       head.Lifecycle,
				To:         ir.StateUnresolved,
				Transition: ir.TransitionUnresolved,
				Absence: &ir.AbsenceBlock{
					FromTick: head.LastUpdateTick + 1,
					ToTick:   tick,
				},
			}
		}
	case ir.StateUnresolved:
		// Waiting for either resurrection or the vanish window above.
	}
	return nil
}

// Revive returns the arrival-driven transition for a thread receiving a new
// fragment: EMERGENT and ACTIVE threads record an attachment, DORMANT and
// UNRESOLVED threads resurrect into a new presence segment. Absence blocks
// already recorded stay untouched.
func (l *Lifecycle) Revive(current ir.LifecycleState) (ir.LifecycleState, ir.Transition) {
	switch current {
	case ir.StateDormant, ir.StateUnresolved:
		return ir.StateActive, ir.TransitionResurrected
	default:
		return ir.StateActive, ir.TransitionAttached
	}
}
