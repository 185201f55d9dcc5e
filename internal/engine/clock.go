package engine

import (
	"fmt"
	"sync/atomic"
)

// TickClock is the engine's logical clock: one unit per processing cycle,
// fully decoupled from wall-clock time. All lifecycle thresholds are
// expressed in ticks so replay is independent of execution speed.
//
// Thread-safety: safe for concurrent reads; advancement happens only from
// the engine's single-writer loop.
type TickClock struct {
	tick atomic.Int64
}

// NewTickClock creates a clock at tick 0. The first processed tick is 1.
func NewTickClock() *TickClock {
	return &TickClock{}
}

// NewTickClockAt creates a clock resumed at a specific tick.
// Used when rehydrating an engine from the snapshot store.
func NewTickClockAt(tick int64) *TickClock {
	c := &TickClock{}
	c.tick.Store(tick)
	return c
}

// Current returns the last completed tick.
func (c *TickClock) Current() int64 {
	return c.tick.Load()
}

// AdvanceTo moves the clock forward to tick. Ticks are strictly monotonic;
// moving backwards or standing still is a sequencing bug in the caller.
func (c *TickClock) AdvanceTo(tick int64) error {
	cur := c.tick.Load()
	if tick <= cur {
		return fmt.Errorf("tick %d is not after current tick %d", tick, cur)
	}
	c.tick.Store(tick)
	return nil
}
