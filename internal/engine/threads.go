package engine

import (
	"github.com/stillpoint/weft/internal/ir"
)

// threadState is the engine's in-memory view of one thread: the latest
// committed snapshot plus derived lookup structures. Everything here is
// rebuilt deterministically from the snapshot chain on restore; the
// snapshots themselves remain the only authoritative record.
type threadState struct {
	head    ir.ThreadStateSnapshot
	tokens  map[string]struct{}        // union of member token sets
	members map[ir.FragmentID]struct{} // fast membership checks
}

func newThreadState(head ir.ThreadStateSnapshot) *threadState {
	ts := &threadState{
		head:    head,
		tokens:  make(map[string]struct{}),
		members: make(map[ir.FragmentID]struct{}, len(head.Members)),
	}
	for _, m := range head.Members {
		ts.members[m] = struct{}{}
	}
	return ts
}

// absorb merges a member fragment's tokens into the thread's token union.
func (ts *threadState) absorb(f ir.Fragment) {
	ts.members[f.ID] = struct{}{}
	for _, t := range f.Tokens {
		ts.tokens[t] = struct{}{}
	}
}

// live reports whether the thread can still accept fragments.
// VANISHED is absorbing: a terminated thread never matches again.
func (ts *threadState) live() bool {
	return !ts.head.Lifecycle.Terminal()
}

// ThreadIDGenerator derives a new thread's identity from its founding
// fragment and emergence tick. The production implementation is
// content-addressed; tests substitute a fixed namer so golden traces stay
// human-readable. Either way the derivation must be deterministic.
type ThreadIDGenerator interface {
	ThreadID(founder ir.FragmentID, tick int64) ir.ThreadID
}

// ContentAddressedIDs derives thread IDs by hashing the founding fragment
// and tick. Same input stream, same thread identities, on every replay.
type ContentAddressedIDs struct{}

// ThreadID implements ThreadIDGenerator.
func (ContentAddressedIDs) ThreadID(founder ir.FragmentID, tick int64) ir.ThreadID {
	return ir.ThreadIDOf(founder, tick)
}
