// Package testutil carries shared fixtures for engine and harness tests:
// a fixed thread namer and fragment builders with readable identities.
package testutil

import (
	"fmt"

	"github.com/stillpoint/weft/internal/ir"
)

// SequentialThreadIDs names threads thread-1, thread-2, ... in emergence
// order. Deterministic for a fixed fragment stream, and far easier to read
// in golden traces than content hashes.
type SequentialThreadIDs struct {
	n int
}

// ThreadID implements engine.ThreadIDGenerator.
func (g *SequentialThreadIDs) ThreadID(_ ir.FragmentID, _ int64) ir.ThreadID {
	g.n++
	return ir.ThreadID(fmt.Sprintf("thread-%d", g.n))
}

// Fragment builds a fragment from a source and token set, with the event
// and ingest times both pinned to the given tick.
func Fragment(sourceID string, tick int64, tokens ...string) ir.Fragment {
	return ir.NewFragment(sourceID, tick, tick, tokens, nil)
}

// Linked builds a fragment declaring one HYPERLINK edge from itself to the
// target fragment.
func Linked(sourceID string, tick int64, target ir.FragmentID, tokens ...string) ir.Fragment {
	f := ir.NewFragment(sourceID, tick, tick, tokens, nil)
	f.CandidateRelations = []ir.Edge{{Source: f.ID, Target: target, Kind: ir.EdgeHyperlink}}
	return f
}

// WithRelations builds a fragment carrying the given candidate edges, each
// sourced from the fragment itself.
func WithRelations(sourceID string, tick int64, tokens []string, kinds []ir.EdgeKind, targets []ir.FragmentID) ir.Fragment {
	f := ir.NewFragment(sourceID, tick, tick, tokens, nil)
	for i, target := range targets {
		f.CandidateRelations = append(f.CandidateRelations, ir.Edge{
			Source: f.ID, Target: target, Kind: kinds[i],
		})
	}
	return f
}
