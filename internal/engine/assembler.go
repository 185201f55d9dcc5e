package engine

import (
	"slices"

	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/ir"
)

// AssemblyOutcome classifies how a fragment found its thread, for the audit
// stream. The choice itself is carried in the returned thread ID.
type AssemblyOutcome string

const (
	OutcomeEdgeOverride      AssemblyOutcome = "EDGE_OVERRIDE"
	OutcomeHeuristicMatch    AssemblyOutcome = "HEURISTIC_MATCH"
	OutcomeTemporalAmbiguity AssemblyOutcome = "TEMPORAL_AMBIGUITY" // heuristic tie, resolved deterministically
	OutcomeEmergence         AssemblyOutcome = "EMERGENCE"
	OutcomeInsufficientData  AssemblyOutcome = "INSUFFICIENT_DATA" // no tokens, no edges: own thread
)

// Assignment is the assembler's verdict for one fragment.
type Assignment struct {
	ThreadID ir.ThreadID
	IsNew    bool
	Outcome  AssemblyOutcome
}

// Assembler decides fragment-to-thread membership. Matching rules are
// evaluated in order, first match wins:
//
//  1. Explicit-edge override: an admitted edge to a fragment already in a
//     live thread attaches there, regardless of temporal or lexical
//     distance. Explicit structure always overrides forensic heuristics.
//  2. Heuristic match: temporal adjacency within the configured tick window
//     AND lexical overlap above the configured Jaccard cutoff. Ties prefer
//     the most recently updated thread, then the lowest thread ID.
//  3. No match: emergence of a new thread.
//
// The assembler never consults a VANISHED thread: a long enough silence is
// a structural restart, and identical content afterwards founds a new
// thread under a new identity.
type Assembler struct {
	cfg config.Config
}

// NewAssembler builds an assembler with the supplied thresholds.
func NewAssembler(cfg config.Config) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble picks the thread for a fragment. admitted are the fragment's
// edges that passed the gate this tick; threads is the engine's current
// thread table; owner maps fragments to the thread that holds them.
func (a *Assembler) Assemble(
	fragment ir.Fragment,
	admitted []ir.Edge,
	threads map[ir.ThreadID]*threadState,
	owner map[ir.FragmentID]ir.ThreadID,
	tick int64,
	newID func() ir.ThreadID,
) Assignment {
	// Rule 1: explicit-edge override.
	for _, edge := range admitted {
		other := edge.Target
		if other == fragment.ID {
			other = edge.Source
		}
		tid, ok := owner[other]
		if !ok {
			continue
		}
		ts, ok := threads[tid]
		if !ok || !ts.live() {
			// The endpoint belongs to a terminated thread; reattachment is
			// prohibited, so the edge cannot place this fragment.
			continue
		}
		return Assignment{ThreadID: tid, Outcome: OutcomeEdgeOverride}
	}

	// A fragment with nothing to match on forms its own thread.
	if len(fragment.Tokens) == 0 && len(admitted) == 0 {
		return Assignment{ThreadID: newID(), IsNew: true, Outcome: OutcomeInsufficientData}
	}

	// Rule 2: heuristic match over live threads.
	type candidate struct {
		id             ir.ThreadID
		lastUpdateTick int64
	}
	var candidates []candidate
	for tid, ts := range threads {
		if !ts.live() {
			continue
		}
		if tick-ts.head.LastUpdateTick > a.cfg.TickWindow {
			continue
		}
		inter, union := overlapCounts(fragment.Tokens, ts.tokens)
		if !jaccardAbove(inter, union, a.cfg.JaccardInclusion) {
			continue
		}
		candidates = append(candidates, candidate{id: tid, lastUpdateTick: ts.head.LastUpdateTick})
	}

	if len(candidates) > 0 {
		// Deterministic tie-break: most recently updated first, then
		// lowest thread ID lexicographically.
		slices.SortFunc(candidates, func(x, y candidate) int {
			if x.lastUpdateTick != y.lastUpdateTick {
				if x.lastUpdateTick > y.lastUpdateTick {
					return -1
				}
				return 1
			}
			if x.id < y.id {
				return -1
			}
			if x.id > y.id {
				return 1
			}
			return 0
		})
		outcome := OutcomeHeuristicMatch
		if len(candidates) > 1 {
			outcome = OutcomeTemporalAmbiguity
		}
		return Assignment{ThreadID: candidates[0].id, Outcome: outcome}
	}

	// Rule 3: emergence.
	return Assignment{ThreadID: newID(), IsNew: true, Outcome: OutcomeEmergence}
}
