package engine

import (
	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/ir"
)

// Detector flags structural contradiction within a thread without resolving
// it: when two fragments from different sources land in the same thread in
// the same tick with low lexical agreement, a marker is recorded. Neither
// fragment is excluded, no "correct" version is chosen, and membership is
// never altered.
type Detector struct {
	cfg config.Config
}

// NewDetector builds a divergence detector with the configured threshold.
func NewDetector(cfg config.Config) *Detector {
	return &Detector{cfg: cfg}
}

// Check examines the fragments co-assigned to one thread within one tick
// and returns the divergence markers to record. Pairs connected by an
// admitted edge are exempt: explicit trust overrides lexical suspicion.
// Pair order follows arrival order, so the marker list is deterministic.
func (d *Detector) Check(assigned []ir.Fragment, admitted []ir.Edge, tick int64) []ir.DivergenceMarker {
	var markers []ir.DivergenceMarker
	for i := 0; i < len(assigned); i++ {
		for j := i + 1; j < len(assigned); j++ {
			a, b := assigned[i], assigned[j]
			if a.SourceID == b.SourceID {
				continue
			}
			if edgeConnects(admitted, a.ID, b.ID) {
				continue
			}
			inter, union := overlapCounts(a.Tokens, tokenSet(b.Tokens))
			if !jaccardBelow(inter, union, d.cfg.JaccardDivergence) {
				continue
			}
			markers = append(markers, ir.DivergenceMarker{
				Tick:      tick,
				Reason:    ir.ReasonDivergenceDetected,
				FragmentA: a.ID,
				FragmentB: b.ID,
				SourceA:   a.SourceID,
				SourceB:   b.SourceID,
			})
		}
	}
	return markers
}

func edgeConnects(edges []ir.Edge, a, b ir.FragmentID) bool {
	for _, e := range edges {
		if e.Connects(a, b) {
			return true
		}
	}
	return false
}
