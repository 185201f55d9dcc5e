package engine

import (
	"fmt"

	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/ir"
)

// RejectReason names why the admission gate refused an edge.
type RejectReason string

const (
	// RejectSemanticInference is the invariant rejection of INFERRED edges:
	// structure produced by similarity or embedding computation never
	// enters thread assembly.
	RejectSemanticInference RejectReason = "SEMANTIC_INFERENCE_FORBIDDEN"

	// RejectKindNotAllowed covers edge kinds outside the current mode's
	// allowlist (SEQUENTIAL in strict mode, or an unknown kind).
	RejectKindNotAllowed RejectReason = "EDGE_KIND_NOT_ALLOWED"

	// RejectUnknownEndpoint covers edges whose endpoints do not both
	// resolve to fragments already known to the engine.
	RejectUnknownEndpoint RejectReason = "UNKNOWN_ENDPOINT"
)

// Rejection describes a refused edge. Rejections are recoverable: the edge
// is logged and dropped, and processing continues without it.
type Rejection struct {
	Edge   ir.Edge
	Reason RejectReason
	Detail string
}

func (r Rejection) String() string {
	return fmt.Sprintf("%s: %s (%s -> %s, kind=%s)", r.Reason, r.Detail, r.Edge.Source, r.Edge.Target, r.Edge.Kind)
}

// FragmentResolver reports whether a fragment ID is known to the engine.
type FragmentResolver interface {
	HasFragment(id ir.FragmentID) bool
}

// Gate is the edge admission gate: the single choke point enforcing the
// no-hallucinated-structure guarantee. Every component downstream of the
// gate may assume the edges it sees carry explicit provenance.
type Gate struct {
	allowed  map[ir.EdgeKind]bool
	resolver FragmentResolver
}

// NewGate builds a gate for the configured mode. Strict mode admits only
// HYPERLINK edges; trusted mode additionally admits analyst-declared
// SEQUENTIAL edges. INFERRED is never in any allowlist.
func NewGate(mode config.Mode, resolver FragmentResolver) *Gate {
	allowed := map[ir.EdgeKind]bool{ir.EdgeHyperlink: true}
	if mode == config.ModeTrusted {
		allowed[ir.EdgeSequential] = true
	}
	return &Gate{allowed: allowed, resolver: resolver}
}

// Admit validates one candidate edge. Returns the admitted edge, or a
// rejection naming the reason. Exactly one of the two is meaningful.
func (g *Gate) Admit(edge ir.Edge) (ir.Edge, *Rejection) {
	if edge.Kind == ir.EdgeInferred {
		return ir.Edge{}, &Rejection{
			Edge:   edge,
			Reason: RejectSemanticInference,
			Detail: "edge produced by similarity computation",
		}
	}
	if !g.allowed[edge.Kind] {
		return ir.Edge{}, &Rejection{
			Edge:   edge,
			Reason: RejectKindNotAllowed,
			Detail: fmt.Sprintf("kind %s not in mode allowlist", edge.Kind),
		}
	}
	if !g.resolver.HasFragment(edge.Source) {
		return ir.Edge{}, &Rejection{
			Edge:   edge,
			Reason: RejectUnknownEndpoint,
			Detail: fmt.Sprintf("source fragment %s unknown", edge.Source),
		}
	}
	if !g.resolver.HasFragment(edge.Target) {
		return ir.Edge{}, &Rejection{
			Edge:   edge,
			Reason: RejectUnknownEndpoint,
			Detail: fmt.Sprintf("target fragment %s unknown", edge.Target),
		}
	}
	return edge, nil
}
