package ir

import (
	"fmt"
	"slices"
	"strings"
)

// FragmentID identifies one immutable unit of normalized evidence.
// Content-derived via FragmentIDOf - stable across restarts and replays.
type FragmentID string

// ThreadID identifies one narrative thread lineage. Stable for the life of
// the thread; a thread terminated at VANISHED never reuses its ID.
type ThreadID string

// EdgeKind classifies the provenance of a structural edge.
type EdgeKind string

const (
	// EdgeHyperlink is an explicit reference declared by the source itself
	// (e.g. one report linking to another).
	EdgeHyperlink EdgeKind = "HYPERLINK"

	// EdgeSequential is an analyst-declared sequence link between fragments.
	// Admitted only in trusted mode.
	EdgeSequential EdgeKind = "SEQUENTIAL"

	// EdgeInferred marks an edge produced by similarity or embedding
	// computation. Part of the taxonomy so it can be named in rejections,
	// but the admission gate never lets one through.
	EdgeInferred EdgeKind = "INFERRED"
)

// Edge is a structural relation between two fragments.
// Content-addressed by (source, target, kind); immutable.
type Edge struct {
	Source FragmentID `json:"source"`
	Target FragmentID `json:"target"`
	Kind   EdgeKind   `json:"kind"`
}

// ID returns the content-addressed identity of the edge.
func (e Edge) ID() string {
	return EdgeIDOf(e.Source, e.Target, e.Kind)
}

// Connects reports whether the edge joins fragments a and b in either
// direction. Structural edges are undirected for connectivity purposes.
func (e Edge) Connects(a, b FragmentID) bool {
	return (e.Source == a && e.Target == b) || (e.Source == b && e.Target == a)
}

// Fragment is one piece of reported evidence after normalization.
// The engine owns it once handed in; it is never modified.
type Fragment struct {
	ID         FragmentID `json:"fragment_id"`
	SourceID   string     `json:"source_id"`
	EventTime  int64      `json:"event_time"`  // claimed by the source, carried as data only
	IngestTime int64      `json:"ingest_time"` // observed at ingestion
	Tokens     []string   `json:"tokens"`      // normalized, sorted, deduplicated

	// CandidateRelations are the explicitly declared edges this fragment
	// arrived with. Each must still pass the admission gate.
	CandidateRelations []Edge `json:"candidate_relations,omitempty"`
}

// NewFragment builds a fragment with a content-derived ID.
// Tokens are lowercased, deduplicated, and sorted so that the same evidence
// always produces the same identity regardless of token order.
func NewFragment(sourceID string, eventTime, ingestTime int64, tokens []string, relations []Edge) Fragment {
	norm := NormalizeTokens(tokens)
	f := Fragment{
		SourceID:           sourceID,
		EventTime:          eventTime,
		IngestTime:         ingestTime,
		Tokens:             norm,
		CandidateRelations: slices.Clone(relations),
	}
	f.ID = FragmentIDOf(sourceID, eventTime, norm)
	return f
}

// NormalizeTokens lowercases, trims, deduplicates and sorts a token set.
func NormalizeTokens(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	out := make([]string, 0, len(tokens))
	for _, t := range tokens {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	slices.Sort(out)
	return out
}

// LifecycleState is the lifecycle position of a thread.
type LifecycleState string

const (
	StateEmergent   LifecycleState = "EMERGENT"
	StateActive     LifecycleState = "ACTIVE"
	StateDormant    LifecycleState = "DORMANT"
	StateUnresolved LifecycleState = "UNRESOLVED"
	StateVanished   LifecycleState = "VANISHED" // terminal, absorbing
)

// Terminal reports whether the state admits no further transitions.
func (s LifecycleState) Terminal() bool { return s == StateVanished }

// Transition names the state change a snapshot records.
type Transition string

const (
	TransitionEmerged     Transition = "EMERGED"      // first fragment, new thread
	TransitionAttached    Transition = "ATTACHED"     // fragment joined an existing thread
	TransitionDormant     Transition = "WENT_DORMANT" // silence exceeded the dormancy window
	TransitionUnresolved  Transition = "UNRESOLVED"   // silence exceeded the unresolved window
	TransitionResurrected Transition = "RESURRECTED"  // new presence segment after silence
	TransitionVanished    Transition = "VANISHED"     // silence exceeded the vanish window, terminal
)

// DivergenceReason names why a divergence marker was recorded.
type DivergenceReason string

const (
	// ReasonDivergenceDetected marks two same-tick fragments from different
	// sources with low lexical agreement co-assigned to one thread.
	ReasonDivergenceDetected DivergenceReason = "DIVERGENCE_DETECTED"

	// ReasonFragmented marks a thread whose admitted-edge graph has split
	// into more than one connected component.
	ReasonFragmented DivergenceReason = "FRAGMENTED"
)

// DivergenceMarker is a flagged, unresolved structural contradiction.
// Markers accumulate on a thread and are never removed.
type DivergenceMarker struct {
	Tick       int64            `json:"tick"`
	Reason     DivergenceReason `json:"reason"`
	FragmentA  FragmentID       `json:"fragment_a,omitempty"`
	FragmentB  FragmentID       `json:"fragment_b,omitempty"`
	SourceA    string           `json:"source_a,omitempty"`
	SourceB    string           `json:"source_b,omitempty"`
	Components int64            `json:"components,omitempty"` // only for FRAGMENTED
}

// String renders the marker the way it appears in audit details.
func (m DivergenceMarker) String() string {
	if m.Reason == ReasonFragmented {
		return fmt.Sprintf("FRAGMENTED(components=%d)", m.Components)
	}
	return fmt.Sprintf("%s(%s|%s)", m.Reason, m.FragmentA, m.FragmentB)
}

// AbsenceBlock records an expected-but-missing continuation of a thread.
// Once emitted it is never deleted or resized; a resurrection opens a new
// presence segment alongside it.
type AbsenceBlock struct {
	FromTick int64 `json:"from_tick"`
	ToTick   int64 `json:"to_tick"`
}

// Connectivity is the structural verdict over a thread's admitted-edge graph.
// Components == 1 means the thread holds together as a single narrative;
// anything else is a fragmentation, with no partial-credit middle ground.
type Connectivity struct {
	Components int64  `json:"components"`
	Bridges    []Edge `json:"bridges,omitempty"` // edges whose removal would split the graph
}

// Connected reports whether the graph forms exactly one component.
func (c Connectivity) Connected() bool { return c.Components == 1 }

// ThreadStateSnapshot is one immutable version of a thread. Every state
// change produces a new snapshot chained to its parent by version and hash;
// no snapshot is ever edited in place.
type ThreadStateSnapshot struct {
	ThreadID        ThreadID   `json:"thread_id"`
	VersionID       int64      `json:"version_id"`        // monotonic per thread, starts at 1
	ParentVersionID int64      `json:"parent_version_id"` // 0 for the root version
	Transition      Transition `json:"transition"`
	Tick            int64      `json:"tick"`

	Lifecycle      LifecycleState `json:"lifecycle_state"`
	LastUpdateTick int64          `json:"last_update_tick"`

	Members           []FragmentID       `json:"member_fragment_ids"` // append-only, arrival order
	AdmittedEdges     []Edge             `json:"admitted_edges"`
	DivergenceMarkers []DivergenceMarker `json:"divergence_markers,omitempty"`
	AbsenceBlocks     []AbsenceBlock     `json:"absence_blocks,omitempty"`
	Connectivity      Connectivity       `json:"connectivity"`

	Hash       string `json:"hash"`
	ParentHash string `json:"parent_hash"`
}

// Child derives the next version of the snapshot: same thread, version
// incremented, parent pointers set, grow-only collections copied so the new
// version can append without touching its parent.
func (s ThreadStateSnapshot) Child(tick int64, transition Transition) ThreadStateSnapshot {
	return ThreadStateSnapshot{
		ThreadID:          s.ThreadID,
		VersionID:         s.VersionID + 1,
		ParentVersionID:   s.VersionID,
		Transition:        transition,
		Tick:              tick,
		Lifecycle:         s.Lifecycle,
		LastUpdateTick:    s.LastUpdateTick,
		Members:           slices.Clone(s.Members),
		AdmittedEdges:     slices.Clone(s.AdmittedEdges),
		DivergenceMarkers: slices.Clone(s.DivergenceMarkers),
		AbsenceBlocks:     slices.Clone(s.AbsenceBlocks),
		Connectivity:      s.Connectivity,
		ParentHash:        s.Hash,
	}
}

// HasMember reports whether the fragment is already a member of the thread.
func (s ThreadStateSnapshot) HasMember(id FragmentID) bool {
	return slices.Contains(s.Members, id)
}

// Seal computes and sets the snapshot's verification hash. Must be called
// after all content fields are final and before the snapshot is committed.
func (s *ThreadStateSnapshot) Seal() error {
	h, err := SnapshotHash(s.ParentHash, s.canonicalContent())
	if err != nil {
		return fmt.Errorf("seal snapshot %s v%d: %w", s.ThreadID, s.VersionID, err)
	}
	s.Hash = h
	return nil
}

// VerifyHash recomputes the hash from content and parent hash and compares
// it to the stored value. A mismatch is a fatal integrity error upstream.
func (s ThreadStateSnapshot) VerifyHash() error {
	h, err := SnapshotHash(s.ParentHash, s.canonicalContent())
	if err != nil {
		return err
	}
	if h != s.Hash {
		return fmt.Errorf("snapshot %s v%d: stored hash %s does not match recomputed %s",
			s.ThreadID, s.VersionID, s.Hash, h)
	}
	return nil
}

// NarrativeStateEvent is emitted once per committed transition for the
// external query and observability collaborators.
type NarrativeStateEvent struct {
	ThreadID   ThreadID   `json:"thread_id"`
	VersionID  int64      `json:"version_id"`
	Transition Transition `json:"transition"`
	Tick       int64      `json:"tick"`
}

// AuditType categorizes audit log entries.
type AuditType string

const (
	AuditEdgeRejected      AuditType = "EDGE_REJECTED"
	AuditLifecycle         AuditType = "LIFECYCLE_TRANSITION"
	AuditDivergence        AuditType = "DIVERGENCE_MARKER"
	AuditTemporalAmbiguity AuditType = "TEMPORAL_AMBIGUITY"
	AuditInsufficientData  AuditType = "INSUFFICIENT_DATA"
)

// AuditLogEntry records every deviation and transition for the external
// observability collaborator. The run token correlates entries from one
// engine process; it never participates in any hash.
type AuditLogEntry struct {
	Seq        int64      `json:"seq"`
	Tick       int64      `json:"tick"`
	Type       AuditType  `json:"type"`
	ThreadID   ThreadID   `json:"thread_id,omitempty"`
	FragmentID FragmentID `json:"fragment_id,omitempty"`
	Detail     string     `json:"detail"`
	RunToken   string     `json:"run_token,omitempty"`
}
