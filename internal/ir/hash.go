package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix leaves
// room for algorithm migration without colliding with existing IDs.
const (
	DomainFragment = "weft/fragment/v1"
	DomainEdge     = "weft/edge/v1"
	DomainThread   = "weft/thread/v1"
	DomainSnapshot = "weft/snapshot/v1"
)

// hashWithDomain computes SHA-256 over domain || 0x00 || data.
// The null separator prevents domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// FragmentIDOf computes the content-derived identity of a fragment.
// Derived from the source, the claimed event time, and the normalized token
// set - the same evidence always yields the same ID, independent of when or
// in what order it was ingested.
func FragmentIDOf(sourceID string, eventTime int64, tokens []string) FragmentID {
	obj := map[string]any{
		"source_id":  sourceID,
		"event_time": eventTime,
		"tokens":     tokens,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		// Inputs are strings and ints only; a marshal failure here is a
		// programming error, not a data error.
		panic(fmt.Sprintf("FragmentIDOf: %v", err))
	}
	return FragmentID(hashWithDomain(DomainFragment, canonical))
}

// EdgeIDOf computes the content-addressed identity of an edge.
func EdgeIDOf(source, target FragmentID, kind EdgeKind) string {
	obj := map[string]any{
		"source": string(source),
		"target": string(target),
		"kind":   string(kind),
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		panic(fmt.Sprintf("EdgeIDOf: %v", err))
	}
	return hashWithDomain(DomainEdge, canonical)
}

// ThreadIDOf derives a thread identity from its founding fragment and the
// tick at which it emerged. Deterministic by construction: a replay creates
// the same threads with the same IDs. A thread restarted after VANISHED
// emerges at a later tick and therefore gets a fresh ID even for identical
// content.
func ThreadIDOf(founder FragmentID, tick int64) ThreadID {
	obj := map[string]any{
		"founder": string(founder),
		"tick":    tick,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		panic(fmt.Sprintf("ThreadIDOf: %v", err))
	}
	return ThreadID(hashWithDomain(DomainThread, canonical))
}

// SnapshotHash computes the verification hash of a snapshot:
// H(domain, parent_hash || 0x00 || canonical_content). Including the parent
// hash links versions into a chain; any tampering with an ancestor changes
// every descendant hash.
func SnapshotHash(parentHash string, content map[string]any) (string, error) {
	canonical, err := MarshalCanonical(content)
	if err != nil {
		return "", fmt.Errorf("snapshot hash: %w", err)
	}
	payload := make([]byte, 0, len(parentHash)+1+len(canonical))
	payload = append(payload, parentHash...)
	payload = append(payload, 0x00)
	payload = append(payload, canonical...)
	return hashWithDomain(DomainSnapshot, payload), nil
}

// canonicalContent flattens the snapshot's hashed fields into canonical
// marshal input. Hash and ParentHash are excluded: the parent hash enters
// the computation as the chain link in SnapshotHash, and the hash itself is
// the output.
func (s ThreadStateSnapshot) canonicalContent() map[string]any {
	members := make([]string, len(s.Members))
	for i, m := range s.Members {
		members[i] = string(m)
	}

	edges := make([]map[string]any, len(s.AdmittedEdges))
	for i, e := range s.AdmittedEdges {
		edges[i] = edgeContent(e)
	}

	markers := make([]map[string]any, len(s.DivergenceMarkers))
	for i, m := range s.DivergenceMarkers {
		markers[i] = map[string]any{
			"tick":       m.Tick,
			"reason":     string(m.Reason),
			"fragment_a": string(m.FragmentA),
			"fragment_b": string(m.FragmentB),
			"source_a":   m.SourceA,
			"source_b":   m.SourceB,
			"components": m.Components,
		}
	}

	absences := make([]map[string]any, len(s.AbsenceBlocks))
	for i, a := range s.AbsenceBlocks {
		absences[i] = map[string]any{
			"from_tick": a.FromTick,
			"to_tick":   a.ToTick,
		}
	}

	bridges := make([]map[string]any, len(s.Connectivity.Bridges))
	for i, e := range s.Connectivity.Bridges {
		bridges[i] = edgeContent(e)
	}

	return map[string]any{
		"thread_id":           string(s.ThreadID),
		"version_id":          s.VersionID,
		"parent_version_id":   s.ParentVersionID,
		"transition":          string(s.Transition),
		"tick":                s.Tick,
		"lifecycle_state":     string(s.Lifecycle),
		"last_update_tick":    s.LastUpdateTick,
		"member_fragment_ids": members,
		"admitted_edges":      edges,
		"divergence_markers":  markers,
		"absence_blocks":      absences,
		"connectivity": map[string]any{
			"components": s.Connectivity.Components,
			"bridges":    bridges,
		},
	}
}

func edgeContent(e Edge) map[string]any {
	return map[string]any{
		"source": string(e.Source),
		"target": string(e.Target),
		"kind":   string(e.Kind),
	}
}
