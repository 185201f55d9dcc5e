package harness

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/engine"
	"github.com/stillpoint/weft/internal/ir"
	"github.com/stillpoint/weft/internal/store"
	"github.com/stillpoint/weft/internal/testutil"
)

// TraceEvent is one committed transition in scenario order. Hashes are
// deliberately absent: the trace records observable behavior, and chain
// identity is asserted by comparing independent runs, not golden bytes.
type TraceEvent struct {
	Seq        int64
	Tick       int64
	ThreadID   ir.ThreadID
	VersionID  int64
	Transition ir.Transition
	State      ir.LifecycleState
	Members    int64
	Components int64
	Markers    int64
}

// Result holds everything a scenario run produced.
type Result struct {
	Trace  []TraceEvent
	Heads  map[ir.ThreadID]ir.ThreadStateSnapshot
	Audits []ir.AuditLogEntry
}

// Run replays a scenario into a fresh engine over an isolated database and
// collects the full trace. The database is removed when the run finishes;
// the chain's integrity is verified before teardown.
func Run(scenario *Scenario) (*Result, error) {
	dir, err := os.MkdirTemp("", "weft-harness-*")
	if err != nil {
		return nil, fmt.Errorf("harness workdir: %w", err)
	}
	defer os.RemoveAll(dir)

	s, err := store.Open(filepath.Join(dir, "scenario.db"))
	if err != nil {
		return nil, fmt.Errorf("harness store: %w", err)
	}
	defer s.Close()

	return runInto(scenario, s)
}

func runInto(scenario *Scenario, s *store.Store) (*Result, error) {
	ctx := context.Background()

	cfg := config.Default()
	if scenario.Mode != "" {
		cfg.Mode = config.Mode(scenario.Mode)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("scenario config: %w", err)
	}

	var audits []ir.AuditLogEntry
	eng := engine.New(s, cfg,
		engine.WithThreadIDGenerator(&testutil.SequentialThreadIDs{}),
		engine.WithAuditSink(func(entry ir.AuditLogEntry) {
			audits = append(audits, entry)
		}),
	)

	aliasIDs := make(map[string]ir.FragmentID)
	for _, step := range scenario.Ticks {
		batch, err := buildBatch(step, aliasIDs)
		if err != nil {
			return nil, err
		}
		if err := eng.ProcessTick(ctx, batch.Tick, batch.Fragments); err != nil {
			return nil, fmt.Errorf("tick %d: %w", batch.Tick, err)
		}
	}

	if err := s.VerifyAll(ctx); err != nil {
		return nil, fmt.Errorf("chain verification: %w", err)
	}
	return collect(ctx, s, audits)
}

// Batches materializes a scenario's full tick stream into engine input,
// resolving alias references across ticks. Used by the CLI to feed stream
// files through the same format the conformance scenarios use.
func Batches(scenario *Scenario) ([]engine.TickBatch, error) {
	aliasIDs := make(map[string]ir.FragmentID)
	batches := make([]engine.TickBatch, 0, len(scenario.Ticks))
	for _, step := range scenario.Ticks {
		batch, err := buildBatch(step, aliasIDs)
		if err != nil {
			return nil, err
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// buildBatch materializes one tick's fragments, resolving alias references
// into real content-derived IDs.
func buildBatch(step TickStep, aliasIDs map[string]ir.FragmentID) (engine.TickBatch, error) {
	batch := engine.TickBatch{Tick: step.Tick}
	for _, spec := range step.Fragments {
		eventTime := spec.EventTime
		if eventTime == 0 {
			eventTime = step.Tick
		}
		f := ir.NewFragment(spec.Source, eventTime, step.Tick, spec.Tokens, nil)
		aliasIDs[spec.Alias] = f.ID

		for _, rel := range spec.Relations {
			target, ok := aliasIDs[rel.Target]
			if !ok {
				return engine.TickBatch{}, fmt.Errorf("tick %d: relation target %q unresolved", step.Tick, rel.Target)
			}
			f.CandidateRelations = append(f.CandidateRelations, ir.Edge{
				Source: f.ID,
				Target: target,
				Kind:   ir.EdgeKind(rel.Kind),
			})
		}
		batch.Fragments = append(batch.Fragments, f)
	}
	return batch, nil
}

// collect rebuilds the trace from the store's version logs. Ordering is
// (tick, thread ID, version), which is exactly commit order: one snapshot
// per thread per tick, threads committed in sorted order within a tick.
func collect(ctx context.Context, s *store.Store, audits []ir.AuditLogEntry) (*Result, error) {
	tids, err := s.ListThreads(ctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Heads:  make(map[ir.ThreadID]ir.ThreadStateSnapshot, len(tids)),
		Audits: audits,
	}

	var events []TraceEvent
	for _, tid := range tids {
		chain, err := s.ReplayThread(ctx, tid)
		if err != nil {
			return nil, err
		}
		result.Heads[tid] = chain[len(chain)-1]
		for _, snap := range chain {
			events = append(events, TraceEvent{
				Tick:       snap.Tick,
				ThreadID:   snap.ThreadID,
				VersionID:  snap.VersionID,
				Transition: snap.Transition,
				State:      snap.Lifecycle,
				Members:    int64(len(snap.Members)),
				Components: snap.Connectivity.Components,
				Markers:    int64(len(snap.DivergenceMarkers)),
			})
		}
	}

	slices.SortFunc(events, func(a, b TraceEvent) int {
		if a.Tick != b.Tick {
			return int(a.Tick - b.Tick)
		}
		if a.ThreadID != b.ThreadID {
			if a.ThreadID < b.ThreadID {
				return -1
			}
			return 1
		}
		return int(a.VersionID - b.VersionID)
	})
	for i := range events {
		events[i].Seq = int64(i + 1)
	}
	result.Trace = events
	return result, nil
}
