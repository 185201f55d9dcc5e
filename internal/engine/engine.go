package engine

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/ir"
	"github.com/stillpoint/weft/internal/store"
)

// EventSink receives one NarrativeStateEvent per committed transition.
// Sinks must not block: the engine emits and moves on, and observability
// failures never stall state processing.
type EventSink func(ir.NarrativeStateEvent)

// AuditSink receives every audit log entry as it is recorded.
type AuditSink func(ir.AuditLogEntry)

// Engine is the single-writer narrative state engine.
//
// All mutations happen in the goroutine driving Run (or calling ProcessTick
// directly). External callers submit work with EnqueueTick. Different
// engines over different stores may run concurrently; one engine instance
// is one logical sequencer.
type Engine struct {
	store     *store.Store
	cfg       config.Config
	clock     *TickClock
	gate      *Gate
	asm       *Assembler
	lifecycle *Lifecycle
	detector  *Detector
	idgen     ThreadIDGenerator
	queue     *tickQueue

	threads   map[ir.ThreadID]*threadState
	owner     map[ir.FragmentID]ir.ThreadID
	fragments map[ir.FragmentID]ir.Fragment

	eventSink EventSink
	auditSink AuditSink
	auditSeq  int64

	// runToken correlates audit entries from one engine process. It is a
	// UUIDv7 and therefore NOT deterministic - it exists for operators and
	// never participates in snapshot content or hashing.
	runToken string
}

// Option configures an Engine.
type Option func(*Engine)

// WithThreadIDGenerator overrides thread identity derivation.
// Tests substitute a fixed namer for readable golden traces.
func WithThreadIDGenerator(g ThreadIDGenerator) Option {
	return func(e *Engine) { e.idgen = g }
}

// WithEventSink sets the transition event receiver.
func WithEventSink(sink EventSink) Option {
	return func(e *Engine) { e.eventSink = sink }
}

// WithAuditSink sets the audit entry receiver.
func WithAuditSink(sink AuditSink) Option {
	return func(e *Engine) { e.auditSink = sink }
}

// WithClock sets a pre-positioned tick clock, used when resuming from a
// populated store.
func WithClock(c *TickClock) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an engine over an empty or fresh store.
// Use Restore to resume over an existing version log.
func New(s *store.Store, cfg config.Config, opts ...Option) *Engine {
	e := &Engine{
		store:     s,
		cfg:       cfg,
		clock:     NewTickClock(),
		asm:       NewAssembler(cfg),
		lifecycle: NewLifecycle(cfg),
		detector:  NewDetector(cfg),
		idgen:     ContentAddressedIDs{},
		queue:     newTickQueue(),
		threads:   make(map[ir.ThreadID]*threadState),
		owner:     make(map[ir.FragmentID]ir.ThreadID),
		fragments: make(map[ir.FragmentID]ir.Fragment),
		runToken:  uuid.Must(uuid.NewV7()).String(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.gate = NewGate(cfg.Mode, e)
	return e
}

// SetEventSink replaces the transition event receiver. Call before
// processing begins; the sink is read from the processing goroutine.
func (e *Engine) SetEventSink(sink EventSink) {
	e.eventSink = sink
}

// HasFragment implements FragmentResolver for the admission gate.
func (e *Engine) HasFragment(id ir.FragmentID) bool {
	_, ok := e.fragments[id]
	return ok
}

// Clock returns the engine's logical clock.
func (e *Engine) Clock() *TickClock {
	return e.clock
}

// EnqueueTick submits a tick batch for the Run loop.
// Thread-safe. Returns false if the engine has been stopped.
func (e *Engine) EnqueueTick(b TickBatch) bool {
	return e.queue.Enqueue(b)
}

// QueueLen returns the number of pending batches.
func (e *Engine) QueueLen() int {
	return e.queue.Len()
}

// Stop closes the input queue, which causes Run to drain and return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Run starts the single-writer loop. Must be called from exactly one
// goroutine. Returns when the context is cancelled, the queue is closed and
// drained, or a storage/integrity error makes continued processing unsound.
// Unlike recoverable per-edge rejections, a failed commit stops the engine:
// retrying would fork the chain.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting", "run_token", e.runToken, "mode", string(e.cfg.Mode))

	for {
		batch, ok := e.queue.TryDequeue()
		if ok {
			if err := e.ProcessTick(ctx, batch.Tick, batch.Fragments); err != nil {
				slog.Error("tick processing failed", "tick", batch.Tick, "error", err)
				return err
			}
			continue
		}

		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()
		case <-e.queue.Wait():
			if e.queue.Len() == 0 && e.queue.isClosed() {
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// ProcessTick advances the engine to the given tick, processing the batch's
// fragments in ingest order. Ticks must be strictly increasing; gaps are
// allowed and are swept internally one tick at a time so that lifecycle
// decay visits every intermediate state in order.
func (e *Engine) ProcessTick(ctx context.Context, tick int64, fragments []ir.Fragment) error {
	cur := e.clock.Current()
	if tick <= cur {
		return fmt.Errorf("tick %d already processed (clock at %d)", tick, cur)
	}
	for t := cur + 1; t < tick; t++ {
		if err := e.processOneTick(ctx, t, nil); err != nil {
			return err
		}
	}
	return e.processOneTick(ctx, tick, fragments)
}

func (e *Engine) processOneTick(ctx context.Context, tick int64, fragments []ir.Fragment) error {
	if err := e.clock.AdvanceTo(tick); err != nil {
		return err
	}

	pending := make(map[ir.ThreadID]*ir.ThreadStateSnapshot)
	assigned := make(map[ir.ThreadID][]ir.Fragment)

	for _, f := range fragments {
		if _, ok := e.fragments[f.ID]; ok {
			slog.Debug("duplicate fragment ignored", "fragment", f.ID)
			continue
		}
		// Register before gating so edges referencing this fragment (its
		// own relations included) resolve.
		e.fragments[f.ID] = f

		admitted := e.admitRelations(ctx, tick, f)
		asg := e.assignFragment(ctx, tick, f, admitted)

		e.stageThread(tick, f, admitted, asg, pending)
		e.owner[f.ID] = asg.ThreadID
		e.threads[asg.ThreadID].absorb(f)
		assigned[asg.ThreadID] = append(assigned[asg.ThreadID], f)

		if err := e.store.WriteFragment(ctx, f, asg.ThreadID, tick); err != nil {
			return err
		}
	}

	// Divergence detection over each thread's same-tick co-assignments.
	for _, tid := range sortKeys(assigned) {
		snap := pending[tid]
		markers := e.detector.Check(assigned[tid], snap.AdmittedEdges, tick)
		for _, m := range markers {
			snap.DivergenceMarkers = append(snap.DivergenceMarkers, m)
			e.audit(ctx, tick, ir.AuditDivergence, tid, m.FragmentA, m.String())
		}
	}

	// Silence-driven lifecycle sweep over threads untouched this tick.
	for _, tid := range sortKeys(e.threads) {
		if _, touched := pending[tid]; touched {
			continue
		}
		ts := e.threads[tid]
		res := e.lifecycle.Sweep(ts.head, tick)
		if res == nil {
			continue
		}
		child := ts.head.Child(tick, res.Transition)
		child.Lifecycle = res.To
		if res.Absence != nil {
			child.AbsenceBlocks = append(child.AbsenceBlocks, *res.Absence)
		}
		pending[tid] = &child
	}

	// Connectivity verdict for every snapshot produced this tick. A change
	// in fragmentation is itself a recorded structural event.
	for _, tid := range sortKeys(pending) {
		snap := pending[tid]
		snap.Connectivity = Verify(snap.Members, snap.AdmittedEdges)
		prevComponents := int64(0)
		if ts, ok := e.threads[tid]; ok && snap.VersionID > 1 {
			prevComponents = ts.head.Connectivity.Components
		}
		if snap.Connectivity.Components > 1 && snap.Connectivity.Components != prevComponents {
			m := ir.DivergenceMarker{
				Tick:       tick,
				Reason:     ir.ReasonFragmented,
				Components: snap.Connectivity.Components,
			}
			snap.DivergenceMarkers = append(snap.DivergenceMarkers, m)
			e.audit(ctx, tick, ir.AuditDivergence, tid, "", m.String())
		}
	}

	return e.commitPending(ctx, tick, pending)
}

// admitRelations runs a fragment's candidate edges through the gate,
// auditing every rejection. Duplicate declarations collapse to one edge.
func (e *Engine) admitRelations(ctx context.Context, tick int64, f ir.Fragment) []ir.Edge {
	var admitted []ir.Edge
	seen := make(map[string]struct{})
	for _, rel := range f.CandidateRelations {
		edge, rej := e.gate.Admit(rel)
		if rej != nil {
			e.audit(ctx, tick, ir.AuditEdgeRejected, "", f.ID, rej.String())
			continue
		}
		if _, dup := seen[edge.ID()]; dup {
			continue
		}
		seen[edge.ID()] = struct{}{}
		admitted = append(admitted, edge)
	}
	return admitted
}

// assignFragment runs the assembler and audits the noteworthy outcomes.
func (e *Engine) assignFragment(ctx context.Context, tick int64, f ir.Fragment, admitted []ir.Edge) Assignment {
	asg := e.asm.Assemble(f, admitted, e.threads, e.owner, tick, func() ir.ThreadID {
		return e.idgen.ThreadID(f.ID, tick)
	})
	switch asg.Outcome {
	case OutcomeTemporalAmbiguity:
		e.audit(ctx, tick, ir.AuditTemporalAmbiguity, asg.ThreadID, f.ID,
			"multiple equally valid matches, resolved to most recently updated thread")
	case OutcomeInsufficientData:
		e.audit(ctx, tick, ir.AuditInsufficientData, asg.ThreadID, f.ID,
			"no token set and no admitted edges: single-fragment thread")
	}
	return asg
}

// stageThread folds one fragment into its thread's pending snapshot for
// this tick, creating the thread or the snapshot as needed. One snapshot
// per thread per tick: later fragments in the same tick append to it.
func (e *Engine) stageThread(tick int64, f ir.Fragment, admitted []ir.Edge, asg Assignment, pending map[ir.ThreadID]*ir.ThreadStateSnapshot) *ir.ThreadStateSnapshot {
	if asg.IsNew {
		snap := ir.ThreadStateSnapshot{
			ThreadID:       asg.ThreadID,
			VersionID:      1,
			Transition:     ir.TransitionEmerged,
			Tick:           tick,
			Lifecycle:      ir.StateEmergent,
			LastUpdateTick: tick,
			Members:        []ir.FragmentID{f.ID},
			AdmittedEdges:  appendEdges(nil, admitted),
		}
		pending[asg.ThreadID] = &snap
		e.threads[asg.ThreadID] = newThreadState(snap)
		return &snap
	}

	ts := e.threads[asg.ThreadID]
	snap, ok := pending[asg.ThreadID]
	if !ok {
		newState, transition := e.lifecycle.Revive(ts.head.Lifecycle)
		child := ts.head.Child(tick, transition)
		child.Lifecycle = newState
		child.LastUpdateTick = tick
		snap = &child
		pending[asg.ThreadID] = snap
		// Stage the provisional view so later fragments in this tick match
		// against the updated recency and state.
		ts.head.Lifecycle = newState
		ts.head.LastUpdateTick = tick
	}
	snap.Members = append(snap.Members, f.ID)
	snap.AdmittedEdges = appendEdges(snap.AdmittedEdges, admitted)
	return snap
}

// commitPending seals and appends this tick's snapshots in deterministic
// thread order, updates the in-memory heads, and emits events and audits.
func (e *Engine) commitPending(ctx context.Context, tick int64, pending map[ir.ThreadID]*ir.ThreadStateSnapshot) error {
	for _, tid := range sortKeys(pending) {
		snap := pending[tid]
		if err := snap.Seal(); err != nil {
			return err
		}
		if err := e.store.CommitSnapshot(ctx, *snap); err != nil {
			return fmt.Errorf("commit tick %d: %w", tick, err)
		}
		e.threads[tid].head = *snap

		e.audit(ctx, tick, ir.AuditLifecycle, tid, "",
			fmt.Sprintf("%s -> %s (v%d)", snap.Transition, snap.Lifecycle, snap.VersionID))
		if e.eventSink != nil {
			e.eventSink(ir.NarrativeStateEvent{
				ThreadID:   tid,
				VersionID:  snap.VersionID,
				Transition: snap.Transition,
				Tick:       tick,
			})
		}
		slog.Debug("snapshot committed",
			"thread", tid, "version", snap.VersionID,
			"transition", string(snap.Transition), "state", string(snap.Lifecycle), "tick", tick)
	}
	return nil
}

// audit records one audit entry: persisted, forwarded to the sink, and
// logged. Audit failures are logged and swallowed - observability problems
// never stop state processing.
func (e *Engine) audit(ctx context.Context, tick int64, typ ir.AuditType, threadID ir.ThreadID, fragmentID ir.FragmentID, detail string) {
	e.auditSeq++
	entry := ir.AuditLogEntry{
		Seq:        e.auditSeq,
		Tick:       tick,
		Type:       typ,
		ThreadID:   threadID,
		FragmentID: fragmentID,
		Detail:     detail,
		RunToken:   e.runToken,
	}
	if err := e.store.WriteAudit(ctx, entry); err != nil {
		slog.Error("audit write failed", "error", err, "type", string(typ))
	}
	if e.auditSink != nil {
		e.auditSink(entry)
	}
}

// appendEdges appends edges, skipping any already present by identity.
func appendEdges(dst []ir.Edge, edges []ir.Edge) []ir.Edge {
	for _, edge := range edges {
		found := false
		for _, have := range dst {
			if have == edge {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, edge)
		}
	}
	return dst
}

func sortKeys[V any](m map[ir.ThreadID]V) []ir.ThreadID {
	keys := make([]ir.ThreadID, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
