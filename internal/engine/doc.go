// Package engine implements the narrative state engine: the single-writer
// loop that admits structural edges, assembles fragments into threads,
// advances thread lifecycle tick by tick, detects structural divergence,
// verifies connectivity, and commits every transition as an immutable
// hash-chained snapshot.
//
// # Determinism
//
// The engine is pure compute over already-normalized input. Nothing in this
// package reads wall-clock time, randomness, or hardware state on any path
// that produces a snapshot; the only clock is the logical tick counter
// driven by the caller. Replaying the same ordered input from tick zero
// reproduces an identical hash chain for every thread.
//
// Ordering is by ingest tick. A fragment's claimed event time is carried as
// data and never consulted for sequencing, so out-of-order delivery cannot
// produce divergent replays.
//
// # Processing model
//
// All state transitions for one thread are strictly ordered: a tick's worth
// of fragments is processed to completion, snapshots are committed, and only
// then does the next tick begin. External callers enqueue TickBatch values;
// Run consumes them FIFO from exactly one goroutine. A tick's transition for
// a thread is atomic from the store's perspective - either the new snapshot
// commits or nothing does.
package engine
