// Package store persists the engine's output as an append-only version log:
// one hash-chained snapshot sequence per thread, a global head index, the
// known-fragment registry, and the audit log.
//
// Commits are compare-and-append: a snapshot only lands if its parent
// version and parent hash match the current head, which serializes writers
// per thread and guarantees a single linear chain with monotonic version
// IDs. Nothing is ever updated or deleted; replay reads the log back in
// order and re-verifies every hash. A mismatch between a stored hash and a
// recomputed one is a fatal integrity error, never repaired automatically.
package store
