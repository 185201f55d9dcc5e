// Package ir defines the canonical data model of the narrative state engine:
// evidence fragments, structural edges, thread state snapshots, and the
// events the engine emits for downstream consumers.
//
// Everything in this package is immutable once constructed. Identity is
// content-addressed: fragment IDs, edge IDs, thread IDs, and snapshot hashes
// are all SHA-256 over domain-separated canonical JSON (RFC 8785 subset).
// No value in this package may be derived from wall-clock time, randomness,
// or hardware state - replay of the same input must reproduce identical IDs
// and hashes.
package ir
