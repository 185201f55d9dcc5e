package store

import (
	"errors"
	"fmt"

	"github.com/stillpoint/weft/internal/ir"
)

// ChainMismatchError is the fatal integrity error: a stored hash does not
// match the recomputed one, or the chain's linkage is broken. It signals
// corruption or a non-deterministic bug upstream and must surface to the
// operator; the store never auto-repairs.
type ChainMismatchError struct {
	ThreadID  ir.ThreadID
	VersionID int64
	Detail    string
}

// Error implements the error interface.
func (e *ChainMismatchError) Error() string {
	return fmt.Sprintf("HASH_CHAIN_MISMATCH: thread %s version %d: %s", e.ThreadID, e.VersionID, e.Detail)
}

// IsChainMismatch reports whether err is a hash chain integrity failure.
// Uses errors.As to handle wrapped errors.
func IsChainMismatch(err error) bool {
	var cm *ChainMismatchError
	return errors.As(err, &cm)
}

// StaleParentError is returned when a commit's parent pointers do not match
// the current head. This is the compare-and-append check firing: a second
// writer lost the race, or the caller's view of the thread is outdated.
// Recoverable - re-read the head and rebuild the snapshot.
type StaleParentError struct {
	ThreadID    ir.ThreadID
	WantVersion int64
	HeadVersion int64
}

// Error implements the error interface.
func (e *StaleParentError) Error() string {
	return fmt.Sprintf("stale parent for thread %s: commit targets version %d but head is %d",
		e.ThreadID, e.WantVersion, e.HeadVersion)
}

// IsStaleParent reports whether err is a compare-and-append conflict.
func IsStaleParent(err error) bool {
	var sp *StaleParentError
	return errors.As(err, &sp)
}
