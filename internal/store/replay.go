package store

import (
	"context"
	"fmt"

	"github.com/stillpoint/weft/internal/ir"
)

// ReplayThread reads a thread's full version log in order and verifies the
// hash chain as it goes: version continuity, parent-hash linkage, and a
// recomputation of every content hash. The returned sequence is restartable
// and finite - calling it again yields the same snapshots.
//
// Any discrepancy returns *ChainMismatchError. That error is fatal to
// replay by design: it means the log was corrupted or a non-deterministic
// bug produced it, and repairing silently would destroy the evidence.
func (s *Store) ReplayThread(ctx context.Context, threadID ir.ThreadID) ([]ir.ThreadStateSnapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT content FROM snapshots WHERE thread_id = ? ORDER BY version_id ASC
	`, string(threadID))
	if err != nil {
		return nil, fmt.Errorf("replay thread %s: %w", threadID, err)
	}
	defer rows.Close()

	var chain []ir.ThreadStateSnapshot
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("replay thread %s: scan: %w", threadID, err)
		}
		snap, err := unmarshalSnapshot(content)
		if err != nil {
			return nil, fmt.Errorf("replay thread %s: %w", threadID, err)
		}
		chain = append(chain, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("replay thread %s: %w", threadID, err)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}

	if err := VerifyChain(chain); err != nil {
		return nil, err
	}
	return chain, nil
}

// VerifyChain checks an ordered snapshot sequence for integrity:
// monotonic version IDs starting at 1, parent pointers linking each
// snapshot to its predecessor, and every stored hash matching a fresh
// recomputation from content.
func VerifyChain(chain []ir.ThreadStateSnapshot) error {
	for i, snap := range chain {
		want := int64(i + 1)
		if snap.VersionID != want {
			return &ChainMismatchError{
				ThreadID:  snap.ThreadID,
				VersionID: snap.VersionID,
				Detail:    fmt.Sprintf("version gap: expected %d", want),
			}
		}
		if i == 0 {
			if snap.ParentVersionID != 0 || snap.ParentHash != "" {
				return &ChainMismatchError{
					ThreadID:  snap.ThreadID,
					VersionID: snap.VersionID,
					Detail:    "root snapshot carries parent pointers",
				}
			}
		} else {
			prev := chain[i-1]
			if snap.ParentVersionID != prev.VersionID {
				return &ChainMismatchError{
					ThreadID:  snap.ThreadID,
					VersionID: snap.VersionID,
					Detail:    fmt.Sprintf("parent version %d does not link to %d", snap.ParentVersionID, prev.VersionID),
				}
			}
			if snap.ParentHash != prev.Hash {
				return &ChainMismatchError{
					ThreadID:  snap.ThreadID,
					VersionID: snap.VersionID,
					Detail:    "parent hash does not match predecessor",
				}
			}
		}
		if err := snap.VerifyHash(); err != nil {
			return &ChainMismatchError{
				ThreadID:  snap.ThreadID,
				VersionID: snap.VersionID,
				Detail:    err.Error(),
			}
		}
	}
	return nil
}

// VerifyAll replays every thread in the store and reports the first
// integrity failure, or nil if all chains verify.
func (s *Store) VerifyAll(ctx context.Context) error {
	threads, err := s.ListThreads(ctx)
	if err != nil {
		return err
	}
	for _, tid := range threads {
		if _, err := s.ReplayThread(ctx, tid); err != nil {
			return err
		}
	}
	return nil
}
