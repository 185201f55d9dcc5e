package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stillpoint/weft/internal/ir"
)

// CommitSnapshot appends a sealed snapshot to its thread's version log.
//
// The commit is compare-and-append inside a single transaction: the current
// head is read, the snapshot's parent version and parent hash must match it
// exactly, then the row is inserted and the head advances. This serializes
// writers per thread and makes a tick's transition atomic - either the new
// snapshot lands or nothing changes.
//
// A root snapshot (version 1) commits only when the thread has no head yet.
// Mismatched parent pointers return *StaleParentError.
func (s *Store) CommitSnapshot(ctx context.Context, snap ir.ThreadStateSnapshot) error {
	if snap.Hash == "" {
		return fmt.Errorf("commit snapshot %s v%d: unsealed snapshot", snap.ThreadID, snap.VersionID)
	}

	content, err := marshalSnapshot(snap)
	if err != nil {
		return fmt.Errorf("commit snapshot %s v%d: %w", snap.ThreadID, snap.VersionID, err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("commit snapshot: begin tx: %w", err)
	}
	defer tx.Rollback() // no-op if committed

	var headVersion int64
	var headHash string
	err = tx.QueryRowContext(ctx, `
		SELECT latest_version_id, latest_hash FROM thread_heads WHERE thread_id = ?
	`, string(snap.ThreadID)).Scan(&headVersion, &headHash)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if snap.VersionID != 1 || snap.ParentVersionID != 0 || snap.ParentHash != "" {
			return &StaleParentError{ThreadID: snap.ThreadID, WantVersion: snap.VersionID, HeadVersion: 0}
		}
	case err != nil:
		return fmt.Errorf("commit snapshot: read head: %w", err)
	default:
		if snap.VersionID != headVersion+1 || snap.ParentVersionID != headVersion || snap.ParentHash != headHash {
			return &StaleParentError{ThreadID: snap.ThreadID, WantVersion: snap.VersionID, HeadVersion: headVersion}
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots
		(thread_id, version_id, parent_version_id, tick, transition, lifecycle_state, last_update_tick, content, hash, parent_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		string(snap.ThreadID),
		snap.VersionID,
		snap.ParentVersionID,
		snap.Tick,
		string(snap.Transition),
		string(snap.Lifecycle),
		snap.LastUpdateTick,
		content,
		snap.Hash,
		snap.ParentHash,
	)
	if err != nil {
		return fmt.Errorf("commit snapshot: insert: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO thread_heads (thread_id, latest_version_id, latest_hash, lifecycle_state)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(thread_id) DO UPDATE SET
			latest_version_id = excluded.latest_version_id,
			latest_hash = excluded.latest_hash,
			lifecycle_state = excluded.lifecycle_state
	`,
		string(snap.ThreadID),
		snap.VersionID,
		snap.Hash,
		string(snap.Lifecycle),
	)
	if err != nil {
		return fmt.Errorf("commit snapshot: update head: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: commit tx: %w", err)
	}
	return nil
}

// WriteFragment registers a fragment and its permanent thread ownership.
// Idempotent via ON CONFLICT DO NOTHING: a fragment's first registration
// wins, which backs the identity persistence invariant at the storage
// level - later writes cannot move a fragment to a different thread.
func (s *Store) WriteFragment(ctx context.Context, f ir.Fragment, threadID ir.ThreadID, ingestTick int64) error {
	tokens, err := marshalTokens(f.Tokens)
	if err != nil {
		return fmt.Errorf("write fragment %s: %w", f.ID, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO fragments (fragment_id, source_id, event_time, ingest_time, ingest_tick, tokens, thread_id)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(fragment_id) DO NOTHING
	`,
		string(f.ID),
		f.SourceID,
		f.EventTime,
		f.IngestTime,
		ingestTick,
		tokens,
		string(threadID),
	)
	if err != nil {
		return fmt.Errorf("write fragment %s: %w", f.ID, err)
	}
	return nil
}

// WriteAudit appends one audit log entry.
func (s *Store) WriteAudit(ctx context.Context, entry ir.AuditLogEntry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (seq, tick, type, thread_id, fragment_id, detail, run_token)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		entry.Seq,
		entry.Tick,
		string(entry.Type),
		string(entry.ThreadID),
		string(entry.FragmentID),
		entry.Detail,
		entry.RunToken,
	)
	if err != nil {
		return fmt.Errorf("write audit entry: %w", err)
	}
	return nil
}
