package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/stillpoint/weft/internal/ir"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ReadSnapshot returns one specific version of a thread.
func (s *Store) ReadSnapshot(ctx context.Context, threadID ir.ThreadID, versionID int64) (ir.ThreadStateSnapshot, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `
		SELECT content FROM snapshots WHERE thread_id = ? AND version_id = ?
	`, string(threadID), versionID).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.ThreadStateSnapshot{}, fmt.Errorf("snapshot %s v%d: %w", threadID, versionID, ErrNotFound)
	}
	if err != nil {
		return ir.ThreadStateSnapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	return unmarshalSnapshot(content)
}

// ReadLatest returns the head snapshot of a thread.
func (s *Store) ReadLatest(ctx context.Context, threadID ir.ThreadID) (ir.ThreadStateSnapshot, error) {
	var content string
	err := s.db.QueryRowContext(ctx, `
		SELECT sn.content
		FROM thread_heads h
		JOIN snapshots sn ON sn.thread_id = h.thread_id AND sn.version_id = h.latest_version_id
		WHERE h.thread_id = ?
	`, string(threadID)).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return ir.ThreadStateSnapshot{}, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	if err != nil {
		return ir.ThreadStateSnapshot{}, fmt.Errorf("read latest: %w", err)
	}
	return unmarshalSnapshot(content)
}

// ListThreads returns all thread IDs in the head index, ordered
// lexicographically for deterministic iteration.
func (s *Store) ListThreads(ctx context.Context) ([]ir.ThreadID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT thread_id FROM thread_heads ORDER BY thread_id`)
	if err != nil {
		return nil, fmt.Errorf("list threads: %w", err)
	}
	defer rows.Close()

	var out []ir.ThreadID
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan thread id: %w", err)
		}
		out = append(out, ir.ThreadID(id))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate threads: %w", err)
	}
	return out, nil
}

// HasFragment reports whether a fragment is registered.
func (s *Store) HasFragment(ctx context.Context, id ir.FragmentID) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM fragments WHERE fragment_id = ?
	`, string(id)).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check fragment: %w", err)
	}
	return count > 0, nil
}

// StoredFragment is a fragment row with its ownership record.
type StoredFragment struct {
	Fragment   ir.Fragment
	ThreadID   ir.ThreadID
	IngestTick int64
}

// LoadFragments returns every registered fragment in ingest order
// (ingest_tick, then fragment_id for determinism within a tick).
// Used to rehydrate the engine's in-memory state on restart.
func (s *Store) LoadFragments(ctx context.Context) ([]StoredFragment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT fragment_id, source_id, event_time, ingest_time, ingest_tick, tokens, thread_id
		FROM fragments
		ORDER BY ingest_tick, fragment_id
	`)
	if err != nil {
		return nil, fmt.Errorf("load fragments: %w", err)
	}
	defer rows.Close()

	var out []StoredFragment
	for rows.Next() {
		var (
			id, sourceID, tokensJSON, threadID string
			eventTime, ingestTime, ingestTick  int64
		)
		if err := rows.Scan(&id, &sourceID, &eventTime, &ingestTime, &ingestTick, &tokensJSON, &threadID); err != nil {
			return nil, fmt.Errorf("scan fragment: %w", err)
		}
		tokens, err := unmarshalTokens(tokensJSON)
		if err != nil {
			return nil, fmt.Errorf("fragment %s: %w", id, err)
		}
		out = append(out, StoredFragment{
			Fragment: ir.Fragment{
				ID:         ir.FragmentID(id),
				SourceID:   sourceID,
				EventTime:  eventTime,
				IngestTime: ingestTime,
				Tokens:     tokens,
			},
			ThreadID:   ir.ThreadID(threadID),
			IngestTick: ingestTick,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fragments: %w", err)
	}
	return out, nil
}

// ReadAudit returns audit entries in emission order, optionally limited.
// Pass limit <= 0 for all entries.
func (s *Store) ReadAudit(ctx context.Context, limit int) ([]ir.AuditLogEntry, error) {
	q := `SELECT seq, tick, type, thread_id, fragment_id, detail, run_token FROM audit_log ORDER BY id`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.QueryContext(ctx, q+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.QueryContext(ctx, q)
	}
	if err != nil {
		return nil, fmt.Errorf("read audit: %w", err)
	}
	defer rows.Close()

	var out []ir.AuditLogEntry
	for rows.Next() {
		var e ir.AuditLogEntry
		var typ, threadID, fragmentID string
		if err := rows.Scan(&e.Seq, &e.Tick, &typ, &threadID, &fragmentID, &e.Detail, &e.RunToken); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		e.Type = ir.AuditType(typ)
		e.ThreadID = ir.ThreadID(threadID)
		e.FragmentID = ir.FragmentID(fragmentID)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit: %w", err)
	}
	return out, nil
}

// MaxTick returns the highest tick recorded in the snapshot log, or 0 for
// an empty store. Used to resume the tick clock on restart.
func (s *Store) MaxTick(ctx context.Context) (int64, error) {
	var tick sql.NullInt64
	if err := s.db.QueryRowContext(ctx, `SELECT MAX(tick) FROM snapshots`).Scan(&tick); err != nil {
		return 0, fmt.Errorf("max tick: %w", err)
	}
	if !tick.Valid {
		return 0, nil
	}
	return tick.Int64, nil
}
