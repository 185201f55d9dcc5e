package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/weft/internal/ir"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "weft.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// sealed builds a committed-ready snapshot chained onto parent (nil for a
// root version).
func sealed(t *testing.T, parent *ir.ThreadStateSnapshot, tid ir.ThreadID, tick int64, transition ir.Transition, state ir.LifecycleState, members ...ir.FragmentID) ir.ThreadStateSnapshot {
	t.Helper()
	var snap ir.ThreadStateSnapshot
	if parent == nil {
		snap = ir.ThreadStateSnapshot{
			ThreadID:       tid,
			VersionID:      1,
			Transition:     transition,
			Tick:           tick,
			Lifecycle:      state,
			LastUpdateTick: tick,
			Members:        members,
		}
	} else {
		snap = parent.Child(tick, transition)
		snap.Lifecycle = state
		snap.LastUpdateTick = tick
		snap.Members = append(snap.Members, members...)
	}
	snap.Connectivity = ir.Connectivity{Components: 1}
	require.NoError(t, snap.Seal())
	return snap
}

func TestOpenAppliesPragmas(t *testing.T) {
	s := newTestStore(t)

	var journalMode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&journalMode))
	assert.Equal(t, "wal", journalMode)

	var fk int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)
}

func TestOpenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "weft.db")

	s1, err := Open(path)
	require.NoError(t, err)

	root := sealed(t, nil, "t1", 1, ir.TransitionEmerged, ir.StateEmergent, "f1")
	require.NoError(t, s1.CommitSnapshot(context.Background(), root))
	require.NoError(t, s1.Close())

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()

	got, err := s2.ReadLatest(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, root.Hash, got.Hash)
}

func TestReadSnapshotByVersion(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	root := sealed(t, nil, "t1", 1, ir.TransitionEmerged, ir.StateEmergent, "f1")
	require.NoError(t, s.CommitSnapshot(ctx, root))
	child := sealed(t, &root, "t1", 2, ir.TransitionAttached, ir.StateActive, "f2")
	require.NoError(t, s.CommitSnapshot(ctx, child))

	got, err := s.ReadSnapshot(ctx, "t1", 1)
	require.NoError(t, err)
	assert.Equal(t, root.Hash, got.Hash)
	assert.Equal(t, []ir.FragmentID{"f1"}, got.Members)

	_, err = s.ReadSnapshot(ctx, "t1", 3)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = s.ReadSnapshot(ctx, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSchemaVersionRecorded(t *testing.T) {
	s := newTestStore(t)

	var version int
	require.NoError(t, s.DB().QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)
}
