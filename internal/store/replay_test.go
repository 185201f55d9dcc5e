package store

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/weft/internal/ir"
)

func commitChain(t *testing.T, s *Store, tid ir.ThreadID, depth int) []ir.ThreadStateSnapshot {
	t.Helper()
	ctx := context.Background()

	chain := make([]ir.ThreadStateSnapshot, 0, depth)
	root := sealed(t, nil, tid, 1, ir.TransitionEmerged, ir.StateEmergent, "f1")
	require.NoError(t, s.CommitSnapshot(ctx, root))
	chain = append(chain, root)

	for i := 2; i <= depth; i++ {
		prev := chain[len(chain)-1]
		next := sealed(t, &prev, tid, int64(i), ir.TransitionAttached, ir.StateActive,
			ir.FragmentID(fmt.Sprintf("f%d", i)))
		require.NoError(t, s.CommitSnapshot(ctx, next))
		chain = append(chain, next)
	}
	return chain
}

func TestReplayThreadReturnsVerifiedChain(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	committed := commitChain(t, s, "t1", 4)

	replayed, err := s.ReplayThread(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, replayed, 4)
	for i, snap := range replayed {
		assert.Equal(t, committed[i].Hash, snap.Hash, "version %d", i+1)
		assert.Equal(t, int64(i+1), snap.VersionID)
	}
}

func TestReplayUnknownThread(t *testing.T) {
	s := newTestStore(t)
	_, err := s.ReplayThread(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReplayDetectsTamperedContent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	commitChain(t, s, "t1", 3)

	// Rewrite history: flip a lifecycle state inside a stored snapshot.
	_, err := s.DB().Exec(`
		UPDATE snapshots SET content = replace(content, '"ACTIVE"', '"VANISHED"')
		WHERE thread_id = 't1' AND version_id = 2
	`)
	require.NoError(t, err)

	_, err = s.ReplayThread(ctx, "t1")
	require.Error(t, err)
	assert.True(t, IsChainMismatch(err))
	assert.Contains(t, err.Error(), "HASH_CHAIN_MISMATCH")
}

func TestVerifyChainCatchesBrokenLinkage(t *testing.T) {
	s := newTestStore(t)
	chain := commitChain(t, s, "t1", 3)

	// Broken parent hash.
	forged := make([]ir.ThreadStateSnapshot, len(chain))
	copy(forged, chain)
	forged[2].ParentHash = "0000000000000000"
	err := VerifyChain(forged)
	require.Error(t, err)
	assert.True(t, IsChainMismatch(err))

	// Version gap.
	gapped := []ir.ThreadStateSnapshot{chain[0], chain[2]}
	err = VerifyChain(gapped)
	require.Error(t, err)
	assert.True(t, IsChainMismatch(err))

	// Root carrying parent pointers.
	badRoot := chain[1:]
	err = VerifyChain(badRoot)
	require.Error(t, err)
	assert.True(t, IsChainMismatch(err))
}

func TestVerifyAllCoversEveryThread(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	commitChain(t, s, "t1", 2)
	commitChain(t, s, "t2", 3)

	require.NoError(t, s.VerifyAll(ctx))

	_, err := s.DB().Exec(`
		UPDATE snapshots SET content = replace(content, '"EMERGENT"', '"DORMANT"')
		WHERE thread_id = 't2' AND version_id = 1
	`)
	require.NoError(t, err)

	err = s.VerifyAll(ctx)
	require.Error(t, err)
	assert.True(t, IsChainMismatch(err))
}
