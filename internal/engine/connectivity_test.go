package engine

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/weft/internal/ir"
)

func chainEdges(members []ir.FragmentID) []ir.Edge {
	edges := make([]ir.Edge, 0, len(members)-1)
	for i := 1; i < len(members); i++ {
		edges = append(edges, ir.Edge{
			Source: members[i], Target: members[i-1], Kind: ir.EdgeSequential,
		})
	}
	return edges
}

func memberIDs(n int) []ir.FragmentID {
	out := make([]ir.FragmentID, n)
	for i := range out {
		out[i] = ir.FragmentID(fmt.Sprintf("frag-%03d", i))
	}
	return out
}

func TestVerifySingleFragment(t *testing.T) {
	conn := Verify([]ir.FragmentID{"only"}, nil)
	assert.Equal(t, int64(1), conn.Components)
	assert.Empty(t, conn.Bridges)
}

func TestVerifyLinearChainIsOneComponent(t *testing.T) {
	members := memberIDs(72)
	edges := chainEdges(members)
	require.Len(t, edges, 71)

	conn := Verify(members, edges)
	assert.Equal(t, int64(1), conn.Components)
	// Every edge in a linear chain is a bridge.
	assert.Len(t, conn.Bridges, 71)
}

func TestVerifyMissingLinkSplitsChain(t *testing.T) {
	members := memberIDs(6)
	edges := chainEdges(members)

	// Drop the middle link: frag-002 -> frag-003 never declared.
	broken := append(append([]ir.Edge{}, edges[:2]...), edges[3:]...)

	conn := Verify(members, broken)
	assert.Equal(t, int64(2), conn.Components)
}

func TestVerifyNoEdgesAllSingletons(t *testing.T) {
	members := memberIDs(4)
	conn := Verify(members, nil)
	assert.Equal(t, int64(4), conn.Components)
}

func TestVerifyCycleHasNoBridges(t *testing.T) {
	members := memberIDs(3)
	edges := chainEdges(members)
	edges = append(edges, ir.Edge{Source: members[0], Target: members[2], Kind: ir.EdgeSequential})

	conn := Verify(members, edges)
	assert.Equal(t, int64(1), conn.Components)
	assert.Empty(t, conn.Bridges)
}

func TestVerifyIgnoresEdgesToNonMembers(t *testing.T) {
	members := memberIDs(2)
	edges := []ir.Edge{
		{Source: members[0], Target: "outsider", Kind: ir.EdgeHyperlink},
	}
	conn := Verify(members, edges)
	assert.Equal(t, int64(2), conn.Components)
}

func TestVerifyEmptyMembership(t *testing.T) {
	conn := Verify(nil, nil)
	assert.Equal(t, int64(0), conn.Components)
}
