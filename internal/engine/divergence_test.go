package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/ir"
	"github.com/stillpoint/weft/internal/testutil"
)

func TestDetectorFlagsLowOverlapPairs(t *testing.T) {
	d := NewDetector(config.Default())

	a := testutil.Fragment("src-a", 5, "fire", "warehouse", "district")
	b := testutil.Fragment("src-b", 5, "ship", "delayed", "port")

	markers := d.Check([]ir.Fragment{a, b}, nil, 5)
	require.Len(t, markers, 1)
	m := markers[0]
	assert.Equal(t, ir.ReasonDivergenceDetected, m.Reason)
	assert.Equal(t, a.ID, m.FragmentA)
	assert.Equal(t, b.ID, m.FragmentB)
	assert.Equal(t, "src-a", m.SourceA)
	assert.Equal(t, "src-b", m.SourceB)
	assert.Equal(t, int64(5), m.Tick)
}

func TestDetectorSkipsSameSource(t *testing.T) {
	d := NewDetector(config.Default())

	a := testutil.Fragment("src-a", 5, "fire", "warehouse")
	b := testutil.Fragment("src-a", 5, "ship", "port")

	assert.Empty(t, d.Check([]ir.Fragment{a, b}, nil, 5))
}

func TestDetectorEdgeExemption(t *testing.T) {
	d := NewDetector(config.Default())

	a := testutil.Fragment("src-a", 5, "fire", "warehouse")
	b := testutil.Fragment("src-b", 5, "ship", "port")
	edge := ir.Edge{Source: b.ID, Target: a.ID, Kind: ir.EdgeHyperlink}

	assert.Empty(t, d.Check([]ir.Fragment{a, b}, []ir.Edge{edge}, 5))
}

func TestDetectorBoundaryOverlap(t *testing.T) {
	d := NewDetector(config.Default())

	// 1 shared of 5 union = 0.2 exactly: not below the cutoff, no marker.
	a := testutil.Fragment("src-a", 5, "harbor", "alpha", "beta")
	b := testutil.Fragment("src-b", 5, "harbor", "gamma", "delta")
	assert.Empty(t, d.Check([]ir.Fragment{a, b}, nil, 5))

	// 1 shared of 6 union is below 0.2.
	c := testutil.Fragment("src-c", 5, "harbor", "epsilon", "zeta", "eta")
	markers := d.Check([]ir.Fragment{a, c}, nil, 5)
	assert.Len(t, markers, 1)
}

func TestDetectorAllPairsInArrivalOrder(t *testing.T) {
	d := NewDetector(config.Default())

	a := testutil.Fragment("src-a", 5, "one")
	b := testutil.Fragment("src-b", 5, "two")
	c := testutil.Fragment("src-c", 5, "three")

	markers := d.Check([]ir.Fragment{a, b, c}, nil, 5)
	require.Len(t, markers, 3)
	assert.Equal(t, a.ID, markers[0].FragmentA)
	assert.Equal(t, b.ID, markers[0].FragmentB)
	assert.Equal(t, a.ID, markers[1].FragmentA)
	assert.Equal(t, c.ID, markers[1].FragmentB)
	assert.Equal(t, b.ID, markers[2].FragmentA)
	assert.Equal(t, c.ID, markers[2].FragmentB)
}
