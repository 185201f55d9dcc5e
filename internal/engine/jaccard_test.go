package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOverlapCounts(t *testing.T) {
	inter, union := overlapCounts(
		[]string{"alpha", "beta", "gamma"},
		tokenSet([]string{"beta", "gamma", "delta"}),
	)
	assert.Equal(t, int64(2), inter)
	assert.Equal(t, int64(4), union)
}

func TestJaccardThresholdsAreExclusive(t *testing.T) {
	// 3/10 = 0.3 exactly: not above a 0.3 inclusion cutoff.
	assert.False(t, jaccardAbove(3, 10, 300))
	assert.True(t, jaccardAbove(4, 10, 300))

	// 2/10 = 0.2 exactly: not below a 0.2 divergence cutoff.
	assert.False(t, jaccardBelow(2, 10, 200))
	assert.True(t, jaccardBelow(1, 10, 200))
}

func TestJaccardEmptyUnion(t *testing.T) {
	assert.False(t, jaccardAbove(0, 0, 300))
	assert.False(t, jaccardBelow(0, 0, 200))
}

func TestJaccardNoRoundingDrift(t *testing.T) {
	// 1/3 in floating point rounds to 0.33333...; the integer comparison
	// decides 1000 > 900 exactly.
	assert.True(t, jaccardAbove(1, 3, 300))
	assert.False(t, jaccardAbove(1, 3, 334))
}
