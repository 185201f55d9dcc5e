package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stillpoint/weft/internal/ir"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario("testdata/scenarios/" + name + ".yaml")
	require.NoError(t, err)
	return s
}

func TestRunProducesVerifiedTrace(t *testing.T) {
	scenario := loadTestScenario(t, "linked_chain")

	result, err := Run(scenario)
	require.NoError(t, err)

	require.Len(t, result.Trace, 3)
	assert.Equal(t, int64(1), result.Trace[0].Seq)
	assert.Equal(t, ir.TransitionEmerged, result.Trace[0].Transition)
	assert.Equal(t, ir.ThreadID("thread-1"), result.Trace[2].ThreadID)
	assert.Equal(t, int64(3), result.Trace[2].VersionID)

	head, ok := result.Heads["thread-1"]
	require.True(t, ok)
	require.NoError(t, head.VerifyHash())
}

func TestRunIsDeterministic(t *testing.T) {
	scenario := loadTestScenario(t, "divergence_recorded")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	require.Equal(t, len(first.Heads), len(second.Heads))
	for tid, head := range first.Heads {
		other, ok := second.Heads[tid]
		require.True(t, ok, "thread %s missing from second run", tid)
		// Hash equality covers the entire chain: parent hashes are part of
		// the content, so two equal heads mean two equal histories.
		assert.Equal(t, head.Hash, other.Hash, "thread %s", tid)
	}

	firstTrace, err := RenderTrace(scenario.Name, first)
	require.NoError(t, err)
	secondTrace, err := RenderTrace(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, firstTrace, secondTrace)
}

func TestCheckAssertionsReportsFailures(t *testing.T) {
	scenario := loadTestScenario(t, "linked_chain")
	result, err := Run(scenario)
	require.NoError(t, err)

	require.Empty(t, CheckAssertions(scenario, result))

	broken := *scenario
	broken.Assertions = []Assertion{
		{Type: AssertThreadState, Thread: "thread-1", State: "DORMANT"},
		{Type: AssertThreadMembers, Thread: "thread-1", Count: 99},
		{Type: AssertThreadState, Thread: "thread-7", State: "ACTIVE"},
	}
	failures := CheckAssertions(&broken, result)
	require.Len(t, failures, 3)
	assert.Contains(t, failures[0].Error(), "want DORMANT")
	assert.Contains(t, failures[1].Error(), "want 99")
	assert.Contains(t, failures[2].Error(), "not found")
}

func TestRunRejectsInvalidMode(t *testing.T) {
	scenario := loadTestScenario(t, "linked_chain")
	broken := *scenario
	broken.Mode = "paranoid"

	_, err := Run(&broken)
	assert.Error(t, err)
}
