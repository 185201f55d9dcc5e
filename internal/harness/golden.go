package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/stillpoint/weft/internal/ir"
)

// RenderTrace serializes a run's trace as canonical JSON for golden
// comparison. Hashes never appear: the trace is the behavioral record, and
// a hash in a golden file would pin the serialization format instead of
// the behavior.
func RenderTrace(scenarioName string, result *Result) ([]byte, error) {
	traceList := make([]any, len(result.Trace))
	for i, ev := range result.Trace {
		traceList[i] = map[string]any{
			"seq":        ev.Seq,
			"tick":       ev.Tick,
			"thread":     string(ev.ThreadID),
			"version":    ev.VersionID,
			"transition": string(ev.Transition),
			"state":      string(ev.State),
			"members":    ev.Members,
			"components": ev.Components,
			"markers":    ev.Markers,
		}
	}
	return ir.MarshalCanonical(map[string]any{
		"scenario_name": scenarioName,
		"trace":         traceList,
	})
}

// RunWithGolden executes a scenario, checks its assertions, and compares
// the trace against testdata/golden/{name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) *Result {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		t.Fatalf("scenario %s: %v", scenario.Name, err)
	}
	for _, failure := range CheckAssertions(scenario, result) {
		t.Errorf("scenario %s: %v", scenario.Name, failure)
	}

	trace, err := RenderTrace(scenario.Name, result)
	if err != nil {
		t.Fatalf("scenario %s: render trace: %v", scenario.Name, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, trace)
	return result
}
