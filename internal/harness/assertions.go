package harness

import (
	"fmt"
	"strings"

	"github.com/stillpoint/weft/internal/ir"
)

// CheckAssertions evaluates every assertion against the run result and
// returns one error per failure. An empty slice means the scenario passed.
func CheckAssertions(scenario *Scenario, result *Result) []error {
	var failures []error
	for i, a := range scenario.Assertions {
		if err := checkAssertion(a, result); err != nil {
			failures = append(failures, fmt.Errorf("assertions[%d] (%s): %w", i, a.Type, err))
		}
	}
	return failures
}

func checkAssertion(a Assertion, result *Result) error {
	switch a.Type {
	case AssertThreadState:
		head, err := headOf(a, result)
		if err != nil {
			return err
		}
		if head.Lifecycle != ir.LifecycleState(a.State) {
			return fmt.Errorf("state is %s, want %s", head.Lifecycle, a.State)
		}
		if a.Version != 0 && head.VersionID != a.Version {
			return fmt.Errorf("head version is %d, want %d", head.VersionID, a.Version)
		}

	case AssertThreadMembers:
		head, err := headOf(a, result)
		if err != nil {
			return err
		}
		if got := int64(len(head.Members)); got != a.Count {
			return fmt.Errorf("member count is %d, want %d", got, a.Count)
		}

	case AssertMarkerCount:
		head, err := headOf(a, result)
		if err != nil {
			return err
		}
		if got := int64(len(head.DivergenceMarkers)); got != a.Count {
			return fmt.Errorf("marker count is %d, want %d", got, a.Count)
		}

	case AssertComponents:
		head, err := headOf(a, result)
		if err != nil {
			return err
		}
		if head.Connectivity.Components != a.Count {
			return fmt.Errorf("component count is %d, want %d", head.Connectivity.Components, a.Count)
		}

	case AssertThreadCount:
		if got := int64(len(result.Heads)); got != a.Count {
			return fmt.Errorf("thread count is %d, want %d", got, a.Count)
		}

	case AssertAuditContains:
		for _, entry := range result.Audits {
			if entry.Type != ir.AuditType(a.AuditType) {
				continue
			}
			if a.Detail == "" || strings.Contains(entry.Detail, a.Detail) {
				return nil
			}
		}
		return fmt.Errorf("no %s audit entry containing %q", a.AuditType, a.Detail)

	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
	return nil
}

func headOf(a Assertion, result *Result) (ir.ThreadStateSnapshot, error) {
	head, ok := result.Heads[ir.ThreadID(a.Thread)]
	if !ok {
		return ir.ThreadStateSnapshot{}, fmt.Errorf("thread %s not found", a.Thread)
	}
	return head, nil
}
