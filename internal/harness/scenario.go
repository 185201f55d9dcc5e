package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/stillpoint/weft/internal/ir"
)

// Scenario defines one conformance scenario: a tick stream of fragments
// and the assertions to check against the resulting version log.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Mode selects the admission gate allowlist: "strict" (default) or
	// "trusted".
	Mode string `yaml:"mode,omitempty"`

	// Ticks is the input stream, in strictly increasing tick order. A tick
	// with no fragments drives lifecycle decay.
	Ticks []TickStep `yaml:"ticks"`

	// Assertions validate the final state of the store. Optional: a
	// scenario used purely as an ingest stream or checked only against its
	// golden trace may omit them.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// TickStep is one processing cycle's input.
type TickStep struct {
	Tick      int64          `yaml:"tick"`
	Fragments []FragmentSpec `yaml:"fragments,omitempty"`
}

// FragmentSpec declares one fragment. The fragment's real ID is derived
// from content at run time; the alias exists so relations can name it.
type FragmentSpec struct {
	Alias  string   `yaml:"alias"`
	Source string   `yaml:"source"`
	Tokens []string `yaml:"tokens,omitempty"`

	// EventTime defaults to the enclosing tick when zero.
	EventTime int64 `yaml:"event_time,omitempty"`

	Relations []RelationSpec `yaml:"relations,omitempty"`
}

// RelationSpec declares one candidate edge from the enclosing fragment to
// the fragment named by Target (an alias declared earlier in the stream or
// in the same tick).
type RelationSpec struct {
	Kind   string `yaml:"kind"`
	Target string `yaml:"target"`
}

// Assertion validates final state.
type Assertion struct {
	// Type is one of the Assert* constants below.
	Type string `yaml:"type"`

	// Thread names the thread under test (thread_state, thread_members,
	// marker_count, components).
	Thread string `yaml:"thread,omitempty"`

	// State is the expected lifecycle state (thread_state).
	State string `yaml:"state,omitempty"`

	// Version is the expected head version, 0 to skip (thread_state).
	Version int64 `yaml:"version,omitempty"`

	// Count is the expected quantity (thread_members, marker_count,
	// components, thread_count).
	Count int64 `yaml:"count,omitempty"`

	// AuditType and Detail select audit entries (audit_contains): an entry
	// of the given type whose detail contains the substring must exist.
	AuditType string `yaml:"audit_type,omitempty"`
	Detail    string `yaml:"detail,omitempty"`
}

// Assertion type constants.
const (
	AssertThreadState   = "thread_state"
	AssertThreadMembers = "thread_members"
	AssertMarkerCount   = "marker_count"
	AssertComponents    = "components"
	AssertThreadCount   = "thread_count"
	AssertAuditContains = "audit_contains"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently skipping assertions.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Mode != "" && s.Mode != "strict" && s.Mode != "trusted" {
		return fmt.Errorf("mode must be strict or trusted, got %q", s.Mode)
	}
	if len(s.Ticks) == 0 {
		return fmt.Errorf("ticks list is required and must be non-empty")
	}

	aliases := make(map[string]bool)
	var prevTick int64
	for i, step := range s.Ticks {
		if step.Tick <= prevTick {
			return fmt.Errorf("ticks[%d]: tick %d is not after %d", i, step.Tick, prevTick)
		}
		prevTick = step.Tick

		for j, f := range step.Fragments {
			if f.Alias == "" {
				return fmt.Errorf("ticks[%d].fragments[%d]: alias is required", i, j)
			}
			if aliases[f.Alias] {
				return fmt.Errorf("ticks[%d].fragments[%d]: duplicate alias %q", i, j, f.Alias)
			}
			if f.Source == "" {
				return fmt.Errorf("ticks[%d].fragments[%d]: source is required", i, j)
			}
			aliases[f.Alias] = true

			for k, rel := range f.Relations {
				switch ir.EdgeKind(rel.Kind) {
				case ir.EdgeHyperlink, ir.EdgeSequential, ir.EdgeInferred:
				default:
					return fmt.Errorf("ticks[%d].fragments[%d].relations[%d]: unknown kind %q", i, j, k, rel.Kind)
				}
				if !aliases[rel.Target] {
					return fmt.Errorf("ticks[%d].fragments[%d].relations[%d]: target alias %q not declared", i, j, k, rel.Target)
				}
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case AssertThreadState:
		if a.Thread == "" || a.State == "" {
			return fmt.Errorf("assertions[%d]: thread and state are required for thread_state", index)
		}
	case AssertThreadMembers, AssertMarkerCount, AssertComponents:
		if a.Thread == "" {
			return fmt.Errorf("assertions[%d]: thread is required for %s", index, a.Type)
		}
	case AssertThreadCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertAuditContains:
		if a.AuditType == "" {
			return fmt.Errorf("assertions[%d]: audit_type is required for audit_contains", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
