package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadScenarioValid(t *testing.T) {
	path := writeScenario(t, `
name: minimal
description: "smallest valid scenario"
ticks:
  - tick: 1
    fragments:
      - alias: only
        source: src-a
        tokens: [alpha]
assertions:
  - type: thread_count
    count: 1
`)
	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Ticks, 1)
	assert.Equal(t, "only", s.Ticks[0].Fragments[0].Alias)
}

func TestLoadScenarioRejectsUnknownFields(t *testing.T) {
	path := writeScenario(t, `
name: typo
description: "unknown key"
ticks:
  - tick: 1
assertion:
  - type: thread_count
`)
	_, err := LoadScenario(path)
	assert.Error(t, err)
}

func TestLoadScenarioValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "ticks out of order",
			content: `
name: bad
description: "x"
ticks:
  - tick: 2
  - tick: 1
assertions:
  - type: thread_count
`,
			wantErr: "not after",
		},
		{
			name: "duplicate alias",
			content: `
name: bad
description: "x"
ticks:
  - tick: 1
    fragments:
      - alias: dup
        source: src-a
      - alias: dup
        source: src-b
assertions:
  - type: thread_count
`,
			wantErr: "duplicate alias",
		},
		{
			name: "unresolved relation target",
			content: `
name: bad
description: "x"
ticks:
  - tick: 1
    fragments:
      - alias: a
        source: src-a
        relations:
          - kind: HYPERLINK
            target: ghost
assertions:
  - type: thread_count
`,
			wantErr: "not declared",
		},
		{
			name: "unknown edge kind",
			content: `
name: bad
description: "x"
ticks:
  - tick: 1
    fragments:
      - alias: a
        source: src-a
      - alias: b
        source: src-b
        relations:
          - kind: TELEPATHIC
            target: a
assertions:
  - type: thread_count
`,
			wantErr: "unknown kind",
		},
		{
			name: "bad mode",
			content: `
name: bad
description: "x"
mode: paranoid
ticks:
  - tick: 1
assertions:
  - type: thread_count
`,
			wantErr: "mode must be",
		},
		{
			name: "assertion missing thread",
			content: `
name: bad
description: "x"
ticks:
  - tick: 1
assertions:
  - type: thread_state
    state: ACTIVE
`,
			wantErr: "thread and state",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadScenario(writeScenario(t, tc.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}
