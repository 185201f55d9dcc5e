package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/harness"
)

// ValidateResult reports what was validated.
type ValidateResult struct {
	Path string `json:"path"`
	Kind string `json:"kind"` // "config" | "scenario"
	OK   bool   `json:"ok"`
}

// NewValidateCommand creates the validate command: check a config or
// scenario file without touching any database.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file.yaml>",
		Short: "Validate a config or scenario file",
		Long: `Validate a YAML file against its schema. Config files are checked
against the embedded CUE schema, including cross-field constraints on the
lifecycle windows. Scenario files (detected by a "ticks" section) are
checked structurally: tick ordering, aliases, relation targets, and
assertion shapes.

Exit codes:
  0 - file is valid
  2 - file is invalid or unreadable`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, cmd *cobra.Command, path string) error {
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	result := &ValidateResult{Path: path}
	scenario, scenarioErr := harness.LoadScenario(path)
	if scenarioErr == nil && len(scenario.Ticks) > 0 {
		result.Kind = "scenario"
	} else if _, cfgErr := config.Load(path); cfgErr == nil {
		result.Kind = "config"
	} else {
		return WrapExitError(ExitCommandError, "invalid file",
			fmt.Errorf("not a scenario (%v) and not a config (%v)", scenarioErr, cfgErr))
	}
	result.OK = true

	if opts.Format == "json" {
		return out.Success(result)
	}
	out.SuccessText("%s: valid %s", path, result.Kind)
	return nil
}
