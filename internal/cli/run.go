package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/stillpoint/weft/internal/config"
	"github.com/stillpoint/weft/internal/engine"
	"github.com/stillpoint/weft/internal/harness"
	"github.com/stillpoint/weft/internal/ir"
	"github.com/stillpoint/weft/internal/store"
)

// RunResult summarizes one ingest run.
type RunResult struct {
	TicksProcessed int                     `json:"ticks_processed"`
	Fragments      int                     `json:"fragments"`
	Events         []ir.NarrativeStateEvent `json:"events"`
}

// NewRunCommand creates the run command: ingest a fragment stream into the
// database and report every committed transition.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <stream.yaml>",
		Short: "Ingest a fragment stream and print committed transitions",
		Long: `Process a YAML tick stream through the engine against the configured
database. The stream uses the scenario format: ticks, fragments with
aliases, and declared relations. An existing database is resumed - the
chain is verified first and new ticks append to it.

Exit codes:
  0 - stream processed
  1 - chain verification or processing failure
  2 - command error (missing files, bad stream)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRun(rootOpts, cmd, args[0])
		},
	}
	return cmd
}

func runRun(opts *RootOptions, cmd *cobra.Command, streamPath string) error {
	ctx := cmd.Context()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	scenario, err := harness.LoadScenario(streamPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load stream", err)
	}
	batches, err := harness.Batches(scenario)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to build stream", err)
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	eng, err := openEngine(ctx, st, cfg)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to start engine", err)
	}

	result := &RunResult{}
	eng.SetEventSink(func(ev ir.NarrativeStateEvent) {
		result.Events = append(result.Events, ev)
		out.SuccessText("tick %-4d %-10s %s v%d", ev.Tick, ev.Transition, ev.ThreadID, ev.VersionID)
	})

	for _, batch := range batches {
		if err := eng.ProcessTick(ctx, batch.Tick, batch.Fragments); err != nil {
			return WrapExitError(ExitFailure, fmt.Sprintf("tick %d failed", batch.Tick), err)
		}
		result.TicksProcessed++
		result.Fragments += len(batch.Fragments)
	}

	out.SuccessText("%d ticks, %d fragments, %d transitions", result.TicksProcessed, result.Fragments, len(result.Events))
	if opts.Format == "json" {
		return out.Success(result)
	}
	return nil
}

// openEngine resumes from a populated store or starts fresh on an empty one.
func openEngine(ctx context.Context, st *store.Store, cfg config.Config) (*engine.Engine, error) {
	maxTick, err := st.MaxTick(ctx)
	if err != nil {
		return nil, err
	}
	if maxTick > 0 {
		return engine.Restore(ctx, st, cfg)
	}
	return engine.New(st, cfg), nil
}
