package cli

import (
	"github.com/spf13/cobra"

	"github.com/stillpoint/weft/internal/ir"
	"github.com/stillpoint/weft/internal/store"
)

// InspectVersion is one row of a thread's lineage.
type InspectVersion struct {
	Version    int64  `json:"version"`
	Tick       int64  `json:"tick"`
	Transition string `json:"transition"`
	State      string `json:"state"`
	Members    int    `json:"members"`
	Components int64  `json:"components"`
	Hash       string `json:"hash"`
}

// InspectResult is the full lineage plus the latest snapshot.
type InspectResult struct {
	ThreadID string                 `json:"thread_id"`
	Lineage  []InspectVersion       `json:"lineage"`
	Head     ir.ThreadStateSnapshot `json:"head"`
}

// NewInspectCommand creates the inspect command: show one thread's lineage.
func NewInspectCommand(rootOpts *RootOptions) *cobra.Command {
	var version int64
	cmd := &cobra.Command{
		Use:   "inspect <thread-id>",
		Short: "Show a thread's version lineage and latest snapshot",
		Long: `Print every version of one thread in order - tick, transition, state,
membership and connectivity - followed by the latest snapshot's detail:
members, admitted edges, divergence markers, and absence blocks.
With --version, detail a single historical version instead.

Exit codes:
  0 - thread found and chain verified
  1 - chain verification failed
  2 - command error (unknown thread, database not found)`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(rootOpts, cmd, ir.ThreadID(args[0]), version)
		},
	}
	cmd.Flags().Int64Var(&version, "version", 0, "detail this version instead of the head")
	return cmd
}

func runInspect(opts *RootOptions, cmd *cobra.Command, tid ir.ThreadID, version int64) error {
	ctx := cmd.Context()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if version > 0 {
		snap, err := st.ReadSnapshot(ctx, tid, version)
		if err != nil {
			return WrapExitError(ExitCommandError, "inspect failed", err)
		}
		if err := snap.VerifyHash(); err != nil {
			return WrapExitError(ExitFailure, "snapshot hash verification failed", err)
		}
		if opts.Format == "json" {
			return out.Success(&snap)
		}
		out.SuccessText("thread %s v%d: tick %d %s %s members=%d components=%d",
			tid, snap.VersionID, snap.Tick, snap.Transition, snap.Lifecycle,
			len(snap.Members), snap.Connectivity.Components)
		printSnapshotDetail(out, snap)
		return nil
	}

	chain, err := st.ReplayThread(ctx, tid)
	if err != nil {
		if store.IsChainMismatch(err) {
			return WrapExitError(ExitFailure, "chain verification failed", err)
		}
		return WrapExitError(ExitCommandError, "inspect failed", err)
	}

	result := &InspectResult{ThreadID: string(tid), Head: chain[len(chain)-1]}
	for _, snap := range chain {
		result.Lineage = append(result.Lineage, InspectVersion{
			Version:    snap.VersionID,
			Tick:       snap.Tick,
			Transition: string(snap.Transition),
			State:      string(snap.Lifecycle),
			Members:    len(snap.Members),
			Components: snap.Connectivity.Components,
			Hash:       snap.Hash,
		})
	}

	if opts.Format == "json" {
		return out.Success(result)
	}

	out.SuccessText("thread %s (%d versions)", tid, len(chain))
	for _, v := range result.Lineage {
		out.SuccessText("  v%-3d tick %-5d %-13s %-10s members=%d components=%d",
			v.Version, v.Tick, v.Transition, v.State, v.Members, v.Components)
	}

	head := result.Head
	out.SuccessText("latest: %s, last update tick %d", head.Lifecycle, head.LastUpdateTick)
	printSnapshotDetail(out, head)
	return nil
}

func printSnapshotDetail(out *OutputFormatter, snap ir.ThreadStateSnapshot) {
	for _, m := range snap.Members {
		out.SuccessText("  member %s", m)
	}
	for _, e := range snap.AdmittedEdges {
		out.SuccessText("  edge   %s -> %s (%s)", e.Source, e.Target, e.Kind)
	}
	for _, m := range snap.DivergenceMarkers {
		out.SuccessText("  marker tick %d: %s", m.Tick, m.String())
	}
	for _, a := range snap.AbsenceBlocks {
		out.SuccessText("  absence ticks %d..%d", a.FromTick, a.ToTick)
	}
}
