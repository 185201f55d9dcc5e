package cli

import (
	"github.com/spf13/cobra"

	"github.com/stillpoint/weft/internal/store"
)

// VerifyThreadResult holds the verification verdict for one thread.
type VerifyThreadResult struct {
	ThreadID string `json:"thread_id"`
	Versions int    `json:"versions"`
	State    string `json:"state"`
	Verified bool   `json:"verified"`
	Error    string `json:"error,omitempty"`
}

// VerifyResult holds the overall verification result.
type VerifyResult struct {
	Threads []VerifyThreadResult `json:"threads"`
	AllOK   bool                 `json:"all_ok"`
}

// NewVerifyCommand creates the verify command: recompute every hash chain.
func NewVerifyCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Verify hash-chain integrity of every thread",
		Long: `Replay every thread's version log, recomputing content hashes and
checking parent linkage. Any mismatch is reported as HASH_CHAIN_MISMATCH.

Exit codes:
  0 - all chains verify
  1 - at least one chain failed verification
  2 - command error (database not found, etc.)`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(rootOpts, cmd)
		},
	}
	return cmd
}

func runVerify(opts *RootOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout(), Verbose: opts.Verbose}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	tids, err := st.ListThreads(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list threads", err)
	}

	result := &VerifyResult{AllOK: true}
	for _, tid := range tids {
		tr := VerifyThreadResult{ThreadID: string(tid), Verified: true}
		chain, err := st.ReplayThread(ctx, tid)
		if err != nil {
			tr.Verified = false
			tr.Error = err.Error()
			result.AllOK = false
		} else {
			tr.Versions = len(chain)
			tr.State = string(chain[len(chain)-1].Lifecycle)
		}
		result.Threads = append(result.Threads, tr)

		if tr.Verified {
			out.SuccessText("ok    %-20s %d versions, %s", tr.ThreadID, tr.Versions, tr.State)
		} else {
			out.SuccessText("FAIL  %-20s %s", tr.ThreadID, tr.Error)
		}
	}

	if opts.Format == "json" {
		if err := out.Success(result); err != nil {
			return err
		}
	} else {
		out.SuccessText("%d threads checked", len(result.Threads))
	}

	if !result.AllOK {
		return WrapExitError(ExitFailure, "hash chain verification failed", nil)
	}
	return nil
}
