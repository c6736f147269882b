package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2beens/dailymetrics/internal/rawdata"
	"github.com/2beens/dailymetrics/internal/reconciler"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Run one reconciler pass over every user with an active provider connection",
	Long: `Run one reconciler pass now. It works even when the reconciler is disabled
in the config, using the configured window and limits.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		r := deps.engine.Reconciler
		if r == nil {
			var err error
			r, err = reconciler.New(
				deps.cfg.Reconciler.Config,
				rawdata.NewRepo(deps.dbPool),
				deps.engine.Orchestrator,
				deps.engine.Clock,
				nil,
			)
			if err != nil {
				return err
			}
		}

		summary, err := r.RunOnce(commandContext(cmd))
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), summary)
		}

		out := cmd.OutOrStdout()
		printStatus(out, summary.FailCount == 0, "%d users, %d ok, %d failed, took %s",
			summary.UsersProcessed, summary.OKCount, summary.FailCount,
			summary.FinishedAt.Sub(summary.StartedAt))
		for _, u := range summary.PerUser {
			if u.OK {
				_, _ = fmt.Fprintf(out, "  %s %s\n", u.UserID, faint("%s", u.RunID))
				continue
			}
			printStatus(out, false, "%s: %s", u.UserID, u.Error)
		}
		if summary.Truncated {
			_, _ = fmt.Fprintln(out, faint("  (per user results truncated)"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
}
