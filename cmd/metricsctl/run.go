package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/pipeline"
	"github.com/2beens/dailymetrics/internal/wellness"
)

var (
	runUser      string
	runDates     []string
	runDays      int
	runBaselines bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daily pipeline for one user",
	Long: `Run aggregation, recovery and strain for the given dates (or the last N days),
then refresh the user's baselines.

EXAMPLES:

  metricsctl run --user u-123
  metricsctl run --user u-123 --days 7 --baselines=false
  metricsctl run --user u-123 --date 2024-03-08 --date 2024-03-09`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		req, err := buildRunRequest(cmd, runDates, runDays, runBaselines)
		if err != nil {
			return err
		}

		res, err := deps.engine.Orchestrator.Run(commandContext(cmd), caller.Service{OnBehalfOf: runUser}, req)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}
		printRunResult(cmd, res)
		return nil
	},
}

func buildRunRequest(cmd *cobra.Command, rawDates []string, days int, baselines bool) (pipeline.Request, error) {
	var req pipeline.Request
	if len(rawDates) > 0 {
		if cmd.Flags().Changed("days") {
			return req, wellness.InvalidInput("--date and --days are mutually exclusive")
		}
		dates, err := wellness.ParseDates(rawDates)
		if err != nil {
			return req, err
		}
		req.Dates = dates
	} else if cmd.Flags().Changed("days") {
		req.RecomputeLastDays = &days
	}
	if cmd.Flags().Changed("baselines") {
		req.ComputeBaselines = &baselines
	}
	return req, nil
}

func printRunResult(cmd *cobra.Command, res *pipeline.Result) {
	out := cmd.OutOrStdout()
	printStatus(out, res.OK, "run %s for user %s", res.RunID, res.UserID)
	for _, d := range res.PerDateResults {
		recoveryScore, strainScore := "-", "-"
		if d.Recovery != nil {
			recoveryScore = fmt.Sprintf("%d", d.Recovery.RecoveryScore)
		}
		if d.Strain != nil {
			strainScore = fmt.Sprintf("%d", d.Strain.StrainScore)
		}
		_, _ = fmt.Fprintf(out, "  %s  %-24s recovery %-4s strain %s\n",
			d.Date, faint("%s", d.State), recoveryScore, strainScore)
	}
	if res.BaselineResult != nil {
		_, _ = fmt.Fprintf(out, "  baselines refreshed on %s: %d metrics\n",
			res.BaselineResult.ComputedOn, len(res.BaselineResult.Results))
	}
	for _, f := range res.Failures {
		printStatus(out, false, "%s %s: %s", f.Date, f.Step, f.Error)
	}
}

func init() {
	runCmd.Flags().StringVar(&runUser, "user", "", "user id")
	runCmd.Flags().StringSliceVar(&runDates, "date", nil, "date to process (YYYY-MM-DD), repeatable")
	runCmd.Flags().IntVar(&runDays, "days", pipeline.DefaultDays, "recompute the last N days, ending yesterday")
	runCmd.Flags().BoolVar(&runBaselines, "baselines", true, "refresh baselines after the daily steps")
	_ = runCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(runCmd)
}
