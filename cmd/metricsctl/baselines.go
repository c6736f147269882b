package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/2beens/dailymetrics/internal/caller"
	"github.com/2beens/dailymetrics/internal/wellness"
)

var (
	baselinesUser    string
	baselinesOn      string
	baselinesMetrics []string
)

var baselinesCmd = &cobra.Command{
	Use:   "baselines",
	Short: "Recompute a user's rolling baselines",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		computedOn := wellness.DateOf(deps.engine.Clock.Now())
		if baselinesOn != "" {
			d, err := wellness.ParseDate(baselinesOn)
			if err != nil {
				return err
			}
			computedOn = d
		}
		var metricNames []wellness.Metric
		if len(baselinesMetrics) > 0 {
			parsed, err := wellness.ParseMetrics(baselinesMetrics)
			if err != nil {
				return err
			}
			metricNames = parsed
		}

		res, err := deps.engine.Baselines.Compute(
			commandContext(cmd),
			caller.Service{OnBehalfOf: baselinesUser},
			computedOn,
			metricNames,
		)
		if err != nil {
			return err
		}
		if flagJSON {
			return printJSON(cmd.OutOrStdout(), res)
		}

		out := cmd.OutOrStdout()
		printStatus(out, true, "baselines for %s on %s", res.UserID, res.ComputedOn)
		for _, row := range res.Results {
			_, _ = fmt.Fprintf(out, "  %-22s avg %-10s stddev %-10s %s\n",
				row.Metric, formatFloat(row.Avg), formatFloat(row.Stddev), faint("n=%d", row.N))
		}
		return nil
	},
}

func init() {
	baselinesCmd.Flags().StringVar(&baselinesUser, "user", "", "user id")
	baselinesCmd.Flags().StringVar(&baselinesOn, "on", "", "computation date (YYYY-MM-DD), defaults to today (UTC)")
	baselinesCmd.Flags().StringSliceVar(&baselinesMetrics, "metric", nil, "metric to compute, repeatable; defaults to the standard set")
	_ = baselinesCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(baselinesCmd)
}
