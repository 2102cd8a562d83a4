package cmd

import (
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetplan/core/runlog"
)

var (
	runsLimit int
	runsID    string
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Run history commands",
}

var runsLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List stored search runs",
	RunE:  runRunsLs,
}

func init() {
	runsLsCmd.Flags().IntVar(&runsLimit, "limit", 20, "show the most recent runs only (0 for all)")
	runsLsCmd.Flags().StringVar(&runsID, "run", "", "filter by run ID")
	runsCmd.AddCommand(runsLsCmd)
	rootCmd.AddCommand(runsCmd)
}

func runRunsLs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("run log disabled")
	}
	defer func() { _ = store.Close() }()

	recs, err := store.Query(cmd.Context(), runlog.Query{RunID: runsID, Limit: runsLimit})
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "RUN\tSTARTED\tSEED\tGENS\tFITNESS\tCOST\tFEASIBLE\tREASON")
	for _, r := range recs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%.2f\t%.2f\t%t\t%s\n",
			r.RunID, r.Started.Format(time.RFC3339), r.Seed, r.Generations, r.Fitness, r.Cost, r.Feasible, r.Reason)
	}
	return w.Flush()
}
