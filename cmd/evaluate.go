package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetplan/app"
	"github.com/kilianp07/fleetplan/core/evaluate"
	"github.com/kilianp07/fleetplan/pkg/export"
)

var (
	planPath string
	asJSON   bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Score a plan file and print its yearly breakdown",
	RunE:  runEvaluate,
}

func init() {
	evaluateCmd.Flags().StringVar(&planPath, "plan", "", "action table CSV")
	evaluateCmd.Flags().BoolVar(&asJSON, "json", false, "print the full result as JSON")
	_ = evaluateCmd.MarkFlagRequired("plan")
	rootCmd.AddCommand(evaluateCmd)
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	f, err := os.Open(planPath)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	rows, err := export.ReadCSV(f)
	if err != nil {
		return fmt.Errorf("%s: %w", planPath, err)
	}

	cfg.RunLog.Backend = "none"
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()
	res, err := svc.Evaluate(rows)
	if err != nil {
		return err
	}
	if asJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return printResult(cmd.OutOrStdout(), res)
}

func printResult(out io.Writer, res evaluate.Result) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "year\tcost\temissions\tcap\tfleet\tbought\tsold\tunmet\tviolations\t")
	for _, y := range res.Years {
		fmt.Fprintf(w, "%d\t%.2f\t%.2f\t%.2f\t%d\t%d\t%d\t%d\t%d\t\n",
			y.Year, y.Cost, y.Emissions, y.Cap, y.FleetEnd, y.Bought, y.Sold, y.Unmet, y.Violations)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nfitness %.2f  cost %.2f  penalty %.2f\n", res.Fitness, res.Cost, res.Penalty)
	for _, v := range res.Violations {
		fmt.Fprintf(out, "  %d %s %s: %s\n", v.Year, v.Kind, v.VehicleID, v.Detail)
	}
	return nil
}
