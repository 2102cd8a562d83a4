package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fleetplan/app"
	"github.com/kilianp07/fleetplan/config"
	"github.com/kilianp07/fleetplan/infra/logger"
)

var (
	cfgPath     string
	seed        int64
	generations int
	outDir      string
)

var rootCmd = &cobra.Command{
	Use:          "fleetplan",
	Short:        "Fleet decarbonization planner",
	Long:         "Search a yearly buy/sell/use plan that minimizes fleet cost under carbon caps and demand.",
	SilenceUsage: true,
	RunE:         run,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (overrides search.seed)")
	rootCmd.Flags().IntVar(&generations, "generations", 0, "generation budget (overrides search.max_generations)")
	rootCmd.Flags().StringVar(&outDir, "out", "", "export directory (overrides export.dir)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig reads the configuration. The default file is optional.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := cfgPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func run(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("seed") {
		cfg.Search.Seed = seed
	}
	if cmd.Flags().Changed("generations") {
		cfg.Search.MaxGenerations = generations
	}
	if outDir != "" {
		cfg.Export.Dir = outDir
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("main").Errorf("service close: %v", err)
		}
	}()
	rep, err := svc.Run(ctx)
	if err != nil {
		return err
	}
	best := rep.Outcome.Best.Result
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "run %s (%s)\n", rep.Outcome.RunID, rep.Outcome.Reason)
	fmt.Fprintf(w, "fitness %.2f  cost %.2f  penalty %.2f  violations %d\n",
		best.Fitness, best.Cost, best.Penalty, len(best.Violations))
	for _, f := range rep.Files {
		fmt.Fprintf(w, "wrote %s\n", f)
	}
	return nil
}
