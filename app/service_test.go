package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetplan/config"
	"github.com/kilianp07/fleetplan/core/events"
	"github.com/kilianp07/fleetplan/core/factory"
	"github.com/kilianp07/fleetplan/core/runlog"
	"github.com/kilianp07/fleetplan/core/search"
	"github.com/kilianp07/fleetplan/internal/eventbus"
	"github.com/kilianp07/fleetplan/internal/fixture"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	cfg := &config.Config{
		RunLog: runlog.Config{Backend: runlog.BackendJSONL, Path: filepath.Join(dir, "runs.jsonl")},
		Export: config.ExportConfig{
			Dir:     filepath.Join(dir, "out"),
			Formats: []string{config.FormatCSV, config.FormatJSON, config.FormatXLSX, config.FormatChart},
		},
	}
	cfg.Search.PopulationSize = 20
	cfg.Search.MaxGenerations = 5
	cfg.Search.Workers = 2
	cfg.Search.SellProbability = 0.01
	cfg.SetDefaults()
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestServiceRun(t *testing.T) {
	cfg := testConfig(t)
	svc, err := NewWithReference(cfg, fixture.SingleModel(300, 1000))
	require.NoError(t, err)
	defer func() { require.NoError(t, svc.Close()) }()

	rep, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, cfg.Search.MaxGenerations, rep.Outcome.Generations)
	assert.Len(t, rep.Files, 4)
	for _, f := range rep.Files {
		info, err := os.Stat(f)
		require.NoError(t, err)
		assert.Positive(t, info.Size(), f)
	}

	runs, err := svc.Runs(context.Background(), runlog.Query{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, rep.Outcome.RunID, runs[0].RunID)
	assert.Len(t, runs[0].History, rep.Outcome.Generations+1)

	res, err := svc.Evaluate(rep.Record.Rows)
	require.NoError(t, err)
	assert.InDelta(t, rep.Outcome.Best.Result.Fitness, res.Fitness, 1e-6)
}

func TestServiceExportSelectsFormats(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.Formats = []string{config.FormatCSV}
	cfg.RunLog.Backend = runlog.BackendNone
	svc, err := NewWithReference(cfg, fixture.SingleModel(300, 1000))
	require.NoError(t, err)
	defer func() { _ = svc.Close() }()

	rep, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(cfg.Export.Dir, "plan.csv")}, rep.Files)

	_, err = svc.Runs(context.Background(), runlog.Query{})
	assert.Error(t, err)
}

func TestNewFailsOnMissingData(t *testing.T) {
	cfg := testConfig(t)
	cfg.Data.Path = filepath.Join(t.TempDir(), "missing.yaml")
	_, err := New(cfg)
	assert.ErrorContains(t, err, "reference data")
}

func TestNewFailsOnUnknownSink(t *testing.T) {
	cfg := testConfig(t)
	cfg.Metrics.Sinks = append(cfg.Metrics.Sinks, factory.ModuleConfig{Type: "carrier-pigeon"})
	_, err := NewWithReference(cfg, fixture.SingleModel(300, 1000))
	assert.ErrorContains(t, err, "metrics sink")
}

// A stalled collector must still receive every event of a long run.
func TestBusBufferHoldsWholeRun(t *testing.T) {
	for _, gens := range []int{1, 30, 500, 5000} {
		cfg := search.DefaultConfig()
		cfg.MaxGenerations = gens
		bus := eventbus.NewWithBuffer[events.Event](busBuffer(cfg))
		sub := bus.Subscribe()

		for g := 0; g <= gens; g++ {
			bus.Publish(events.GenerationEvent{})
			if g > 0 {
				bus.Publish(events.ImprovementEvent{})
			}
		}
		bus.Publish(events.RunFinishedEvent{})

		assert.Zero(t, bus.Dropped(), "max_generations=%d", gens)
		assert.Len(t, sub, 2*gens+2)
		bus.Close()
	}
}
