package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/kilianp07/fleetplan/config"
	"github.com/kilianp07/fleetplan/core/evaluate"
	"github.com/kilianp07/fleetplan/core/events"
	coremetrics "github.com/kilianp07/fleetplan/core/metrics"
	"github.com/kilianp07/fleetplan/core/model"
	"github.com/kilianp07/fleetplan/core/plan"
	"github.com/kilianp07/fleetplan/core/runlog"
	"github.com/kilianp07/fleetplan/core/search"
	"github.com/kilianp07/fleetplan/infra/logger"
	"github.com/kilianp07/fleetplan/infra/metrics"
	"github.com/kilianp07/fleetplan/infra/refdata"
	"github.com/kilianp07/fleetplan/internal/eventbus"
	"github.com/kilianp07/fleetplan/pkg/export"
)

// minBusBuffer is the smallest collector subscription buffer.
const minBusBuffer = 256

// busBuffer sizes the collector subscription so every event of a run fits:
// one generation event per scored population, at most one improvement per
// offspring generation and the final run event.
func busBuffer(cfg search.Config) int {
	return max(minBusBuffer, 2*cfg.MaxGenerations+2)
}

// Service wires reference data, the evaluator, the search engine, metrics,
// exports and the run log.
type Service struct {
	cfg   *config.Config
	ref   *model.ReferenceData
	eval  *evaluate.Evaluator
	sink  coremetrics.MetricsSink
	store runlog.Store
	log   logger.Logger
}

// Report describes a finished run.
type Report struct {
	Outcome search.Outcome
	Record  runlog.RunRecord
	// Files lists the exported artifacts.
	Files []string
}

// New loads the reference data and builds the service from cfg.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")
	ref, err := refdata.Load(cfg.Data.Path)
	if err != nil {
		return nil, fmt.Errorf("reference data: %w", err)
	}
	logg.Infof("loaded %d vehicle models for %d-%d", len(ref.Vehicles), ref.Horizon.Start, ref.Horizon.End)
	return NewWithReference(cfg, ref)
}

// NewWithReference builds the service around already validated data.
func NewWithReference(cfg *config.Config, ref *model.ReferenceData) (*Service, error) {
	ev, err := evaluate.New(ref, cfg.Evaluator)
	if err != nil {
		return nil, fmt.Errorf("evaluator: %w", err)
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}
	store, err := runlog.Open(cfg.RunLog)
	if err != nil {
		closeSink(sink)
		return nil, fmt.Errorf("run log: %w", err)
	}
	return &Service{
		cfg:   cfg,
		ref:   ref,
		eval:  ev,
		sink:  sink,
		store: store,
		log:   logger.New("service"),
	}, nil
}

// Reference returns the loaded reference data.
func (s *Service) Reference() *model.ReferenceData { return s.ref }

// Run searches for a plan, exports the best one and records the run.
// Metrics are recorded off the search goroutine through the event bus.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	if addr := s.cfg.Metrics.PrometheusAddr; addr != "" {
		promCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			if err := metrics.StartPromServer(promCtx, addr); err != nil {
				s.log.Errorf("prom server: %v", err)
			}
		}()
	}

	bus := eventbus.NewWithBuffer[events.Event](busBuffer(s.cfg.Search))
	done := metrics.StartEventCollector(context.WithoutCancel(ctx), bus, s.sink)
	engine, err := search.NewEngine(s.eval, s.cfg.Search,
		search.WithPublisher(bus),
		search.WithLogger(logger.New("search")),
	)
	if err != nil {
		bus.Close()
		return nil, err
	}
	out, err := engine.Run(ctx)
	bus.Close()
	<-done
	if n := bus.Dropped(); n > 0 {
		s.log.Warnf("metrics collector fell behind: %d search events dropped", n)
	}
	if err != nil {
		return nil, err
	}

	rep := &Report{Outcome: out, Record: runlog.FromOutcome(out)}
	if rep.Files, err = s.Export(out); err != nil {
		return rep, fmt.Errorf("export: %w", err)
	}
	if s.store != nil {
		if err := s.store.Append(context.WithoutCancel(ctx), rep.Record); err != nil {
			return rep, fmt.Errorf("run log: %w", err)
		}
	}
	return rep, nil
}

// Export writes the best plan of out in every configured format.
func (s *Service) Export(out search.Outcome) ([]string, error) {
	exp := s.cfg.Export
	if err := os.MkdirAll(exp.Dir, 0o755); err != nil {
		return nil, err
	}
	rows := out.Best.Plan.Rows()
	writers := []struct {
		format string
		name   string
		write  func(io.Writer) error
	}{
		{config.FormatCSV, "plan.csv", func(w io.Writer) error { return export.WriteCSV(w, rows) }},
		{config.FormatJSON, "plan.json", func(w io.Writer) error { return export.WriteJSON(w, rows) }},
		{config.FormatXLSX, "plan.xlsx", func(w io.Writer) error { return export.WriteXLSX(w, rows, out.Best.Result.Years) }},
		{config.FormatChart, "convergence.html", func(w io.Writer) error { return export.ConvergenceChart(w, out.History) }},
	}
	var files []string
	for _, wr := range writers {
		if !exp.Has(wr.format) {
			continue
		}
		path := filepath.Join(exp.Dir, wr.name)
		if err := writeFile(path, wr.write); err != nil {
			return files, fmt.Errorf("%s: %w", wr.name, err)
		}
		files = append(files, path)
	}
	return files, nil
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return write(f)
}

// Evaluate scores a plan given as action table rows.
func (s *Service) Evaluate(rows []plan.Row) (evaluate.Result, error) {
	p, err := plan.FromRows(s.ref.Horizon, rows)
	if err != nil {
		return evaluate.Result{}, err
	}
	return s.eval.Evaluate(p)
}

// Runs queries the run log.
func (s *Service) Runs(ctx context.Context, q runlog.Query) ([]runlog.RunRecord, error) {
	if s.store == nil {
		return nil, errors.New("run log disabled")
	}
	return s.store.Query(ctx, q)
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	closeSink(s.sink)
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

func closeSink(sink coremetrics.MetricsSink) {
	if m, ok := sink.(*coremetrics.MultiSink); ok {
		for _, inner := range m.Sinks {
			closeSink(inner)
		}
		return
	}
	if c, ok := sink.(io.Closer); ok {
		_ = c.Close()
	}
}
