// Package search implements the genetic algorithm that looks for a low
// fitness fleet plan: random locally consistent plans, tournament selection,
// per-year uniform crossover, count mutation and elitism.
package search

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"runtime"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/kilianp07/fleetplan/core/evaluate"
	"github.com/kilianp07/fleetplan/core/events"
	"github.com/kilianp07/fleetplan/core/logger"
	"github.com/kilianp07/fleetplan/core/metrics"
	"github.com/kilianp07/fleetplan/core/model"
)

// Termination reasons reported in Outcome.Reason.
const (
	ReasonGenerations = "generations"
	ReasonTimeBudget  = "time_budget"
	ReasonCanceled    = "canceled"
)

// Publisher receives search events. *eventbus.Bus[events.Event] satisfies it.
type Publisher interface {
	Publish(events.Event)
}

// Outcome is the result of a search run.
type Outcome struct {
	RunID   string                    `json:"run_id"`
	Seed    int64                     `json:"seed"`
	Best    Individual                `json:"best"`
	Archive []Individual              `json:"archive"`
	History []metrics.GenerationStats `json:"history"`
	// Generations counts the offspring generations produced after the
	// initial population.
	Generations int           `json:"generations"`
	Evaluations int           `json:"evaluations"`
	Reason      string        `json:"reason"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration"`
}

// Engine runs the genetic algorithm.
type Engine struct {
	eval *evaluate.Evaluator
	ref  *model.ReferenceData
	cfg  Config
	gen  *Generator
	mut  mutator
	sink metrics.MetricsSink
	bus  Publisher
	log  logger.Logger
	now  func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetrics records generation statistics on sink.
func WithMetrics(sink metrics.MetricsSink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// WithPublisher publishes search events on p.
func WithPublisher(p Publisher) Option {
	return func(e *Engine) { e.bus = p }
}

// WithLogger sets the engine logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Engine) { e.log = logger.OrNop(l) }
}

// NewEngine validates cfg and returns an engine scoring plans with ev.
func NewEngine(ev *evaluate.Evaluator, cfg Config, opts ...Option) (*Engine, error) {
	if ev == nil {
		return nil, errors.New("nil evaluator")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	ref := ev.Reference()
	e := &Engine{
		eval: ev,
		ref:  ref,
		cfg:  cfg,
		gen:  NewGenerator(ref, cfg),
		mut:  mutator{ref: ref, rate: cfg.MutationRate, maxDelta: cfg.MaxMutationDelta},
		sink: metrics.NopSink{},
		log:  logger.Nop{},
		now:  time.Now,
	}
	for _, o := range opts {
		o(e)
	}
	return e, nil
}

// Run searches until the generation budget, the time budget or ctx ends
// the loop. Cancellation after the initial population is scored stops the
// search gracefully and returns the best plan found so far.
func (e *Engine) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{RunID: uuid.NewString(), Seed: e.cfg.Seed, Started: e.now()}
	rng := rand.New(rand.NewSource(e.cfg.Seed))
	archive := NewArchive(e.cfg.ArchiveSize)
	var deadline time.Time
	if b := e.cfg.TimeBudget(); b > 0 {
		deadline = out.Started.Add(b)
	}
	e.log.Infof("run %s: population=%d generations=%d seed=%d workers=%d",
		out.RunID, e.cfg.PopulationSize, e.cfg.MaxGenerations, e.cfg.Seed, e.cfg.Workers)

	pop := make([]Individual, e.cfg.PopulationSize)
	for i := range pop {
		pop[i].Plan = e.gen.Generate(rng)
	}
	start := e.now()
	n, err := e.evaluateAll(ctx, pop)
	if err != nil {
		return Outcome{}, fmt.Errorf("initial population: %w", err)
	}
	out.Evaluations += n

	best := math.Inf(1)
	for g := 0; ; g++ {
		st := e.stats(out.RunID, g, pop, n, e.now().Sub(start))
		out.History = append(out.History, st)
		for _, ind := range pop {
			archive.Offer(ind)
		}
		e.report(st, &best)

		if g >= e.cfg.MaxGenerations {
			out.Reason = ReasonGenerations
			break
		}
		if ctx.Err() != nil {
			out.Reason = ReasonCanceled
			break
		}
		if !deadline.IsZero() && !e.now().Before(deadline) {
			out.Reason = ReasonTimeBudget
			break
		}

		next := e.breed(rng, pop)
		start = e.now()
		n, err = e.evaluateAll(ctx, next)
		if err != nil {
			if ctx.Err() != nil {
				out.Reason = ReasonCanceled
				break
			}
			return Outcome{}, fmt.Errorf("generation %d: %w", g+1, err)
		}
		out.Evaluations += n
		out.Generations = g + 1
		pop = next
	}

	out.Archive = archive.Members()
	out.Best, _ = archive.Best()
	out.Duration = e.now().Sub(out.Started)
	e.finish(out)
	return out, nil
}

// breed builds the next generation: elites first, then children from
// tournament-selected parents.
func (e *Engine) breed(rng *rand.Rand, pop []Individual) []Individual {
	next := make([]Individual, 0, len(pop))
	if e.cfg.EliteCount > 0 {
		idx := make([]int, len(pop))
		for i := range idx {
			idx[i] = i
		}
		sort.SliceStable(idx, func(a, b int) bool {
			return pop[idx[a]].Result.Fitness < pop[idx[b]].Result.Fitness
		})
		for _, i := range idx[:e.cfg.EliteCount] {
			next = append(next, pop[i])
		}
	}
	for len(next) < len(pop) {
		a := pop[tournament(rng, pop, e.cfg.TournamentSize)]
		b := pop[tournament(rng, pop, e.cfg.TournamentSize)]
		child := crossover(rng, a.Plan, b.Plan, e.cfg.CrossoverRate)
		e.mut.mutate(rng, &child)
		next = append(next, Individual{Plan: child})
	}
	return next
}

// evaluateAll scores the individuals that have no result yet. Each worker
// writes only its own slot, so no locking is needed.
func (e *Engine) evaluateAll(ctx context.Context, pop []Individual) (int, error) {
	workers := e.cfg.Workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	n := 0
	for i := range pop {
		if pop[i].evaluated {
			continue
		}
		n++
		ind := &pop[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := e.eval.Evaluate(ind.Plan)
			if err != nil {
				return err
			}
			ind.Result = res
			ind.evaluated = true
			return nil
		})
	}
	return n, g.Wait()
}

func (e *Engine) stats(runID string, g int, pop []Individual, evals int, d time.Duration) metrics.GenerationStats {
	fit := make([]float64, len(pop))
	feasible := 0
	for i, ind := range pop {
		fit[i] = ind.Result.Fitness
		if ind.Result.Feasible() {
			feasible++
		}
	}
	mean, std := stat.MeanStdDev(fit, nil)
	return metrics.GenerationStats{
		RunID:       runID,
		Generation:  g,
		Best:        floats.Min(fit),
		Mean:        mean,
		Worst:       floats.Max(fit),
		StdDev:      std,
		Feasible:    feasible,
		Population:  len(pop),
		Evaluations: evals,
		Duration:    d,
		Time:        e.now(),
	}
}

func (e *Engine) report(st metrics.GenerationStats, best *float64) {
	e.log.Debugw("generation", map[string]any{
		"run_id":     st.RunID,
		"generation": st.Generation,
		"best":       st.Best,
		"mean":       st.Mean,
		"feasible":   st.Feasible,
	})
	if err := e.sink.RecordGeneration(st); err != nil {
		e.log.Warnf("record generation %d: %v", st.Generation, err)
	}
	if e.bus != nil {
		e.bus.Publish(events.GenerationEvent{Stats: st})
	}
	if st.Best >= *best {
		return
	}
	if !math.IsInf(*best, 1) {
		imp := metrics.Improvement{RunID: st.RunID, Generation: st.Generation, Previous: *best, Fitness: st.Best, Time: st.Time}
		e.log.Infof("generation %d: best fitness %.2f -> %.2f", st.Generation, *best, st.Best)
		if r, ok := e.sink.(metrics.ImprovementRecorder); ok {
			if err := r.RecordImprovement(imp); err != nil {
				e.log.Warnf("record improvement: %v", err)
			}
		}
		if e.bus != nil {
			e.bus.Publish(events.ImprovementEvent{Improvement: imp})
		}
	}
	*best = st.Best
}

func (e *Engine) finish(out Outcome) {
	sum := metrics.RunSummary{
		RunID:       out.RunID,
		Seed:        uint64(out.Seed),
		Generations: out.Generations,
		Evaluations: out.Evaluations,
		BestFitness: out.Best.Result.Fitness,
		Cost:        out.Best.Result.Cost,
		Penalty:     out.Best.Result.Penalty,
		Feasible:    out.Best.Result.Feasible(),
		Duration:    out.Duration,
		Time:        e.now(),
	}
	e.log.Infof("run %s finished (%s): fitness=%.2f cost=%.2f penalty=%.2f violations=%d",
		out.RunID, out.Reason, sum.BestFitness, sum.Cost, sum.Penalty, len(out.Best.Result.Violations))
	if r, ok := e.sink.(metrics.RunRecorder); ok {
		if err := r.RecordRun(sum); err != nil {
			e.log.Warnf("record run: %v", err)
		}
	}
	if e.bus != nil {
		e.bus.Publish(events.RunFinishedEvent{Summary: sum, Reason: out.Reason})
	}
}
