package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/fleetplan/core/metrics"
)

// PromSink exposes search progress as Prometheus metrics.
type PromSink struct {
	best         prometheus.Gauge
	mean         prometheus.Gauge
	feasible     prometheus.Gauge
	generations  prometheus.Counter
	evaluations  prometheus.Counter
	genDuration  prometheus.Histogram
	improvements prometheus.Counter
	runs         *prometheus.CounterVec
}

// NewPromSink registers the search metrics on the default registerer. The
// /metrics endpoint is served separately by StartPromServer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer. A nil
// registerer defaults to the global one. Collectors that are already
// registered are reused.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{}
	var err error
	if s.best, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleetplan_best_fitness",
		Help: "Best fitness of the current generation",
	})); err != nil {
		return nil, err
	}
	if s.mean, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleetplan_mean_fitness",
		Help: "Mean fitness of the current generation",
	})); err != nil {
		return nil, err
	}
	if s.feasible, err = register(reg, prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleetplan_feasible_plans",
		Help: "Plans without penalty in the current generation",
	})); err != nil {
		return nil, err
	}
	if s.generations, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetplan_generations_total",
		Help: "Generations scored",
	})); err != nil {
		return nil, err
	}
	if s.evaluations, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetplan_evaluations_total",
		Help: "Plans evaluated",
	})); err != nil {
		return nil, err
	}
	if s.genDuration, err = register(reg, prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleetplan_generation_duration_seconds",
		Help:    "Wall time spent scoring one generation",
		Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
	})); err != nil {
		return nil, err
	}
	if s.improvements, err = register(reg, prometheus.NewCounter(prometheus.CounterOpts{
		Name: "fleetplan_improvements_total",
		Help: "Best fitness improvements",
	})); err != nil {
		return nil, err
	}
	if s.runs, err = register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fleetplan_runs_total",
		Help: "Finished search runs",
	}, []string{"feasible"})); err != nil {
		return nil, err
	}
	return s, nil
}

func register[T prometheus.Collector](reg prometheus.Registerer, c T) (T, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(T); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordGeneration updates the gauges and counters for one generation.
func (s *PromSink) RecordGeneration(st coremetrics.GenerationStats) error {
	s.best.Set(st.Best)
	s.mean.Set(st.Mean)
	s.feasible.Set(float64(st.Feasible))
	s.generations.Inc()
	s.evaluations.Add(float64(st.Evaluations))
	s.genDuration.Observe(st.Duration.Seconds())
	return nil
}

// RecordImprovement counts best fitness improvements.
func (s *PromSink) RecordImprovement(coremetrics.Improvement) error {
	s.improvements.Inc()
	return nil
}

// RecordRun counts finished runs by feasibility.
func (s *PromSink) RecordRun(r coremetrics.RunSummary) error {
	s.runs.WithLabelValues(strconv.FormatBool(r.Feasible)).Inc()
	return nil
}
