package metrics

import (
	"time"
)

// GenerationStats summarizes the fitness of one evaluated generation.
type GenerationStats struct {
	RunID      string  `json:"run_id"`
	Generation int     `json:"generation"`
	Best       float64 `json:"best"`
	Mean       float64 `json:"mean"`
	Worst      float64 `json:"worst"`
	StdDev     float64 `json:"std_dev"`
	// Feasible counts individuals without any penalty.
	Feasible    int `json:"feasible"`
	Population  int `json:"population"`
	Evaluations int `json:"evaluations"`
	// Duration is the wall time spent scoring the generation.
	Duration time.Duration `json:"duration"`
	Time     time.Time     `json:"time"`
}

// MetricsSink records search progress for observability purposes.
type MetricsSink interface {
	RecordGeneration(s GenerationStats) error
}

// RunSummary describes a finished search run.
type RunSummary struct {
	RunID       string        `json:"run_id"`
	Seed        uint64        `json:"seed"`
	Generations int           `json:"generations"`
	Evaluations int           `json:"evaluations"`
	BestFitness float64       `json:"best_fitness"`
	Cost        float64       `json:"cost"`
	Penalty     float64       `json:"penalty"`
	Feasible    bool          `json:"feasible"`
	Duration    time.Duration `json:"duration"`
	Time        time.Time     `json:"time"`
}

// RunRecorder records finished runs.
type RunRecorder interface {
	RecordRun(s RunSummary) error
}

// Improvement is emitted when the best fitness of a run decreases.
type Improvement struct {
	RunID      string    `json:"run_id"`
	Generation int       `json:"generation"`
	Previous   float64   `json:"previous"`
	Fitness    float64   `json:"fitness"`
	Time       time.Time `json:"time"`
}

// ImprovementRecorder records best-fitness improvements.
type ImprovementRecorder interface {
	RecordImprovement(ev Improvement) error
}

// NopSink implements every recorder with no-op methods.
type NopSink struct{}

func (NopSink) RecordGeneration(GenerationStats) error { return nil }
func (NopSink) RecordRun(RunSummary) error             { return nil }
func (NopSink) RecordImprovement(Improvement) error    { return nil }

// MultiSink fans records out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordGeneration forwards the stats to all sinks, returning the first error
// encountered.
func (m *MultiSink) RecordGeneration(s GenerationStats) error {
	for _, sink := range m.Sinks {
		if err := sink.RecordGeneration(s); err != nil {
			return err
		}
	}
	return nil
}

// RecordRun forwards run summaries to sinks that support them.
func (m *MultiSink) RecordRun(s RunSummary) error {
	for _, sink := range m.Sinks {
		if rec, ok := sink.(RunRecorder); ok {
			if err := rec.RecordRun(s); err != nil {
				return err
			}
		}
	}
	return nil
}

// RecordImprovement forwards improvements to sinks that support them.
func (m *MultiSink) RecordImprovement(ev Improvement) error {
	for _, sink := range m.Sinks {
		if rec, ok := sink.(ImprovementRecorder); ok {
			if err := rec.RecordImprovement(ev); err != nil {
				return err
			}
		}
	}
	return nil
}
