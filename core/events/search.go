package events

import "github.com/kilianp07/fleetplan/core/metrics"

// Event is implemented by every search event.
type Event interface {
	Run() string
}

// GenerationEvent is published after each scored generation.
type GenerationEvent struct {
	Stats metrics.GenerationStats
}

func (e GenerationEvent) Run() string { return e.Stats.RunID }

// ImprovementEvent is published when the best fitness improves.
type ImprovementEvent struct {
	Improvement metrics.Improvement
}

func (e ImprovementEvent) Run() string { return e.Improvement.RunID }

// RunFinishedEvent is published once the search loop stops. Reason is
// "generations", "time_budget" or "canceled".
type RunFinishedEvent struct {
	Summary metrics.RunSummary
	Reason  string
}

func (e RunFinishedEvent) Run() string { return e.Summary.RunID }
