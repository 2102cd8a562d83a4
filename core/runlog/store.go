// Package runlog persists the history of search runs.
package runlog

import (
	"context"
	"sort"
	"time"

	"github.com/kilianp07/fleetplan/core/metrics"
	"github.com/kilianp07/fleetplan/core/plan"
	"github.com/kilianp07/fleetplan/core/search"
)

// RunRecord captures a finished search run and its best plan.
type RunRecord struct {
	RunID       string                    `json:"run_id"`
	Started     time.Time                 `json:"started"`
	Finished    time.Time                 `json:"finished"`
	Seed        int64                     `json:"seed"`
	Generations int                       `json:"generations"`
	Evaluations int                       `json:"evaluations"`
	Reason      string                    `json:"reason"`
	Fitness     float64                   `json:"fitness"`
	Cost        float64                   `json:"cost"`
	Penalty     float64                   `json:"penalty"`
	Feasible    bool                      `json:"feasible"`
	Rows        []plan.Row                `json:"rows"`
	History     []metrics.GenerationStats `json:"history"`
}

// Query filters stored runs. Zero values match everything. Limit keeps the
// most recent runs.
type Query struct {
	Start time.Time
	End   time.Time
	RunID string
	Limit int
}

// Store persists run records.
type Store interface {
	Append(ctx context.Context, rec RunRecord) error
	// Query returns matching records ordered by start time, oldest first.
	Query(ctx context.Context, q Query) ([]RunRecord, error)
	Close() error
}

// FromOutcome builds the record of a finished search.
func FromOutcome(out search.Outcome) RunRecord {
	best := out.Best
	return RunRecord{
		RunID:       out.RunID,
		Started:     out.Started,
		Finished:    out.Started.Add(out.Duration),
		Seed:        out.Seed,
		Generations: out.Generations,
		Evaluations: out.Evaluations,
		Reason:      out.Reason,
		Fitness:     best.Result.Fitness,
		Cost:        best.Result.Cost,
		Penalty:     best.Result.Penalty,
		Feasible:    best.Result.Feasible(),
		Rows:        best.Plan.Rows(),
		History:     out.History,
	}
}

func (q Query) match(r RunRecord) bool {
	if !q.Start.IsZero() && r.Started.Before(q.Start) {
		return false
	}
	if !q.End.IsZero() && r.Started.After(q.End) {
		return false
	}
	return q.RunID == "" || r.RunID == q.RunID
}

// finalize orders records and applies the limit.
func (q Query) finalize(res []RunRecord) []RunRecord {
	sort.SliceStable(res, func(i, j int) bool { return res[i].Started.Before(res[j].Started) })
	if q.Limit > 0 && len(res) > q.Limit {
		res = res[len(res)-q.Limit:]
	}
	return res
}
