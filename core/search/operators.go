package search

import (
	"math/rand"

	"github.com/kilianp07/fleetplan/core/evaluate"
	"github.com/kilianp07/fleetplan/core/model"
	"github.com/kilianp07/fleetplan/core/plan"
)

// Individual is a plan with its evaluation.
type Individual struct {
	Plan   plan.Plan       `json:"plan"`
	Result evaluate.Result `json:"result"`

	evaluated bool
}

// Fitness returns the evaluated fitness.
func (i Individual) Fitness() float64 { return i.Result.Fitness }

// tournament draws k individuals uniformly with replacement and returns the
// index of the fittest. Ties keep the earliest draw.
func tournament(rng *rand.Rand, pop []Individual, k int) int {
	best := rng.Intn(len(pop))
	for i := 1; i < k; i++ {
		c := rng.Intn(len(pop))
		if pop[c].Result.Fitness < pop[best].Result.Fitness {
			best = c
		}
	}
	return best
}

// crossover builds a child that inherits every YearPlan wholesale from a or
// b with equal probability. With probability 1-rate the child is a copy of
// a. Both parents must share the same shape.
func crossover(rng *rand.Rand, a, b plan.Plan, rate float64) plan.Plan {
	if rng.Float64() >= rate {
		return a.Clone()
	}
	child := plan.Plan{Years: make([]plan.YearPlan, len(a.Years))}
	for i := range a.Years {
		if rng.Float64() < 0.5 {
			child.Years[i] = a.Years[i].Clone()
		} else {
			child.Years[i] = b.Years[i].Clone()
		}
	}
	return child
}

// mutator perturbs unit counts in place.
type mutator struct {
	ref      *model.ReferenceData
	rate     float64
	maxDelta int
}

// mutate visits every YearPlan and, with probability rate, shifts the count
// of one random action by a non-zero delta. Counts stay non-negative; sell
// and use counts never exceed the units bought for that holding in its
// vintage year.
func (m mutator) mutate(rng *rand.Rand, p *plan.Plan) {
	if m.maxDelta <= 0 {
		return
	}
	for i := range p.Years {
		if rng.Float64() >= m.rate {
			continue
		}
		y := &p.Years[i]
		lists := make([]int, 0, 3)
		if len(y.Buy) > 0 {
			lists = append(lists, 0)
		}
		if len(y.Sell) > 0 {
			lists = append(lists, 1)
		}
		if len(y.Use) > 0 {
			lists = append(lists, 2)
		}
		if len(lists) == 0 {
			continue
		}
		delta := m.delta(rng)
		switch lists[rng.Intn(len(lists))] {
		case 0:
			j := rng.Intn(len(y.Buy))
			y.Buy[j].Count = max(0, y.Buy[j].Count+delta)
		case 1:
			j := rng.Intn(len(y.Sell))
			s := &y.Sell[j]
			s.Count = min(max(0, s.Count+delta), m.bought(*p, s.Holding))
		case 2:
			j := rng.Intn(len(y.Use))
			u := &y.Use[j]
			u.Count = min(max(0, u.Count+delta), m.bought(*p, u.Holding))
		}
	}
}

// delta returns a value in [-maxDelta, maxDelta] excluding zero.
func (m mutator) delta(rng *rand.Rand) int {
	d := rng.Intn(2*m.maxDelta) - m.maxDelta
	if d >= 0 {
		d++
	}
	return d
}

func (m mutator) bought(p plan.Plan, h plan.Holding) int {
	v, ok := m.ref.Vehicle(h.VehicleID)
	if !ok {
		return 0
	}
	return p.Bought(v.Year, h)
}
