package search

import (
	"math"
	"math/rand"
	"sort"

	"github.com/kilianp07/fleetplan/core/model"
	"github.com/kilianp07/fleetplan/core/plan"
)

// Generator produces random plans that are locally consistent: every sell
// and use refers to units the plan itself bought, stays within the model
// range and bucket rating, and every vintage is sold before it expires.
// Fleet-wide constraints (sell cap, demand, carbon cap) are left to the
// evaluator.
type Generator struct {
	ref             *model.ReferenceData
	maxBuy          int
	sellProbability float64
}

// NewGenerator returns a generator for validated reference data.
func NewGenerator(ref *model.ReferenceData, cfg Config) *Generator {
	return &Generator{ref: ref, maxBuy: cfg.MaxInitialBuy, sellProbability: cfg.SellProbability}
}

// Generate draws one plan from rng.
func (g *Generator) Generate(rng *rand.Rand) plan.Plan {
	p := plan.New(g.ref.Horizon)
	s := newOwnership()
	lifetime := g.ref.Policy.Lifetime

	for i := range p.Years {
		yp := &p.Years[i]
		year := yp.Year

		for _, h := range s.order() {
			v, _ := g.ref.Vehicle(h.VehicleID)
			if year-v.Year > lifetime {
				s.remove(h)
			}
		}

		for _, h := range s.order() {
			v, _ := g.ref.Vehicle(h.VehicleID)
			n := s.units[h]
			switch {
			case year-v.Year >= lifetime:
				// Last legal year: sell everything.
			case rng.Float64() < g.sellProbability:
				n = 1 + rng.Intn(n)
			default:
				continue
			}
			yp.Sell = append(yp.Sell, plan.Sell{Holding: h, Count: n})
			s.add(h, -n)
		}

		for _, v := range g.ref.PurchasableIn(year) {
			for _, f := range fuelsOf(v) {
				for _, b := range g.ref.Hierarchy().Below(v.Bucket) {
					h := plan.Holding{VehicleID: v.ID, Fuel: f, Bucket: b}
					n := rng.Intn(g.maxBuy + 1)
					yp.Buy = append(yp.Buy, plan.Buy{Holding: h, Count: n})
					s.add(h, n)
				}
			}
		}

		for _, h := range s.order() {
			v, _ := g.ref.Vehicle(h.VehicleID)
			n := rng.Intn(s.units[h] + 1)
			dist := math.Floor(rng.Float64() * v.YearlyRange)
			yp.Use = append(yp.Use, plan.Use{Holding: h, Count: n, DistancePerUnit: dist})
		}
	}
	return p
}

func fuelsOf(v model.VehicleModel) []model.Fuel {
	out := make([]model.Fuel, 0, len(v.Fuels))
	for f := range v.Fuels {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ownership is the generator's local view of the fleet. Holdings are kept
// in insertion order so a seed always yields the same plan.
type ownership struct {
	units map[plan.Holding]int
	seq   []plan.Holding
}

func newOwnership() *ownership {
	return &ownership{units: make(map[plan.Holding]int)}
}

func (o *ownership) add(h plan.Holding, n int) {
	if n == 0 {
		return
	}
	if _, ok := o.units[h]; !ok {
		o.seq = append(o.seq, h)
	}
	o.units[h] += n
	if o.units[h] <= 0 {
		o.remove(h)
	}
}

func (o *ownership) remove(h plan.Holding) {
	delete(o.units, h)
	for i, x := range o.seq {
		if x == h {
			o.seq = append(o.seq[:i], o.seq[i+1:]...)
			return
		}
	}
}

func (o *ownership) order() []plan.Holding {
	return append([]plan.Holding(nil), o.seq...)
}
