// Package plan defines the multi-year fleet plan optimized by the search
// engine: one YearPlan per horizon year, each holding buy, sell and use
// actions.
package plan

import (
	"errors"
	"fmt"

	"github.com/kilianp07/fleetplan/core/model"
)

// ErrShape is returned when a plan does not span the expected horizon.
var ErrShape = errors.New("plan shape mismatch")

// Holding identifies a group of owned vehicles: a model, the fuel it runs on
// and the distance bucket it is assigned to. The vintage is the model year.
type Holding struct {
	VehicleID string               `json:"vehicle_id"`
	Fuel      model.Fuel           `json:"fuel"`
	Bucket    model.DistanceBucket `json:"distance_bucket"`
}

// Buy purchases Count new units of a model in its model year.
type Buy struct {
	Holding
	Count int `json:"count"`
}

// Sell disposes of Count owned units.
type Sell struct {
	Holding
	Count int `json:"count"`
}

// Use puts Count owned units in service, each driving DistancePerUnit km
// during the year.
type Use struct {
	Holding
	Count           int     `json:"count"`
	DistancePerUnit float64 `json:"distance_per_unit"`
}

// YearPlan holds the decisions of one calendar year.
type YearPlan struct {
	Year int    `json:"year"`
	Buy  []Buy  `json:"buy"`
	Sell []Sell `json:"sell"`
	Use  []Use  `json:"use"`
}

// Clone returns a deep copy of the year plan.
func (y YearPlan) Clone() YearPlan {
	return YearPlan{
		Year: y.Year,
		Buy:  append([]Buy(nil), y.Buy...),
		Sell: append([]Sell(nil), y.Sell...),
		Use:  append([]Use(nil), y.Use...),
	}
}

// Empty reports whether the year carries no action at all.
func (y YearPlan) Empty() bool {
	return len(y.Buy) == 0 && len(y.Sell) == 0 && len(y.Use) == 0
}

// Plan is the chromosome: an ordered sequence of YearPlans, one per horizon
// year.
type Plan struct {
	Years []YearPlan `json:"years"`
}

// New returns an empty plan covering every year of h.
func New(h model.Horizon) Plan {
	p := Plan{Years: make([]YearPlan, 0, h.Len())}
	for _, y := range h.Years() {
		p.Years = append(p.Years, YearPlan{Year: y})
	}
	return p
}

// Clone returns a deep copy; the copy shares no slices with p.
func (p Plan) Clone() Plan {
	out := Plan{Years: make([]YearPlan, len(p.Years))}
	for i, y := range p.Years {
		out.Years[i] = y.Clone()
	}
	return out
}

// Validate checks that the plan has one YearPlan per year of h, in order.
func (p Plan) Validate(h model.Horizon) error {
	if len(p.Years) != h.Len() {
		return fmt.Errorf("%w: %d years, want %d", ErrShape, len(p.Years), h.Len())
	}
	for i, y := range p.Years {
		if y.Year != h.Start+i {
			return fmt.Errorf("%w: position %d holds year %d, want %d", ErrShape, i, y.Year, h.Start+i)
		}
	}
	return nil
}

// Year returns the YearPlan for a calendar year.
func (p Plan) Year(year int) (YearPlan, bool) {
	if len(p.Years) == 0 {
		return YearPlan{}, false
	}
	i := year - p.Years[0].Year
	if i < 0 || i >= len(p.Years) {
		return YearPlan{}, false
	}
	return p.Years[i], true
}

// Bought sums the units bought for a holding in the given year.
func (p Plan) Bought(year int, h Holding) int {
	y, ok := p.Year(year)
	if !ok {
		return 0
	}
	n := 0
	for _, b := range y.Buy {
		if b.Holding == h {
			n += b.Count
		}
	}
	return n
}
