package model

import (
	"errors"
	"fmt"
	"sort"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidReference wraps every reference-data validation failure.
var ErrInvalidReference = errors.New("invalid reference data")

// Horizon is the inclusive range of planned calendar years.
type Horizon struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of years in the horizon.
func (h Horizon) Len() int { return h.End - h.Start + 1 }

// Contains reports whether year lies inside the horizon.
func (h Horizon) Contains(year int) bool { return year >= h.Start && year <= h.End }

// Years lists the horizon years in order.
func (h Horizon) Years() []int {
	out := make([]int, 0, h.Len())
	for y := h.Start; y <= h.End; y++ {
		out = append(out, y)
	}
	return out
}

// Policy groups the fleet lifecycle rules.
type Policy struct {
	// Lifetime is the maximum age in years; a vintage older than this is
	// force-retired.
	Lifetime int `json:"lifetime" yaml:"lifetime"`
	// MaxSellFraction caps the share of the fleet sold in one year.
	MaxSellFraction float64 `json:"max_sell_fraction" yaml:"max_sell_fraction"`
}

const (
	DefaultStartYear       = 2023
	DefaultEndYear         = 2038
	DefaultLifetime        = 10
	DefaultMaxSellFraction = 0.20
)

// ReferenceData is the read-only bundle of tables consulted by the evaluator
// and the plan generator. Once validated it is safe for concurrent reads.
type ReferenceData struct {
	Horizon  Horizon          `json:"horizon" yaml:"horizon"`
	Policy   Policy           `json:"policy" yaml:"policy"`
	Sizes    []SizeClass      `json:"sizes" yaml:"sizes"`
	Buckets  []DistanceBucket `json:"buckets" yaml:"buckets"`
	Vehicles []VehicleModel   `json:"vehicles" yaml:"vehicles" validate:"dive"`
	// FuelRates is keyed by fuel then calendar year.
	FuelRates map[Fuel]map[int]FuelRate `json:"fuel_rates" yaml:"fuel_rates" validate:"dive,dive"`
	// CostProfiles is keyed by vehicle age, starting at 1.
	CostProfiles map[int]CostProfile `json:"cost_profiles" yaml:"cost_profiles" validate:"dive"`
	// Demand is keyed by year, size class and distance bucket, in km.
	Demand map[int]map[SizeClass]map[DistanceBucket]float64 `json:"demand" yaml:"demand"`
	// CarbonCap is the yearly emission ceiling.
	CarbonCap map[int]float64 `json:"carbon_cap" yaml:"carbon_cap"`

	hierarchy Hierarchy
	byID      map[string]int
	byYear    map[int][]int
}

var refValidate = validator.New()

// SetDefaults fills in the horizon, the policy and the bucket/size lists.
func (r *ReferenceData) SetDefaults() {
	if r.Horizon.Start == 0 {
		r.Horizon.Start = DefaultStartYear
	}
	if r.Horizon.End == 0 {
		r.Horizon.End = DefaultEndYear
	}
	if r.Policy.Lifetime == 0 {
		r.Policy.Lifetime = DefaultLifetime
	}
	if r.Policy.MaxSellFraction == 0 {
		r.Policy.MaxSellFraction = DefaultMaxSellFraction
	}
	if len(r.Buckets) == 0 {
		r.Buckets = append([]DistanceBucket(nil), DefaultBuckets...)
	}
	if len(r.Sizes) == 0 {
		r.Sizes = append([]SizeClass(nil), DefaultSizes...)
	}
}

// Validate checks table consistency and builds the lookup indexes. It must
// be called before the data is shared with an evaluator.
func (r *ReferenceData) Validate() error {
	if err := refValidate.Struct(r); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if r.Horizon.End < r.Horizon.Start {
		return fmt.Errorf("%w: horizon end %d before start %d", ErrInvalidReference, r.Horizon.End, r.Horizon.Start)
	}
	if r.Policy.Lifetime < 1 {
		return fmt.Errorf("%w: lifetime must be positive", ErrInvalidReference)
	}
	if r.Policy.MaxSellFraction < 0 || r.Policy.MaxSellFraction > 1 {
		return fmt.Errorf("%w: max sell fraction %.3f outside [0,1]", ErrInvalidReference, r.Policy.MaxSellFraction)
	}
	h, err := NewHierarchy(r.Buckets)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidReference, err)
	}
	if len(r.Vehicles) == 0 {
		return fmt.Errorf("%w: empty vehicle catalog", ErrInvalidReference)
	}
	sizes := make(map[SizeClass]bool, len(r.Sizes))
	for _, s := range r.Sizes {
		sizes[s] = true
	}

	byID := make(map[string]int, len(r.Vehicles))
	byYear := make(map[int][]int)
	for i, v := range r.Vehicles {
		if _, dup := byID[v.ID]; dup {
			return fmt.Errorf("%w: duplicate vehicle %s", ErrInvalidReference, v.ID)
		}
		if !sizes[v.Size] {
			return fmt.Errorf("%w: vehicle %s has unknown size %s", ErrInvalidReference, v.ID, v.Size)
		}
		if _, ok := h.Rank(v.Bucket); !ok {
			return fmt.Errorf("%w: vehicle %s has unknown distance bucket %s", ErrInvalidReference, v.ID, v.Bucket)
		}
		if err := r.checkFuelRates(v); err != nil {
			return err
		}
		byID[v.ID] = i
		byYear[v.Year] = append(byYear[v.Year], i)
	}

	for age := 1; age <= r.Policy.Lifetime; age++ {
		if _, ok := r.CostProfiles[age]; !ok {
			return fmt.Errorf("%w: missing cost profile for age %d", ErrInvalidReference, age)
		}
	}
	for _, y := range r.Horizon.Years() {
		if _, ok := r.CarbonCap[y]; !ok {
			return fmt.Errorf("%w: missing carbon cap for %d", ErrInvalidReference, y)
		}
	}
	for y, bySize := range r.Demand {
		for s, byBucket := range bySize {
			if !sizes[s] {
				return fmt.Errorf("%w: demand %d references unknown size %s", ErrInvalidReference, y, s)
			}
			for b, km := range byBucket {
				if _, ok := h.Rank(b); !ok {
					return fmt.Errorf("%w: demand %d/%s references unknown bucket %s", ErrInvalidReference, y, s, b)
				}
				if km < 0 {
					return fmt.Errorf("%w: negative demand %d/%s/%s", ErrInvalidReference, y, s, b)
				}
			}
		}
	}

	r.hierarchy = h
	r.byID = byID
	r.byYear = byYear
	return nil
}

// checkFuelRates ensures every fuel a vehicle can burn has a price for each
// horizon year the vehicle may legally be used in.
func (r *ReferenceData) checkFuelRates(v VehicleModel) error {
	last := v.Year + r.Policy.Lifetime
	for f := range v.Fuels {
		rates, ok := r.FuelRates[f]
		if !ok {
			return fmt.Errorf("%w: no rates for fuel %s (vehicle %s)", ErrInvalidReference, f, v.ID)
		}
		for y := v.Year; y <= last; y++ {
			if !r.Horizon.Contains(y) {
				continue
			}
			if _, ok := rates[y]; !ok {
				return fmt.Errorf("%w: no %s rate for %d (vehicle %s)", ErrInvalidReference, f, y, v.ID)
			}
		}
	}
	return nil
}

// Hierarchy returns the distance bucket coverage hierarchy.
func (r *ReferenceData) Hierarchy() Hierarchy { return r.hierarchy }

// Vehicle looks a model up by ID.
func (r *ReferenceData) Vehicle(id string) (VehicleModel, bool) {
	i, ok := r.byID[id]
	if !ok {
		return VehicleModel{}, false
	}
	return r.Vehicles[i], true
}

// PurchasableIn returns the models whose model year is year, in catalog order.
func (r *ReferenceData) PurchasableIn(year int) []VehicleModel {
	idx := r.byYear[year]
	out := make([]VehicleModel, len(idx))
	for i, j := range idx {
		out[i] = r.Vehicles[j]
	}
	return out
}

// ProfileAt returns the cost profile for a vehicle of the given age. Ages
// below 1 use the first-year profile; ages beyond the table repeat its last
// entry.
func (r *ReferenceData) ProfileAt(age int) CostProfile {
	if age < 1 {
		age = 1
	}
	if p, ok := r.CostProfiles[age]; ok {
		return p
	}
	maxAge := 0
	for a := range r.CostProfiles {
		if a > maxAge {
			maxAge = a
		}
	}
	if age > maxAge {
		return r.CostProfiles[maxAge]
	}
	return CostProfile{}
}

// Rate returns the fuel rate for a fuel in a year.
func (r *ReferenceData) Rate(f Fuel, year int) (FuelRate, bool) {
	rate, ok := r.FuelRates[f][year]
	return rate, ok
}

// DemandCell is one non-zero entry of the demand table.
type DemandCell struct {
	Size   SizeClass
	Bucket DistanceBucket
	KM     float64
}

// DemandIn lists the positive demand cells of a year ordered by size then
// bucket rank.
func (r *ReferenceData) DemandIn(year int) []DemandCell {
	var cells []DemandCell
	for s, byBucket := range r.Demand[year] {
		for b, km := range byBucket {
			if km > 0 {
				cells = append(cells, DemandCell{Size: s, Bucket: b, KM: km})
			}
		}
	}
	sort.Slice(cells, func(i, j int) bool {
		if cells[i].Size != cells[j].Size {
			return cells[i].Size < cells[j].Size
		}
		ri, _ := r.hierarchy.Rank(cells[i].Bucket)
		rj, _ := r.hierarchy.Rank(cells[j].Bucket)
		return ri < rj
	})
	return cells
}

// Cap returns the carbon cap of a year.
func (r *ReferenceData) Cap(year int) float64 {
	return r.CarbonCap[year]
}
