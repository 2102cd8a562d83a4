package model

import "fmt"

// SizeClass is a discretized vehicle payload category (S1..S4).
type SizeClass string

// DistanceBucket is a discretized trip-length category (D1..D4).
type DistanceBucket string

// Fuel identifies a fuel type such as "Electricity", "LNG" or "B20".
type Fuel string

// VehicleModel is a catalog entry. A model can only be purchased in its
// model year.
type VehicleModel struct {
	ID          string           `json:"id" yaml:"id" validate:"required"`
	Year        int              `json:"year" yaml:"year" validate:"gt=0"`
	Size        SizeClass        `json:"size" yaml:"size" validate:"required"`
	Bucket      DistanceBucket   `json:"distance" yaml:"distance" validate:"required"`
	Cost        float64          `json:"cost" yaml:"cost" validate:"gt=0"`
	YearlyRange float64          `json:"yearly_range" yaml:"yearly_range" validate:"gt=0"`
	Fuels       map[Fuel]float64 `json:"fuels" yaml:"fuels" validate:"required,min=1,dive,gte=0"`
}

// Consumption returns the fuel consumption per km for the given fuel and
// whether the model can run on it.
func (v VehicleModel) Consumption(f Fuel) (float64, bool) {
	c, ok := v.Fuels[f]
	return c, ok
}

// PurchasableIn reports whether the model can be bought in year.
func (v VehicleModel) PurchasableIn(year int) bool {
	return v.Year == year
}

// FuelRate is the cost and emission factor of one unit of fuel in a year.
type FuelRate struct {
	Cost      float64 `json:"cost" yaml:"cost" validate:"gte=0"`
	Emissions float64 `json:"emissions" yaml:"emissions" validate:"gte=0"`
}

// CostProfile holds age-dependent cost fractions of the purchase price.
type CostProfile struct {
	Maintenance float64 `json:"maintenance" yaml:"maintenance" validate:"gte=0"`
	Insurance   float64 `json:"insurance" yaml:"insurance" validate:"gte=0"`
	Resale      float64 `json:"resale" yaml:"resale" validate:"gte=0,lte=1"`
}

// DefaultBuckets is the coverage hierarchy used when none is configured.
var DefaultBuckets = []DistanceBucket{"D1", "D2", "D3", "D4"}

// DefaultSizes lists the size classes used when none are configured.
var DefaultSizes = []SizeClass{"S1", "S2", "S3", "S4"}

// Hierarchy orders distance buckets so that a higher bucket covers every
// lower one.
type Hierarchy struct {
	order []DistanceBucket
	rank  map[DistanceBucket]int
}

// NewHierarchy builds a hierarchy from buckets in ascending order.
func NewHierarchy(buckets []DistanceBucket) (Hierarchy, error) {
	h := Hierarchy{order: append([]DistanceBucket(nil), buckets...), rank: make(map[DistanceBucket]int, len(buckets))}
	for i, b := range buckets {
		if _, dup := h.rank[b]; dup {
			return Hierarchy{}, fmt.Errorf("duplicate distance bucket %s", b)
		}
		h.rank[b] = i
	}
	return h, nil
}

// Rank returns the position of b in the hierarchy.
func (h Hierarchy) Rank(b DistanceBucket) (int, bool) {
	r, ok := h.rank[b]
	return r, ok
}

// Covers reports whether a vehicle rated for bucket rated may serve demand in
// bucket served. Unknown buckets never cover anything.
func (h Hierarchy) Covers(rated, served DistanceBucket) bool {
	r, ok := h.rank[rated]
	if !ok {
		return false
	}
	s, ok := h.rank[served]
	if !ok {
		return false
	}
	return r >= s
}

// Below returns every bucket covered by rated, in ascending order.
func (h Hierarchy) Below(rated DistanceBucket) []DistanceBucket {
	r, ok := h.rank[rated]
	if !ok {
		return nil
	}
	return append([]DistanceBucket(nil), h.order[:r+1]...)
}

// Buckets returns the ordered bucket list.
func (h Hierarchy) Buckets() []DistanceBucket {
	return append([]DistanceBucket(nil), h.order...)
}
