package evaluate

import (
	"github.com/kilianp07/fleetplan/core/model"
)

// Kind classifies a plan violation.
type Kind int

const (
	IllegalPurchaseYear Kind = iota
	OversellLedger
	OveruseLedger
	SellFractionExceeded
	BucketMismatch
	UnretiredExpiredVintage
	UnknownVehicle
	IncompatibleFuel
	RangeExceeded
	UnmetDemand
)

var kindNames = [...]string{
	IllegalPurchaseYear:     "IllegalPurchaseYear",
	OversellLedger:          "OversellLedger",
	OveruseLedger:           "OveruseLedger",
	SellFractionExceeded:    "SellFractionExceeded",
	BucketMismatch:          "BucketMismatch",
	UnretiredExpiredVintage: "UnretiredExpiredVintage",
	UnknownVehicle:          "UnknownVehicle",
	IncompatibleFuel:        "IncompatibleFuel",
	RangeExceeded:           "RangeExceeded",
	UnmetDemand:             "UnmetDemand",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Unknown"
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Violation is one broken hard constraint. Violations are penalty terms,
// never errors.
type Violation struct {
	Kind      Kind   `json:"kind"`
	Year      int    `json:"year"`
	VehicleID string `json:"vehicle_id,omitempty"`
	Detail    string `json:"detail"`
}

// Coverage compares served and demanded km for one demand cell.
type Coverage struct {
	Size   model.SizeClass      `json:"size"`
	Bucket model.DistanceBucket `json:"bucket"`
	Demand float64              `json:"demand"`
	Served float64              `json:"served"`
}

// Met reports whether the cell is covered.
func (c Coverage) Met() bool { return c.Served+coverageTolerance >= c.Demand }

// YearBreakdown is the cost and emissions account of one year.
type YearBreakdown struct {
	Year        int     `json:"year"`
	Purchase    float64 `json:"purchase"`
	Insurance   float64 `json:"insurance"`
	Maintenance float64 `json:"maintenance"`
	Fuel        float64 `json:"fuel"`
	Resale      float64 `json:"resale"`
	// Cost is purchase + insurance + maintenance + fuel - resale.
	Cost       float64    `json:"cost"`
	Emissions  float64    `json:"emissions"`
	Cap        float64    `json:"cap"`
	Excess     float64    `json:"excess"`
	FleetStart int        `json:"fleet_start"`
	FleetEnd   int        `json:"fleet_end"`
	Bought     int        `json:"bought"`
	Sold       int        `json:"sold"`
	Used       int        `json:"used"`
	Coverage   []Coverage `json:"coverage"`
	Unmet      int        `json:"unmet"`
	Violations int        `json:"violations"`
}

// Result is the score of one plan.
type Result struct {
	Fitness float64 `json:"fitness"`
	Cost    float64 `json:"cost"`
	// Penalty is the weighted sum of violations, emissions excess and unmet
	// demand cells.
	Penalty         float64         `json:"penalty"`
	Violations      []Violation     `json:"violations"`
	Years           []YearBreakdown `json:"years"`
	EmissionsExcess float64         `json:"emissions_excess"`
	UnmetDemand     int             `json:"unmet_demand"`
}

// Feasible reports whether the plan breaks no hard constraint.
func (r Result) Feasible() bool { return r.Penalty == 0 }

// Count returns the number of violations of kind k.
func (r Result) Count(k Kind) int {
	n := 0
	for _, v := range r.Violations {
		if v.Kind == k {
			n++
		}
	}
	return n
}

// Discrete returns the number of violations excluding unmet demand cells.
func (r Result) Discrete() int {
	return len(r.Violations) - r.UnmetDemand
}
