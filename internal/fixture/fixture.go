// Package fixture builds small reference data sets for tests.
package fixture

import (
	"github.com/kilianp07/fleetplan/core/model"
)

const (
	Electricity model.Fuel = "Electricity"
	B20         model.Fuel = "B20"
	HVO         model.Fuel = "HVO"
)

// Profiles is the age-indexed cost table used by the reference dataset.
var Profiles = map[int]model.CostProfile{
	1:  {Resale: 0.90, Insurance: 0.05, Maintenance: 0.01},
	2:  {Resale: 0.80, Insurance: 0.06, Maintenance: 0.03},
	3:  {Resale: 0.70, Insurance: 0.07, Maintenance: 0.05},
	4:  {Resale: 0.60, Insurance: 0.08, Maintenance: 0.07},
	5:  {Resale: 0.50, Insurance: 0.09, Maintenance: 0.09},
	6:  {Resale: 0.40, Insurance: 0.10, Maintenance: 0.11},
	7:  {Resale: 0.30, Insurance: 0.11, Maintenance: 0.13},
	8:  {Resale: 0.30, Insurance: 0.12, Maintenance: 0.15},
	9:  {Resale: 0.30, Insurance: 0.13, Maintenance: 0.17},
	10: {Resale: 0.30, Insurance: 0.14, Maintenance: 0.19},
}

// Caps are the yearly carbon caps of the reference dataset.
var Caps = map[int]float64{
	2023: 11677957, 2024: 10510161, 2025: 9459145, 2026: 8513230,
	2027: 7661907, 2028: 6895716, 2029: 6206145, 2030: 5585530,
	2031: 5026977, 2032: 4524279, 2033: 4071851, 2034: 3664666,
	2035: 3298199, 2036: 2968379, 2037: 2671541, 2038: 2404387,
}

// Reference returns a validated data set with three models:
//
//	BEV_S1_2023     S1 D1 electric, 2023
//	Diesel_S1_2023  S1 D4 on B20 or HVO, 2023
//	BEV_S1_2024     S1 D2 electric, 2024
//
// Demand is empty; callers add cells and call Must again.
func Reference() *model.ReferenceData {
	r := &model.ReferenceData{
		Vehicles: []model.VehicleModel{
			{ID: "BEV_S1_2023", Year: 2023, Size: "S1", Bucket: "D1", Cost: 187000, YearlyRange: 102000, Fuels: map[model.Fuel]float64{Electricity: 1.0}},
			{ID: "Diesel_S1_2023", Year: 2023, Size: "S1", Bucket: "D4", Cost: 85000, YearlyRange: 102000, Fuels: map[model.Fuel]float64{B20: 0.14, HVO: 0.14}},
			{ID: "BEV_S1_2024", Year: 2024, Size: "S1", Bucket: "D2", Cost: 180000, YearlyRange: 106000, Fuels: map[model.Fuel]float64{Electricity: 1.0}},
		},
		FuelRates: map[model.Fuel]map[int]model.FuelRate{},
		Demand:    map[int]map[model.SizeClass]map[model.DistanceBucket]float64{},
	}
	for _, y := range (model.Horizon{Start: model.DefaultStartYear, End: model.DefaultEndYear}).Years() {
		for f, rate := range map[model.Fuel]model.FuelRate{
			Electricity: {Cost: 0.25, Emissions: 0},
			B20:         {Cost: 1.5, Emissions: 2.4},
			HVO:         {Cost: 2.1, Emissions: 0.3},
		} {
			if r.FuelRates[f] == nil {
				r.FuelRates[f] = map[int]model.FuelRate{}
			}
			r.FuelRates[f][y] = rate
		}
	}
	r.CostProfiles = make(map[int]model.CostProfile, len(Profiles))
	for a, p := range Profiles {
		r.CostProfiles[a] = p
	}
	r.CarbonCap = make(map[int]float64, len(Caps))
	for y, c := range Caps {
		r.CarbonCap[y] = c
	}
	return Must(r)
}

// SingleModel returns data with one electric S1/D1 model buyable in 2023
// only, a yearly range of rangeKM and demandKM of (2023, S1, D1) demand.
// The lifetime outlasts the horizon so the fleet never has to be sold.
func SingleModel(rangeKM, demandKM float64) *model.ReferenceData {
	r := Reference()
	r.Policy.Lifetime = 16
	for age := 11; age <= r.Policy.Lifetime; age++ {
		r.CostProfiles[age] = Profiles[10]
	}
	r.Vehicles = []model.VehicleModel{
		{ID: "BEV_S1_2023", Year: 2023, Size: "S1", Bucket: "D1", Cost: 20000, YearlyRange: rangeKM, Fuels: map[model.Fuel]float64{Electricity: 1.0}},
	}
	SetDemand(r, 2023, "S1", "D1", demandKM)
	return Must(r)
}

// SetDemand sets one demand cell.
func SetDemand(r *model.ReferenceData, year int, s model.SizeClass, b model.DistanceBucket, km float64) {
	if r.Demand == nil {
		r.Demand = map[int]map[model.SizeClass]map[model.DistanceBucket]float64{}
	}
	if r.Demand[year] == nil {
		r.Demand[year] = map[model.SizeClass]map[model.DistanceBucket]float64{}
	}
	if r.Demand[year][s] == nil {
		r.Demand[year][s] = map[model.DistanceBucket]float64{}
	}
	r.Demand[year][s][b] = km
}

// Must defaults and validates r, panicking on error.
func Must(r *model.ReferenceData) *model.ReferenceData {
	r.SetDefaults()
	if err := r.Validate(); err != nil {
		panic(err)
	}
	return r
}
