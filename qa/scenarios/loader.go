// Package scenarios runs small end-to-end planning scenarios described in
// YAML and checks the search outcome against expectations.
package scenarios

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/fleetplan/core/model"
	"github.com/kilianp07/fleetplan/core/search"
	"github.com/kilianp07/fleetplan/internal/fixture"
)

type FuelDef struct {
	Fuel      string  `yaml:"fuel"`
	Cost      float64 `yaml:"cost"`
	Emissions float64 `yaml:"emissions"`
}

type DemandDef struct {
	Year     int     `yaml:"year"`
	Size     string  `yaml:"size"`
	Distance string  `yaml:"distance"`
	KM       float64 `yaml:"km"`
}

type SearchDef struct {
	PopulationSize  int      `yaml:"population_size"`
	MaxGenerations  int      `yaml:"max_generations"`
	SellProbability *float64 `yaml:"sell_probability"`
	Seed            int64    `yaml:"seed"`
}

// ToConfig returns the default search configuration with the scenario
// overrides applied.
func (s SearchDef) ToConfig() search.Config {
	cfg := search.DefaultConfig()
	if s.PopulationSize != 0 {
		cfg.PopulationSize = s.PopulationSize
	}
	if s.MaxGenerations != 0 {
		cfg.MaxGenerations = s.MaxGenerations
	}
	if s.SellProbability != nil {
		cfg.SellProbability = *s.SellProbability
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	return cfg
}

type Expected struct {
	Feasible bool `yaml:"feasible"`
	// MinBought is the minimum number of units bought in the first year.
	MinBought int `yaml:"min_bought"`
}

type Scenario struct {
	Name        string               `yaml:"name"`
	Description string               `yaml:"description,omitempty"`
	Lifetime    int                  `yaml:"lifetime,omitempty"`
	Vehicles    []model.VehicleModel `yaml:"vehicles"`
	Fuels       []FuelDef            `yaml:"fuels"`
	Demand      []DemandDef          `yaml:"demand"`
	Search      SearchDef            `yaml:"search"`
	Expected    Expected             `yaml:"expected"`
}

// ToModel builds validated reference data. Fuel rates apply to every
// horizon year; cost profiles and carbon caps come from the reference
// dataset, with the last profile repeated up to the lifetime.
func (sc Scenario) ToModel() (*model.ReferenceData, error) {
	ref := &model.ReferenceData{
		Policy:       model.Policy{Lifetime: sc.Lifetime},
		Vehicles:     sc.Vehicles,
		FuelRates:    map[model.Fuel]map[int]model.FuelRate{},
		CostProfiles: map[int]model.CostProfile{},
		CarbonCap:    map[int]float64{},
	}
	ref.SetDefaults()
	for _, y := range ref.Horizon.Years() {
		for _, f := range sc.Fuels {
			fuel := model.Fuel(f.Fuel)
			if ref.FuelRates[fuel] == nil {
				ref.FuelRates[fuel] = map[int]model.FuelRate{}
			}
			ref.FuelRates[fuel][y] = model.FuelRate{Cost: f.Cost, Emissions: f.Emissions}
		}
		ref.CarbonCap[y] = fixture.Caps[y]
	}
	for age := 1; age <= ref.Policy.Lifetime; age++ {
		ref.CostProfiles[age] = fixture.Profiles[min(age, len(fixture.Profiles))]
	}
	for _, d := range sc.Demand {
		fixture.SetDemand(ref, d.Year, model.SizeClass(d.Size), model.DistanceBucket(d.Distance), d.KM)
	}
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return ref, nil
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	return &sc, nil
}
