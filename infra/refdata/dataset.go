package refdata

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/kilianp07/fleetplan/core/model"
)

// Dataset file names.
const (
	VehiclesFile     = "vehicles.csv"
	VehicleFuelsFile = "vehicles_fuels.csv"
	FuelsFile        = "fuels.csv"
	DemandFile       = "demand.csv"
	CarbonFile       = "carbon_emissions.csv"
	CostProfilesFile = "cost_profiles.csv"
)

// LoadDataset reads the six CSV tables from dir. Column headers are matched
// case-insensitively. Percent columns accept both 90 and 0.9. It does not
// validate.
func LoadDataset(dir string) (*model.ReferenceData, error) {
	ref := &model.ReferenceData{
		FuelRates:    map[model.Fuel]map[int]model.FuelRate{},
		CostProfiles: map[int]model.CostProfile{},
		Demand:       map[int]map[model.SizeClass]map[model.DistanceBucket]float64{},
		CarbonCap:    map[int]float64{},
	}
	steps := []struct {
		file string
		fn   func(*table) error
	}{
		{VehiclesFile, func(t *table) error { return readVehicles(t, ref) }},
		{VehicleFuelsFile, func(t *table) error { return readVehicleFuels(t, ref) }},
		{FuelsFile, func(t *table) error { return readFuels(t, ref) }},
		{DemandFile, func(t *table) error { return readDemand(t, ref) }},
		{CarbonFile, func(t *table) error { return readCarbon(t, ref) }},
		{CostProfilesFile, func(t *table) error { return readProfiles(t, ref) }},
	}
	for _, s := range steps {
		if err := readTable(filepath.Join(dir, s.file), s.fn); err != nil {
			return nil, err
		}
	}
	return ref, nil
}

func readVehicles(t *table, ref *model.ReferenceData) error {
	for t.next() {
		ref.Vehicles = append(ref.Vehicles, model.VehicleModel{
			ID:          t.str("id"),
			Year:        t.integer("year"),
			Size:        model.SizeClass(t.str("size")),
			Bucket:      model.DistanceBucket(t.str("distance")),
			Cost:        t.number("cost ($)", "cost"),
			YearlyRange: t.number("yearly range (km)", "yearly_range"),
			Fuels:       map[model.Fuel]float64{},
		})
	}
	return t.err()
}

func readVehicleFuels(t *table, ref *model.ReferenceData) error {
	idx := make(map[string]int, len(ref.Vehicles))
	for i, v := range ref.Vehicles {
		idx[v.ID] = i
	}
	for t.next() {
		id := t.str("id")
		i, ok := idx[id]
		if !ok {
			return fmt.Errorf("%s line %d: unknown vehicle %q", t.name, t.line, id)
		}
		ref.Vehicles[i].Fuels[model.Fuel(t.str("fuel"))] = t.number("consumption (unit_fuel/km)", "consumption")
	}
	return t.err()
}

func readFuels(t *table, ref *model.ReferenceData) error {
	for t.next() {
		f := model.Fuel(t.str("fuel"))
		if ref.FuelRates[f] == nil {
			ref.FuelRates[f] = map[int]model.FuelRate{}
		}
		ref.FuelRates[f][t.integer("year")] = model.FuelRate{
			Cost:      t.number("cost ($/unit_fuel)", "cost"),
			Emissions: t.number("emissions (co2/unit_fuel)", "emissions"),
		}
	}
	return t.err()
}

func readDemand(t *table, ref *model.ReferenceData) error {
	for t.next() {
		y, s, b := t.integer("year"), model.SizeClass(t.str("size")), model.DistanceBucket(t.str("distance"))
		if ref.Demand[y] == nil {
			ref.Demand[y] = map[model.SizeClass]map[model.DistanceBucket]float64{}
		}
		if ref.Demand[y][s] == nil {
			ref.Demand[y][s] = map[model.DistanceBucket]float64{}
		}
		ref.Demand[y][s][b] += t.number("demand (km)", "demand")
	}
	return t.err()
}

func readCarbon(t *table, ref *model.ReferenceData) error {
	for t.next() {
		ref.CarbonCap[t.integer("year")] = t.number("carbon emission co2/kg", "carbon_cap", "cap")
	}
	return t.err()
}

func readProfiles(t *table, ref *model.ReferenceData) error {
	var ages []int
	var resale, insurance, maintenance percentColumn
	for t.next() {
		ages = append(ages, t.integer("end of year", "age"))
		resale.add(t.percentValue("resale value %", "resale"))
		insurance.add(t.percentValue("insurance cost %", "insurance"))
		maintenance.add(t.percentValue("maintenance cost %", "maintenance"))
	}
	if err := t.err(); err != nil {
		return err
	}
	for i, age := range ages {
		ref.CostProfiles[age] = model.CostProfile{
			Resale:      resale.at(i),
			Insurance:   insurance.at(i),
			Maintenance: maintenance.at(i),
		}
	}
	return nil
}

// percentColumn holds one column of rates written either as fractions
// (0.9) or as percentages (90 or 90%). The whole column is read as
// percentages when any cell carries a % suffix or exceeds 1.
type percentColumn struct {
	vals    []float64
	percent bool
}

func (c *percentColumn) add(v float64, suffixed bool) {
	c.vals = append(c.vals, v)
	if suffixed || v > 1 {
		c.percent = true
	}
}

func (c *percentColumn) at(i int) float64 {
	if c.percent {
		return c.vals[i] / 100
	}
	return c.vals[i]
}

// table walks a CSV file row by row and records the first conversion error.
type table struct {
	name   string
	r      *csv.Reader
	cols   map[string]int
	row    []string
	line   int
	failed error
}

func readTable(path string, fn func(*table) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	header, err := r.Read()
	if err != nil {
		return fmt.Errorf("%s: read header: %w", filepath.Base(path), err)
	}
	t := &table{name: filepath.Base(path), r: r, cols: make(map[string]int, len(header)), line: 1}
	for i, h := range header {
		t.cols[normalize(h)] = i
	}
	return fn(t)
}

func normalize(h string) string {
	return strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
}

func (t *table) next() bool {
	if t.failed != nil {
		return false
	}
	row, err := t.r.Read()
	if errors.Is(err, io.EOF) {
		return false
	}
	t.line++
	if err != nil {
		t.failed = err
		return false
	}
	t.row = row
	return true
}

func (t *table) err() error {
	if t.failed != nil {
		return fmt.Errorf("%s line %d: %w", t.name, t.line, t.failed)
	}
	return nil
}

func (t *table) str(names ...string) string {
	for _, n := range names {
		if i, ok := t.cols[n]; ok && i < len(t.row) {
			return strings.TrimSpace(t.row[i])
		}
	}
	if t.failed == nil {
		t.failed = fmt.Errorf("missing column %q", names[0])
	}
	return ""
}

func (t *table) number(names ...string) float64 {
	s := t.str(names...)
	if t.failed != nil {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSuffix(s, "%"), 64)
	if err != nil {
		t.failed = fmt.Errorf("column %q: %w", names[0], err)
	}
	return v
}

func (t *table) integer(names ...string) int {
	s := t.str(names...)
	if t.failed != nil {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		t.failed = fmt.Errorf("column %q: %w", names[0], err)
	}
	return v
}

// percentValue reads a rate cell and reports whether it ended with %.
func (t *table) percentValue(names ...string) (float64, bool) {
	s := t.str(names...)
	if t.failed != nil {
		return 0, false
	}
	trimmed := strings.TrimSpace(strings.TrimSuffix(s, "%"))
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		t.failed = fmt.Errorf("column %q: %w", names[0], err)
	}
	return v, trimmed != s
}
