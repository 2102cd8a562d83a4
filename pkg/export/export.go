// Package export writes the flat action table of a plan and its per-year
// account to files consumed outside the planner.
package export

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/kilianp07/fleetplan/core/model"
	"github.com/kilianp07/fleetplan/core/plan"
)

// Header is the action table header shared by the CSV and XLSX writers.
var Header = []string{"Year", "ID", "Num_Vehicles", "Type", "Fuel", "Distance_bucket", "Distance_per_vehicle(km)"}

// WriteJSON writes the action table to w in JSON format.
func WriteJSON(w io.Writer, rows []plan.Row) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(rows)
}

// WriteCSV writes the action table to w in CSV format.
func WriteCSV(w io.Writer, rows []plan.Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write(record(r)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func record(r plan.Row) []string {
	return []string{
		strconv.Itoa(r.Year),
		r.VehicleID,
		strconv.Itoa(r.Count),
		string(r.Type),
		string(r.Fuel),
		string(r.Bucket),
		strconv.FormatFloat(r.DistancePerUnit, 'f', -1, 64),
	}
}

// ReadCSV parses an action table written by WriteCSV. Columns are located
// by header name, so extra columns are ignored.
func ReadCSV(r io.Reader) ([]plan.Row, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, h := range header {
		col[h] = i
	}
	for _, h := range Header {
		if _, ok := col[h]; !ok {
			return nil, fmt.Errorf("missing column %q", h)
		}
	}
	var rows []plan.Row
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return rows, nil
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		row, err := parseRecord(rec, col)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		rows = append(rows, row)
	}
}

func parseRecord(rec []string, col map[string]int) (plan.Row, error) {
	year, err := strconv.Atoi(rec[col["Year"]])
	if err != nil {
		return plan.Row{}, fmt.Errorf("year: %w", err)
	}
	count, err := strconv.Atoi(rec[col["Num_Vehicles"]])
	if err != nil {
		return plan.Row{}, fmt.Errorf("count: %w", err)
	}
	typ, err := plan.ParseActionType(rec[col["Type"]])
	if err != nil {
		return plan.Row{}, err
	}
	row := plan.Row{
		Year:      year,
		VehicleID: rec[col["ID"]],
		Type:      typ,
		Count:     count,
		Fuel:      model.Fuel(rec[col["Fuel"]]),
		Bucket:    model.DistanceBucket(rec[col["Distance_bucket"]]),
	}
	if s := rec[col["Distance_per_vehicle(km)"]]; s != "" {
		if row.DistancePerUnit, err = strconv.ParseFloat(s, 64); err != nil {
			return plan.Row{}, fmt.Errorf("distance: %w", err)
		}
		if math.IsNaN(row.DistancePerUnit) || math.IsInf(row.DistancePerUnit, 0) {
			return plan.Row{}, fmt.Errorf("distance: %q is not a finite number", s)
		}
	}
	return row, nil
}
