package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kilianp07/fleetplan/core/evaluate"
	"github.com/kilianp07/fleetplan/core/plan"
)

// Sheet names written by WriteXLSX.
const (
	PlanSheet  = "plan"
	YearsSheet = "years"
)

var yearsHeader = []string{
	"Year", "Purchase", "Insurance", "Maintenance", "Fuel", "Resale", "Cost",
	"Emissions", "Cap", "Excess", "Fleet start", "Fleet end", "Bought", "Sold",
	"Used", "Unmet cells", "Violations",
}

// WriteXLSX writes a workbook with the action table on the "plan" sheet and
// the per-year account on the "years" sheet.
func WriteXLSX(w io.Writer, rows []plan.Row, years []evaluate.YearBreakdown) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName("Sheet1", PlanSheet); err != nil {
		return err
	}
	if _, err := f.NewSheet(YearsSheet); err != nil {
		return err
	}
	style, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeRow(f, PlanSheet, 1, toAny(Header), style); err != nil {
		return err
	}
	for i, r := range rows {
		vals := []any{r.Year, r.VehicleID, r.Count, string(r.Type), string(r.Fuel), string(r.Bucket), r.DistancePerUnit}
		if err := writeRow(f, PlanSheet, i+2, vals, 0); err != nil {
			return err
		}
	}

	if err := writeRow(f, YearsSheet, 1, toAny(yearsHeader), style); err != nil {
		return err
	}
	for i, y := range years {
		vals := []any{
			y.Year, y.Purchase, y.Insurance, y.Maintenance, y.Fuel, y.Resale, y.Cost,
			y.Emissions, y.Cap, y.Excess, y.FleetStart, y.FleetEnd, y.Bought, y.Sold,
			y.Used, y.Unmet, y.Violations,
		}
		if err := writeRow(f, YearsSheet, i+2, vals, 0); err != nil {
			return err
		}
	}

	for _, sheet := range []string{PlanSheet, YearsSheet} {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return err
		}
	}
	return f.Write(w)
}

func writeRow(f *excelize.File, sheet string, row int, vals []any, style int) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &vals); err != nil {
		return err
	}
	if style == 0 {
		return nil
	}
	last, err := excelize.CoordinatesToCellName(len(vals), row)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, cell, last, style)
}

func toAny(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}
