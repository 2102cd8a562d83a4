package plan

import (
	"fmt"
	"math"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/kilianp07/fleetplan/core/model"
)

// ActionType names an action in the flat action table.
type ActionType string

const (
	ActionBuy  ActionType = "Buy"
	ActionSell ActionType = "Sell"
	ActionUse  ActionType = "Use"
)

// ParseActionType converts a table value into an ActionType.
func ParseActionType(s string) (ActionType, error) {
	switch s {
	case "Buy", "buy", "BUY":
		return ActionBuy, nil
	case "Sell", "sell", "SELL":
		return ActionSell, nil
	case "Use", "use", "USE":
		return ActionUse, nil
	default:
		return "", fmt.Errorf("unknown action type %q", s)
	}
}

// Row is one line of the flat action table handed to exporters.
type Row struct {
	Year            int                  `json:"year"`
	VehicleID       string               `json:"vehicle_id"`
	Type            ActionType           `json:"type"`
	Count           int                  `json:"num_vehicles"`
	Fuel            model.Fuel           `json:"fuel"`
	Bucket          model.DistanceBucket `json:"distance_bucket"`
	DistancePerUnit float64              `json:"distance_per_vehicle"`
}

// Rows flattens the plan into the action table, year by year, buys first,
// then sells, then uses. Zero-count actions are omitted.
func (p Plan) Rows() []Row {
	var rows []Row
	for _, y := range p.Years {
		for _, b := range y.Buy {
			if b.Count > 0 {
				rows = append(rows, Row{Year: y.Year, VehicleID: b.VehicleID, Type: ActionBuy, Count: b.Count, Fuel: b.Fuel, Bucket: b.Bucket})
			}
		}
		for _, s := range y.Sell {
			if s.Count > 0 {
				rows = append(rows, Row{Year: y.Year, VehicleID: s.VehicleID, Type: ActionSell, Count: s.Count, Fuel: s.Fuel, Bucket: s.Bucket})
			}
		}
		for _, u := range y.Use {
			if u.Count > 0 {
				rows = append(rows, Row{Year: y.Year, VehicleID: u.VehicleID, Type: ActionUse, Count: u.Count, Fuel: u.Fuel, Bucket: u.Bucket, DistancePerUnit: u.DistancePerUnit})
			}
		}
	}
	return rows
}

// FromRows rebuilds a plan spanning h from an action table. Rows outside the
// horizon are rejected.
func FromRows(h model.Horizon, rows []Row) (Plan, error) {
	p := New(h)
	for i, r := range rows {
		if !h.Contains(r.Year) {
			return Plan{}, fmt.Errorf("row %d: year %d outside horizon %d-%d", i, r.Year, h.Start, h.End)
		}
		if r.Count < 0 {
			return Plan{}, fmt.Errorf("row %d: negative count %d", i, r.Count)
		}
		y := &p.Years[r.Year-h.Start]
		hold := Holding{VehicleID: r.VehicleID, Fuel: r.Fuel, Bucket: r.Bucket}
		switch r.Type {
		case ActionBuy:
			y.Buy = append(y.Buy, Buy{Holding: hold, Count: r.Count})
		case ActionSell:
			y.Sell = append(y.Sell, Sell{Holding: hold, Count: r.Count})
		case ActionUse:
			y.Use = append(y.Use, Use{Holding: hold, Count: r.Count, DistancePerUnit: r.DistancePerUnit})
		default:
			return Plan{}, fmt.Errorf("row %d: unknown action type %q", i, r.Type)
		}
	}
	return p, nil
}

// Fingerprint hashes the action table in entry order. Zero-count actions
// are ignored; reordering actions changes the fingerprint because replay
// order decides which of two same-key uses is rejected.
func (p Plan) Fingerprint() uint64 {
	rows := p.Rows()
	d := xxhash.New()
	buf := make([]byte, 0, 96)
	for _, r := range rows {
		buf = buf[:0]
		buf = strconv.AppendInt(buf, int64(r.Year), 10)
		buf = append(buf, '|')
		buf = append(buf, r.VehicleID...)
		buf = append(buf, '|')
		buf = append(buf, r.Type...)
		buf = append(buf, '|')
		buf = strconv.AppendInt(buf, int64(r.Count), 10)
		buf = append(buf, '|')
		buf = append(buf, r.Fuel...)
		buf = append(buf, '|')
		buf = append(buf, r.Bucket...)
		buf = append(buf, '|')
		buf = strconv.AppendUint(buf, math.Float64bits(r.DistancePerUnit), 16)
		buf = append(buf, '\n')
		_, _ = d.Write(buf)
	}
	return d.Sum64()
}
