// Package evaluate scores fleet plans. Evaluation replays a plan year by
// year against a fresh fleet ledger and converts every broken constraint
// into a penalty term, so any well-formed plan gets a finite fitness.
package evaluate

import (
	"errors"
	"fmt"

	"github.com/kilianp07/fleetplan/core/fleet"
	"github.com/kilianp07/fleetplan/core/model"
	"github.com/kilianp07/fleetplan/core/plan"
)

const coverageTolerance = 1e-6

// ErrInvalidConfig is returned for out-of-range evaluator settings.
var ErrInvalidConfig = errors.New("invalid evaluator config")

// DefaultPenalty is the hard-constraint penalty used when none is set.
const DefaultPenalty = 1e6

// Config holds the evaluator settings.
type Config struct {
	// Penalty weighs one violation, one unit of emissions excess and one
	// unmet demand cell.
	Penalty float64 `json:"penalty"`
}

// DefaultConfig returns the evaluator settings used when nothing is set.
func DefaultConfig() Config { return Config{Penalty: DefaultPenalty} }

// SetDefaults applies default values. A zero penalty counts as unset;
// start from DefaultConfig to score with no penalty at all.
func (c *Config) SetDefaults() {
	if c.Penalty == 0 {
		c.Penalty = DefaultPenalty
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.Penalty < 0 {
		return fmt.Errorf("%w: penalty must be non-negative", ErrInvalidConfig)
	}
	return nil
}

// Evaluator scores plans against read-only reference data. It is safe for
// concurrent use.
type Evaluator struct {
	ref *model.ReferenceData
	cfg Config
}

// New returns an evaluator. ref must already be validated.
func New(ref *model.ReferenceData, cfg Config) (*Evaluator, error) {
	if ref == nil {
		return nil, errors.New("nil reference data")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Evaluator{ref: ref, cfg: cfg}, nil
}

// Reference returns the reference data used for scoring.
func (e *Evaluator) Reference() *model.ReferenceData { return e.ref }

// Penalty returns the hard-constraint penalty.
func (e *Evaluator) Penalty() float64 { return e.cfg.Penalty }

// Evaluate replays p and returns its fitness with a per-year breakdown. The
// only error is a plan whose shape does not match the horizon.
func (e *Evaluator) Evaluate(p plan.Plan) (Result, error) {
	if err := p.Validate(e.ref.Horizon); err != nil {
		return Result{}, err
	}
	r := replay{ref: e.ref, ledger: fleet.NewLedger(e.ref)}
	res := Result{Years: make([]YearBreakdown, 0, len(p.Years))}
	for _, y := range p.Years {
		yb := r.year(y)
		res.Cost += yb.Cost
		res.EmissionsExcess += yb.Excess
		res.UnmetDemand += yb.Unmet
		res.Years = append(res.Years, yb)
	}
	res.Violations = r.violations
	discrete := len(r.violations) - res.UnmetDemand
	res.Penalty = e.cfg.Penalty * (float64(discrete) + res.EmissionsExcess + float64(res.UnmetDemand))
	res.Fitness = res.Cost + res.Penalty
	return res, nil
}

type replay struct {
	ref        *model.ReferenceData
	ledger     *fleet.Ledger
	violations []Violation
}

func (r *replay) flag(k Kind, year int, id string, err error) {
	r.violations = append(r.violations, Violation{Kind: k, Year: year, VehicleID: id, Detail: err.Error()})
}

func (r *replay) reject(year int, id string, err error) {
	r.flag(kindOf(err), year, id, err)
}

func (r *replay) year(y plan.YearPlan) YearBreakdown {
	yb := YearBreakdown{Year: y.Year, Cap: r.ref.Cap(y.Year)}
	before := len(r.violations)

	for _, ret := range r.ledger.RetireExpired(y.Year) {
		r.flag(UnretiredExpiredVintage, y.Year, ret.VehicleID,
			fmt.Errorf("%d units of %d vintage %s past lifetime", ret.Units, ret.Vintage, ret.VehicleID))
	}
	yb.FleetStart = r.ledger.Total()

	for _, b := range y.Buy {
		if b.Count <= 0 {
			continue
		}
		if err := r.ledger.ApplyBuy(y.Year, b); err != nil {
			r.reject(y.Year, b.VehicleID, err)
			continue
		}
		v, _ := r.ref.Vehicle(b.VehicleID)
		yb.Purchase += v.Cost * float64(b.Count)
		yb.Bought += b.Count
	}

	for _, s := range y.Sell {
		if s.Count <= 0 {
			continue
		}
		if err := r.ledger.ApplySell(y.Year, s); err != nil {
			r.reject(y.Year, s.VehicleID, err)
			continue
		}
		v, _ := r.ref.Vehicle(s.VehicleID)
		yb.Resale += r.ref.ProfileAt(y.Year-v.Year).Resale * v.Cost * float64(s.Count)
		yb.Sold += s.Count
	}
	if err := r.ledger.CheckSellFraction(yb.Sold, yb.FleetStart); err != nil {
		r.flag(SellFractionExceeded, y.Year, "", err)
	}

	served := make(map[model.SizeClass]map[model.DistanceBucket]float64)
	for _, u := range y.Use {
		if u.Count <= 0 {
			continue
		}
		if err := r.ledger.ApplyUse(y.Year, u); err != nil {
			r.reject(y.Year, u.VehicleID, err)
			continue
		}
		v, _ := r.ref.Vehicle(u.VehicleID)
		n := float64(u.Count)
		prof := r.ref.ProfileAt(y.Year - v.Year)
		yb.Insurance += prof.Insurance * v.Cost * n
		yb.Maintenance += prof.Maintenance * v.Cost * n

		// Fuel rates are checked at load time for every year a model can
		// be used in.
		rate, _ := r.ref.Rate(u.Fuel, y.Year)
		cons, _ := v.Consumption(u.Fuel)
		fuel := u.DistancePerUnit * n * cons
		yb.Fuel += fuel * rate.Cost
		yb.Emissions += fuel * rate.Emissions
		yb.Used += u.Count

		if served[v.Size] == nil {
			served[v.Size] = make(map[model.DistanceBucket]float64)
		}
		served[v.Size][u.Bucket] += u.DistancePerUnit * n
	}

	for _, cell := range r.ref.DemandIn(y.Year) {
		c := Coverage{Size: cell.Size, Bucket: cell.Bucket, Demand: cell.KM, Served: served[cell.Size][cell.Bucket]}
		yb.Coverage = append(yb.Coverage, c)
		if !c.Met() {
			yb.Unmet++
			r.flag(UnmetDemand, y.Year, "",
				fmt.Errorf("%s/%s served %.1f of %.1f km", c.Size, c.Bucket, c.Served, c.Demand))
		}
	}

	if yb.Emissions > yb.Cap {
		yb.Excess = yb.Emissions - yb.Cap
	}
	yb.Cost = yb.Purchase + yb.Insurance + yb.Maintenance + yb.Fuel - yb.Resale
	yb.FleetEnd = r.ledger.Total()
	yb.Violations = len(r.violations) - before
	return yb
}

func kindOf(err error) Kind {
	switch {
	case errors.Is(err, fleet.ErrIllegalPurchaseYear):
		return IllegalPurchaseYear
	case errors.Is(err, fleet.ErrOversell):
		return OversellLedger
	case errors.Is(err, fleet.ErrOveruse):
		return OveruseLedger
	case errors.Is(err, fleet.ErrBucketMismatch):
		return BucketMismatch
	case errors.Is(err, fleet.ErrIncompatibleFuel):
		return IncompatibleFuel
	case errors.Is(err, fleet.ErrRangeExceeded):
		return RangeExceeded
	case errors.Is(err, fleet.ErrSellFractionExceeded):
		return SellFractionExceeded
	default:
		return UnknownVehicle
	}
}
