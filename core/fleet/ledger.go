// Package fleet tracks owned vehicles year by year while a plan is replayed.
package fleet

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/kilianp07/fleetplan/core/model"
	"github.com/kilianp07/fleetplan/core/plan"
)

var (
	ErrUnknownVehicle       = errors.New("unknown vehicle model")
	ErrIncompatibleFuel     = errors.New("fuel not supported by vehicle model")
	ErrIllegalPurchaseYear  = errors.New("vehicle bought outside its model year")
	ErrOversell             = errors.New("sold more units than owned")
	ErrOveruse              = errors.New("used more units than owned")
	ErrBucketMismatch       = errors.New("distance bucket above vehicle rating")
	ErrRangeExceeded        = errors.New("distance per unit above yearly range")
	ErrSellFractionExceeded = errors.New("yearly sell fraction exceeded")
)

// Key identifies one ledger line.
type Key struct {
	Vintage   int
	VehicleID string
	Fuel      model.Fuel
	Bucket    model.DistanceBucket
}

// Holding is a snapshot of one ledger line.
type Holding struct {
	Key
	Units int
	Age   int
}

// Retirement reports a vintage removed by RetireExpired while still owned.
type Retirement struct {
	Vintage   int
	VehicleID string
	Units     int
}

// Ledger maps vintages to owned unit counts. A Ledger belongs to a single
// replay and must not be shared between goroutines.
type Ledger struct {
	ref   *model.ReferenceData
	owned map[Key]int
	used  map[Key]int
	total int
}

// NewLedger returns an empty ledger bound to validated reference data.
func NewLedger(ref *model.ReferenceData) *Ledger {
	return &Ledger{
		ref:   ref,
		owned: make(map[Key]int),
		used:  make(map[Key]int),
	}
}

func (l *Ledger) resolve(h plan.Holding) (model.VehicleModel, Key, error) {
	v, ok := l.ref.Vehicle(h.VehicleID)
	if !ok {
		return v, Key{}, fmt.Errorf("%w: %s", ErrUnknownVehicle, h.VehicleID)
	}
	if _, ok := v.Consumption(h.Fuel); !ok {
		return v, Key{}, fmt.Errorf("%w: %s on %s", ErrIncompatibleFuel, h.VehicleID, h.Fuel)
	}
	return v, Key{Vintage: v.Year, VehicleID: v.ID, Fuel: h.Fuel, Bucket: h.Bucket}, nil
}

// ApplyBuy adds count new units of the model bought in year.
func (l *Ledger) ApplyBuy(year int, b plan.Buy) error {
	v, k, err := l.resolve(b.Holding)
	if err != nil {
		return err
	}
	if !l.ref.Hierarchy().Covers(v.Bucket, b.Bucket) {
		return fmt.Errorf("%w: %s rated %s, bought for %s", ErrBucketMismatch, v.ID, v.Bucket, b.Bucket)
	}
	if !v.PurchasableIn(year) {
		return fmt.Errorf("%w: %s is a %d model, bought in %d", ErrIllegalPurchaseYear, v.ID, v.Year, year)
	}
	if b.Count <= 0 {
		return nil
	}
	l.owned[k] += b.Count
	l.total += b.Count
	return nil
}

// ApplySell removes count owned units. The yearly fraction check is done
// separately by CheckSellFraction once every sell of the year is known.
func (l *Ledger) ApplySell(year int, s plan.Sell) error {
	_, k, err := l.resolve(s.Holding)
	if err != nil {
		return err
	}
	if s.Count <= 0 {
		return nil
	}
	have := l.owned[k]
	if have < s.Count {
		return fmt.Errorf("%w: %s/%s/%s in %d: have %d, sell %d", ErrOversell, k.VehicleID, k.Fuel, k.Bucket, year, have, s.Count)
	}
	l.set(k, have-s.Count)
	return nil
}

// ApplyUse records count units of a holding in service for the year. The
// sum of use actions on one key in a year may not exceed the owned count.
func (l *Ledger) ApplyUse(year int, u plan.Use) error {
	v, k, err := l.resolve(u.Holding)
	if err != nil {
		return err
	}
	if d := u.DistancePerUnit; math.IsNaN(d) || math.IsInf(d, 0) || d < 0 || d > v.YearlyRange {
		return fmt.Errorf("%w: %s drives %.1f km, range %.1f", ErrRangeExceeded, v.ID, u.DistancePerUnit, v.YearlyRange)
	}
	if !l.ref.Hierarchy().Covers(v.Bucket, u.Bucket) {
		return fmt.Errorf("%w: %s rated %s, used for %s", ErrBucketMismatch, v.ID, v.Bucket, u.Bucket)
	}
	if u.Count <= 0 {
		return nil
	}
	have := l.owned[k]
	if l.used[k]+u.Count > have {
		return fmt.Errorf("%w: %s/%s/%s in %d: have %d, used %d+%d", ErrOveruse, k.VehicleID, k.Fuel, k.Bucket, year, have, l.used[k], u.Count)
	}
	l.used[k] += u.Count
	return nil
}

// RetireExpired removes every vintage older than the policy lifetime and
// starts a new year of use accounting. It returns one Retirement per
// vintage that still held units.
func (l *Ledger) RetireExpired(year int) []Retirement {
	clear(l.used)
	lifetime := l.ref.Policy.Lifetime
	byVintage := make(map[Retirement]int)
	for k, n := range l.owned {
		if year-k.Vintage <= lifetime {
			continue
		}
		byVintage[Retirement{Vintage: k.Vintage, VehicleID: k.VehicleID}] += n
		l.set(k, 0)
	}
	out := make([]Retirement, 0, len(byVintage))
	for r, n := range byVintage {
		r.Units = n
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Vintage != out[j].Vintage {
			return out[i].Vintage < out[j].Vintage
		}
		return out[i].VehicleID < out[j].VehicleID
	})
	return out
}

// CheckSellFraction reports whether sold units exceed the share of the
// start-of-year fleet allowed by policy.
func (l *Ledger) CheckSellFraction(sold, start int) error {
	limit := l.ref.Policy.MaxSellFraction * float64(start)
	// Tolerate float noise on exact limits such as 0.2*100.
	if float64(sold) > limit+1e-9 {
		return fmt.Errorf("%w: sold %d of %d (limit %d)", ErrSellFractionExceeded, sold, start, int(math.Floor(limit+1e-9)))
	}
	return nil
}

func (l *Ledger) set(k Key, n int) {
	l.total += n - l.owned[k]
	if n == 0 {
		delete(l.owned, k)
		return
	}
	l.owned[k] = n
}

// Total returns the number of owned units across the fleet.
func (l *Ledger) Total() int { return l.total }

// Owned returns the units held for a key.
func (l *Ledger) Owned(k Key) int { return l.owned[k] }

// Holdings returns a sorted snapshot of the non-empty ledger lines with
// their age in year.
func (l *Ledger) Holdings(year int) []Holding {
	out := make([]Holding, 0, len(l.owned))
	for k, n := range l.owned {
		out = append(out, Holding{Key: k, Units: n, Age: year - k.Vintage})
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].Key, out[j].Key
		if a.Vintage != b.Vintage {
			return a.Vintage < b.Vintage
		}
		if a.VehicleID != b.VehicleID {
			return a.VehicleID < b.VehicleID
		}
		if a.Fuel != b.Fuel {
			return a.Fuel < b.Fuel
		}
		return a.Bucket < b.Bucket
	})
	return out
}
