package fleet

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetplan/core/plan"
	"github.com/kilianp07/fleetplan/internal/fixture"
)

var bev = plan.Holding{VehicleID: "BEV_S1_2023", Fuel: fixture.Electricity, Bucket: "D1"}

func TestApplyBuy(t *testing.T) {
	l := NewLedger(fixture.Reference())
	require.NoError(t, l.ApplyBuy(2023, plan.Buy{Holding: bev, Count: 3}))
	assert.Equal(t, 3, l.Total())
	assert.Equal(t, 3, l.Owned(Key{Vintage: 2023, VehicleID: "BEV_S1_2023", Fuel: fixture.Electricity, Bucket: "D1"}))

	cases := []struct {
		name string
		year int
		h    plan.Holding
		want error
	}{
		{"wrong year", 2024, bev, ErrIllegalPurchaseYear},
		{"unknown", 2023, plan.Holding{VehicleID: "X", Fuel: fixture.Electricity, Bucket: "D1"}, ErrUnknownVehicle},
		{"fuel", 2023, plan.Holding{VehicleID: "BEV_S1_2023", Fuel: fixture.B20, Bucket: "D1"}, ErrIncompatibleFuel},
		{"bucket", 2023, plan.Holding{VehicleID: "BEV_S1_2023", Fuel: fixture.Electricity, Bucket: "D2"}, ErrBucketMismatch},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := l.ApplyBuy(tc.year, plan.Buy{Holding: tc.h, Count: 1})
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
			assert.Equal(t, 3, l.Total(), "failed buy must not change state")
		})
	}
}

func TestApplySellOversell(t *testing.T) {
	l := NewLedger(fixture.Reference())
	require.NoError(t, l.ApplyBuy(2023, plan.Buy{Holding: bev, Count: 2}))
	err := l.ApplySell(2024, plan.Sell{Holding: bev, Count: 3})
	assert.True(t, errors.Is(err, ErrOversell))
	assert.Equal(t, 2, l.Total())

	require.NoError(t, l.ApplySell(2024, plan.Sell{Holding: bev, Count: 2}))
	assert.Equal(t, 0, l.Total())
	assert.Empty(t, l.Holdings(2024))
}

func TestUseAfterSellIsOveruse(t *testing.T) {
	l := NewLedger(fixture.Reference())
	require.NoError(t, l.ApplyBuy(2023, plan.Buy{Holding: bev, Count: 1}))
	require.NoError(t, l.ApplySell(2024, plan.Sell{Holding: bev, Count: 1}))
	l.RetireExpired(2025)
	err := l.ApplyUse(2025, plan.Use{Holding: bev, Count: 1, DistancePerUnit: 100})
	assert.True(t, errors.Is(err, ErrOveruse))
}

func TestApplyUseLimits(t *testing.T) {
	l := NewLedger(fixture.Reference())
	diesel := plan.Holding{VehicleID: "Diesel_S1_2023", Fuel: fixture.B20, Bucket: "D4"}
	require.NoError(t, l.ApplyBuy(2023, plan.Buy{Holding: diesel, Count: 2}))

	require.NoError(t, l.ApplyUse(2023, plan.Use{Holding: diesel, Count: 1, DistancePerUnit: 1000}))
	require.NoError(t, l.ApplyUse(2023, plan.Use{Holding: diesel, Count: 1, DistancePerUnit: 1000}))
	err := l.ApplyUse(2023, plan.Use{Holding: diesel, Count: 1, DistancePerUnit: 1000})
	assert.True(t, errors.Is(err, ErrOveruse), "cumulative use must be capped")

	err = l.ApplyUse(2023, plan.Use{Holding: diesel, Count: 1, DistancePerUnit: 200000})
	assert.True(t, errors.Is(err, ErrRangeExceeded))
	for _, d := range []float64{-1, math.NaN(), math.Inf(1)} {
		err = l.ApplyUse(2024, plan.Use{Holding: diesel, Count: 1, DistancePerUnit: d})
		assert.True(t, errors.Is(err, ErrRangeExceeded), "distance %v", d)
	}

	// A D4 vehicle may serve D2 demand, but the ledger line is keyed by the
	// action bucket, so nothing is owned under D2.
	err = l.ApplyUse(2024, plan.Use{Holding: plan.Holding{VehicleID: "Diesel_S1_2023", Fuel: fixture.B20, Bucket: "D2"}, Count: 1, DistancePerUnit: 10})
	assert.True(t, errors.Is(err, ErrOveruse))

	err = l.ApplyUse(2023, plan.Use{Holding: plan.Holding{VehicleID: "BEV_S1_2023", Fuel: fixture.Electricity, Bucket: "D3"}, Count: 1, DistancePerUnit: 10})
	assert.True(t, errors.Is(err, ErrBucketMismatch))
}

func TestRetireExpiredAtElevenYears(t *testing.T) {
	l := NewLedger(fixture.Reference())
	require.NoError(t, l.ApplyBuy(2023, plan.Buy{Holding: bev, Count: 4}))

	for y := 2024; y <= 2033; y++ {
		assert.Empty(t, l.RetireExpired(y), "year %d", y)
		require.NoError(t, l.ApplyUse(y, plan.Use{Holding: bev, Count: 4, DistancePerUnit: 10}))
	}
	ret := l.RetireExpired(2034)
	require.Len(t, ret, 1)
	assert.Equal(t, Retirement{Vintage: 2023, VehicleID: "BEV_S1_2023", Units: 4}, ret[0])
	assert.Equal(t, 0, l.Total())

	err := l.ApplyUse(2034, plan.Use{Holding: bev, Count: 1, DistancePerUnit: 10})
	assert.True(t, errors.Is(err, ErrOveruse))
	err = l.ApplySell(2034, plan.Sell{Holding: bev, Count: 1})
	assert.True(t, errors.Is(err, ErrOversell))
}

func TestCheckSellFraction(t *testing.T) {
	l := NewLedger(fixture.Reference())
	assert.NoError(t, l.CheckSellFraction(20, 100))
	assert.True(t, errors.Is(l.CheckSellFraction(21, 100), ErrSellFractionExceeded))
	assert.NoError(t, l.CheckSellFraction(0, 0))
	assert.Error(t, l.CheckSellFraction(1, 4))
}

func TestHoldingsSorted(t *testing.T) {
	l := NewLedger(fixture.Reference())
	diesel := plan.Holding{VehicleID: "Diesel_S1_2023", Fuel: fixture.HVO, Bucket: "D3"}
	require.NoError(t, l.ApplyBuy(2023, plan.Buy{Holding: diesel, Count: 1}))
	require.NoError(t, l.ApplyBuy(2023, plan.Buy{Holding: bev, Count: 2}))
	hs := l.Holdings(2025)
	require.Len(t, hs, 2)
	assert.Equal(t, "BEV_S1_2023", hs[0].VehicleID)
	assert.Equal(t, 2, hs[0].Age)
	assert.Equal(t, 1, hs[1].Units)
}
