package model_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetplan/core/model"
	"github.com/kilianp07/fleetplan/internal/fixture"
)

func TestReferenceDefaults(t *testing.T) {
	ref := fixture.Reference()
	assert.Equal(t, model.Horizon{Start: 2023, End: 2038}, ref.Horizon)
	assert.Equal(t, model.DefaultLifetime, ref.Policy.Lifetime)
	assert.Equal(t, model.DefaultMaxSellFraction, ref.Policy.MaxSellFraction)
	assert.Equal(t, model.DefaultBuckets, ref.Hierarchy().Buckets())
}

func TestReferenceLookups(t *testing.T) {
	ref := fixture.Reference()

	v, ok := ref.Vehicle("Diesel_S1_2023")
	require.True(t, ok)
	assert.Equal(t, model.DistanceBucket("D4"), v.Bucket)
	_, ok = ref.Vehicle("nope")
	assert.False(t, ok)

	ids := func(vs []model.VehicleModel) []string {
		var out []string
		for _, v := range vs {
			out = append(out, v.ID)
		}
		return out
	}
	assert.Equal(t, []string{"BEV_S1_2023", "Diesel_S1_2023"}, ids(ref.PurchasableIn(2023)))
	assert.Equal(t, []string{"BEV_S1_2024"}, ids(ref.PurchasableIn(2024)))
	assert.Empty(t, ref.PurchasableIn(2030))

	rate, ok := ref.Rate(fixture.HVO, 2031)
	require.True(t, ok)
	assert.Equal(t, model.FuelRate{Cost: 2.1, Emissions: 0.3}, rate)
	assert.Equal(t, fixture.Caps[2030], ref.Cap(2030))
}

func TestProfileAt(t *testing.T) {
	ref := fixture.Reference()
	assert.Equal(t, fixture.Profiles[1], ref.ProfileAt(0), "age 0 uses the first-year rates")
	assert.Equal(t, fixture.Profiles[1], ref.ProfileAt(1))
	assert.Equal(t, fixture.Profiles[7], ref.ProfileAt(7))
	assert.Equal(t, fixture.Profiles[10], ref.ProfileAt(14), "ages past the table repeat the last entry")
}

func TestDemandIn(t *testing.T) {
	ref := fixture.Reference()
	fixture.SetDemand(ref, 2026, "S2", "D3", 10)
	fixture.SetDemand(ref, 2026, "S1", "D4", 20)
	fixture.SetDemand(ref, 2026, "S1", "D1", 30)
	fixture.SetDemand(ref, 2026, "S1", "D2", 0)
	fixture.Must(ref)

	assert.Equal(t, []model.DemandCell{
		{Size: "S1", Bucket: "D1", KM: 30},
		{Size: "S1", Bucket: "D4", KM: 20},
		{Size: "S2", Bucket: "D3", KM: 10},
	}, ref.DemandIn(2026))
	assert.Empty(t, ref.DemandIn(2027))
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(r *model.ReferenceData)
	}{
		{"no vehicles", func(r *model.ReferenceData) { r.Vehicles = nil }},
		{"zero cost", func(r *model.ReferenceData) { r.Vehicles[0].Cost = 0 }},
		{"zero range", func(r *model.ReferenceData) { r.Vehicles[0].YearlyRange = 0 }},
		{"no fuel", func(r *model.ReferenceData) { r.Vehicles[0].Fuels = nil }},
		{"duplicate id", func(r *model.ReferenceData) { r.Vehicles[1].ID = r.Vehicles[0].ID }},
		{"unknown size", func(r *model.ReferenceData) { r.Vehicles[0].Size = "S9" }},
		{"unknown bucket", func(r *model.ReferenceData) { r.Vehicles[0].Bucket = "D9" }},
		{"missing fuel", func(r *model.ReferenceData) { delete(r.FuelRates, fixture.HVO) }},
		{"missing fuel year", func(r *model.ReferenceData) { delete(r.FuelRates[fixture.B20], 2033) }},
		{"missing profile", func(r *model.ReferenceData) { delete(r.CostProfiles, 4) }},
		{"missing cap", func(r *model.ReferenceData) { delete(r.CarbonCap, 2038) }},
		{"demand unknown size", func(r *model.ReferenceData) { fixture.SetDemand(r, 2023, "S9", "D1", 1) }},
		{"demand unknown bucket", func(r *model.ReferenceData) { fixture.SetDemand(r, 2023, "S1", "D9", 1) }},
		{"negative demand", func(r *model.ReferenceData) { fixture.SetDemand(r, 2023, "S1", "D1", -1) }},
		{"sell fraction", func(r *model.ReferenceData) { r.Policy.MaxSellFraction = 1.5 }},
		{"horizon", func(r *model.ReferenceData) { r.Horizon.End = 2000 }},
		{"resale above one", func(r *model.ReferenceData) { r.CostProfiles[1] = model.CostProfile{Resale: 1.2} }},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ref := fixture.Reference()
			c.mutate(ref)
			err := ref.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, model.ErrInvalidReference), "%v", err)
		})
	}
}

func TestValidateIgnoresRatesOutsideLifetime(t *testing.T) {
	ref := fixture.Reference()
	// BEV_S1_2023 can only be used through 2033 under the default lifetime;
	// the 2024 model through 2034.
	delete(ref.FuelRates[fixture.Electricity], 2036)
	require.NoError(t, ref.Validate())
}
