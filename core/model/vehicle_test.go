package model

import "testing"

func TestHierarchyCovers(t *testing.T) {
	h, err := NewHierarchy(DefaultBuckets)
	if err != nil {
		t.Fatalf("hierarchy: %v", err)
	}
	cases := []struct {
		rated, served DistanceBucket
		want          bool
	}{
		{"D4", "D1", true},
		{"D2", "D2", true},
		{"D1", "D2", false},
		{"D3", "D4", false},
		{"D9", "D1", false},
		{"D4", "D9", false},
	}
	for _, c := range cases {
		if got := h.Covers(c.rated, c.served); got != c.want {
			t.Errorf("Covers(%s, %s) = %v, want %v", c.rated, c.served, got, c.want)
		}
	}
}

func TestHierarchyBelow(t *testing.T) {
	h, _ := NewHierarchy(DefaultBuckets)
	got := h.Below("D3")
	if len(got) != 3 || got[0] != "D1" || got[2] != "D3" {
		t.Fatalf("unexpected buckets below D3: %v", got)
	}
	if h.Below("D0") != nil {
		t.Fatalf("unknown bucket should cover nothing")
	}
	got[0] = "X"
	if h.Buckets()[0] != "D1" {
		t.Fatalf("Below must not alias the hierarchy")
	}
}

func TestHierarchyRejectsDuplicates(t *testing.T) {
	if _, err := NewHierarchy([]DistanceBucket{"D1", "D1"}); err == nil {
		t.Fatal("expected duplicate bucket error")
	}
}

func TestVehicleModelHelpers(t *testing.T) {
	v := VehicleModel{ID: "LNG_S2_2025", Year: 2025, Fuels: map[Fuel]float64{"LNG": 0.2}}
	if !v.PurchasableIn(2025) || v.PurchasableIn(2026) {
		t.Fatal("model is purchasable in its model year only")
	}
	if c, ok := v.Consumption("LNG"); !ok || c != 0.2 {
		t.Fatalf("unexpected consumption %v %v", c, ok)
	}
	if _, ok := v.Consumption("B20"); ok {
		t.Fatal("unexpected fuel")
	}
}

func TestHorizon(t *testing.T) {
	h := Horizon{Start: 2023, End: 2038}
	if h.Len() != 16 {
		t.Fatalf("len = %d", h.Len())
	}
	if !h.Contains(2038) || h.Contains(2039) || h.Contains(2022) {
		t.Fatal("contains mismatch")
	}
	ys := h.Years()
	if ys[0] != 2023 || ys[len(ys)-1] != 2038 {
		t.Fatalf("years = %v", ys)
	}
}
