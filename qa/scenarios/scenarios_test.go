package scenarios

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/kilianp07/fleetplan/core/search"
)

func TestScenario(t *testing.T) {
	files, err := filepath.Glob(filepath.Join("testdata", "*.yaml"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no scenarios found")
	}
	for _, f := range files {
		sc, err := Load(f)
		if err != nil {
			t.Fatalf("load %s: %v", f, err)
		}
		t.Run(sc.Name, func(t *testing.T) {
			RunScenario(t, sc)
		})
	}
}

func TestToModelRejectsMissingFuel(t *testing.T) {
	sc, err := Load(filepath.Join("testdata", "single_bev.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	sc.Fuels = nil
	if _, err := sc.ToModel(); err == nil {
		t.Fatal("expected missing fuel rate error")
	}
}

func TestLoadInvalid(t *testing.T) {
	if _, err := Load("no-file.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
	tmp, err := os.CreateTemp(t.TempDir(), "bad*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tmp.WriteString(":"); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(tmp.Name()); err == nil {
		t.Fatal("expected unmarshal error")
	}
}

func TestSearchDefKeepsExplicitZero(t *testing.T) {
	zero := 0.0
	cfg := SearchDef{PopulationSize: 12, SellProbability: &zero}.ToConfig()
	if cfg.SellProbability != 0 {
		t.Errorf("sell_probability = %v, want 0", cfg.SellProbability)
	}
	if cfg.PopulationSize != 12 {
		t.Errorf("population_size = %d, want 12", cfg.PopulationSize)
	}
	if cfg.MutationRate != search.DefaultMutationRate {
		t.Errorf("mutation_rate = %v, want default", cfg.MutationRate)
	}
}
