package scenarios

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kilianp07/fleetplan/core/evaluate"
	"github.com/kilianp07/fleetplan/core/events"
	"github.com/kilianp07/fleetplan/core/logger"
	"github.com/kilianp07/fleetplan/core/search"
	"github.com/kilianp07/fleetplan/infra/metrics"
	"github.com/kilianp07/fleetplan/internal/eventbus"
)

// RunScenario runs the search described by sc with a Prometheus sink fed
// through the event bus and checks the expectations.
func RunScenario(t *testing.T, sc *Scenario) search.Outcome {
	t.Helper()
	ref, err := sc.ToModel()
	if err != nil {
		t.Fatalf("reference: %v", err)
	}
	ev, err := evaluate.New(ref, evaluate.Config{})
	if err != nil {
		t.Fatalf("evaluator: %v", err)
	}

	reg := prometheus.NewRegistry()
	sink, err := metrics.NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("prom sink: %v", err)
	}
	bus := eventbus.NewWithBuffer[events.Event](256)
	done := metrics.StartEventCollector(context.Background(), bus, sink)

	engine, err := search.NewEngine(ev, sc.Search.ToConfig(),
		search.WithPublisher(bus),
		search.WithLogger(logger.Nop{}),
	)
	if err != nil {
		t.Fatalf("engine: %v", err)
	}
	out, err := engine.Run(context.Background())
	bus.Close()
	<-done
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	res := out.Best.Result
	if res.Feasible() != sc.Expected.Feasible {
		t.Errorf("feasible = %v, want %v (violations %v)", res.Feasible(), sc.Expected.Feasible, res.Violations)
	}
	if len(res.Years) > 0 && res.Years[0].Bought < sc.Expected.MinBought {
		t.Errorf("first year bought %d, want at least %d", res.Years[0].Bought, sc.Expected.MinBought)
	}
	expected := fmt.Sprintf(`
# HELP fleetplan_evaluations_total Plans evaluated
# TYPE fleetplan_evaluations_total counter
fleetplan_evaluations_total %d
`, out.Evaluations)
	if err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "fleetplan_evaluations_total"); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
	return out
}
