package metrics

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kilianp07/fleetplan/core/events"
	coremetrics "github.com/kilianp07/fleetplan/core/metrics"
	"github.com/kilianp07/fleetplan/internal/eventbus"
)

type recordingSink struct {
	mu           sync.Mutex
	generations  []coremetrics.GenerationStats
	runs         []coremetrics.RunSummary
	improvements []coremetrics.Improvement
}

func (r *recordingSink) RecordGeneration(s coremetrics.GenerationStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.generations = append(r.generations, s)
	return nil
}

func (r *recordingSink) RecordRun(s coremetrics.RunSummary) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, s)
	return nil
}

func (r *recordingSink) RecordImprovement(ev coremetrics.Improvement) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.improvements = append(r.improvements, ev)
	return nil
}

func TestEventCollectorForwardsEvents(t *testing.T) {
	bus := eventbus.NewWithBuffer[events.Event](16)
	sink := &recordingSink{}
	done := StartEventCollector(context.Background(), bus, sink)

	bus.Publish(events.GenerationEvent{Stats: coremetrics.GenerationStats{RunID: "r", Generation: 0}})
	bus.Publish(events.GenerationEvent{Stats: coremetrics.GenerationStats{RunID: "r", Generation: 1}})
	bus.Publish(events.ImprovementEvent{Improvement: coremetrics.Improvement{RunID: "r", Generation: 1}})
	bus.Publish(events.RunFinishedEvent{Summary: coremetrics.RunSummary{RunID: "r"}, Reason: "generations"})
	bus.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop after bus close")
	}
	sink.mu.Lock()
	defer sink.mu.Unlock()
	if len(sink.generations) != 2 || len(sink.improvements) != 1 || len(sink.runs) != 1 {
		t.Fatalf("unexpected records: %d generations, %d improvements, %d runs",
			len(sink.generations), len(sink.improvements), len(sink.runs))
	}
	if sink.generations[1].Generation != 1 {
		t.Errorf("events out of order")
	}
}

func TestEventCollectorStopsOnCancel(t *testing.T) {
	bus := eventbus.New[events.Event]()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	done := StartEventCollector(ctx, bus, coremetrics.NopSink{})
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("collector did not stop on cancel")
	}
}

func TestEventCollectorNilBus(t *testing.T) {
	done := StartEventCollector(context.Background(), nil, coremetrics.NopSink{})
	select {
	case <-done:
	default:
		t.Fatal("expected closed channel for nil bus")
	}
}
