package metrics

import (
	"context"

	"github.com/kilianp07/fleetplan/core/events"
	coremetrics "github.com/kilianp07/fleetplan/core/metrics"
	"github.com/kilianp07/fleetplan/infra/logger"
	"github.com/kilianp07/fleetplan/internal/eventbus"
)

// StartEventCollector subscribes to the event bus and forwards search events
// to the sink from its own goroutine. The returned channel is closed once
// the collector stops, which happens when ctx is canceled or the bus is
// closed after its buffered events have been drained.
func StartEventCollector(ctx context.Context, bus *eventbus.Bus[events.Event], sink coremetrics.MetricsSink) <-chan struct{} {
	done := make(chan struct{})
	if bus == nil || sink == nil {
		close(done)
		return done
	}
	log := logger.New("event-collector")
	sub := bus.Subscribe()
	go func() {
		defer close(done)
		defer bus.Unsubscribe(sub)
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-sub:
				if !ok {
					return
				}
				if err := forward(sink, ev); err != nil {
					log.Warnf("record %T: %v", ev, err)
				}
			}
		}
	}()
	return done
}

func forward(sink coremetrics.MetricsSink, ev events.Event) error {
	switch e := ev.(type) {
	case events.GenerationEvent:
		return sink.RecordGeneration(e.Stats)
	case events.ImprovementEvent:
		if r, ok := sink.(coremetrics.ImprovementRecorder); ok {
			return r.RecordImprovement(e.Improvement)
		}
	case events.RunFinishedEvent:
		if r, ok := sink.(coremetrics.RunRecorder); ok {
			return r.RecordRun(e.Summary)
		}
	}
	return nil
}
