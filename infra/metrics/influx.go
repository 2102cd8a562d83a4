package metrics

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetplan/core/metrics"
	"github.com/kilianp07/fleetplan/infra/logger"
)

// InfluxSink writes search progress to an InfluxDB instance using the
// official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback pings the InfluxDB instance and returns a
// NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordGeneration writes one search_generation point.
func (s *InfluxSink) RecordGeneration(st coremetrics.GenerationStats) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("search_generation").
		AddTag("run_id", st.RunID).
		AddField("generation", st.Generation).
		AddField("best", round3(st.Best)).
		AddField("mean", round3(st.Mean)).
		AddField("worst", round3(st.Worst)).
		AddField("std_dev", round3(st.StdDev)).
		AddField("feasible", st.Feasible).
		AddField("evaluations", st.Evaluations).
		AddField("duration_ms", round3(st.Duration.Seconds()*1000)).
		SetTime(st.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordImprovement writes one search_improvement point.
func (s *InfluxSink) RecordImprovement(ev coremetrics.Improvement) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("search_improvement").
		AddTag("run_id", ev.RunID).
		AddField("generation", ev.Generation).
		AddField("previous", round3(ev.Previous)).
		AddField("fitness", round3(ev.Fitness)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordRun writes one search_run point.
func (s *InfluxSink) RecordRun(r coremetrics.RunSummary) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("search_run").
		AddTag("run_id", r.RunID).
		AddTag("feasible", strconv.FormatBool(r.Feasible)).
		AddField("seed", int64(r.Seed)).
		AddField("generations", r.Generations).
		AddField("evaluations", r.Evaluations).
		AddField("fitness", round3(r.BestFitness)).
		AddField("cost", round3(r.Cost)).
		AddField("penalty", round3(r.Penalty)).
		AddField("duration_ms", round3(r.Duration.Seconds()*1000)).
		SetTime(r.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Close releases the underlying client.
func (s *InfluxSink) Close() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}
