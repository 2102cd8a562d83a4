package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/kilianp07/fleetplan/core/metrics"
)

func captureServer(t *testing.T) (*httptest.Server, func() string) {
	t.Helper()
	var (
		mu   sync.Mutex
		body string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		mu.Lock()
		body = string(data)
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(srv.Close)
	return srv, func() string {
		mu.Lock()
		defer mu.Unlock()
		return strings.TrimSpace(body)
	}
}

func TestInfluxSink_RecordGeneration(t *testing.T) {
	srv, body := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	now := time.Unix(1700000000, 0)
	st := coremetrics.GenerationStats{
		RunID:       "run-1",
		Generation:  3,
		Best:        1234.56789,
		Mean:        2000.1,
		Worst:       3000,
		StdDev:      12.3456,
		Feasible:    7,
		Population:  50,
		Evaluations: 48,
		Duration:    1500 * time.Microsecond,
		Time:        now,
	}
	if err := sink.RecordGeneration(st); err != nil {
		t.Fatalf("record error: %v", err)
	}
	p := write.NewPointWithMeasurement("search_generation").
		AddTag("run_id", "run-1").
		AddField("generation", 3).
		AddField("best", 1234.568).
		AddField("mean", 2000.1).
		AddField("worst", 3000.0).
		AddField("std_dev", 12.346).
		AddField("feasible", 7).
		AddField("evaluations", 48).
		AddField("duration_ms", 1.5).
		SetTime(now)
	expected := strings.TrimSpace(write.PointToLineProtocol(p, time.Nanosecond))
	if body() != expected {
		t.Errorf("unexpected body:\n got %s\nwant %s", body(), expected)
	}
}

func TestInfluxSink_RecordRun(t *testing.T) {
	srv, body := captureServer(t)
	sink := NewInfluxSink(srv.URL+"/api/v2/write", "token", "org", "bucket")
	defer sink.Close()

	now := time.Unix(1700000000, 0)
	if err := sink.RecordRun(coremetrics.RunSummary{
		RunID:       "run-1",
		Seed:        20,
		Generations: 30,
		Evaluations: 1400,
		BestFitness: 99.5,
		Cost:        99.5,
		Feasible:    true,
		Duration:    2 * time.Second,
		Time:        now,
	}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	got := body()
	for _, want := range []string{"search_run,", "feasible=true", "run_id=run-1", "seed=20i", "generations=30i", "fitness=99.5"} {
		if !strings.Contains(got, want) {
			t.Errorf("body %q missing %q", got, want)
		}
	}
}

func TestInfluxSink_RecordImprovement(t *testing.T) {
	srv, body := captureServer(t)
	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	if err := sink.RecordImprovement(coremetrics.Improvement{
		RunID: "run-1", Generation: 4, Previous: 10, Fitness: 8.25, Time: time.Now(),
	}); err != nil {
		t.Fatalf("record error: %v", err)
	}
	got := body()
	if !strings.HasPrefix(got, "search_improvement,run_id=run-1 ") || !strings.Contains(got, "fitness=8.25") {
		t.Errorf("unexpected body: %s", got)
	}
}

func TestNewInfluxSinkWithFallback(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			called = true
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL+"/api/v2/write", "tok", "org", "bucket")
	if _, ok := sink.(*InfluxSink); ok {
		t.Fatalf("expected NopSink on failing health check")
	}
	if !called {
		t.Errorf("health endpoint not called")
	}
}

func TestRound3(t *testing.T) {
	cases := map[float64]float64{
		1.23456:  1.235,
		-1.23449: -1.234,
		10:       10,
	}
	for in, want := range cases {
		if got := round3(in); got != want {
			t.Errorf("round3(%v) = %v, want %v", in, got, want)
		}
	}
}
