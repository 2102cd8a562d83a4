package runlog

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/fleetplan/core/evaluate"
	"github.com/kilianp07/fleetplan/core/metrics"
	"github.com/kilianp07/fleetplan/core/plan"
	"github.com/kilianp07/fleetplan/core/search"
)

func record(id string, started time.Time, fitness float64) RunRecord {
	return RunRecord{
		RunID:    id,
		Started:  started,
		Finished: started.Add(time.Second),
		Seed:     20,
		Fitness:  fitness,
		Cost:     fitness,
		Feasible: true,
		Rows: []plan.Row{
			{Year: 2023, VehicleID: "BEV_S1_2023", Type: plan.ActionBuy, Count: 2, Fuel: "Electricity", Bucket: "D1"},
		},
		History: []metrics.GenerationStats{{Generation: 0, Best: fitness}},
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	dir := t.TempDir()
	jsonl, err := NewJSONLStore(filepath.Join(dir, "runs", "runs.jsonl"), 1, 2, 1)
	require.NoError(t, err)
	sqlite, err := NewSQLiteStore(filepath.Join(dir, "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = jsonl.Close()
		_ = sqlite.Close()
	})
	return map[string]Store{"jsonl": jsonl, "sqlite": sqlite}
}

func TestStoresAppendAndQuery(t *testing.T) {
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			for i, id := range []string{"a", "b", "c"} {
				require.NoError(t, store.Append(ctx, record(id, base.Add(time.Duration(i)*time.Hour), float64(100-i))))
			}

			all, err := store.Query(ctx, Query{})
			require.NoError(t, err)
			require.Len(t, all, 3)
			assert.Equal(t, "a", all[0].RunID)
			assert.Equal(t, "c", all[2].RunID)
			assert.Equal(t, 2, all[0].Rows[0].Count)
			assert.Equal(t, 100.0, all[0].History[0].Best)

			one, err := store.Query(ctx, Query{RunID: "b"})
			require.NoError(t, err)
			require.Len(t, one, 1)
			assert.Equal(t, 99.0, one[0].Fitness)

			window, err := store.Query(ctx, Query{Start: base.Add(30 * time.Minute), End: base.Add(90 * time.Minute)})
			require.NoError(t, err)
			require.Len(t, window, 1)
			assert.Equal(t, "b", window[0].RunID)

			latest, err := store.Query(ctx, Query{Limit: 2})
			require.NoError(t, err)
			require.Len(t, latest, 2)
			assert.Equal(t, "b", latest[0].RunID)
			assert.Equal(t, "c", latest[1].RunID)
		})
	}
}

func TestJSONLStoreRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewJSONLStore(path, 1, 5, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	rec := record("big", time.Now(), 1)
	for i := 0; i < 5000; i++ {
		rec.Rows = append(rec.Rows, rec.Rows[0])
	}
	b, err := json.Marshal(rec)
	require.NoError(t, err)
	require.Greater(t, len(b), 1<<19)
	require.Less(t, len(b), 1<<20)
	// The second record no longer fits in the first file.
	const n = 2
	for i := 0; i < n; i++ {
		require.NoError(t, store.Append(context.Background(), rec))
	}
	files, _ := filepath.Glob(filepath.Join(filepath.Dir(path), "runs*.jsonl"))
	assert.Greater(t, len(files), 1, "expected rotated files")

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, out, n)
}

func TestJSONLStoreSkipsMalformedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.jsonl")
	store, err := NewJSONLStore(path, 1, 1, 1)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = store.logger.Write([]byte("not json\n"))
	require.NoError(t, err)
	require.NoError(t, store.Append(context.Background(), record("ok", time.Now(), 1)))

	out, err := store.Query(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "ok", out[0].RunID)
}

func TestFromOutcome(t *testing.T) {
	started := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p := plan.Plan{Years: []plan.YearPlan{{Year: 2023, Buy: []plan.Buy{{
		Holding: plan.Holding{VehicleID: "BEV_S1_2023", Fuel: "Electricity", Bucket: "D1"}, Count: 3,
	}}}}}
	out := search.Outcome{
		RunID:       "r1",
		Seed:        7,
		Best:        search.Individual{Plan: p, Result: evaluate.Result{Fitness: 12, Cost: 12}},
		Generations: 4,
		Evaluations: 90,
		Reason:      search.ReasonGenerations,
		Started:     started,
		Duration:    time.Minute,
		History:     []metrics.GenerationStats{{Generation: 0}, {Generation: 1}},
	}
	rec := FromOutcome(out)
	assert.Equal(t, "r1", rec.RunID)
	assert.Equal(t, started.Add(time.Minute), rec.Finished)
	assert.True(t, rec.Feasible)
	assert.Equal(t, 12.0, rec.Fitness)
	require.Len(t, rec.Rows, 1)
	assert.Equal(t, 3, rec.Rows[0].Count)
	assert.Len(t, rec.History, 2)
}

func TestConfig(t *testing.T) {
	var c Config
	c.SetDefaults()
	assert.Equal(t, BackendJSONL, c.Backend)
	assert.Equal(t, "runs.jsonl", c.Path)
	require.NoError(t, c.Validate())

	c = Config{Backend: BackendSQLite}
	c.SetDefaults()
	assert.Equal(t, "runs.db", c.Path)

	assert.Error(t, Config{Backend: "csv", Path: "x"}.Validate())
	assert.Error(t, Config{Backend: BackendJSONL}.Validate())
	assert.Error(t, Config{Backend: BackendJSONL, Path: "x", MaxBackups: -1}.Validate())
	assert.NoError(t, Config{Backend: BackendNone}.Validate())
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(Config{Backend: BackendSQLite, Path: filepath.Join(dir, "r.db")})
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, s)
	require.NoError(t, s.Close())

	s, err = Open(Config{Backend: BackendNone})
	require.NoError(t, err)
	assert.Nil(t, s)

	_, err = Open(Config{Backend: "bogus"})
	assert.Error(t, err)
}
