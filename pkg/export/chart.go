package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/fleetplan/core/metrics"
)

// ConvergenceChart renders an HTML line chart of the best and mean fitness
// per generation.
func ConvergenceChart(w io.Writer, history []metrics.GenerationStats) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Search convergence"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Generation"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Fitness"}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
	)

	xAxis := make([]string, 0, len(history))
	best := make([]opts.LineData, 0, len(history))
	mean := make([]opts.LineData, 0, len(history))
	for _, st := range history {
		xAxis = append(xAxis, strconv.Itoa(st.Generation))
		best = append(best, opts.LineData{Value: st.Best})
		mean = append(mean, opts.LineData{Value: st.Mean})
	}
	line.SetXAxis(xAxis).
		AddSeries("Best", best).
		AddSeries("Mean", mean)

	if err := line.Render(w); err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	return nil
}
