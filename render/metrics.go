package render

import (
	"context"
	"sync"
	"time"

	"go.opencensus.io/stats"
	"go.opencensus.io/stats/view"
	"go.opencensus.io/tag"
)

var (
	rowsRendered = stats.Int64("glint/rows", "Rows finished by the render scheduler", stats.UnitDimensionless)
	rowLatency   = stats.Float64("glint/row_latency", "Wall time spent rendering one row", stats.UnitMilliseconds)

	statusKey = tag.MustNewKey("status")

	rowsRenderedView = &view.View{
		Name:        "glint/rows",
		Description: "Counter of rows that have been rendered, by status",
		TagKeys:     []tag.Key{statusKey},
		Measure:     rowsRendered,
		Aggregation: view.Count(),
	}

	rowLatencyView = &view.View{
		Name:        "glint/row_latency",
		Description: "Distribution of per-row render latency",
		TagKeys:     []tag.Key{statusKey},
		Measure:     rowLatency,
		Aggregation: view.Distribution(0, 1, 2, 5, 10, 20, 50, 100, 200, 500, 1000, 2000, 5000),
	}

	registerOnce sync.Once
	registerErr  error
)

// RegisterMetrics registers the scheduler's views with OpenCensus.  Safe to
// call more than once.
func RegisterMetrics() error {
	registerOnce.Do(func() {
		registerErr = view.Register(rowsRenderedView, rowLatencyView)
	})
	return registerErr
}

func recordRow(ctx context.Context, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}

	stats.RecordWithOptions(
		ctx,
		stats.WithTags(tag.Insert(statusKey, status)),
		stats.WithMeasurements(
			rowsRendered.M(1),
			rowLatency.M(float64(time.Since(start))/float64(time.Millisecond)),
		))
}
