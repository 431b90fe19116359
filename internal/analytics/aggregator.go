package analytics

import (
	"context"
	"database/sql"

	"golang.org/x/sync/errgroup"

	"github.com/smukkama/city-analytics/internal/predicate"
)

type baseRow struct {
	AverageAQI    sql.NullFloat64 `db:"average_aqi"`
	TotalVehicles sql.NullInt64   `db:"total_vehicles"`
	ActiveSensors sql.NullInt64   `db:"active_sensors"`
	DataPoints    sql.NullInt64   `db:"data_points"`
}

type averageRow struct {
	Value sql.NullFloat64 `db:"avg_value"`
}

type zoneRow struct {
	Name  sql.NullString  `db:"zone_name"`
	Value sql.NullFloat64 `db:"avg_value"`
}

// Aggregator computes the metric summary for a predicate
type Aggregator struct {
	run     runner
	queries queries
}

// Summarize runs the base summary and the metric-specific queries
// concurrently. Any failed query fails the whole summary.
func (a *Aggregator) Summarize(ctx context.Context, p predicate.Predicate, metricName string) (*Summary, error) {
	metric := MetricFor(metricName)
	args := p.Args()

	var (
		base            baseRow
		average         averageRow
		best, worst     zoneRow
		bestOK, worstOK bool
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		_, err := a.run.get(ctx, QueryBaseSummary, &base, a.queries.baseSummary(p), args)
		return err
	})

	if metric.HasAverage() {
		g.Go(func() error {
			_, err := a.run.get(ctx, QueryMetricAverage, &average, a.queries.metricAverage(p, metric.Ranked), args)
			return err
		})
	}

	bestDir, worstDir := ascending, descending
	if metric.HigherIsBetter {
		bestDir, worstDir = descending, ascending
	}

	g.Go(func() error {
		var err error
		bestOK, err = a.run.get(ctx, QueryBestZone, &best, a.queries.rankedZone(p, metric.Ranked, bestDir), args)
		return err
	})
	g.Go(func() error {
		var err error
		worstOK, err = a.run.get(ctx, QueryWorstZone, &worst, a.queries.rankedZone(p, metric.Ranked, worstDir), args)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := &Summary{
		AverageAQI:    base.AverageAQI.Float64,
		TotalVehicles: base.TotalVehicles.Int64,
		ActiveSensors: base.ActiveSensors.Int64,
		DataPoints:    base.DataPoints.Int64,
	}

	summary.BestZone, summary.BestZoneValue = zoneOrDefault(best, bestOK)
	summary.WorstZone, summary.WorstZoneValue = zoneOrDefault(worst, worstOK)

	value := average.Value.Float64
	switch metric.average {
	case averagePM25:
		summary.PM25Value = &value
	case averageVehicles:
		summary.AvgVehicles = &value
	case averageSpeed:
		summary.AvgSpeed = &value
	}

	return summary, nil
}

func zoneOrDefault(row zoneRow, found bool) (string, float64) {
	if !found || !row.Name.Valid || row.Name.String == "" {
		return NoData, 0
	}
	return row.Name.String, row.Value.Float64
}
