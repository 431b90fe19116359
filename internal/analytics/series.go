package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/smukkama/city-analytics/internal/predicate"
)

// bucketTimeLayouts are the text forms a truncated timestamp may come
// back as when the driver does not return time.Time
var bucketTimeLayouts = []string{
	"2006-01-02 15:04:05",
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02",
}

// bucketTime scans a bucket start from either a timestamp or its text form
type bucketTime struct {
	t time.Time
}

func (b *bucketTime) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		b.t = v.UTC()
		return nil
	case string:
		return b.parse(v)
	case []byte:
		return b.parse(string(v))
	case nil:
		b.t = time.Time{}
		return nil
	default:
		return fmt.Errorf("unsupported bucket type %T", src)
	}
}

func (b *bucketTime) parse(s string) error {
	for _, layout := range bucketTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			b.t = t.UTC()
			return nil
		}
	}
	return fmt.Errorf("invalid bucket timestamp: %q", s)
}

type seriesRow struct {
	Bucket bucketTime      `db:"bucket"`
	Value  sql.NullFloat64 `db:"value"`
}

// BucketFor selects the chart granularity for a time range.
// 90d is honored even though callers do not offer it today.
func BucketFor(timeRange string) predicate.Bucket {
	switch timeRange {
	case "7d", "30d":
		return predicate.BucketDay
	case "90d":
		return predicate.BucketWeek
	default:
		return predicate.BucketHour
	}
}

// Bucketer produces the chart series for a predicate
type Bucketer struct {
	run     runner
	queries queries
}

// Series returns at most MaxChartPoints bucket averages in ascending
// time order. The result is never nil.
func (b *Bucketer) Series(ctx context.Context, p predicate.Predicate, timeRange, metricName string) ([]ChartPoint, error) {
	metric := MetricFor(metricName)
	query := b.queries.chartSeries(p, metric.Charted, BucketFor(timeRange))

	var rows []seriesRow
	if err := b.run.selectAll(ctx, QueryChartSeries, &rows, query, p.Args()); err != nil {
		return nil, err
	}

	if len(rows) > MaxChartPoints {
		rows = rows[:MaxChartPoints]
	}

	points := make([]ChartPoint, 0, len(rows))
	for _, row := range rows {
		points = append(points, ChartPoint{
			Time:  row.Bucket.t,
			Value: row.Value.Float64,
		})
	}
	return points, nil
}
