package analytics

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/smukkama/city-analytics/internal/predicate"
)

// direction orders the ranked zone query
type direction string

const (
	ascending  direction = "ASC"
	descending direction = "DESC"
)

// queries renders every analytics query for one dialect
type queries struct {
	dialect predicate.Dialect
}

func (q queries) baseSummary(p predicate.Predicate) string {
	return fmt.Sprintf(`
		SELECT
			%s AS average_aqi,
			COALESCE(SUM(%s), 0) AS total_vehicles,
			COUNT(DISTINCT CASE WHEN %s = 'active' THEN %s END) AS active_sensors,
			COUNT(%s) AS data_points
		%s
		%s
	`,
		q.dialect.Round(avg(predicate.ColAQI)),
		predicate.ColVehicles,
		predicate.ColSensorStatus, predicate.ColSensorID,
		predicate.ColReadingID,
		predicate.From,
		p.Where(),
	)
}

func (q queries) metricAverage(p predicate.Predicate, column predicate.Column) string {
	return fmt.Sprintf(`
		SELECT %s AS avg_value
		%s
		%s
	`,
		q.dialect.Round(avg(column)),
		predicate.From,
		p.Where(positive(column)...),
	)
}

// rankedZone returns the single zone with the lowest (ascending) or
// highest (descending) average of column. Ties go to the zone whose name
// sorts first.
func (q queries) rankedZone(p predicate.Predicate, column predicate.Column, dir direction) string {
	return fmt.Sprintf(`
		SELECT %s AS zone_name, %s AS avg_value
		%s
		%s
		GROUP BY %s, %s
		HAVING COUNT(%s) > 0
		ORDER BY %s %s, %s ASC
		LIMIT 1
	`,
		predicate.ColZoneName, q.dialect.Round(avg(column)),
		predicate.From,
		p.Where(positive(column)...),
		predicate.ColZoneID, predicate.ColZoneName,
		predicate.ColReadingID,
		avg(column), dir, predicate.ColZoneName,
	)
}

func (q queries) chartSeries(p predicate.Predicate, column predicate.Column, bucket predicate.Bucket) string {
	return fmt.Sprintf(`
		SELECT %s AS bucket, %s AS value
		%s
		%s
		GROUP BY bucket
		ORDER BY bucket
		LIMIT %d
	`,
		q.dialect.Truncate(string(predicate.ColTimestamp), bucket),
		q.dialect.Round(avg(column)),
		predicate.From,
		p.Where(),
		MaxChartPoints,
	)
}

func avg(column predicate.Column) string {
	return fmt.Sprintf("AVG(%s)", column)
}

// positive excludes missing and non-positive readings of column
func positive(column predicate.Column) []string {
	return []string{
		fmt.Sprintf("%s IS NOT NULL", column),
		fmt.Sprintf("%s > 0", column),
	}
}

// runner executes queries, timing them and wrapping failures
type runner struct {
	db      Executor
	clock   clockwork.Clock
	observe QueryObserver
}

// get scans a single row. It reports false without error when the query
// returned no rows.
func (r runner) get(ctx context.Context, name string, dest any, query string, args []any) (bool, error) {
	start := r.clock.Now()
	err := r.db.GetContext(ctx, dest, compact(query), args...)
	if errors.Is(err, sql.ErrNoRows) {
		r.done(name, start, nil)
		return false, nil
	}
	r.done(name, start, err)
	if err != nil {
		return false, &StorageError{Query: name, Err: err}
	}
	return true, nil
}

func (r runner) selectAll(ctx context.Context, name string, dest any, query string, args []any) error {
	start := r.clock.Now()
	err := r.db.SelectContext(ctx, dest, compact(query), args...)
	r.done(name, start, err)
	if err != nil {
		return &StorageError{Query: name, Err: err}
	}
	return nil
}

func (r runner) done(name string, start time.Time, err error) {
	if r.observe != nil {
		r.observe(name, r.clock.Since(start), err)
	}
}

// compact strips the template indentation
func compact(query string) string {
	lines := strings.Split(strings.TrimSpace(query), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	return strings.Join(lines, "\n")
}
