package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/smukkama/city-analytics/internal/predicate"
)

func TestMetricFor(t *testing.T) {
	tests := []struct {
		name           string
		ranked         predicate.Column
		charted        predicate.Column
		higherIsBetter bool
		hasAverage     bool
	}{
		{"aqi", predicate.ColAQI, predicate.ColAQI, false, false},
		{"pm25", predicate.ColPM25, predicate.ColPM25, false, true},
		{"traffic", predicate.ColVehicles, predicate.ColVehicles, false, true},
		{"congestion", predicate.ColSpeed, predicate.ColSpeed, true, true},
		{"emissions", predicate.ColAQI, predicate.ColCO2, false, false},
		{"unknown", predicate.ColAQI, predicate.ColAQI, false, false},
		{"", predicate.ColAQI, predicate.ColAQI, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := MetricFor(tt.name)
			assert.Equal(t, tt.ranked, m.Ranked)
			assert.Equal(t, tt.charted, m.Charted)
			assert.Equal(t, tt.higherIsBetter, m.HigherIsBetter)
			assert.Equal(t, tt.hasAverage, m.HasAverage())
		})
	}
}

func TestBucketFor(t *testing.T) {
	assert.Equal(t, predicate.BucketHour, BucketFor("1d"))
	assert.Equal(t, predicate.BucketDay, BucketFor("7d"))
	assert.Equal(t, predicate.BucketDay, BucketFor("30d"))
	assert.Equal(t, predicate.BucketWeek, BucketFor("90d"))
	assert.Equal(t, predicate.BucketHour, BucketFor("2w"))
}

func TestRankedZoneQuery_Direction(t *testing.T) {
	q := queries{dialect: predicate.Postgres{}}
	p := predicate.NewBuilder(predicate.Postgres{}).Build(normalized(nil), reference)

	asc := q.rankedZone(p, predicate.ColSpeed, ascending)
	desc := q.rankedZone(p, predicate.ColSpeed, descending)

	assert.Contains(t, asc, "ORDER BY AVG(r.avg_speed_kmh) ASC, z.name ASC")
	assert.Contains(t, desc, "ORDER BY AVG(r.avg_speed_kmh) DESC, z.name ASC")
	assert.Contains(t, asc, "r.avg_speed_kmh IS NOT NULL")
	assert.Contains(t, asc, "r.avg_speed_kmh > 0")
	assert.Contains(t, asc, "HAVING COUNT(r.reading_id) > 0")
	assert.Contains(t, asc, "LIMIT 1")
}

func TestChartQuery_PostgresRendering(t *testing.T) {
	q := queries{dialect: predicate.Postgres{}}
	p := predicate.NewBuilder(predicate.Postgres{}).Build(normalized(nil), reference)

	sql := q.chartSeries(p, predicate.ColCO2, predicate.BucketWeek)

	assert.Contains(t, sql, "DATE_TRUNC('week', r.timestamp) AS bucket")
	assert.Contains(t, sql, "ROUND((AVG(r.co2_ppm))::numeric, 1) AS value")
	assert.Contains(t, sql, "ORDER BY bucket")
	assert.Contains(t, sql, "LIMIT 100")
}
