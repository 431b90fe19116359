package analytics

import "github.com/smukkama/city-analytics/internal/predicate"

// averageField names the summary field a metric reports its overall
// average in. Metrics without one rely on the base averageAQI.
type averageField int

const (
	averageNone averageField = iota
	averagePM25
	averageVehicles
	averageSpeed
)

// Metric describes how a primary metric is summarized and charted
type Metric struct {
	Name string
	// Ranked is the column zones are ranked by in the summary
	Ranked predicate.Column
	// Charted is the column averaged per time bucket
	Charted predicate.Column
	// HigherIsBetter flips the best/worst ordering
	HigherIsBetter bool

	average averageField
}

var defaultMetric = Metric{
	Name:    "aqi",
	Ranked:  predicate.ColAQI,
	Charted: predicate.ColAQI,
}

var metrics = map[string]Metric{
	"aqi": defaultMetric,
	"pm25": {
		Name:    "pm25",
		Ranked:  predicate.ColPM25,
		Charted: predicate.ColPM25,
		average: averagePM25,
	},
	"traffic": {
		Name:    "traffic",
		Ranked:  predicate.ColVehicles,
		Charted: predicate.ColVehicles,
		average: averageVehicles,
	},
	// Higher speed means less congestion
	"congestion": {
		Name:           "congestion",
		Ranked:         predicate.ColSpeed,
		Charted:        predicate.ColSpeed,
		HigherIsBetter: true,
		average:        averageSpeed,
	},
	// Emissions are charted from co2_ppm but summarized like aqi
	"emissions": {
		Name:    "emissions",
		Ranked:  predicate.ColAQI,
		Charted: predicate.ColCO2,
	},
}

// MetricFor returns the variant for a metric name. Unrecognized names
// behave like aqi.
func MetricFor(name string) Metric {
	if m, ok := metrics[name]; ok {
		return m
	}
	return defaultMetric
}

// HasAverage reports whether the metric fills a dedicated average field
func (m Metric) HasAverage() bool {
	return m.average != averageNone
}
