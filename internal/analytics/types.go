package analytics

import (
	"context"
	"fmt"
	"time"
)

// NoData is reported as the zone name when no zone qualifies
const NoData = "No data"

// MaxChartPoints caps the number of buckets in a series
const MaxChartPoints = 100

// Executor runs a query template with ordered parameters.
// *sqlx.DB satisfies it.
type Executor interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
}

// QueryObserver is notified after every storage query
type QueryObserver func(query string, elapsed time.Duration, err error)

// Summary is the metric-dependent dashboard summary. Average fields that
// do not apply to the selected metric are nil and omitted from JSON.
type Summary struct {
	AverageAQI    float64 `json:"averageAQI"`
	TotalVehicles int64   `json:"totalVehicles"`
	ActiveSensors int64   `json:"activeSensors"`
	DataPoints    int64   `json:"dataPoints"`

	PM25Value   *float64 `json:"pm25Value,omitempty"`
	AvgVehicles *float64 `json:"avgVehicles,omitempty"`
	AvgSpeed    *float64 `json:"avgSpeed,omitempty"`

	BestZone       string  `json:"bestZone"`
	BestZoneValue  float64 `json:"bestZoneValue"`
	WorstZone      string  `json:"worstZone"`
	WorstZoneValue float64 `json:"worstZoneValue"`
}

// ChartPoint is the rounded average of one time bucket
type ChartPoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// Alert types and severities
const (
	AlertTypePollution = "pollution"
	AlertTypeSensors   = "sensors"

	SeverityWarning  = "warning"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// Alert is a threshold breach derived from a summary
type Alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// Response is the payload returned for one analytics request
type Response struct {
	Summary    *Summary     `json:"summary"`
	ChartsData []ChartPoint `json:"chartsData"`
	Alerts     []Alert      `json:"alerts"`
}

// Query names used in errors and observations
const (
	QueryBaseSummary   = "base_summary"
	QueryMetricAverage = "metric_average"
	QueryBestZone      = "best_zone"
	QueryWorstZone     = "worst_zone"
	QueryChartSeries   = "chart_series"
)

// StorageError reports a failed or timed-out storage query
type StorageError struct {
	Query string
	Err   error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("failed to run %s query: %v", e.Query, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}
