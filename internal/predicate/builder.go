package predicate

import (
	"fmt"
	"strings"
	"time"

	"github.com/smukkama/city-analytics/internal/filters"
)

// RangeDays maps a time range filter to its look-back window in days.
// Unrecognized ranges use DefaultRangeDays.
var RangeDays = map[string]int{
	"1d":  1,
	"7d":  7,
	"30d": 30,
}

const DefaultRangeDays = 7

// HourRange is an inclusive hour-of-day interval
type HourRange struct {
	From int
	To   int
}

// DailyPatterns maps a daily pattern filter to the hours it covers.
// Bounds are inclusive, so hour 10 belongs to both morning and midday
// and hour 16 to both midday and evening. Unrecognized patterns add no
// condition.
var DailyPatterns = map[string][]HourRange{
	"morning": {{7, 10}},
	"midday":  {{10, 16}},
	"evening": {{16, 19}},
	"night":   {{20, 23}, {0, 6}},
}

// Predicate is an ordered list of SQL conditions plus the positional
// parameters they reference. The Nth parameter binds placeholder N.
// A Predicate is immutable and may be reused across queries.
type Predicate struct {
	conditions []string
	args       []any
}

// Conditions returns a copy of the condition fragments in order
func (p Predicate) Conditions() []string {
	out := make([]string, len(p.conditions))
	copy(out, p.conditions)
	return out
}

// Args returns a copy of the bound parameter values in placeholder order
func (p Predicate) Args() []any {
	out := make([]any, len(p.args))
	copy(out, p.args)
	return out
}

// Where renders the WHERE clause. Extra conditions must be literal
// fragments without placeholders so the argument list stays valid.
func (p Predicate) Where(extra ...string) string {
	all := make([]string, 0, len(p.conditions)+len(extra))
	all = append(all, p.conditions...)
	all = append(all, extra...)
	if len(all) == 0 {
		return "WHERE 1=1"
	}
	return "WHERE " + strings.Join(all, "\n  AND ")
}

// Builder converts canonical filters into a Predicate
type Builder struct {
	dialect Dialect
}

// NewBuilder creates a predicate builder for the given dialect
func NewBuilder(dialect Dialect) *Builder {
	return &Builder{dialect: dialect}
}

// Dialect returns the dialect predicates are rendered in
func (b *Builder) Dialect() Dialect {
	return b.dialect
}

// Build assembles the predicate for f. The time window ends at reference,
// which is supplied by configuration rather than the wall clock.
func (b *Builder) Build(f filters.Filters, reference time.Time) Predicate {
	acc := &accumulator{dialect: b.dialect}

	if f.HasCity() {
		acc.equal(ColCityName, f.City)
	}
	if f.Zone != filters.All {
		acc.equal(ColZoneType, f.Zone)
	}
	if f.SensorStatus != filters.All {
		acc.equal(ColSensorStatus, f.SensorStatus)
	}
	if f.Weather != filters.All {
		acc.equal(ColWeather, f.Weather)
	}

	acc.literal(b.dialect.Since(string(ColTimestamp), reference, WindowDays(f.TimeRange)))

	if f.DailyPattern != filters.All {
		if ranges, ok := DailyPatterns[f.DailyPattern]; ok {
			acc.literal(b.hourCondition(ranges))
		}
	}

	return Predicate{conditions: acc.conditions, args: acc.args}
}

func (b *Builder) hourCondition(ranges []HourRange) string {
	hour := b.dialect.Hour(string(ColTimestamp))
	parts := make([]string, len(ranges))
	for i, r := range ranges {
		parts[i] = fmt.Sprintf("%s BETWEEN %d AND %d", hour, r.From, r.To)
	}
	if len(parts) == 1 {
		return parts[0]
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}

// WindowDays returns the look-back window for a time range filter
func WindowDays(timeRange string) int {
	if days, ok := RangeDays[timeRange]; ok {
		return days
	}
	return DefaultRangeDays
}

// accumulator appends a condition and its parameter together so the
// placeholder index is always derived from the argument count.
type accumulator struct {
	dialect    Dialect
	conditions []string
	args       []any
}

func (a *accumulator) equal(column Column, value string) {
	a.args = append(a.args, value)
	a.conditions = append(a.conditions,
		fmt.Sprintf("%s = %s", column, a.dialect.Placeholder(len(a.args))))
}

func (a *accumulator) literal(condition string) {
	a.conditions = append(a.conditions, condition)
}
