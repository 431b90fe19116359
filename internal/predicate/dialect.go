package predicate

import (
	"fmt"
	"time"
)

// Bucket is a fixed-width time interval used to group readings
type Bucket string

const (
	BucketHour Bucket = "hour"
	BucketDay  Bucket = "day"
	BucketWeek Bucket = "week"
)

const literalTimeLayout = "2006-01-02 15:04:05"

// Dialect renders the backend-specific parts of a query.
// Every method receives only values produced by this package or by
// closed lookup tables, never raw caller input.
type Dialect interface {
	Name() string
	// Placeholder returns the 1-indexed positional parameter marker
	Placeholder(n int) string
	// Since renders "column >= reference - days"
	Since(column string, reference time.Time, days int) string
	// Hour renders the hour-of-day (0-23) of a timestamp column
	Hour(column string) string
	// Round renders expr rounded to one decimal place
	Round(expr string) string
	// Truncate renders a timestamp column truncated to the bucket start
	Truncate(column string, bucket Bucket) string
}

// Postgres is the production dialect
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func (Postgres) Since(column string, reference time.Time, days int) string {
	return fmt.Sprintf("%s >= TIMESTAMP '%s' - INTERVAL '%d days'",
		column, reference.UTC().Format(literalTimeLayout), days)
}

func (Postgres) Hour(column string) string {
	return fmt.Sprintf("EXTRACT(HOUR FROM %s)", column)
}

func (Postgres) Round(expr string) string {
	return fmt.Sprintf("ROUND((%s)::numeric, 1)", expr)
}

func (Postgres) Truncate(column string, bucket Bucket) string {
	return fmt.Sprintf("DATE_TRUNC('%s', %s)", bucket, column)
}

// SQLite stores timestamps as "YYYY-MM-DD HH:MM:SS" text
type SQLite struct{}

func (SQLite) Name() string { return "sqlite3" }

func (SQLite) Placeholder(n int) string {
	return fmt.Sprintf("?%d", n)
}

func (SQLite) Since(column string, reference time.Time, days int) string {
	return fmt.Sprintf("%s >= datetime('%s', '-%d days')",
		column, reference.UTC().Format(literalTimeLayout), days)
}

func (SQLite) Hour(column string) string {
	return fmt.Sprintf("CAST(strftime('%%H', %s) AS INTEGER)", column)
}

func (SQLite) Round(expr string) string {
	return fmt.Sprintf("ROUND(%s, 1)", expr)
}

func (SQLite) Truncate(column string, bucket Bucket) string {
	switch bucket {
	case BucketDay:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d 00:00:00', %s)", column)
	case BucketWeek:
		// Monday of the ISO week, matching DATE_TRUNC('week', ...)
		return fmt.Sprintf("strftime('%%Y-%%m-%%d 00:00:00', %s, 'weekday 0', '-6 days')", column)
	default:
		return fmt.Sprintf("strftime('%%Y-%%m-%%d %%H:00:00', %s)", column)
	}
}

// DialectFor maps a database/sql driver name to its dialect
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres":
		return Postgres{}, nil
	case "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", driver)
	}
}
