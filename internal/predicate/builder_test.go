package predicate

import (
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smukkama/city-analytics/internal/filters"
)

var reference = time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)

func build(raw filters.Raw) Predicate {
	return NewBuilder(Postgres{}).Build(filters.Normalize(raw), reference)
}

func TestBuild_DefaultsOnlyTimeWindow(t *testing.T) {
	p := build(filters.Raw{})

	assert.Empty(t, p.Args())
	assert.Equal(t, []string{
		"r.timestamp >= TIMESTAMP '2025-09-01 00:00:00' - INTERVAL '7 days'",
	}, p.Conditions())
}

func TestBuild_ClauseOrderAndPlaceholders(t *testing.T) {
	p := build(filters.Raw{
		filters.KeyWeather:      "rainy",
		filters.KeySensorStatus: "active",
		filters.KeyZone:         "downtown",
		filters.KeyCity:         " Chennai ",
		filters.KeyTimeRange:    "30d",
		filters.KeyDailyPattern: "morning",
	})

	want := []string{
		"LOWER(c.name) = $1",
		"z.zone_type = $2",
		"s.status = $3",
		"r.weather_condition = $4",
		"r.timestamp >= TIMESTAMP '2025-09-01 00:00:00' - INTERVAL '30 days'",
		"EXTRACT(HOUR FROM r.timestamp) BETWEEN 7 AND 10",
	}
	if diff := cmp.Diff(want, p.Conditions()); diff != "" {
		t.Errorf("conditions mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []any{"chennai", "downtown", "active", "rainy"}, p.Args())
}

func TestBuild_ArgsMatchEqualityClauses(t *testing.T) {
	tests := []struct {
		name string
		raw  filters.Raw
		want int
	}{
		{"none", filters.Raw{}, 0},
		{"city only", filters.Raw{filters.KeyCity: "pune"}, 1},
		{"zone and weather", filters.Raw{filters.KeyZone: "industrial", filters.KeyWeather: "clear"}, 2},
		{"status only", filters.Raw{filters.KeySensorStatus: "inactive"}, 1},
		{"all four", filters.Raw{
			filters.KeyCity: "pune", filters.KeyZone: "industrial",
			filters.KeySensorStatus: "active", filters.KeyWeather: "clear",
		}, 4},
		{"pattern and range add nothing", filters.Raw{
			filters.KeyDailyPattern: "night", filters.KeyTimeRange: "1d", filters.KeySeason: "summer",
		}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := build(tt.raw)
			require.Len(t, p.Args(), tt.want)

			// every placeholder $N must bind args[N-1]
			for n := 1; n <= tt.want; n++ {
				assert.Contains(t, strings.Join(p.Conditions(), " "), Postgres{}.Placeholder(n))
			}
			assert.NotContains(t, strings.Join(p.Conditions(), " "), Postgres{}.Placeholder(tt.want+1))
		})
	}
}

func TestBuild_AliasesBindCanonicalValues(t *testing.T) {
	p := build(filters.Raw{filters.KeyZone: "mixed", filters.KeyWeather: "sunny"})

	assert.Equal(t, []any{"mixed_use", "clear"}, p.Args())
	assert.NotContains(t, p.Args(), "mixed")
	assert.NotContains(t, p.Args(), "sunny")
}

func TestBuild_UnknownValues(t *testing.T) {
	p := build(filters.Raw{
		filters.KeyZone:         "volcano",
		filters.KeyTimeRange:    "90d",
		filters.KeyDailyPattern: "dawn",
	})

	// unknown zone still becomes a (non-matching) equality
	assert.Equal(t, []any{"volcano"}, p.Args())
	// unknown range falls back to seven days, unknown pattern adds nothing
	assert.Equal(t, []string{
		"z.zone_type = $1",
		"r.timestamp >= TIMESTAMP '2025-09-01 00:00:00' - INTERVAL '7 days'",
	}, p.Conditions())
}

func TestBuild_NightSpansMidnight(t *testing.T) {
	p := build(filters.Raw{filters.KeyDailyPattern: "night"})

	conds := p.Conditions()
	require.Len(t, conds, 2)
	assert.Equal(t,
		"(EXTRACT(HOUR FROM r.timestamp) BETWEEN 20 AND 23 OR EXTRACT(HOUR FROM r.timestamp) BETWEEN 0 AND 6)",
		conds[1])
}

func TestDailyPatterns_OverlappingBoundaries(t *testing.T) {
	claimedBy := func(hour int) []string {
		var names []string
		for _, name := range []string{"morning", "midday", "evening", "night"} {
			for _, r := range DailyPatterns[name] {
				if hour >= r.From && hour <= r.To {
					names = append(names, name)
				}
			}
		}
		return names
	}

	assert.Equal(t, []string{"morning", "midday"}, claimedBy(10))
	assert.Equal(t, []string{"midday", "evening"}, claimedBy(16))
	assert.Equal(t, []string{"evening"}, claimedBy(19))
	assert.Equal(t, []string{"morning"}, claimedBy(7))
	assert.Equal(t, []string{"night"}, claimedBy(0))
}

func TestBuild_ReusablePredicate(t *testing.T) {
	p := build(filters.Raw{filters.KeyCity: "pune"})

	first := p.Where("r.pm25 > 0")
	second := p.Where()
	third := p.Where("r.pm25 > 0")

	assert.Equal(t, first, third)
	assert.NotContains(t, second, "pm25")

	args := p.Args()
	args[0] = "mutated"
	assert.Equal(t, []any{"pune"}, p.Args())
}

func TestBuild_SQLiteDialect(t *testing.T) {
	p := NewBuilder(SQLite{}).Build(filters.Normalize(filters.Raw{
		filters.KeyCity:         "pune",
		filters.KeyTimeRange:    "1d",
		filters.KeyDailyPattern: "evening",
	}), reference)

	assert.Equal(t, []string{
		"LOWER(c.name) = ?1",
		"r.timestamp >= datetime('2025-09-01 00:00:00', '-1 days')",
		"CAST(strftime('%H', r.timestamp) AS INTEGER) BETWEEN 16 AND 19",
	}, p.Conditions())
}

func TestWhere_Empty(t *testing.T) {
	assert.Equal(t, "WHERE 1=1", Predicate{}.Where())
}

func TestDialectFor(t *testing.T) {
	d, err := DialectFor("postgres")
	require.NoError(t, err)
	assert.Equal(t, "postgres", d.Name())

	d, err = DialectFor("sqlite3")
	require.NoError(t, err)
	assert.Equal(t, "sqlite3", d.Name())

	_, err = DialectFor("mysql")
	assert.Error(t, err)
}
