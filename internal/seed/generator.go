// Package seed generates a synthetic readings dataset that simulates
// monitoring stations across several cities.
package seed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/smukkama/city-analytics/internal/database"
)

// ZoneTypes are the zone types stations are placed in
var ZoneTypes = []string{"downtown", "residential", "industrial", "commercial", "mixed_use"}

// WeatherConditions are the conditions attached to readings
var WeatherConditions = []string{"clear", "cloudy", "rainy", "foggy"}

// zoneProfile scales the pollution and traffic of a zone type
var zoneProfile = map[string]struct{ pollution, traffic float64 }{
	"downtown":    {1.3, 1.5},
	"residential": {0.8, 0.6},
	"industrial":  {1.6, 0.9},
	"commercial":  {1.1, 1.2},
	"mixed_use":   {1.0, 1.0},
}

// Options sizes the generated dataset
type Options struct {
	Cities         []string
	SensorsPerZone int
	Days           int
	Interval       time.Duration
	// End is the last reading instant; readings go back Days from it
	End time.Time
	// InactiveRatio is the share of sensors not reporting as active
	InactiveRatio float64
	BatchSize     int
}

// DefaultOptions returns a small dataset ending at end
func DefaultOptions(end time.Time) Options {
	return Options{
		Cities:         []string{"Chennai", "Mumbai", "Delhi", "Bengaluru"},
		SensorsPerZone: 2,
		Days:           35,
		Interval:       time.Hour,
		End:            end,
		InactiveRatio:  0.1,
		BatchSize:      500,
	}
}

// Stats counts what Generate inserted
type Stats struct {
	Cities   int
	Zones    int
	Sensors  int
	Readings int
}

// Generator writes a synthetic dataset. It is deterministic for a given
// random source.
type Generator struct {
	db   *database.DB
	rng  *rand.Rand
	opts Options
	id   int64
}

// NewGenerator creates a generator writing to db
func NewGenerator(db *database.DB, rng *rand.Rand, opts Options) *Generator {
	if opts.Interval <= 0 {
		opts.Interval = time.Hour
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 500
	}
	return &Generator{db: db, rng: rng, opts: opts}
}

func (g *Generator) nextID() int64 {
	g.id++
	return g.id
}

type station struct {
	sensorID int64
	profile  struct{ pollution, traffic float64 }
}

// Generate inserts every city, zone, sensor and reading
func (g *Generator) Generate(ctx context.Context) (Stats, error) {
	var stats Stats
	var stations []station

	for _, name := range g.opts.Cities {
		city := &database.City{ID: g.nextID(), Name: name}
		if err := g.db.InsertCity(ctx, city); err != nil {
			return stats, err
		}
		stats.Cities++

		for _, zoneType := range ZoneTypes {
			zone := &database.Zone{
				ID:       g.nextID(),
				CityID:   city.ID,
				Name:     fmt.Sprintf("%s %s", name, zoneType),
				ZoneType: zoneType,
			}
			if err := g.db.InsertZone(ctx, zone); err != nil {
				return stats, err
			}
			stats.Zones++

			for i := 0; i < g.opts.SensorsPerZone; i++ {
				sensor := &database.Sensor{ID: g.nextID(), ZoneID: zone.ID, Status: g.status()}
				if err := g.db.InsertSensor(ctx, sensor); err != nil {
					return stats, err
				}
				stats.Sensors++
				stations = append(stations, station{sensorID: sensor.ID, profile: zoneProfile[zoneType]})
			}
		}
	}

	start := g.opts.End.Add(-time.Duration(g.opts.Days) * 24 * time.Hour)
	batch := make([]database.Reading, 0, g.opts.BatchSize)
	for ts := start; !ts.After(g.opts.End); ts = ts.Add(g.opts.Interval) {
		weather := WeatherConditions[g.rng.Intn(len(WeatherConditions))]
		for _, st := range stations {
			batch = append(batch, g.reading(st, ts, weather))
			if len(batch) == g.opts.BatchSize {
				if err := g.db.InsertReadings(ctx, batch); err != nil {
					return stats, err
				}
				stats.Readings += len(batch)
				batch = batch[:0]
			}
		}
	}
	if len(batch) > 0 {
		if err := g.db.InsertReadings(ctx, batch); err != nil {
			return stats, err
		}
		stats.Readings += len(batch)
	}

	return stats, nil
}

func (g *Generator) status() string {
	if g.rng.Float64() >= g.opts.InactiveRatio {
		return database.SensorStatusActive
	}
	if g.rng.Intn(2) == 0 {
		return database.SensorStatusInactive
	}
	return database.SensorStatusMaintenance
}

// reading simulates one measurement. Traffic peaks at the morning and
// evening rush hours and pollution follows traffic.
func (g *Generator) reading(st station, ts time.Time, weather string) database.Reading {
	hour := float64(ts.Hour())
	rush := math.Exp(-math.Pow(hour-8.5, 2)/4) + math.Exp(-math.Pow(hour-17.5, 2)/4)

	vehicles := int64((40 + 260*rush) * st.profile.traffic * (0.8 + 0.4*g.rng.Float64()))
	speed := math.Max(5, 55-30*rush*st.profile.traffic+g.rng.NormFloat64()*4)
	aqi := (45 + 90*rush) * st.profile.pollution * (0.85 + 0.3*g.rng.Float64())
	if weather == "rainy" {
		aqi *= 0.7
	}

	r := database.Reading{
		ID:               g.nextID(),
		SensorID:         st.sensorID,
		Timestamp:        ts,
		AQIValue:         ptr(round1(aqi)),
		PM25:             ptr(round1(aqi * 0.42)),
		VehicleCount:     &vehicles,
		AvgSpeedKmh:      ptr(round1(speed)),
		CO2PPM:           ptr(round1(410 + 0.6*float64(vehicles))),
		WeatherCondition: weather,
	}

	// occasional sensor dropouts leave gaps in single metrics
	if g.rng.Float64() < 0.02 {
		r.PM25 = nil
	}
	if g.rng.Float64() < 0.02 {
		r.AvgSpeedKmh = nil
	}
	return r
}

func ptr(v float64) *float64 {
	return &v
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
