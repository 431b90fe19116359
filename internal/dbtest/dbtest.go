// Package dbtest provides a seeded SQLite readings store for tests.
package dbtest

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/smukkama/city-analytics/internal/database"
)

// Open creates an empty readings store in a temporary directory
func Open(t *testing.T) *database.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "readings.db")
	db, err := database.Connect(context.Background(), "sqlite3",
		path+"?_busy_timeout=5000&_foreign_keys=ON", database.PoolConfig{MaxOpenConns: 4})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.EnsureSQLiteSchema(context.Background()); err != nil {
		t.Fatalf("create schema: %v", err)
	}
	return db
}

// Ptr returns a pointer to v
func Ptr[T any](v T) *T {
	return &v
}

// Fixture seeds cities, zones, sensors and readings with generated ids
type Fixture struct {
	t      *testing.T
	DB     *database.DB
	nextID int64
}

// NewFixture opens a fresh store and returns a seeder for it
func NewFixture(t *testing.T) *Fixture {
	t.Helper()
	return &Fixture{t: t, DB: Open(t)}
}

func (f *Fixture) id() int64 {
	f.nextID++
	return f.nextID
}

// City inserts a city and returns its id
func (f *Fixture) City(name string) int64 {
	f.t.Helper()
	c := &database.City{ID: f.id(), Name: name}
	if err := f.DB.InsertCity(context.Background(), c); err != nil {
		f.t.Fatal(err)
	}
	return c.ID
}

// Zone inserts a zone and returns its id
func (f *Fixture) Zone(cityID int64, name, zoneType string) int64 {
	f.t.Helper()
	z := &database.Zone{ID: f.id(), CityID: cityID, Name: name, ZoneType: zoneType}
	if err := f.DB.InsertZone(context.Background(), z); err != nil {
		f.t.Fatal(err)
	}
	return z.ID
}

// Sensor inserts a sensor and returns its id
func (f *Fixture) Sensor(zoneID int64, status string) int64 {
	f.t.Helper()
	s := &database.Sensor{ID: f.id(), ZoneID: zoneID, Status: status}
	if err := f.DB.InsertSensor(context.Background(), s); err != nil {
		f.t.Fatal(err)
	}
	return s.ID
}

// Readings inserts readings, assigning ids to those without one
func (f *Fixture) Readings(readings ...database.Reading) {
	f.t.Helper()
	for i := range readings {
		if readings[i].ID == 0 {
			readings[i].ID = f.id()
		}
		if readings[i].WeatherCondition == "" {
			readings[i].WeatherCondition = "clear"
		}
	}
	if err := f.DB.InsertReadings(context.Background(), readings); err != nil {
		f.t.Fatal(err)
	}
}

// At returns a UTC instant on the given day and hour
func At(year int, month time.Month, day, hour int) time.Time {
	return time.Date(year, month, day, hour, 0, 0, 0, time.UTC)
}
