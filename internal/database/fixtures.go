package database

import (
	"context"
	_ "embed"
	"fmt"
	"time"
)

//go:embed schema_sqlite.sql
var sqliteSchema string

const sqliteTimeLayout = "2006-01-02 15:04:05"

// EnsureSQLiteSchema creates the readings schema in an embedded SQLite
// store used for local runs and tests. Production Postgres schemas are
// managed outside this service.
func (db *DB) EnsureSQLiteSchema(ctx context.Context) error {
	if db.Dialect.Name() != "sqlite3" {
		return fmt.Errorf("schema bootstrap is only supported for sqlite3, got %s", db.Dialect.Name())
	}
	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create sqlite schema: %w", err)
	}
	return nil
}

// InsertCity inserts a city
func (db *DB) InsertCity(ctx context.Context, c *City) error {
	_, err := db.NamedExecContext(ctx,
		`INSERT INTO cities (city_id, name) VALUES (:city_id, :name)`, c)
	if err != nil {
		return fmt.Errorf("failed to insert city %s: %w", c.Name, err)
	}
	return nil
}

// InsertZone inserts a zone
func (db *DB) InsertZone(ctx context.Context, z *Zone) error {
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO zones (zone_id, city_id, name, zone_type)
		VALUES (:zone_id, :city_id, :name, :zone_type)`, z)
	if err != nil {
		return fmt.Errorf("failed to insert zone %s: %w", z.Name, err)
	}
	return nil
}

// InsertSensor inserts a sensor
func (db *DB) InsertSensor(ctx context.Context, s *Sensor) error {
	_, err := db.NamedExecContext(ctx, `
		INSERT INTO sensors (sensor_id, zone_id, status)
		VALUES (:sensor_id, :zone_id, :status)`, s)
	if err != nil {
		return fmt.Errorf("failed to insert sensor %d: %w", s.ID, err)
	}
	return nil
}

// InsertReadings inserts readings in a single transaction
func (db *DB) InsertReadings(ctx context.Context, readings []Reading) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	query := `
		INSERT INTO readings (
			reading_id, sensor_id, timestamp, aqi_value, pm25,
			vehicle_count, avg_speed_kmh, co2_ppm, weather_condition
		) VALUES (
			:reading_id, :sensor_id, :timestamp, :aqi_value, :pm25,
			:vehicle_count, :avg_speed_kmh, :co2_ppm, :weather_condition
		)`

	for _, r := range readings {
		_, err := tx.NamedExecContext(ctx, query, map[string]any{
			"reading_id":        r.ID,
			"sensor_id":         r.SensorID,
			"timestamp":         db.timestampArg(r.Timestamp),
			"aqi_value":         r.AQIValue,
			"pm25":              r.PM25,
			"vehicle_count":     r.VehicleCount,
			"avg_speed_kmh":     r.AvgSpeedKmh,
			"co2_ppm":           r.CO2PPM,
			"weather_condition": r.WeatherCondition,
		})
		if err != nil {
			return fmt.Errorf("failed to insert reading %d: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// timestampArg stores SQLite timestamps as sortable UTC text
func (db *DB) timestampArg(t time.Time) any {
	if db.Dialect.Name() == "sqlite3" {
		return t.UTC().Format(sqliteTimeLayout)
	}
	return t
}
