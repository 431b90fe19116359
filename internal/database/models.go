package database

import (
	"time"
)

// City is a monitored city
type City struct {
	ID   int64  `db:"city_id"`
	Name string `db:"name"`
}

// Zone is a district of a city with a zone type
// (downtown, residential, industrial, commercial, mixed_use)
type Zone struct {
	ID       int64  `db:"zone_id"`
	CityID   int64  `db:"city_id"`
	Name     string `db:"name"`
	ZoneType string `db:"zone_type"`
}

// Sensor is a monitoring station placed in a zone
type Sensor struct {
	ID     int64  `db:"sensor_id"`
	ZoneID int64  `db:"zone_id"`
	Status string `db:"status"`
}

// Reading is one environmental and traffic measurement
type Reading struct {
	ID               int64     `db:"reading_id"`
	SensorID         int64     `db:"sensor_id"`
	Timestamp        time.Time `db:"timestamp"`
	AQIValue         *float64  `db:"aqi_value"`
	PM25             *float64  `db:"pm25"`
	VehicleCount     *int64    `db:"vehicle_count"`
	AvgSpeedKmh      *float64  `db:"avg_speed_kmh"`
	CO2PPM           *float64  `db:"co2_ppm"`
	WeatherCondition string    `db:"weather_condition"`
}

// Sensor statuses
const (
	SensorStatusActive      = "active"
	SensorStatusInactive    = "inactive"
	SensorStatusMaintenance = "maintenance"
)
