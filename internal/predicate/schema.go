package predicate

// Column is a qualified column reference in the readings join.
// Columns are only ever taken from the constants below.
type Column string

const (
	ColCityName     Column = "LOWER(c.name)"
	ColZoneID       Column = "z.zone_id"
	ColZoneName     Column = "z.name"
	ColZoneType     Column = "z.zone_type"
	ColSensorID     Column = "s.sensor_id"
	ColSensorStatus Column = "s.status"
	ColReadingID    Column = "r.reading_id"
	ColTimestamp    Column = "r.timestamp"
	ColWeather      Column = "r.weather_condition"
	ColAQI          Column = "r.aqi_value"
	ColPM25         Column = "r.pm25"
	ColVehicles     Column = "r.vehicle_count"
	ColSpeed        Column = "r.avg_speed_kmh"
	ColCO2          Column = "r.co2_ppm"
)

// From is the join every analytics query reads from
const From = `FROM readings r
JOIN sensors s ON r.sensor_id = s.sensor_id
JOIN zones z ON s.zone_id = z.zone_id
JOIN cities c ON z.city_id = c.city_id`
