package filters

import (
	"strings"
)

// Filter keys accepted from callers
const (
	KeyCity         = "city"
	KeyTimeRange    = "timeRange"
	KeyMetric       = "metric"
	KeyZone         = "zone"
	KeyDailyPattern = "dailyPattern"
	KeySeason       = "season"
	KeyWeather      = "weather"
	KeySensorStatus = "sensorStatus"
)

// All is the value that disables an enum filter
const All = "all"

// Defaults for absent keys
const (
	DefaultTimeRange = "7d"
	DefaultMetric    = "aqi"
)

var aliases = map[string]map[string]string{
	KeyZone:    {"mixed": "mixed_use"},
	KeyWeather: {"sunny": "clear"},
}

// Raw is the unvalidated filter input as received from a caller
type Raw map[string]string

// Filters is the canonical form of a filter request.
// An empty City means no city filter.
type Filters struct {
	City         string `json:"city,omitempty"`
	TimeRange    string `json:"timeRange"`
	Metric       string `json:"metric"`
	Zone         string `json:"zone"`
	DailyPattern string `json:"dailyPattern"`
	Season       string `json:"season"`
	Weather      string `json:"weather"`
	SensorStatus string `json:"sensorStatus"`
}

// Normalize canonicalizes raw filter input. It never fails: unknown values
// pass through unchanged and simply match nothing downstream.
func Normalize(raw Raw) Filters {
	return Filters{
		City:         strings.ToLower(raw.get(KeyCity)),
		TimeRange:    orDefault(raw.get(KeyTimeRange), DefaultTimeRange),
		Metric:       orDefault(raw.get(KeyMetric), DefaultMetric),
		Zone:         resolve(KeyZone, orDefault(raw.get(KeyZone), All)),
		DailyPattern: orDefault(raw.get(KeyDailyPattern), All),
		Season:       orDefault(raw.get(KeySeason), All),
		Weather:      resolve(KeyWeather, orDefault(raw.get(KeyWeather), All)),
		SensorStatus: orDefault(raw.get(KeySensorStatus), All),
	}
}

// Raw converts canonical filters back into raw input form
func (f Filters) Raw() Raw {
	raw := Raw{
		KeyTimeRange:    f.TimeRange,
		KeyMetric:       f.Metric,
		KeyZone:         f.Zone,
		KeyDailyPattern: f.DailyPattern,
		KeySeason:       f.Season,
		KeyWeather:      f.Weather,
		KeySensorStatus: f.SensorStatus,
	}
	if f.City != "" {
		raw[KeyCity] = f.City
	}
	return raw
}

// HasCity reports whether a city filter is set
func (f Filters) HasCity() bool {
	return f.City != ""
}

// get looks a key up exactly first, then case-insensitively.
// Surrounding whitespace is dropped; a blank value counts as absent.
func (r Raw) get(key string) string {
	if v, ok := r[key]; ok {
		return strings.TrimSpace(v)
	}
	for k, v := range r {
		if strings.EqualFold(k, key) {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

func resolve(key, value string) string {
	if canonical, ok := aliases[key][value]; ok {
		return canonical
	}
	return value
}

func orDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}
