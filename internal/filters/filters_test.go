package filters

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_Defaults(t *testing.T) {
	f := Normalize(Raw{})

	assert.Equal(t, Filters{
		TimeRange:    "7d",
		Metric:       "aqi",
		Zone:         "all",
		DailyPattern: "all",
		Season:       "all",
		Weather:      "all",
		SensorStatus: "all",
	}, f)
	assert.False(t, f.HasCity())
}

func TestNormalize_City(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trim and lowercase", "  Chennai ", "chennai"},
		{"already canonical", "chennai", "chennai"},
		{"blank means no filter", "   ", ""},
		{"empty means no filter", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Normalize(Raw{KeyCity: tt.in})
			assert.Equal(t, tt.want, f.City)
		})
	}
}

func TestNormalize_Aliases(t *testing.T) {
	f := Normalize(Raw{KeyZone: "mixed", KeyWeather: "sunny"})
	assert.Equal(t, "mixed_use", f.Zone)
	assert.Equal(t, "clear", f.Weather)

	// aliases apply per key only
	f = Normalize(Raw{KeyZone: "sunny", KeyWeather: "mixed"})
	assert.Equal(t, "sunny", f.Zone)
	assert.Equal(t, "mixed", f.Weather)
}

func TestNormalize_UnknownValuesPassThrough(t *testing.T) {
	f := Normalize(Raw{
		KeyZone:         "volcano",
		KeyMetric:       "happiness",
		KeyTimeRange:    "90d",
		KeyDailyPattern: "dawn",
		KeySensorStatus: "broken",
	})

	assert.Equal(t, "volcano", f.Zone)
	assert.Equal(t, "happiness", f.Metric)
	assert.Equal(t, "90d", f.TimeRange)
	assert.Equal(t, "dawn", f.DailyPattern)
	assert.Equal(t, "broken", f.SensorStatus)
}

func TestNormalize_KeysCaseInsensitive(t *testing.T) {
	f := Normalize(Raw{"TIMERANGE": "1d", "Metric": "pm25", "unknown": "x"})
	assert.Equal(t, "1d", f.TimeRange)
	assert.Equal(t, "pm25", f.Metric)
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []Raw{
		{},
		{KeyCity: " Mumbai", KeyZone: "mixed", KeyWeather: "sunny"},
		{KeyCity: "DELHI", KeyTimeRange: "30d", KeyMetric: "congestion", KeyDailyPattern: "night"},
		{KeyZone: "bogus", KeySensorStatus: "maintenance", KeySeason: "winter"},
	}

	for _, raw := range inputs {
		once := Normalize(raw)
		twice := Normalize(once.Raw())
		assert.Equal(t, once, twice)
	}
}
