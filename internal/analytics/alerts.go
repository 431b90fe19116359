package analytics

// Alert thresholds
const (
	CriticalAQI      = 200
	HighAQI          = 150
	MinActiveSensors = 5
)

// EvaluateAlerts applies the static thresholds to a summary. The
// pollution and sensor checks are independent, so the result holds at
// most one alert of each type, pollution first.
func EvaluateAlerts(s *Summary) []Alert {
	alerts := []Alert{}
	if s == nil {
		return alerts
	}

	switch {
	case s.AverageAQI > CriticalAQI:
		alerts = append(alerts, Alert{
			Type:     AlertTypePollution,
			Severity: SeverityCritical,
			Message:  "AQI above 200",
		})
	case s.AverageAQI > HighAQI:
		alerts = append(alerts, Alert{
			Type:     AlertTypePollution,
			Severity: SeverityHigh,
			Message:  "AQI above 150",
		})
	}

	if s.ActiveSensors < MinActiveSensors {
		alerts = append(alerts, Alert{
			Type:     AlertTypeSensors,
			Severity: SeverityWarning,
			Message:  "Too few active sensors",
		})
	}

	return alerts
}
