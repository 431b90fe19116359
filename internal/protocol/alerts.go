package protocol

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smukkama/city-analytics/internal/analytics"
	"github.com/smukkama/city-analytics/internal/filters"
)

// AlertMessage is the Kafka message format for one raised alert
type AlertMessage struct {
	ID        string          `json:"id"`
	RequestID string          `json:"request_id,omitempty"`
	City      string          `json:"city,omitempty"`
	Filters   filters.Filters `json:"filters"`
	Alert     analytics.Alert `json:"alert"`
	// AverageAQI and ActiveSensors are the summary values the alert was derived from
	AverageAQI    float64   `json:"average_aqi"`
	ActiveSensors int64     `json:"active_sensors"`
	Reference     time.Time `json:"reference"`
	EmittedAt     time.Time `json:"emitted_at"`
}

// Key partitions alert messages by city; unscoped requests share one key
func (m *AlertMessage) Key() string {
	if m.City == "" {
		return "all"
	}
	return m.City
}

// NewAlertMessages builds one message per alert in the response
func NewAlertMessages(requestID string, f filters.Filters, reference, now time.Time, resp *analytics.Response) []*AlertMessage {
	if resp == nil || resp.Summary == nil {
		return nil
	}

	msgs := make([]*AlertMessage, 0, len(resp.Alerts))
	for _, a := range resp.Alerts {
		msgs = append(msgs, &AlertMessage{
			ID:            uuid.NewString(),
			RequestID:     requestID,
			City:          f.City,
			Filters:       f,
			Alert:         a,
			AverageAQI:    resp.Summary.AverageAQI,
			ActiveSensors: resp.Summary.ActiveSensors,
			Reference:     reference.UTC(),
			EmittedAt:     now.UTC(),
		})
	}
	return msgs
}

// EncodeAlertMessage encodes an AlertMessage to JSON
func EncodeAlertMessage(msg *AlertMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeAlertMessage decodes JSON to AlertMessage
func DecodeAlertMessage(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, fmt.Errorf("failed to decode alert message: %w", err)
	}
	if msg.ID == "" {
		return nil, fmt.Errorf("alert message missing id")
	}
	return &msg, nil
}
