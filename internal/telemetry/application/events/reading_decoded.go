package events

import "time"

// ReadingDecoded is raised after an inverter telemetry payload has been
// decoded and persisted.
type ReadingDecoded struct {
	DeviceID    string     `json:"device_id"`
	LocationID  string     `json:"location_id,omitempty"`
	IMEI        string     `json:"imei"`
	AlarmStatus string     `json:"alarm_status"`
	DeviceState string     `json:"device_state"`
	AlarmName   string     `json:"alarm_name"`
	AlarmAt     *time.Time `json:"alarm_at,omitempty"`
	OccurredAt  time.Time  `json:"occurred_at"`
}
