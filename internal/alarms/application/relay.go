// Package application relays decoded inverter alarms to connected
// notifiers. Events originate from the ingest pipeline; only On-Error
// readings are fanned out, every event is counted.
package application

import (
	"context"
	"errors"
	"log"
	"time"

	"solarpark-cloud/internal/observability/metrics"
	telemetryevents "solarpark-cloud/internal/telemetry/application/events"
	telemetry "solarpark-cloud/internal/telemetry/domain"
)

// AlarmEvent is the payload delivered to notifiers and stream clients.
type AlarmEvent struct {
	DeviceID   string     `json:"device_id"`
	LocationID string     `json:"location_id,omitempty"`
	IMEI       string     `json:"imei"`
	Status     string     `json:"status"`
	State      string     `json:"state"`
	AlarmName  string     `json:"alarm_name"`
	AlarmAt    *time.Time `json:"alarm_at,omitempty"`
	OccurredAt time.Time  `json:"occurred_at"`
}

// AlarmNotifier receives alarm events. Implementations must not block.
type AlarmNotifier interface {
	Notify(ctx context.Context, event AlarmEvent)
}

// Relay filters ReadingDecoded events down to alarms.
type Relay struct {
	notifier AlarmNotifier
	logger   *log.Logger
}

// NewRelay constructs a Relay.
func NewRelay(notifier AlarmNotifier, logger *log.Logger) (*Relay, error) {
	if notifier == nil {
		return nil, errors.New("alarm relay: nil notifier")
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Relay{notifier: notifier, logger: logger}, nil
}

// HandleReadingDecoded forwards On-Error readings to the notifier.
func (r *Relay) HandleReadingDecoded(ctx context.Context, event telemetryevents.ReadingDecoded) error {
	metrics.IncAlarmEvent(event.AlarmStatus)
	if event.AlarmStatus != telemetry.AlarmStatusOnError {
		return nil
	}
	r.notifier.Notify(ctx, AlarmEvent{
		DeviceID:   event.DeviceID,
		LocationID: event.LocationID,
		IMEI:       event.IMEI,
		Status:     event.AlarmStatus,
		State:      event.DeviceState,
		AlarmName:  event.AlarmName,
		AlarmAt:    event.AlarmAt,
		OccurredAt: event.OccurredAt,
	})
	return nil
}
