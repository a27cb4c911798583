package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	masterdata "solarpark-cloud/internal/masterdata/domain"
	"solarpark-cloud/internal/observability/metrics"
	"solarpark-cloud/internal/telemetry/application/events"
	telemetry "solarpark-cloud/internal/telemetry/domain"
)

// Envelope is the expected shape of an inverter telemetry payload. The
// first modbus element carries the register map. Payloads are validated
// strictly against this schema; structurally invalid input is a decode
// failure, not repaired.
type Envelope struct {
	Data struct {
		IMEI   string              `json:"imei"`
		UID    string              `json:"uid"`
		SID    string              `json:"sid"`
		RCnt   string              `json:"rcnt"`
		Modbus []map[string]string `json:"modbus"`
	} `json:"data"`
}

// DeviceSource resolves devices by hardware identifier.
type DeviceSource interface {
	FindActiveByIMEI(ctx context.Context, imei string) (*masterdata.Device, error)
}

// LocationSource resolves locations by id.
type LocationSource interface {
	Get(ctx context.Context, id string) (*masterdata.Location, error)
}

// EventPublisher emits reading decoded events.
type EventPublisher interface {
	PublishReadingDecoded(ctx context.Context, event events.ReadingDecoded) error
}

// Clock returns the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock uses time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// IngestService decodes and persists inverter telemetry. The raw payload
// is stored before any decode outcome so malformed input is never lost.
type IngestService struct {
	readings  telemetry.ReadingRepository
	raws      telemetry.RawSampleRepository
	devices   DeviceSource
	locations LocationSource
	publisher EventPublisher
	clock     Clock
	logger    *log.Logger
}

// NewIngestService constructs the service.
func NewIngestService(
	readings telemetry.ReadingRepository,
	raws telemetry.RawSampleRepository,
	devices DeviceSource,
	locations LocationSource,
	publisher EventPublisher,
	clock Clock,
	logger *log.Logger,
) (*IngestService, error) {
	if readings == nil {
		return nil, errors.New("ingest service: nil reading repository")
	}
	if raws == nil {
		return nil, errors.New("ingest service: nil raw sample repository")
	}
	if devices == nil {
		return nil, errors.New("ingest service: nil device source")
	}
	if locations == nil {
		return nil, errors.New("ingest service: nil location source")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &IngestService{
		readings:  readings,
		raws:      raws,
		devices:   devices,
		locations: locations,
		publisher: publisher,
		clock:     clock,
		logger:    logger,
	}, nil
}

// Ingest stores the raw payload, resolves the device, decodes the
// register map, and persists the reading.
func (s *IngestService) Ingest(ctx context.Context, payload []byte) (*telemetry.Reading, error) {
	var envelope Envelope
	parseErr := json.Unmarshal(payload, &envelope)

	now := s.clock.Now().UTC()
	sample := &telemetry.RawSample{
		IMEI:       envelope.Data.IMEI,
		Payload:    payload,
		ReceivedAt: now,
	}
	if err := s.raws.Insert(ctx, sample); err != nil {
		return nil, fmt.Errorf("ingest: store raw sample: %w", err)
	}

	if parseErr != nil {
		return nil, fmt.Errorf("%w: %v", telemetry.ErrMalformedRegisters, parseErr)
	}
	if envelope.Data.IMEI == "" {
		return nil, telemetry.ErrMissingIMEI
	}

	device, err := s.devices.FindActiveByIMEI(ctx, envelope.Data.IMEI)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, fmt.Errorf("%w: imei %s", telemetry.ErrUnknownDevice, envelope.Data.IMEI)
	}

	vendor, err := s.resolveVendor(ctx, device)
	if err != nil {
		return nil, err
	}

	registers := map[string]string{}
	if len(envelope.Data.Modbus) > 0 {
		registers = envelope.Data.Modbus[0]
	}
	decoded, err := telemetry.Decode(vendor, registers)
	if err != nil {
		metrics.IncDecodeError(string(vendor))
		return nil, err
	}

	reading := &telemetry.Reading{
		DeviceID:            device.ID,
		IMEI:                device.IMEI,
		SID:                 envelope.Data.SID,
		UID:                 envelope.Data.UID,
		RCnt:                envelope.Data.RCnt,
		DailyEnergy:         decoded.DailyEnergy,
		TotalEnergy:         decoded.TotalEnergy,
		ActivePower:         decoded.ActivePower,
		SpecificYield:       decoded.SpecificYield,
		InverterActivePower: decoded.InverterActivePower,
		InverterDailyEnergy: decoded.InverterDailyEnergy,
		InverterTotalEnergy: decoded.InverterTotalEnergy,
		MeterActivePower:    decoded.MeterActivePower,
		NominalPower:        decoded.NominalPower,
		AlarmStatus:         decoded.AlarmStatus,
		DeviceState:         decoded.DeviceState,
		AlarmName:           decoded.AlarmName,
		AlarmAt:             decoded.AlarmAt,
		IsActive:            true,
		CreatedAt:           now,
	}
	if err := s.readings.Insert(ctx, reading); err != nil {
		return nil, fmt.Errorf("ingest: store reading: %w", err)
	}

	if s.publisher != nil {
		event := events.ReadingDecoded{
			DeviceID:    device.ID,
			LocationID:  device.LocationID,
			IMEI:        device.IMEI,
			AlarmStatus: decoded.AlarmStatus,
			DeviceState: decoded.DeviceState,
			AlarmName:   decoded.AlarmName,
			AlarmAt:     decoded.AlarmAt,
			OccurredAt:  now,
		}
		if err := s.publisher.PublishReadingDecoded(ctx, event); err != nil {
			s.logger.Printf("ingest: publish reading decoded: %v", err)
		}
	}
	return reading, nil
}

// resolveVendor looks up the owning location's vendor tag. A device
// without a location has no decode profile.
func (s *IngestService) resolveVendor(ctx context.Context, device *masterdata.Device) (masterdata.Vendor, error) {
	if device.LocationID == "" {
		return "", fmt.Errorf("%w: device %s has no location", telemetry.ErrUnsupportedVendor, device.ID)
	}
	location, err := s.locations.Get(ctx, device.LocationID)
	if err != nil {
		return "", err
	}
	if location == nil {
		return "", fmt.Errorf("%w: location %s not found", telemetry.ErrUnsupportedVendor, device.LocationID)
	}
	if !telemetry.SupportedVendor(location.Vendor) {
		return "", fmt.Errorf("%w: %q", telemetry.ErrUnsupportedVendor, location.Vendor)
	}
	return location.Vendor, nil
}
