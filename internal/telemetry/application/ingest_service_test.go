package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	masterdata "solarpark-cloud/internal/masterdata/domain"
	"solarpark-cloud/internal/telemetry/application/events"
	telemetry "solarpark-cloud/internal/telemetry/domain"
)

type stubReadingRepo struct {
	inserted []*telemetry.Reading
	err      error
}

func (s *stubReadingRepo) Insert(_ context.Context, reading *telemetry.Reading) error {
	if s.err != nil {
		return s.err
	}
	s.inserted = append(s.inserted, reading)
	return nil
}

func (s *stubReadingRepo) CountByDevice(_ context.Context, _ string) (int64, error) {
	return int64(len(s.inserted)), nil
}

type stubRawRepo struct {
	inserted []*telemetry.RawSample
}

func (s *stubRawRepo) Insert(_ context.Context, sample *telemetry.RawSample) error {
	s.inserted = append(s.inserted, sample)
	return nil
}

type stubDeviceSource struct {
	device *masterdata.Device
}

func (s stubDeviceSource) FindActiveByIMEI(_ context.Context, _ string) (*masterdata.Device, error) {
	return s.device, nil
}

type stubLocationSource struct {
	location *masterdata.Location
}

func (s stubLocationSource) Get(_ context.Context, _ string) (*masterdata.Location, error) {
	return s.location, nil
}

type stubPublisher struct {
	published []events.ReadingDecoded
}

func (s *stubPublisher) PublishReadingDecoded(_ context.Context, event events.ReadingDecoded) error {
	s.published = append(s.published, event)
	return nil
}

type fixedClock struct {
	at time.Time
}

func (c fixedClock) Now() time.Time { return c.at }

func newTestService(t *testing.T, readings *stubReadingRepo, raws *stubRawRepo, device *masterdata.Device, location *masterdata.Location, publisher *stubPublisher) *IngestService {
	t.Helper()
	var eventPublisher EventPublisher
	if publisher != nil {
		eventPublisher = publisher
	}
	svc, err := NewIngestService(
		readings,
		raws,
		stubDeviceSource{device: device},
		stubLocationSource{location: location},
		eventPublisher,
		fixedClock{at: time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)},
		nil,
	)
	if err != nil {
		t.Fatalf("new ingest service: %v", err)
	}
	return svc
}

func TestIngestSungrowPayload(t *testing.T) {
	readings := &stubReadingRepo{}
	raws := &stubRawRepo{}
	publisher := &stubPublisher{}
	device := &masterdata.Device{ID: "dev-1", IMEI: "867857041", LocationID: "loc-1", IsActive: true}
	location := &masterdata.Location{ID: "loc-1", Name: "Plant A", Vendor: masterdata.VendorSungrow, IsActive: true}
	svc := newTestService(t, readings, raws, device, location, publisher)

	payload := []byte(`{"data":{"imei":"867857041","uid":"u-1","sid":"s-1","rcnt":"7","modbus":[{"reg4":"0010","reg2":"0064"}]}}`)
	reading, err := svc.Ingest(context.Background(), payload)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if len(raws.inserted) != 1 {
		t.Fatalf("expected 1 raw sample, got %d", len(raws.inserted))
	}
	if reading.DailyEnergy == nil || math.Abs(*reading.DailyEnergy-1.6) > 1e-9 {
		t.Fatalf("expected daily energy 1.6, got %v", reading.DailyEnergy)
	}
	if reading.NominalPower == nil || math.Abs(*reading.NominalPower-10) > 1e-9 {
		t.Fatalf("expected nominal power 10, got %v", reading.NominalPower)
	}
	if reading.SpecificYield == nil || math.Abs(*reading.SpecificYield-0.16) > 1e-9 {
		t.Fatalf("expected specific yield 0.16, got %v", reading.SpecificYield)
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.published))
	}
	if publisher.published[0].LocationID != "loc-1" {
		t.Fatalf("expected location loc-1 on event, got %s", publisher.published[0].LocationID)
	}
}

func TestIngestMissingIMEIStoresRawSample(t *testing.T) {
	readings := &stubReadingRepo{}
	raws := &stubRawRepo{}
	svc := newTestService(t, readings, raws, nil, nil, nil)

	payload := []byte(`{"data":{"uid":"u-1","modbus":[{"reg4":"0010"}]}}`)
	_, err := svc.Ingest(context.Background(), payload)
	if !errors.Is(err, telemetry.ErrMissingIMEI) {
		t.Fatalf("expected ErrMissingIMEI, got %v", err)
	}
	if len(raws.inserted) != 1 {
		t.Fatalf("expected raw sample stored despite failure, got %d", len(raws.inserted))
	}
	if len(readings.inserted) != 0 {
		t.Fatalf("expected no reading, got %d", len(readings.inserted))
	}
}

func TestIngestMalformedJSONStoresRawSample(t *testing.T) {
	raws := &stubRawRepo{}
	svc := newTestService(t, &stubReadingRepo{}, raws, nil, nil, nil)

	_, err := svc.Ingest(context.Background(), []byte(`{"data": {imei: 867}`))
	if !errors.Is(err, telemetry.ErrMalformedRegisters) {
		t.Fatalf("expected ErrMalformedRegisters, got %v", err)
	}
	if len(raws.inserted) != 1 {
		t.Fatalf("expected raw sample stored, got %d", len(raws.inserted))
	}
}

func TestIngestUnknownDevice(t *testing.T) {
	svc := newTestService(t, &stubReadingRepo{}, &stubRawRepo{}, nil, nil, nil)
	payload := []byte(`{"data":{"imei":"867857041","modbus":[{"reg4":"0010"}]}}`)
	_, err := svc.Ingest(context.Background(), payload)
	if !errors.Is(err, telemetry.ErrUnknownDevice) {
		t.Fatalf("expected ErrUnknownDevice, got %v", err)
	}
}

func TestIngestUnassignedDeviceUnsupported(t *testing.T) {
	device := &masterdata.Device{ID: "dev-1", IMEI: "867857041", IsActive: true}
	svc := newTestService(t, &stubReadingRepo{}, &stubRawRepo{}, device, nil, nil)
	payload := []byte(`{"data":{"imei":"867857041","modbus":[{"reg4":"0010"}]}}`)
	_, err := svc.Ingest(context.Background(), payload)
	if !errors.Is(err, telemetry.ErrUnsupportedVendor) {
		t.Fatalf("expected ErrUnsupportedVendor, got %v", err)
	}
}

func TestIngestEmptyModbusPersistsAllNullReading(t *testing.T) {
	readings := &stubReadingRepo{}
	device := &masterdata.Device{ID: "dev-1", IMEI: "867857041", LocationID: "loc-1", IsActive: true}
	location := &masterdata.Location{ID: "loc-1", Name: "Plant A", Vendor: masterdata.VendorABB, IsActive: true}
	svc := newTestService(t, readings, &stubRawRepo{}, device, location, nil)

	payload := []byte(`{"data":{"imei":"867857041","modbus":[]}}`)
	reading, err := svc.Ingest(context.Background(), payload)
	if err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if reading.DailyEnergy != nil || reading.TotalEnergy != nil || reading.ActivePower != nil {
		t.Fatalf("expected all-null numerics")
	}
	if reading.AlarmStatus != telemetry.AlarmStatusOnline {
		t.Fatalf("expected Online status, got %s", reading.AlarmStatus)
	}
	if len(readings.inserted) != 1 {
		t.Fatalf("expected reading persisted for audit, got %d", len(readings.inserted))
	}
}
