package application

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	masterdata "solarpark-cloud/internal/masterdata/domain"
	telemetry "solarpark-cloud/internal/telemetry/domain"
)

// ReadingCounter reports how many readings a device has produced. Used for
// the protect-on-delete check.
type ReadingCounter interface {
	CountByDevice(ctx context.Context, deviceID string) (int64, error)
}

// RegistryService manages plant locations and devices.
type RegistryService struct {
	locations masterdata.LocationRepository
	devices   masterdata.DeviceRepository
	readings  ReadingCounter
}

// NewRegistryService constructs a registry service.
func NewRegistryService(
	locations masterdata.LocationRepository,
	devices masterdata.DeviceRepository,
	readings ReadingCounter,
) (*RegistryService, error) {
	if locations == nil {
		return nil, errors.New("registry service: nil location repository")
	}
	if devices == nil {
		return nil, errors.New("registry service: nil device repository")
	}
	if readings == nil {
		return nil, errors.New("registry service: nil reading counter")
	}
	return &RegistryService{locations: locations, devices: devices, readings: readings}, nil
}

// SaveLocation validates and upserts a location. The vendor tag must name a
// registered decoder profile.
func (s *RegistryService) SaveLocation(ctx context.Context, location *masterdata.Location) error {
	if location == nil {
		return masterdata.ErrNilLocation
	}
	if location.ID == "" {
		location.ID = uuid.NewString()
	}
	vendor, ok := masterdata.NormalizeVendor(string(location.Vendor))
	if !ok || !telemetry.SupportedVendor(vendor) {
		return masterdata.ErrUnsupportedVendorTag
	}
	location.Vendor = vendor
	if err := location.Validate(); err != nil {
		return err
	}
	return s.locations.Save(ctx, location)
}

// GetLocation loads a location by id.
func (s *RegistryService) GetLocation(ctx context.Context, id string) (*masterdata.Location, error) {
	location, err := s.locations.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if location == nil {
		return nil, masterdata.ErrLocationNotFound
	}
	return location, nil
}

// ListLocations loads all locations, or only those owned by userID when it
// is non-empty.
func (s *RegistryService) ListLocations(ctx context.Context, userID string) ([]masterdata.Location, error) {
	if userID == "" {
		return s.locations.List(ctx)
	}
	return s.locations.ListByUser(ctx, userID)
}

// DeleteLocation removes a location unless devices are still assigned.
func (s *RegistryService) DeleteLocation(ctx context.Context, id string) error {
	location, err := s.locations.Get(ctx, id)
	if err != nil {
		return err
	}
	if location == nil {
		return masterdata.ErrLocationNotFound
	}
	count, err := s.devices.CountByLocation(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d assigned", masterdata.ErrLocationHasDevices, count)
	}
	return s.locations.Delete(ctx, id)
}

// SaveDevice validates and upserts a device. At most one active device may
// claim a given IMEI; the check happens here at write time rather than as a
// storage constraint so suspended duplicates keep their history.
func (s *RegistryService) SaveDevice(ctx context.Context, device *masterdata.Device) error {
	if device == nil {
		return masterdata.ErrNilDevice
	}
	if device.ID == "" {
		device.ID = uuid.NewString()
	}
	if err := device.Validate(); err != nil {
		return err
	}
	if device.LocationID != "" {
		location, err := s.locations.Get(ctx, device.LocationID)
		if err != nil {
			return err
		}
		if location == nil {
			return masterdata.ErrLocationNotFound
		}
	}
	if device.IsActive {
		existing, err := s.devices.FindActiveByIMEI(ctx, device.IMEI)
		if err != nil {
			return err
		}
		if existing != nil && existing.ID != device.ID {
			return fmt.Errorf("%w: imei %s", masterdata.ErrDuplicateIMEI, device.IMEI)
		}
	}
	return s.devices.Save(ctx, device)
}

// GetDevice loads a device by id.
func (s *RegistryService) GetDevice(ctx context.Context, id string) (*masterdata.Device, error) {
	device, err := s.devices.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, masterdata.ErrDeviceNotFound
	}
	return device, nil
}

// ListDevices loads all devices, or only those on a location when
// locationID is non-empty.
func (s *RegistryService) ListDevices(ctx context.Context, locationID string) ([]masterdata.Device, error) {
	if locationID == "" {
		return s.devices.List(ctx)
	}
	return s.devices.ListByLocation(ctx, locationID)
}

// DeleteDevice removes a device unless readings reference it.
func (s *RegistryService) DeleteDevice(ctx context.Context, id string) error {
	device, err := s.devices.Get(ctx, id)
	if err != nil {
		return err
	}
	if device == nil {
		return masterdata.ErrDeviceNotFound
	}
	count, err := s.readings.CountByDevice(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("%w: %d stored", masterdata.ErrDeviceHasReadings, count)
	}
	return s.devices.Delete(ctx, id)
}
