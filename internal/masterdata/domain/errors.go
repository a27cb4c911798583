package masterdata

import "errors"

var (
	// ErrNilLocation is returned when saving a nil location.
	ErrNilLocation = errors.New("masterdata: nil location")
	// ErrEmptyLocationID is returned when a location id is empty.
	ErrEmptyLocationID = errors.New("masterdata: empty location id")
	// ErrEmptyLocationName is returned when a location name is empty.
	ErrEmptyLocationName = errors.New("masterdata: empty location name")
	// ErrUnsupportedVendorTag is returned when the vendor tag is not a
	// registered decoder profile.
	ErrUnsupportedVendorTag = errors.New("masterdata: unsupported vendor tag")
	// ErrNilDevice is returned when saving a nil device.
	ErrNilDevice = errors.New("masterdata: nil device")
	// ErrEmptyDeviceID is returned when a device id is empty.
	ErrEmptyDeviceID = errors.New("masterdata: empty device id")
	// ErrEmptyIMEI is returned when a device has no hardware identifier.
	ErrEmptyIMEI = errors.New("masterdata: empty imei")
	// ErrDuplicateIMEI is returned when another active device already
	// claims the hardware identifier.
	ErrDuplicateIMEI = errors.New("masterdata: duplicate imei among active devices")
	// ErrLocationNotFound is returned when a location does not exist.
	ErrLocationNotFound = errors.New("masterdata: location not found")
	// ErrDeviceNotFound is returned when a device does not exist.
	ErrDeviceNotFound = errors.New("masterdata: device not found")
	// ErrLocationHasDevices is returned when deleting a location that
	// devices still reference.
	ErrLocationHasDevices = errors.New("masterdata: location still referenced by devices")
	// ErrDeviceHasReadings is returned when deleting a device that
	// readings still reference.
	ErrDeviceHasReadings = errors.New("masterdata: device still referenced by readings")
)
