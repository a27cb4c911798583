package telemetry

import "errors"

var (
	// ErrMissingIMEI is returned when a payload lacks the hardware
	// identifier.
	ErrMissingIMEI = errors.New("telemetry: imei is required")
	// ErrUnknownDevice is returned when no active device is registered
	// for the payload's hardware identifier.
	ErrUnknownDevice = errors.New("telemetry: unknown device")
	// ErrUnsupportedVendor is returned when the owning location's vendor
	// tag is not a registered decoder profile.
	ErrUnsupportedVendor = errors.New("telemetry: unsupported vendor")
	// ErrMalformedRegisters is returned when a register value cannot be
	// parsed as hex, or the payload is structurally invalid.
	ErrMalformedRegisters = errors.New("telemetry: malformed registers")
	// ErrNilReading is returned when persisting a nil reading.
	ErrNilReading = errors.New("telemetry: nil reading")
	// ErrNilRawSample is returned when persisting a nil raw sample.
	ErrNilRawSample = errors.New("telemetry: nil raw sample")
)
