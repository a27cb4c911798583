package masterdata

import "time"

// Device represents a physical inverter/monitoring unit. LocationID is
// empty until the device is assigned to a plant.
type Device struct {
	ID          string
	Name        string
	IMEI        string
	LocationID  string
	IsSuspended bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks invariants before persistence. IMEI uniqueness among
// active devices is a write-time check in the application service, not
// enforced here or at the storage layer.
func (d *Device) Validate() error {
	if d == nil {
		return ErrNilDevice
	}
	if d.ID == "" {
		return ErrEmptyDeviceID
	}
	if d.IMEI == "" {
		return ErrEmptyIMEI
	}
	return nil
}
