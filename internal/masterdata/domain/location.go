package masterdata

import (
	"strings"
	"time"
)

// Vendor identifies an inverter register-map profile.
type Vendor string

const (
	VendorSungrow Vendor = "sungrow"
	VendorABB     Vendor = "abb"
)

// NormalizeVendor validates and normalizes a vendor tag.
func NormalizeVendor(value string) (Vendor, bool) {
	switch Vendor(strings.ToLower(strings.TrimSpace(value))) {
	case VendorSungrow:
		return VendorSungrow, true
	case VendorABB:
		return VendorABB, true
	default:
		return "", false
	}
}

// Location represents a physical plant site.
type Location struct {
	ID          string
	Name        string
	Address     string
	Pincode     string
	Latitude    float64
	Longitude   float64
	CapacityKWp float64
	Vendor      Vendor
	UserIDs     []string
	IsSuspended bool
	IsActive    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Validate checks invariants before persistence. The vendor tag must be a
// registered decoder profile before telemetry from this location's devices
// can be decoded.
func (l *Location) Validate() error {
	if l == nil {
		return ErrNilLocation
	}
	if l.ID == "" {
		return ErrEmptyLocationID
	}
	if l.Name == "" {
		return ErrEmptyLocationName
	}
	if _, ok := NormalizeVendor(string(l.Vendor)); !ok {
		return ErrUnsupportedVendorTag
	}
	return nil
}

// OwnedBy reports whether the given user is in the location's owner set.
func (l *Location) OwnedBy(userID string) bool {
	if l == nil || userID == "" {
		return false
	}
	for _, id := range l.UserIDs {
		if id == userID {
			return true
		}
	}
	return false
}
