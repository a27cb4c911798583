package telemetry

import (
	"fmt"
	"strconv"
	"time"

	masterdata "solarpark-cloud/internal/masterdata/domain"
)

// fieldRule describes how one output quantity is assembled from the
// register map: the registers are concatenated in list order (word order
// is vendor-specific) and the parsed value is multiplied by Scale.
type fieldRule struct {
	Registers []string
	Scale     float64
}

// Profile is a pure data table for one vendor's register map. Adding a
// vendor is a new table entry, not a new decode branch.
type Profile struct {
	Vendor masterdata.Vendor

	NominalPower        fieldRule
	DailyEnergy         fieldRule
	TotalEnergy         fieldRule
	ActivePower         fieldRule
	MeterActivePower    fieldRule
	InverterActivePower fieldRule
	InverterDailyEnergy fieldRule
	InverterTotalEnergy fieldRule
}

// profiles is the decoder registry. Sungrow encodes 32-bit energies
// low-word-first; ABB high-word-first. Sungrow registers carry 0.1-unit
// resolution, ABB energies are in Wh (0.001 kWh).
var profiles = map[masterdata.Vendor]Profile{
	masterdata.VendorSungrow: {
		Vendor:              masterdata.VendorSungrow,
		NominalPower:        fieldRule{Registers: []string{"reg2"}, Scale: 0.1},
		DailyEnergy:         fieldRule{Registers: []string{"reg4"}, Scale: 0.1},
		TotalEnergy:         fieldRule{Registers: []string{"reg5", "reg6"}, Scale: 0.1},
		ActivePower:         fieldRule{Registers: []string{"reg8"}, Scale: 0.1},
		MeterActivePower:    fieldRule{Registers: []string{"reg9"}, Scale: 0.1},
		InverterActivePower: fieldRule{Registers: []string{"reg10"}, Scale: 0.1},
		InverterDailyEnergy: fieldRule{Registers: []string{"reg11"}, Scale: 0.1},
		InverterTotalEnergy: fieldRule{Registers: []string{"reg12", "reg13"}, Scale: 0.1},
	},
	masterdata.VendorABB: {
		Vendor:              masterdata.VendorABB,
		NominalPower:        fieldRule{Registers: []string{"reg3"}, Scale: 0.001},
		DailyEnergy:         fieldRule{Registers: []string{"reg21", "reg22"}, Scale: 0.001},
		TotalEnergy:         fieldRule{Registers: []string{"reg23", "reg24"}, Scale: 0.001},
		ActivePower:         fieldRule{Registers: []string{"reg25"}, Scale: 1},
		MeterActivePower:    fieldRule{Registers: []string{"reg26"}, Scale: 1},
		InverterActivePower: fieldRule{Registers: []string{"reg27"}, Scale: 1},
		InverterDailyEnergy: fieldRule{Registers: []string{"reg28", "reg29"}, Scale: 0.001},
		InverterTotalEnergy: fieldRule{Registers: []string{"reg30", "reg31"}, Scale: 0.001},
	},
}

// SupportedVendor reports whether a decoder profile is registered for
// the vendor tag.
func SupportedVendor(vendor masterdata.Vendor) bool {
	_, ok := profiles[vendor]
	return ok
}

// DecodedReading is the decoder output before device/session fields are
// attached.
type DecodedReading struct {
	NominalPower        *float64
	DailyEnergy         *float64
	TotalEnergy         *float64
	ActivePower         *float64
	SpecificYield       *float64
	MeterActivePower    *float64
	InverterActivePower *float64
	InverterDailyEnergy *float64
	InverterTotalEnergy *float64

	AlarmStatus string
	DeviceState string
	AlarmName   string
	AlarmAt     *time.Time
}

// Decode maps a vendor tag and a raw register map onto physical
// quantities. A quantity whose registers are all absent is nil; once any
// word of a quantity is present, missing partner words default to
// "0000". A register value that is not valid hex fails the whole decode
// with ErrMalformedRegisters.
func Decode(vendor masterdata.Vendor, registers map[string]string) (*DecodedReading, error) {
	profile, ok := profiles[vendor]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVendor, vendor)
	}

	decoded := &DecodedReading{}
	fields := []struct {
		rule fieldRule
		dst  **float64
	}{
		{profile.NominalPower, &decoded.NominalPower},
		{profile.DailyEnergy, &decoded.DailyEnergy},
		{profile.TotalEnergy, &decoded.TotalEnergy},
		{profile.ActivePower, &decoded.ActivePower},
		{profile.MeterActivePower, &decoded.MeterActivePower},
		{profile.InverterActivePower, &decoded.InverterActivePower},
		{profile.InverterDailyEnergy, &decoded.InverterDailyEnergy},
		{profile.InverterTotalEnergy, &decoded.InverterTotalEnergy},
	}
	for _, field := range fields {
		value, err := decodeField(registers, field.rule)
		if err != nil {
			return nil, err
		}
		*field.dst = value
	}

	if decoded.DailyEnergy != nil && decoded.NominalPower != nil {
		yield := specificYield(*decoded.DailyEnergy, *decoded.NominalPower)
		decoded.SpecificYield = &yield
	}

	status, state, name, alarmAt, err := decodeAlarms(registers)
	if err != nil {
		return nil, err
	}
	decoded.AlarmStatus = status
	decoded.DeviceState = state
	decoded.AlarmName = name
	decoded.AlarmAt = alarmAt

	return decoded, nil
}

func decodeField(registers map[string]string, rule fieldRule) (*float64, error) {
	present := false
	for _, name := range rule.Registers {
		if _, ok := registers[name]; ok {
			present = true
			break
		}
	}
	if !present {
		return nil, nil
	}

	var concat string
	for _, name := range rule.Registers {
		word, ok := registers[name]
		if !ok {
			word = "0000"
		}
		concat += word
	}

	parsed, err := strconv.ParseUint(concat, 16, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s=%q", ErrMalformedRegisters, rule.Registers[0], concat)
	}
	value := float64(parsed) * rule.Scale
	return &value, nil
}

func specificYield(dailyEnergy, nominalPower float64) float64 {
	if nominalPower == 0 {
		return 0
	}
	return dailyEnergy / nominalPower
}
