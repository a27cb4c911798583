// Package performance derives plant performance statistics from decoded
// inverter readings. All functions are total: a zero nominal power (or a
// zero derived denominator) degrades to 0 rather than an error, since
// devices legitimately report a zero nominal-power register while faulted
// or starting up.
package performance

// SolarConstant is the reference irradiance in W/m2 used to scale output
// active power into plant-level irradiation.
const SolarConstant = 1361

// Irradiation estimates solar irradiation in W/m2 from output active power
// and the device's nominal power. Returns 0 when nominal power is 0.
func Irradiation(activePower, nominalPower float64) float64 {
	if nominalPower == 0 {
		return 0
	}
	return (activePower * SolarConstant) / nominalPower
}

// Insolation converts irradiation into daily insolation in kWh/m2.
func Insolation(irradiation float64) float64 {
	return irradiation * 24
}

// CUF computes the capacity utilization factor as a percentage: actual
// energy produced against running at nominal power for the full day.
// Returns 0 when nominal power is 0.
func CUF(dailyEnergy, nominalPower float64) float64 {
	if nominalPower == 0 {
		return 0
	}
	return (dailyEnergy * 100) / (nominalPower * 24)
}

// PR computes the performance ratio as a percentage of actual output
// against the theoretically expected output at the given irradiation.
// Returns 0 when the denominator is 0.
func PR(activePower, nominalPower, irradiation float64) float64 {
	denom := nominalPower * irradiation
	if denom == 0 {
		return 0
	}
	return (activePower * 1000 * 100) / denom
}

// SpecificYield normalizes daily energy by nominal power. Returns 0 when
// nominal power is 0.
func SpecificYield(dailyEnergy, nominalPower float64) float64 {
	if nominalPower == 0 {
		return 0
	}
	return dailyEnergy / nominalPower
}

// Delta returns end minus start, or nil when either side is absent.
// Period statistics over a range are deltas of cumulative registers; a
// missing boundary reading means the period has no data, not a zero.
func Delta(end, start *float64) *float64 {
	if end == nil || start == nil {
		return nil
	}
	diff := *end - *start
	return &diff
}
