package telemetry

import (
	"fmt"
	"strconv"
	"time"
)

// Alarm status categories. The status decode is a total function: any
// 16-bit register value maps to exactly one category.
const (
	AlarmStatusOnError = "On-Error"
	AlarmStatusOnline  = "Online"
)

// DeviceStateUndefined is reported for operation-state codes outside the
// known table.
const DeviceStateUndefined = "Undefined State"

// AlarmNameDefault is reported for alarm codes outside the known table.
const AlarmNameDefault = "Device abnormal"

// Shared alarm registers, identical across vendor profiles.
const (
	regDeviceStatus = "reg40"
	regDeviceState  = "reg41"
	regAlarmName    = "reg42"
)

// alarmTimeRegisters are year/month/day/hour/minute/second in order.
// The year register is an offset from 2000.
var alarmTimeRegisters = []string{"reg50", "reg51", "reg52", "reg53", "reg54", "reg55"}

// faultCodes are the two status values that mean the device is faulted.
var faultCodes = map[string]struct{}{
	"1500": {},
	"5500": {},
}

var deviceStates = map[string]string{
	"1200": "Initial Standby",
	"1300": "Key Stop",
	"1400": "Standby",
	"1500": "Emergency Stop",
	"1600": "Starting",
	"2500": "Communicate Fault",
	"5500": "Fault",
	"8000": "Stop",
	"8100": "Derating Run",
	"8200": "Dispatch Run",
	"9100": "Alarm Run",
}

var alarmNames = map[string]string{
	"0002": "Grid Overvoltage",
	"0003": "Grid Undervoltage",
	"0007": "Grid Power Outage",
}

// DecodeAlarmStatus maps a status register value to On-Error or Online.
func DecodeAlarmStatus(value string) string {
	if _, faulted := faultCodes[value]; faulted {
		return AlarmStatusOnError
	}
	return AlarmStatusOnline
}

// DecodeDeviceState maps an operation-state register value to a named
// state, defaulting to "Undefined State".
func DecodeDeviceState(value string) string {
	if state, ok := deviceStates[value]; ok {
		return state
	}
	return DeviceStateUndefined
}

// DecodeAlarmName maps an alarm register value to a named fault,
// defaulting to "Device abnormal".
func DecodeAlarmName(value string) string {
	if name, ok := alarmNames[value]; ok {
		return name
	}
	return AlarmNameDefault
}

// decodeAlarms decodes the shared status registers. Status and state
// registers default to "0000" when absent; the alarm timestamp is
// assembled only when every sub-register is present, and stays absent
// otherwise.
func decodeAlarms(registers map[string]string) (status, state, name string, alarmAt *time.Time, err error) {
	status = DecodeAlarmStatus(registerOrDefault(registers, regDeviceStatus))
	state = DecodeDeviceState(registerOrDefault(registers, regDeviceState))
	name = DecodeAlarmName(registerOrDefault(registers, regAlarmName))

	alarmAt, err = decodeAlarmTime(registers)
	if err != nil {
		return "", "", "", nil, err
	}
	return status, state, name, alarmAt, nil
}

func registerOrDefault(registers map[string]string, key string) string {
	if value, ok := registers[key]; ok {
		return value
	}
	return "0000"
}

func decodeAlarmTime(registers map[string]string) (*time.Time, error) {
	parts := make([]int, 0, len(alarmTimeRegisters))
	for _, key := range alarmTimeRegisters {
		value, ok := registers[key]
		if !ok {
			return nil, nil
		}
		parsed, err := strconv.ParseUint(value, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrMalformedRegisters, key, value)
		}
		parts = append(parts, int(parsed))
	}
	at := time.Date(2000+parts[0], time.Month(parts[1]), parts[2], parts[3], parts[4], parts[5], 0, time.UTC)
	return &at, nil
}
