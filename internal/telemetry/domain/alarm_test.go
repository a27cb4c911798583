package telemetry

import (
	"fmt"
	"testing"
)

func TestDecodeAlarmStatusFaultCodes(t *testing.T) {
	if got := DecodeAlarmStatus("1500"); got != AlarmStatusOnError {
		t.Fatalf("expected On-Error for 1500, got %s", got)
	}
	if got := DecodeAlarmStatus("5500"); got != AlarmStatusOnError {
		t.Fatalf("expected On-Error for 5500, got %s", got)
	}
	if got := DecodeAlarmStatus("0000"); got != AlarmStatusOnline {
		t.Fatalf("expected Online for 0000, got %s", got)
	}
}

func TestDecodeAlarmStatusTotal(t *testing.T) {
	// Every 16-bit value maps to exactly one category.
	for v := 0; v <= 0xffff; v++ {
		got := DecodeAlarmStatus(fmt.Sprintf("%04x", v))
		if got != AlarmStatusOnError && got != AlarmStatusOnline {
			t.Fatalf("undecodable status %04x: %q", v, got)
		}
	}
}

func TestDecodeDeviceState(t *testing.T) {
	cases := map[string]string{
		"1200": "Initial Standby",
		"5500": "Fault",
		"9100": "Alarm Run",
		"ffff": DeviceStateUndefined,
		"0000": DeviceStateUndefined,
	}
	for value, want := range cases {
		if got := DecodeDeviceState(value); got != want {
			t.Fatalf("state %s: expected %q, got %q", value, want, got)
		}
	}
}

func TestDecodeAlarmName(t *testing.T) {
	cases := map[string]string{
		"0002": "Grid Overvoltage",
		"0003": "Grid Undervoltage",
		"0007": "Grid Power Outage",
		"0042": AlarmNameDefault,
	}
	for value, want := range cases {
		if got := DecodeAlarmName(value); got != want {
			t.Fatalf("alarm %s: expected %q, got %q", value, want, got)
		}
	}
}
