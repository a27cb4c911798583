package telemetry

import (
	"context"
	"time"
)

// Reading is one decoded telemetry sample from a device. Numeric fields
// are nil when their registers were absent from the payload; an all-nil
// reading is still persisted so that alarm-only samples remain auditable.
// CreatedAt is the ordering key: readings form an append-only,
// time-ordered sequence per device.
type Reading struct {
	ID       int64
	DeviceID string
	IMEI     string
	SID      string
	UID      string
	RCnt     string

	DailyEnergy         *float64
	TotalEnergy         *float64
	ActivePower         *float64
	SpecificYield       *float64
	InverterActivePower *float64
	InverterDailyEnergy *float64
	InverterTotalEnergy *float64
	MeterActivePower    *float64
	NominalPower        *float64

	AlarmStatus string
	DeviceState string
	AlarmName   string
	AlarmAt     *time.Time

	IsActive  bool
	CreatedAt time.Time
}

// RawSample is the unmodified telemetry payload, stored once per
// ingestion attempt before decoding. Immutable; never read by business
// logic after creation.
type RawSample struct {
	ID         int64
	IMEI       string
	Payload    []byte
	ReceivedAt time.Time
}

// ReadingRepository persists decoded readings.
type ReadingRepository interface {
	Insert(ctx context.Context, reading *Reading) error
	CountByDevice(ctx context.Context, deviceID string) (int64, error)
}

// ReadingQuery loads readings for report generation and summaries. All
// queries are restricted to active readings of the location's devices.
// Upper time bounds are exclusive: LatestBefore looks strictly before
// at, and ListRange covers [from, to).
type ReadingQuery interface {
	LatestBefore(ctx context.Context, locationID string, at time.Time) (*Reading, error)
	EarliestAfter(ctx context.Context, locationID string, at time.Time) (*Reading, error)
	ListRange(ctx context.Context, locationID string, from, to time.Time) ([]Reading, error)
	DayAggregates(ctx context.Context, locationID string, dayStart, dayEnd time.Time) (*DayAggregates, error)
}

// DayAggregates summarizes one location's readings for a single day.
type DayAggregates struct {
	Count          int64
	AvgDailyEnergy float64
	MinActivePower float64
	MaxActivePower float64
}

// RawSampleRepository persists raw telemetry payloads.
type RawSampleRepository interface {
	Insert(ctx context.Context, sample *RawSample) error
}
