package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	telemetry "solarpark-cloud/internal/telemetry/domain"
)

const (
	defaultReadingsTable = "inverter_readings"
	defaultDevicesTable  = "devices"
)

const readingColumns = `r.id, r.device_id, r.imei, r.sid, r.uid, r.rcnt,
	r.daily_energy, r.total_energy, r.active_power, r.specific_yield,
	r.inverter_active_power, r.inverter_daily_energy, r.inverter_total_energy,
	r.meter_active_power, r.nominal_power,
	r.alarm_status, r.device_state, r.alarm_name, r.alarm_at,
	r.is_active, r.created_at`

// ReadingRepository is a Postgres implementation for inverter readings.
type ReadingRepository struct {
	db           DBTX
	table        string
	devicesTable string
}

// NewReadingRepository constructs a repository.
func NewReadingRepository(db DBTX, opts ...ReadingOption) *ReadingRepository {
	repo := &ReadingRepository{db: db, table: defaultReadingsTable, devicesTable: defaultDevicesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ReadingOption configures the repository.
type ReadingOption func(*ReadingRepository)

// WithReadingsTable overrides the default readings table name.
func WithReadingsTable(table string) ReadingOption {
	return func(repo *ReadingRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithReadingsDevicesTable overrides the devices table used for location
// restriction joins.
func WithReadingsDevicesTable(table string) ReadingOption {
	return func(repo *ReadingRepository) {
		if table != "" {
			repo.devicesTable = table
		}
	}
}

// Insert appends a reading.
func (r *ReadingRepository) Insert(ctx context.Context, reading *telemetry.Reading) error {
	if r == nil || r.db == nil {
		return errors.New("reading repo: nil db")
	}
	if reading == nil {
		return telemetry.ErrNilReading
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	device_id, imei, sid, uid, rcnt,
	daily_energy, total_energy, active_power, specific_yield,
	inverter_active_power, inverter_daily_energy, inverter_total_energy,
	meter_active_power, nominal_power,
	alarm_status, device_state, alarm_name, alarm_at,
	is_active, created_at
) VALUES (
	$1, $2, $3, $4, $5,
	$6, $7, $8, $9,
	$10, $11, $12,
	$13, $14,
	$15, $16, $17, $18,
	$19, $20
)
RETURNING id`, r.table)

	return r.db.QueryRowContext(
		ctx,
		query,
		reading.DeviceID,
		reading.IMEI,
		reading.SID,
		reading.UID,
		reading.RCnt,
		reading.DailyEnergy,
		reading.TotalEnergy,
		reading.ActivePower,
		reading.SpecificYield,
		reading.InverterActivePower,
		reading.InverterDailyEnergy,
		reading.InverterTotalEnergy,
		reading.MeterActivePower,
		reading.NominalPower,
		reading.AlarmStatus,
		reading.DeviceState,
		reading.AlarmName,
		reading.AlarmAt,
		reading.IsActive,
		reading.CreatedAt.UTC(),
	).Scan(&reading.ID)
}

// CountByDevice counts readings that reference a device.
func (r *ReadingRepository) CountByDevice(ctx context.Context, deviceID string) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("reading repo: nil db")
	}
	if deviceID == "" {
		return 0, errors.New("reading repo: empty device id")
	}
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE device_id = $1`, r.table)
	var count int64
	if err := r.db.QueryRowContext(ctx, query, deviceID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// LatestBefore returns the latest active reading strictly before the
// given time for any of the location's devices, or nil. The bound is
// exclusive so a reading stamped exactly at a period boundary counts
// toward the following period only.
func (r *ReadingRepository) LatestBefore(ctx context.Context, locationID string, at time.Time) (*telemetry.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s r
JOIN %s d ON d.id = r.device_id
WHERE d.location_id = $1
	AND r.is_active = TRUE
	AND r.created_at < $2
ORDER BY r.created_at DESC, r.id DESC
LIMIT 1`, readingColumns, r.table, r.devicesTable)
	return r.queryOne(ctx, query, locationID, at.UTC())
}

// EarliestAfter returns the earliest active reading at or after the given
// time for any of the location's devices, or nil.
func (r *ReadingRepository) EarliestAfter(ctx context.Context, locationID string, at time.Time) (*telemetry.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s r
JOIN %s d ON d.id = r.device_id
WHERE d.location_id = $1
	AND r.is_active = TRUE
	AND r.created_at >= $2
ORDER BY r.created_at ASC, r.id ASC
LIMIT 1`, readingColumns, r.table, r.devicesTable)
	return r.queryOne(ctx, query, locationID, at.UTC())
}

// ListRange returns active readings within [from, to) for the location's
// devices in ascending time order.
func (r *ReadingRepository) ListRange(ctx context.Context, locationID string, from, to time.Time) ([]telemetry.Reading, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s r
JOIN %s d ON d.id = r.device_id
WHERE d.location_id = $1
	AND r.is_active = TRUE
	AND r.created_at >= $2
	AND r.created_at < $3
ORDER BY r.created_at ASC, r.id ASC`, readingColumns, r.table, r.devicesTable)

	rows, err := r.db.QueryContext(ctx, query, locationID, from.UTC(), to.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []telemetry.Reading
	for rows.Next() {
		reading, err := scanReading(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *reading)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// DayAggregates returns avg/min/max/count over the location's active
// readings within [dayStart, dayEnd).
func (r *ReadingRepository) DayAggregates(ctx context.Context, locationID string, dayStart, dayEnd time.Time) (*telemetry.DayAggregates, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("reading repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT COUNT(*),
	COALESCE(AVG(r.daily_energy), 0),
	COALESCE(MIN(r.active_power), 0),
	COALESCE(MAX(r.active_power), 0)
FROM %s r
JOIN %s d ON d.id = r.device_id
WHERE d.location_id = $1
	AND r.is_active = TRUE
	AND r.created_at >= $2
	AND r.created_at < $3`, r.table, r.devicesTable)

	var agg telemetry.DayAggregates
	if err := r.db.QueryRowContext(ctx, query, locationID, dayStart.UTC(), dayEnd.UTC()).Scan(
		&agg.Count,
		&agg.AvgDailyEnergy,
		&agg.MinActivePower,
		&agg.MaxActivePower,
	); err != nil {
		return nil, err
	}
	return &agg, nil
}

func (r *ReadingRepository) queryOne(ctx context.Context, query string, args ...any) (*telemetry.Reading, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	reading, err := scanReading(rows)
	if err != nil {
		return nil, err
	}
	return reading, rows.Err()
}

func scanReading(rows *sql.Rows) (*telemetry.Reading, error) {
	var reading telemetry.Reading
	var alarmAt sql.NullTime
	if err := rows.Scan(
		&reading.ID,
		&reading.DeviceID,
		&reading.IMEI,
		&reading.SID,
		&reading.UID,
		&reading.RCnt,
		&reading.DailyEnergy,
		&reading.TotalEnergy,
		&reading.ActivePower,
		&reading.SpecificYield,
		&reading.InverterActivePower,
		&reading.InverterDailyEnergy,
		&reading.InverterTotalEnergy,
		&reading.MeterActivePower,
		&reading.NominalPower,
		&reading.AlarmStatus,
		&reading.DeviceState,
		&reading.AlarmName,
		&alarmAt,
		&reading.IsActive,
		&reading.CreatedAt,
	); err != nil {
		return nil, err
	}
	if alarmAt.Valid {
		at := alarmAt.Time.UTC()
		reading.AlarmAt = &at
	}
	reading.CreatedAt = reading.CreatedAt.UTC()
	return &reading, nil
}
