package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	masterdata "solarpark-cloud/internal/masterdata/domain"
)

const defaultDevicesTable = "devices"

const deviceColumns = "id, name, imei, location_id, is_suspended, is_active, created_at, updated_at"

// DeviceRepository is a Postgres implementation for devices.
type DeviceRepository struct {
	db    DBTX
	table string
}

// NewDeviceRepository constructs a repository.
func NewDeviceRepository(db DBTX, opts ...DeviceOption) *DeviceRepository {
	repo := &DeviceRepository{db: db, table: defaultDevicesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// DeviceOption configures the repository.
type DeviceOption func(*DeviceRepository)

// WithDeviceTable overrides the default table name.
func WithDeviceTable(table string) DeviceOption {
	return func(repo *DeviceRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Get loads a device by id. Returns nil when absent.
func (r *DeviceRepository) Get(ctx context.Context, id string) (*masterdata.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if id == "" {
		return nil, errors.New("device repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, deviceColumns, r.table)

	return r.queryOne(ctx, query, id)
}

// FindActiveByIMEI loads the active device claiming the given hardware
// identifier. Returns nil when no active device matches.
func (r *DeviceRepository) FindActiveByIMEI(ctx context.Context, imei string) (*masterdata.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if imei == "" {
		return nil, errors.New("device repo: empty imei")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE imei = $1 AND is_active
LIMIT 1`, deviceColumns, r.table)

	return r.queryOne(ctx, query, imei)
}

// List loads all devices ordered by id.
func (r *DeviceRepository) List(ctx context.Context) ([]masterdata.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
ORDER BY id ASC`, deviceColumns, r.table)

	return r.queryMany(ctx, query)
}

// ListByLocation loads devices assigned to a location.
func (r *DeviceRepository) ListByLocation(ctx context.Context, locationID string) ([]masterdata.Device, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("device repo: nil db")
	}
	if locationID == "" {
		return nil, errors.New("device repo: empty location id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE location_id = $1
ORDER BY id ASC`, deviceColumns, r.table)

	return r.queryMany(ctx, query, locationID)
}

// CountByLocation counts devices assigned to a location.
func (r *DeviceRepository) CountByLocation(ctx context.Context, locationID string) (int, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("device repo: nil db")
	}
	if locationID == "" {
		return 0, errors.New("device repo: empty location id")
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE location_id = $1", r.table)

	var count int
	if err := r.db.QueryRowContext(ctx, query, locationID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

// Save upserts a device.
func (r *DeviceRepository) Save(ctx context.Context, device *masterdata.Device) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}
	if err := device.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	name,
	imei,
	location_id,
	is_suspended,
	is_active
) VALUES (
	$1, $2, $3, NULLIF($4, ''), $5, $6
)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	imei = EXCLUDED.imei,
	location_id = EXCLUDED.location_id,
	is_suspended = EXCLUDED.is_suspended,
	is_active = EXCLUDED.is_active,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		device.ID,
		device.Name,
		device.IMEI,
		device.LocationID,
		device.IsSuspended,
		device.IsActive,
	)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	if device.CreatedAt.IsZero() {
		device.CreatedAt = now
	}
	device.UpdatedAt = now
	return nil
}

// Delete removes a device.
func (r *DeviceRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("device repo: nil db")
	}
	if id == "" {
		return errors.New("device repo: empty id")
	}
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table), id)
	return err
}

func (r *DeviceRepository) queryOne(ctx context.Context, query string, args ...any) (*masterdata.Device, error) {
	var device masterdata.Device
	if err := scanDevice(r.db.QueryRowContext(ctx, query, args...), &device); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &device, nil
}

func (r *DeviceRepository) queryMany(ctx context.Context, query string, args ...any) ([]masterdata.Device, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []masterdata.Device
	for rows.Next() {
		var device masterdata.Device
		if err := scanDevice(rows, &device); err != nil {
			return nil, err
		}
		result = append(result, device)
	}
	return result, rows.Err()
}

func scanDevice(row rowScanner, device *masterdata.Device) error {
	var locationID sql.NullString
	if err := row.Scan(
		&device.ID,
		&device.Name,
		&device.IMEI,
		&locationID,
		&device.IsSuspended,
		&device.IsActive,
		&device.CreatedAt,
		&device.UpdatedAt,
	); err != nil {
		return err
	}
	device.LocationID = locationID.String
	device.CreatedAt = device.CreatedAt.UTC()
	device.UpdatedAt = device.UpdatedAt.UTC()
	return nil
}
