package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	masterdata "solarpark-cloud/internal/masterdata/domain"
)

const (
	defaultLocationsTable     = "locations"
	defaultLocationUsersTable = "location_users"
)

const locationColumns = "id, name, address, pincode, latitude, longitude, capacity_kwp, vendor, is_suspended, is_active, created_at, updated_at"

// LocationRepository is a Postgres implementation for plant locations.
type LocationRepository struct {
	db         DBTX
	table      string
	usersTable string
}

// NewLocationRepository constructs a repository.
func NewLocationRepository(db DBTX, opts ...LocationOption) *LocationRepository {
	repo := &LocationRepository{
		db:         db,
		table:      defaultLocationsTable,
		usersTable: defaultLocationUsersTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// LocationOption configures the repository.
type LocationOption func(*LocationRepository)

// WithLocationTable overrides the default locations table name.
func WithLocationTable(table string) LocationOption {
	return func(repo *LocationRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithLocationUsersTable overrides the default owner join table name.
func WithLocationUsersTable(table string) LocationOption {
	return func(repo *LocationRepository) {
		if table != "" {
			repo.usersTable = table
		}
	}
}

// Get loads a location by id, owners included. Returns nil when absent.
func (r *LocationRepository) Get(ctx context.Context, id string) (*masterdata.Location, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("location repo: nil db")
	}
	if id == "" {
		return nil, errors.New("location repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, locationColumns, r.table)

	var location masterdata.Location
	if err := scanLocation(r.db.QueryRowContext(ctx, query, id), &location); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	owners, err := r.owners(ctx, location.ID)
	if err != nil {
		return nil, err
	}
	location.UserIDs = owners
	return &location, nil
}

// List loads all locations ordered by id.
func (r *LocationRepository) List(ctx context.Context) ([]masterdata.Location, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("location repo: nil db")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
ORDER BY id ASC`, locationColumns, r.table)

	return r.queryLocations(ctx, query)
}

// ListByUser loads locations owned by the given user, ordered by id.
func (r *LocationRepository) ListByUser(ctx context.Context, userID string) ([]masterdata.Location, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("location repo: nil db")
	}
	if userID == "" {
		return nil, errors.New("location repo: empty user id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id IN (SELECT location_id FROM %s WHERE user_id = $1)
ORDER BY id ASC`, locationColumns, r.table, r.usersTable)

	return r.queryLocations(ctx, query, userID)
}

// Save upserts a location and replaces its owner set.
func (r *LocationRepository) Save(ctx context.Context, location *masterdata.Location) error {
	if r == nil || r.db == nil {
		return errors.New("location repo: nil db")
	}
	if err := location.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	name,
	address,
	pincode,
	latitude,
	longitude,
	capacity_kwp,
	vendor,
	is_suspended,
	is_active
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10
)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	address = EXCLUDED.address,
	pincode = EXCLUDED.pincode,
	latitude = EXCLUDED.latitude,
	longitude = EXCLUDED.longitude,
	capacity_kwp = EXCLUDED.capacity_kwp,
	vendor = EXCLUDED.vendor,
	is_suspended = EXCLUDED.is_suspended,
	is_active = EXCLUDED.is_active,
	updated_at = NOW()`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		location.ID,
		location.Name,
		location.Address,
		location.Pincode,
		location.Latitude,
		location.Longitude,
		location.CapacityKWp,
		string(location.Vendor),
		location.IsSuspended,
		location.IsActive,
	)
	if err != nil {
		return err
	}

	if err := r.replaceOwners(ctx, location.ID, location.UserIDs); err != nil {
		return err
	}

	now := time.Now().UTC()
	if location.CreatedAt.IsZero() {
		location.CreatedAt = now
	}
	location.UpdatedAt = now
	return nil
}

// Delete removes a location and its owner rows.
func (r *LocationRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("location repo: nil db")
	}
	if id == "" {
		return errors.New("location repo: empty id")
	}

	if _, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE location_id = $1", r.usersTable), id); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = $1", r.table), id)
	return err
}

func (r *LocationRepository) queryLocations(ctx context.Context, query string, args ...any) ([]masterdata.Location, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []masterdata.Location
	for rows.Next() {
		var location masterdata.Location
		if err := scanLocation(rows, &location); err != nil {
			return nil, err
		}
		result = append(result, location)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range result {
		owners, err := r.owners(ctx, result[i].ID)
		if err != nil {
			return nil, err
		}
		result[i].UserIDs = owners
	}
	return result, nil
}

func (r *LocationRepository) owners(ctx context.Context, locationID string) ([]string, error) {
	query := fmt.Sprintf(`
SELECT user_id
FROM %s
WHERE location_id = $1
ORDER BY user_id ASC`, r.usersTable)

	rows, err := r.db.QueryContext(ctx, query, locationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var owners []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		owners = append(owners, userID)
	}
	return owners, rows.Err()
}

func (r *LocationRepository) replaceOwners(ctx context.Context, locationID string, userIDs []string) error {
	if _, err := r.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE location_id = $1", r.usersTable), locationID); err != nil {
		return err
	}
	insert := fmt.Sprintf("INSERT INTO %s (location_id, user_id) VALUES ($1, $2)", r.usersTable)
	for _, userID := range userIDs {
		if userID == "" {
			continue
		}
		if _, err := r.db.ExecContext(ctx, insert, locationID, userID); err != nil {
			return err
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLocation(row rowScanner, location *masterdata.Location) error {
	var vendor string
	if err := row.Scan(
		&location.ID,
		&location.Name,
		&location.Address,
		&location.Pincode,
		&location.Latitude,
		&location.Longitude,
		&location.CapacityKWp,
		&vendor,
		&location.IsSuspended,
		&location.IsActive,
		&location.CreatedAt,
		&location.UpdatedAt,
	); err != nil {
		return err
	}
	location.Vendor = masterdata.Vendor(vendor)
	location.CreatedAt = location.CreatedAt.UTC()
	location.UpdatedAt = location.UpdatedAt.UTC()
	return nil
}
