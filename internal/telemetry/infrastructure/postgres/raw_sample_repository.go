package postgres

import (
	"context"
	"errors"
	"fmt"

	telemetry "solarpark-cloud/internal/telemetry/domain"
)

const defaultRawSamplesTable = "raw_samples"

// RawSampleRepository is a Postgres implementation for raw telemetry
// payloads. Samples are written once and never updated.
type RawSampleRepository struct {
	db    DBTX
	table string
}

// NewRawSampleRepository constructs a repository.
func NewRawSampleRepository(db DBTX, opts ...RawSampleOption) *RawSampleRepository {
	repo := &RawSampleRepository{db: db, table: defaultRawSamplesTable}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// RawSampleOption configures the repository.
type RawSampleOption func(*RawSampleRepository)

// WithRawSamplesTable overrides the default table name.
func WithRawSamplesTable(table string) RawSampleOption {
	return func(repo *RawSampleRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// Insert appends a raw sample.
func (r *RawSampleRepository) Insert(ctx context.Context, sample *telemetry.RawSample) error {
	if r == nil || r.db == nil {
		return errors.New("raw sample repo: nil db")
	}
	if sample == nil {
		return telemetry.ErrNilRawSample
	}

	query := fmt.Sprintf(`
INSERT INTO %s (imei, payload, received_at)
VALUES ($1, $2, $3)
RETURNING id`, r.table)

	return r.db.QueryRowContext(
		ctx,
		query,
		sample.IMEI,
		sample.Payload,
		sample.ReceivedAt.UTC(),
	).Scan(&sample.ID)
}
