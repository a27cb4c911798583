package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	reports "solarpark-cloud/internal/reports/domain"
)

const (
	defaultReportsTable         = "reports"
	defaultReportLocationsTable = "report_locations"
	defaultReportArtifactsTable = "report_artifacts"
)

const reportColumns = "id, owner_id, name, frequency, category, from_date, to_date, status, message, created_at, updated_at, started_at, finished_at"

// DBTX abstracts *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// ReportRepository is a Postgres implementation for report jobs.
type ReportRepository struct {
	db             DBTX
	table          string
	locationsTable string
	artifactsTable string
}

// NewReportRepository constructs a repository.
func NewReportRepository(db DBTX, opts ...ReportOption) *ReportRepository {
	repo := &ReportRepository{
		db:             db,
		table:          defaultReportsTable,
		locationsTable: defaultReportLocationsTable,
		artifactsTable: defaultReportArtifactsTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// ReportOption configures the repository.
type ReportOption func(*ReportRepository)

// WithReportsTable overrides the default reports table name.
func WithReportsTable(table string) ReportOption {
	return func(repo *ReportRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

// WithReportLocationsTable overrides the requested-locations table name.
func WithReportLocationsTable(table string) ReportOption {
	return func(repo *ReportRepository) {
		if table != "" {
			repo.locationsTable = table
		}
	}
}

// WithReportArtifactsTable overrides the generated-artifacts table name.
func WithReportArtifactsTable(table string) ReportOption {
	return func(repo *ReportRepository) {
		if table != "" {
			repo.artifactsTable = table
		}
	}
}

// Create inserts a report and its requested location set.
func (r *ReportRepository) Create(ctx context.Context, report *reports.Report) error {
	if r == nil || r.db == nil {
		return errors.New("report repo: nil db")
	}
	if err := report.Validate(); err != nil {
		return err
	}

	query := fmt.Sprintf(`
INSERT INTO %s (
	id,
	owner_id,
	name,
	frequency,
	category,
	from_date,
	to_date,
	status,
	message,
	created_at,
	updated_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11
)`, r.table)

	_, err := r.db.ExecContext(
		ctx,
		query,
		report.ID,
		report.OwnerID,
		report.Name,
		report.Frequency,
		report.Category,
		report.FromDate,
		report.ToDate,
		string(report.Status),
		report.Message,
		report.CreatedAt,
		report.UpdatedAt,
	)
	if err != nil {
		return err
	}

	insert := fmt.Sprintf("INSERT INTO %s (report_id, location_id, position) VALUES ($1, $2, $3)", r.locationsTable)
	for i, locationID := range report.LocationIDs {
		if _, err := r.db.ExecContext(ctx, insert, report.ID, locationID, i); err != nil {
			return err
		}
	}
	return nil
}

// Get loads a report with its requested locations and generated artifacts.
// Returns nil when absent.
func (r *ReportRepository) Get(ctx context.Context, id string) (*reports.Report, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("report repo: nil db")
	}
	if id == "" {
		return nil, errors.New("report repo: empty id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, reportColumns, r.table)

	var report reports.Report
	if err := scanReport(r.db.QueryRowContext(ctx, query, id), &report); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, &report); err != nil {
		return nil, err
	}
	return &report, nil
}

// ListByOwner loads a user's reports, newest first.
func (r *ReportRepository) ListByOwner(ctx context.Context, ownerID string) ([]reports.Report, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("report repo: nil db")
	}
	if ownerID == "" {
		return nil, errors.New("report repo: empty owner id")
	}

	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE owner_id = $1
ORDER BY created_at DESC, id DESC`, reportColumns, r.table)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []reports.Report
	for rows.Next() {
		var report reports.Report
		if err := scanReport(rows, &report); err != nil {
			return nil, err
		}
		result = append(result, report)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range result {
		if err := r.loadChildren(ctx, &result[i]); err != nil {
			return nil, err
		}
	}
	return result, nil
}

// UpdateStatus persists lifecycle fields after a transition.
func (r *ReportRepository) UpdateStatus(ctx context.Context, report *reports.Report) error {
	if r == nil || r.db == nil {
		return errors.New("report repo: nil db")
	}
	if report == nil {
		return reports.ErrNilReport
	}

	query := fmt.Sprintf(`
UPDATE %s
SET status = $2,
	message = $3,
	updated_at = $4,
	started_at = $5,
	finished_at = $6
WHERE id = $1`, r.table)

	result, err := r.db.ExecContext(
		ctx,
		query,
		report.ID,
		string(report.Status),
		report.Message,
		report.UpdatedAt,
		nullableTime(report.StartedAt),
		nullableTime(report.FinishedAt),
	)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err == nil && affected == 0 {
		return reports.ErrReportNotFound
	}
	return nil
}

// AttachLocation records one generated artifact.
func (r *ReportRepository) AttachLocation(ctx context.Context, id, locationName string) error {
	if r == nil || r.db == nil {
		return errors.New("report repo: nil db")
	}
	if id == "" || locationName == "" {
		return errors.New("report repo: empty attach arguments")
	}
	query := fmt.Sprintf(`
INSERT INTO %s (report_id, location_name)
VALUES ($1, $2)
ON CONFLICT DO NOTHING`, r.artifactsTable)
	_, err := r.db.ExecContext(ctx, query, id, locationName)
	return err
}

func (r *ReportRepository) loadChildren(ctx context.Context, report *reports.Report) error {
	locations, err := r.collectStrings(ctx, fmt.Sprintf(`
SELECT location_id
FROM %s
WHERE report_id = $1
ORDER BY position ASC`, r.locationsTable), report.ID)
	if err != nil {
		return err
	}
	report.LocationIDs = locations

	artifacts, err := r.collectStrings(ctx, fmt.Sprintf(`
SELECT location_name
FROM %s
WHERE report_id = $1
ORDER BY location_name ASC`, r.artifactsTable), report.ID)
	if err != nil {
		return err
	}
	report.GeneratedLocations = artifacts
	return nil
}

func (r *ReportRepository) collectStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []string
	for rows.Next() {
		var value string
		if err := rows.Scan(&value); err != nil {
			return nil, err
		}
		result = append(result, value)
	}
	return result, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner, report *reports.Report) error {
	var status string
	var startedAt, finishedAt sql.NullTime
	if err := row.Scan(
		&report.ID,
		&report.OwnerID,
		&report.Name,
		&report.Frequency,
		&report.Category,
		&report.FromDate,
		&report.ToDate,
		&status,
		&report.Message,
		&report.CreatedAt,
		&report.UpdatedAt,
		&startedAt,
		&finishedAt,
	); err != nil {
		return err
	}
	report.Status = reports.Status(status)
	report.FromDate = report.FromDate.UTC()
	report.ToDate = report.ToDate.UTC()
	report.CreatedAt = report.CreatedAt.UTC()
	report.UpdatedAt = report.UpdatedAt.UTC()
	if startedAt.Valid {
		at := startedAt.Time.UTC()
		report.StartedAt = &at
	}
	if finishedAt.Valid {
		at := finishedAt.Time.UTC()
		report.FinishedAt = &at
	}
	return nil
}

func nullableTime(value *time.Time) sql.NullTime {
	if value == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value.UTC(), Valid: true}
}
