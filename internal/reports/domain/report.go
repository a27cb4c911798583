// Package reports holds the report aggregate and its lifecycle rules.
package reports

import (
	"context"
	"time"
)

// Status is a report lifecycle state.
type Status string

const (
	StatusPending    Status = "Pending"
	StatusGenerating Status = "Generating"
	StatusSuccess    Status = "Success"
	StatusError      Status = "Error"
)

// Terminal reports whether a status admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusSuccess || s == StatusError
}

// Report is one generation job over a set of locations and a date range.
// FromDate and ToDate are inclusive UTC dates. GeneratedLocations lists the
// location names whose workbooks were written; on a partial failure it can
// be shorter than LocationIDs even when the report ends in Error.
type Report struct {
	ID                 string
	OwnerID            string
	Name               string
	Frequency          string
	Category           string
	LocationIDs        []string
	FromDate           time.Time
	ToDate             time.Time
	Status             Status
	Message            string
	GeneratedLocations []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
	StartedAt          *time.Time
	FinishedAt         *time.Time
}

// Validate checks invariants before persistence.
func (r *Report) Validate() error {
	if r == nil {
		return ErrNilReport
	}
	if r.ID == "" {
		return ErrEmptyReportID
	}
	if r.OwnerID == "" {
		return ErrEmptyOwner
	}
	if len(r.LocationIDs) == 0 {
		return ErrNoLocations
	}
	if r.FromDate.IsZero() || r.ToDate.IsZero() || r.ToDate.Before(r.FromDate) {
		return ErrInvalidRange
	}
	return nil
}

// MarkGenerating moves a pending report into the generating state.
func (r *Report) MarkGenerating(at time.Time) error {
	if r == nil {
		return ErrNilReport
	}
	if r.Status != StatusPending {
		return ErrInvalidTransition
	}
	at = at.UTC()
	r.Status = StatusGenerating
	r.StartedAt = &at
	r.UpdatedAt = at
	return nil
}

// Finish moves a generating report into exactly one terminal state.
func (r *Report) Finish(status Status, message string, at time.Time) error {
	if r == nil {
		return ErrNilReport
	}
	if !status.Terminal() {
		return ErrInvalidTransition
	}
	if r.Status != StatusGenerating {
		return ErrInvalidTransition
	}
	at = at.UTC()
	r.Status = status
	r.Message = message
	r.FinishedAt = &at
	r.UpdatedAt = at
	return nil
}

// AttachLocation records one location whose workbook was generated.
func (r *Report) AttachLocation(name string) {
	if r == nil || name == "" {
		return
	}
	for _, existing := range r.GeneratedLocations {
		if existing == name {
			return
		}
	}
	r.GeneratedLocations = append(r.GeneratedLocations, name)
}

// OwnedBy reports whether the given user submitted the report.
func (r *Report) OwnedBy(userID string) bool {
	return r != nil && userID != "" && r.OwnerID == userID
}

// Repository manages report persistence. Get returns nil without error
// when no row matches.
type Repository interface {
	Create(ctx context.Context, report *Report) error
	Get(ctx context.Context, id string) (*Report, error)
	ListByOwner(ctx context.Context, ownerID string) ([]Report, error)
	UpdateStatus(ctx context.Context, report *Report) error
	AttachLocation(ctx context.Context, id, locationName string) error
}
