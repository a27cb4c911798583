package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	masterdata "solarpark-cloud/internal/masterdata/domain"
	reports "solarpark-cloud/internal/reports/domain"
)

// Service handles report submission and retrieval. Generation itself is
// asynchronous; Submit returns a pending handle the caller polls.
type Service struct {
	repo        reports.Repository
	locations   LocationSource
	dispatcher  *Dispatcher
	clock       Clock
	storageRoot string
}

// NewService constructs a report service.
func NewService(repo reports.Repository, locations LocationSource, dispatcher *Dispatcher, clock Clock, storageRoot string) (*Service, error) {
	if repo == nil {
		return nil, errors.New("report service: nil repository")
	}
	if locations == nil {
		return nil, errors.New("report service: nil location source")
	}
	if dispatcher == nil {
		return nil, errors.New("report service: nil dispatcher")
	}
	if storageRoot == "" {
		return nil, errors.New("report service: empty storage root")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &Service{
		repo:        repo,
		locations:   locations,
		dispatcher:  dispatcher,
		clock:       clock,
		storageRoot: storageRoot,
	}, nil
}

// SubmitRequest carries the user-supplied report parameters.
type SubmitRequest struct {
	OwnerID     string
	Name        string
	Frequency   string
	Category    string
	LocationIDs []string
	FromDate    time.Time
	ToDate      time.Time
}

// Submit creates a pending report and queues its generation.
func (s *Service) Submit(ctx context.Context, req SubmitRequest) (*reports.Report, error) {
	now := s.clock.Now()
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "solar-report"
	}
	report := &reports.Report{
		ID:          uuid.NewString(),
		OwnerID:     req.OwnerID,
		Name:        name,
		Frequency:   req.Frequency,
		Category:    req.Category,
		LocationIDs: req.LocationIDs,
		FromDate:    dayStart(req.FromDate),
		ToDate:      dayStart(req.ToDate),
		Status:      reports.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := report.Validate(); err != nil {
		return nil, err
	}
	for _, locationID := range req.LocationIDs {
		location, err := s.locations.Get(ctx, locationID)
		if err != nil {
			return nil, err
		}
		if location == nil {
			return nil, fmt.Errorf("%w: %s", masterdata.ErrLocationNotFound, locationID)
		}
	}
	if err := s.repo.Create(ctx, report); err != nil {
		return nil, err
	}
	if err := s.dispatcher.Dispatch(report.ID); err != nil {
		return nil, err
	}
	return report, nil
}

// Get loads a report by id.
func (s *Service) Get(ctx context.Context, id string) (*reports.Report, error) {
	report, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, reports.ErrReportNotFound
	}
	return report, nil
}

// ListByOwner loads reports submitted by a user.
func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]reports.Report, error) {
	if ownerID == "" {
		return nil, reports.ErrEmptyOwner
	}
	return s.repo.ListByOwner(ctx, ownerID)
}

// Archive packages a finished report's workbooks into a zip and returns
// its path. The archive is rebuilt on every call.
func (s *Service) Archive(ctx context.Context, id string) (string, error) {
	report, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if !report.Status.Terminal() {
		return "", reports.ErrArtifactNotReady
	}
	return writeArchive(s.storageRoot, report.ID, archiveFileName(report.Name))
}
