package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	masterdata "solarpark-cloud/internal/masterdata/domain"
	"solarpark-cloud/internal/observability/metrics"
	"solarpark-cloud/internal/reports/application/events"
	reports "solarpark-cloud/internal/reports/domain"
)

// LocationSource resolves requested location ids.
type LocationSource interface {
	Get(ctx context.Context, id string) (*masterdata.Location, error)
}

// ArtifactWriter renders one location's build result to durable storage
// under the report's directory and returns the written path.
type ArtifactWriter interface {
	WriteWorkbook(ctx context.Context, reportID string, result *BuildResult) (string, error)
}

// FinishPublisher notifies listeners of a terminal report status.
type FinishPublisher interface {
	PublishReportFinished(ctx context.Context, event events.ReportFinished) error
}

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// SystemClock is the wall clock.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// Orchestrator drives report generation location by location.
type Orchestrator struct {
	repo            reports.Repository
	locations       LocationSource
	builder         *Builder
	writer          ArtifactWriter
	publisher       FinishPublisher
	clock           Clock
	logger          *log.Logger
	continueOnError bool
}

// NewOrchestrator constructs an orchestrator.
func NewOrchestrator(
	repo reports.Repository,
	locations LocationSource,
	builder *Builder,
	writer ArtifactWriter,
	publisher FinishPublisher,
	clock Clock,
	logger *log.Logger,
	continueOnError bool,
) (*Orchestrator, error) {
	if repo == nil {
		return nil, errors.New("report orchestrator: nil repository")
	}
	if locations == nil {
		return nil, errors.New("report orchestrator: nil location source")
	}
	if builder == nil {
		return nil, errors.New("report orchestrator: nil builder")
	}
	if writer == nil {
		return nil, errors.New("report orchestrator: nil artifact writer")
	}
	if clock == nil {
		clock = SystemClock{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Orchestrator{
		repo:            repo,
		locations:       locations,
		builder:         builder,
		writer:          writer,
		publisher:       publisher,
		clock:           clock,
		logger:          logger,
		continueOnError: continueOnError,
	}, nil
}

// Run generates all artifacts for one report. Locations are processed
// sequentially; the report reaches exactly one terminal status. By default
// the first failing location aborts the rest; with continueOnError the
// remaining locations still run and the report ends in Error naming the
// failures.
func (o *Orchestrator) Run(ctx context.Context, reportID string) error {
	started := o.clock.Now()

	report, err := o.repo.Get(ctx, reportID)
	if err != nil {
		return fmt.Errorf("report orchestrator: load %s: %w", reportID, err)
	}
	if report == nil {
		return reports.ErrReportNotFound
	}
	if report.Status.Terminal() {
		return nil
	}

	if err := report.MarkGenerating(started); err != nil {
		return fmt.Errorf("report orchestrator: %s: %w", reportID, err)
	}
	if err := o.repo.UpdateStatus(ctx, report); err != nil {
		return fmt.Errorf("report orchestrator: persist generating: %w", err)
	}
	if report.StartedAt != nil {
		metrics.ObserveReportQueueLag(metrics.ResultSuccess, report.StartedAt.Sub(report.CreatedAt))
	}

	var failures []string
	for _, locationID := range report.LocationIDs {
		if err := o.buildLocation(ctx, report, locationID); err != nil {
			o.logger.Printf("report %s: location %s failed: %v", report.ID, locationID, err)
			failures = append(failures, fmt.Sprintf("%s: %v", locationID, err))
			if !o.continueOnError {
				break
			}
		}
	}

	status := reports.StatusSuccess
	message := ""
	if len(failures) > 0 {
		status = reports.StatusError
		message = "failed locations: " + strings.Join(failures, "; ")
	}
	if err := report.Finish(status, message, o.clock.Now()); err != nil {
		return fmt.Errorf("report orchestrator: finish %s: %w", reportID, err)
	}
	if err := o.repo.UpdateStatus(ctx, report); err != nil {
		return fmt.Errorf("report orchestrator: persist terminal: %w", err)
	}

	result := metrics.ResultSuccess
	if status == reports.StatusError {
		result = metrics.ResultError
	}
	metrics.ObserveReportJob(result, o.clock.Now().Sub(started))

	if o.publisher != nil {
		event := events.ReportFinished{
			ReportID:   report.ID,
			Owner:      report.OwnerID,
			Status:     string(status),
			Message:    message,
			OccurredAt: o.clock.Now(),
		}
		if err := o.publisher.PublishReportFinished(ctx, event); err != nil {
			o.logger.Printf("report %s: publish finished: %v", report.ID, err)
		}
	}

	if status == reports.StatusError {
		return fmt.Errorf("report orchestrator: %s: %s", report.ID, message)
	}
	return nil
}

func (o *Orchestrator) buildLocation(ctx context.Context, report *reports.Report, locationID string) error {
	location, err := o.locations.Get(ctx, locationID)
	if err != nil {
		return err
	}
	if location == nil {
		return masterdata.ErrLocationNotFound
	}

	result, err := o.builder.Build(ctx, *location, report.FromDate, report.ToDate)
	if err != nil {
		return err
	}

	if _, err := o.writer.WriteWorkbook(ctx, report.ID, result); err != nil {
		return err
	}

	if err := o.repo.AttachLocation(ctx, report.ID, location.Name); err != nil {
		return err
	}
	report.AttachLocation(location.Name)
	return nil
}
