package reports

import "errors"

var (
	ErrNilReport         = errors.New("reports: nil report")
	ErrEmptyReportID     = errors.New("reports: empty id")
	ErrEmptyOwner        = errors.New("reports: empty owner")
	ErrNoLocations       = errors.New("reports: no locations requested")
	ErrInvalidRange      = errors.New("reports: invalid date range")
	ErrInvalidTransition = errors.New("reports: invalid status transition")
	ErrReportNotFound    = errors.New("reports: report not found")
	ErrArtifactNotReady  = errors.New("reports: artifact not ready")
)
