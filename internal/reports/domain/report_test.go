package reports

import (
	"errors"
	"testing"
	"time"
)

func newPendingReport() *Report {
	return &Report{
		ID:          "rep-1",
		OwnerID:     "user-1",
		LocationIDs: []string{"loc-1"},
		FromDate:    time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
		ToDate:      time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC),
		Status:      StatusPending,
	}
}

func TestReportLifecycle(t *testing.T) {
	report := newPendingReport()
	now := time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC)

	if err := report.MarkGenerating(now); err != nil {
		t.Fatalf("MarkGenerating: %v", err)
	}
	if report.Status != StatusGenerating {
		t.Fatalf("expected Generating, got %s", report.Status)
	}
	if report.StartedAt == nil || !report.StartedAt.Equal(now) {
		t.Fatalf("expected started_at set")
	}

	if err := report.Finish(StatusSuccess, "", now.Add(time.Minute)); err != nil {
		t.Fatalf("Finish: %v", err)
	}
	if report.Status != StatusSuccess {
		t.Fatalf("expected Success, got %s", report.Status)
	}
}

func TestReportSingleTerminalTransition(t *testing.T) {
	report := newPendingReport()
	now := time.Now().UTC()
	if err := report.MarkGenerating(now); err != nil {
		t.Fatalf("MarkGenerating: %v", err)
	}
	if err := report.Finish(StatusError, "builder failed", now); err != nil {
		t.Fatalf("Finish: %v", err)
	}

	if err := report.Finish(StatusSuccess, "", now); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if report.Status != StatusError {
		t.Fatalf("terminal status changed to %s", report.Status)
	}
}

func TestReportCannotFinishFromPending(t *testing.T) {
	report := newPendingReport()
	err := report.Finish(StatusSuccess, "", time.Now().UTC())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestReportCannotFinishNonTerminal(t *testing.T) {
	report := newPendingReport()
	if err := report.MarkGenerating(time.Now().UTC()); err != nil {
		t.Fatalf("MarkGenerating: %v", err)
	}
	err := report.Finish(StatusGenerating, "", time.Now().UTC())
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestReportValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Report)
		want   error
	}{
		{"empty owner", func(r *Report) { r.OwnerID = "" }, ErrEmptyOwner},
		{"no locations", func(r *Report) { r.LocationIDs = nil }, ErrNoLocations},
		{"reversed range", func(r *Report) { r.ToDate = r.FromDate.AddDate(0, 0, -1) }, ErrInvalidRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			report := newPendingReport()
			tc.mutate(report)
			if err := report.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestAttachLocationDeduplicates(t *testing.T) {
	report := newPendingReport()
	report.AttachLocation("North Ridge")
	report.AttachLocation("North Ridge")
	report.AttachLocation("South Field")
	if len(report.GeneratedLocations) != 2 {
		t.Fatalf("expected 2 generated locations, got %v", report.GeneratedLocations)
	}
}
