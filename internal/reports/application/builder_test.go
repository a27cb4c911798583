package application

import (
	"context"
	"testing"
	"time"

	masterdata "solarpark-cloud/internal/masterdata/domain"
	telemetry "solarpark-cloud/internal/telemetry/domain"
)

type stubReadingQuery struct {
	latest   *telemetry.Reading
	earliest *telemetry.Reading
	inRange  []telemetry.Reading
}

func (s *stubReadingQuery) LatestBefore(ctx context.Context, locationID string, at time.Time) (*telemetry.Reading, error) {
	return s.latest, nil
}

func (s *stubReadingQuery) EarliestAfter(ctx context.Context, locationID string, at time.Time) (*telemetry.Reading, error) {
	return s.earliest, nil
}

func (s *stubReadingQuery) ListRange(ctx context.Context, locationID string, from, to time.Time) ([]telemetry.Reading, error) {
	return s.inRange, nil
}

func (s *stubReadingQuery) DayAggregates(ctx context.Context, locationID string, dayStart, dayEnd time.Time) (*telemetry.DayAggregates, error) {
	return nil, nil
}

func fp(v float64) *float64 { return &v }

func testLocation() masterdata.Location {
	return masterdata.Location{ID: "loc-1", Name: "North Ridge", CapacityKWp: 100, Vendor: masterdata.VendorSungrow}
}

func reading(at time.Time, daily, total, active, nominal float64) telemetry.Reading {
	yield := 0.0
	if nominal != 0 {
		yield = daily / nominal
	}
	return telemetry.Reading{
		DeviceID:      "dev-1",
		DailyEnergy:   fp(daily),
		TotalEnergy:   fp(total),
		ActivePower:   fp(active),
		NominalPower:  fp(nominal),
		SpecificYield: fp(yield),
		IsActive:      true,
		CreatedAt:     at,
	}
}

func TestBuildNoReadings(t *testing.T) {
	builder, err := NewBuilder(&stubReadingQuery{})
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	result, err := builder.Build(context.Background(), testLocation(), day, day)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Outcome != OutcomeNoData {
		t.Fatalf("expected no-data outcome, got %s", result.Outcome)
	}
	if len(result.Rows) != 0 {
		t.Fatalf("expected no rows, got %d", len(result.Rows))
	}
}

func TestBuildSingleDayUsesAbsolutes(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := reading(day.Add(18*time.Hour), 120, 5000, 80, 100)
	query := &stubReadingQuery{latest: &end, inRange: []telemetry.Reading{end}}
	builder, err := NewBuilder(query)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	result, err := builder.Build(context.Background(), testLocation(), day, day)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Outcome != OutcomeData {
		t.Fatalf("expected data outcome, got %s", result.Outcome)
	}
	if result.Summary.DailyEnergy == nil || *result.Summary.DailyEnergy != 120 {
		t.Fatalf("expected absolute daily energy 120, got %v", result.Summary.DailyEnergy)
	}
	if result.Summary.TotalEnergy == nil || *result.Summary.TotalEnergy != 5000 {
		t.Fatalf("expected absolute total energy 5000, got %v", result.Summary.TotalEnergy)
	}
	wantCUF := 120.0 * 100 / (100 * 24)
	if result.Summary.CUF != wantCUF {
		t.Fatalf("expected CUF %v, got %v", wantCUF, result.Summary.CUF)
	}
}

func TestBuildMultiDayUsesDeltas(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	start := reading(from.Add(6*time.Hour), 10, 4000, 60, 100)
	end := reading(to.Add(18*time.Hour), 120, 5000, 80, 100)
	query := &stubReadingQuery{latest: &end, earliest: &start, inRange: []telemetry.Reading{start, end}}
	builder, err := NewBuilder(query)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	result, err := builder.Build(context.Background(), testLocation(), from, to)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Summary.TotalEnergy == nil || *result.Summary.TotalEnergy != 1000 {
		t.Fatalf("expected total energy delta 1000, got %v", result.Summary.TotalEnergy)
	}
	if result.Summary.DailyEnergy == nil || *result.Summary.DailyEnergy != 110 {
		t.Fatalf("expected daily energy delta 110, got %v", result.Summary.DailyEnergy)
	}
	if len(result.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(result.Rows))
	}
}

func TestBuildMultiDayMissingStartReportsNoDelta(t *testing.T) {
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 7, 0, 0, 0, 0, time.UTC)
	end := reading(to.Add(18*time.Hour), 120, 5000, 80, 100)
	query := &stubReadingQuery{latest: &end, inRange: []telemetry.Reading{end}}
	builder, err := NewBuilder(query)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	result, err := builder.Build(context.Background(), testLocation(), from, to)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Summary.TotalEnergy != nil {
		t.Fatalf("expected nil total energy without a start reading, got %v", *result.Summary.TotalEnergy)
	}
	if result.Summary.DailyEnergy != nil {
		t.Fatalf("expected nil daily energy without a start reading")
	}
	if result.Summary.CUF == 0 {
		t.Fatalf("expected end-reading CUF to still be computed")
	}
}

func TestBuildZeroNominalPowerDegradesToZero(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := reading(day.Add(12*time.Hour), 120, 5000, 80, 0)
	query := &stubReadingQuery{latest: &end, inRange: []telemetry.Reading{end}}
	builder, err := NewBuilder(query)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	result, err := builder.Build(context.Background(), testLocation(), day, day)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Summary.CUF != 0 || result.Summary.PR != 0 || result.Summary.Irradiation != 0 {
		t.Fatalf("expected zero metrics for zero nominal power, got %+v", result.Summary)
	}
	if result.Rows[0].CUF != 0 || result.Rows[0].PR != 0 {
		t.Fatalf("expected zero row metrics for zero nominal power")
	}
}

// sliceReadingQuery serves readings from a slice with the repository's
// time semantics: LatestBefore is strictly before at, ListRange covers
// [from, to).
type sliceReadingQuery struct {
	readings []telemetry.Reading
}

func (s *sliceReadingQuery) LatestBefore(ctx context.Context, locationID string, at time.Time) (*telemetry.Reading, error) {
	var latest *telemetry.Reading
	for i := range s.readings {
		r := &s.readings[i]
		if !r.CreatedAt.Before(at) {
			continue
		}
		if latest == nil || r.CreatedAt.After(latest.CreatedAt) {
			latest = r
		}
	}
	return latest, nil
}

func (s *sliceReadingQuery) EarliestAfter(ctx context.Context, locationID string, at time.Time) (*telemetry.Reading, error) {
	var earliest *telemetry.Reading
	for i := range s.readings {
		r := &s.readings[i]
		if r.CreatedAt.Before(at) {
			continue
		}
		if earliest == nil || r.CreatedAt.Before(earliest.CreatedAt) {
			earliest = r
		}
	}
	return earliest, nil
}

func (s *sliceReadingQuery) ListRange(ctx context.Context, locationID string, from, to time.Time) ([]telemetry.Reading, error) {
	var result []telemetry.Reading
	for _, r := range s.readings {
		if r.CreatedAt.Before(from) || !r.CreatedAt.Before(to) {
			continue
		}
		result = append(result, r)
	}
	return result, nil
}

func (s *sliceReadingQuery) DayAggregates(ctx context.Context, locationID string, dayStart, dayEnd time.Time) (*telemetry.DayAggregates, error) {
	return nil, nil
}

func TestBuildExcludesNextMidnightReading(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	inDay := reading(day.Add(18*time.Hour), 120, 5000, 80, 100)
	nextMidnight := reading(day.Add(24*time.Hour), 5, 5005, 38, 100)
	query := &sliceReadingQuery{readings: []telemetry.Reading{inDay, nextMidnight}}
	builder, err := NewBuilder(query)
	if err != nil {
		t.Fatalf("NewBuilder: %v", err)
	}

	result, err := builder.Build(context.Background(), testLocation(), day, day)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if result.Summary.DailyEnergy == nil || *result.Summary.DailyEnergy != 120 {
		t.Fatalf("expected the 18:00 reading to end the period, got %+v", result.Summary.DailyEnergy)
	}
	if len(result.Rows) != 1 {
		t.Fatalf("expected 1 row, got %d", len(result.Rows))
	}

	nextDay := day.Add(24 * time.Hour)
	nextResult, err := builder.Build(context.Background(), testLocation(), nextDay, nextDay)
	if err != nil {
		t.Fatalf("Build next day: %v", err)
	}
	if len(nextResult.Rows) != 1 {
		t.Fatalf("expected the midnight reading only in the next period, got %d rows", len(nextResult.Rows))
	}
	if nextResult.Summary.DailyEnergy == nil || *nextResult.Summary.DailyEnergy != 5 {
		t.Fatalf("expected the midnight reading to carry the next period, got %+v", nextResult.Summary.DailyEnergy)
	}
}
