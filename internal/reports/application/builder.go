package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	masterdata "solarpark-cloud/internal/masterdata/domain"
	"solarpark-cloud/internal/performance"
	telemetry "solarpark-cloud/internal/telemetry/domain"
)

// Outcome distinguishes a normal empty range from generated data.
type Outcome string

const (
	OutcomeData   Outcome = "data"
	OutcomeNoData Outcome = "no_data"
)

// Summary holds single-row end-of-range figures. Pointer fields are nil
// when the range had no usable start or end reading for that quantity.
type Summary struct {
	NominalPower  *float64
	DailyEnergy   *float64
	TotalEnergy   *float64
	ActivePower   *float64
	SpecificYield *float64
	Irradiation   float64
	Insolation    float64
	CUF           float64
	PR            float64
}

// Row is one analysis line, metrics computed with the row's own nominal
// power.
type Row struct {
	At            time.Time
	NominalPower  *float64
	DailyEnergy   *float64
	TotalEnergy   *float64
	ActivePower   *float64
	SpecificYield *float64
	Irradiation   float64
	Insolation    float64
	CUF           float64
	PR            float64
}

// BuildResult is the structured content of one location's workbook.
type BuildResult struct {
	Outcome  Outcome
	Location masterdata.Location
	FromDate time.Time
	ToDate   time.Time
	Summary  Summary
	Rows     []Row
}

// Builder assembles report content for one location and date range.
type Builder struct {
	readings telemetry.ReadingQuery
}

// NewBuilder constructs a builder.
func NewBuilder(readings telemetry.ReadingQuery) (*Builder, error) {
	if readings == nil {
		return nil, errors.New("report builder: nil reading query")
	}
	return &Builder{readings: readings}, nil
}

// Build queries readings for the location over [fromDate, toDate]
// (inclusive dates) and derives summary and per-row metrics. An empty
// range yields OutcomeNoData, not an error.
func (b *Builder) Build(ctx context.Context, location masterdata.Location, fromDate, toDate time.Time) (*BuildResult, error) {
	fromDate = dayStart(fromDate)
	toDate = dayStart(toDate)
	if toDate.Before(fromDate) {
		return nil, fmt.Errorf("report builder: range %s..%s reversed", fromDate.Format("2006-01-02"), toDate.Format("2006-01-02"))
	}
	rangeStart := fromDate
	// Exclusive upper bound. A reading stamped exactly at the midnight
	// after toDate belongs to the next period, never to this one.
	rangeEnd := toDate.Add(24 * time.Hour)

	result := &BuildResult{
		Location: location,
		FromDate: fromDate,
		ToDate:   toDate,
	}

	end, err := b.readings.LatestBefore(ctx, location.ID, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("report builder: end reading: %w", err)
	}
	if end == nil {
		result.Outcome = OutcomeNoData
		return result, nil
	}

	multiDay := !fromDate.Equal(toDate)
	var start *telemetry.Reading
	if multiDay {
		start, err = b.readings.EarliestAfter(ctx, location.ID, rangeStart)
		if err != nil {
			return nil, fmt.Errorf("report builder: start reading: %w", err)
		}
	}

	result.Outcome = OutcomeData
	result.Summary = buildSummary(end, start, multiDay)

	inRange, err := b.readings.ListRange(ctx, location.ID, rangeStart, rangeEnd)
	if err != nil {
		return nil, fmt.Errorf("report builder: range readings: %w", err)
	}
	if len(inRange) == 0 {
		result.Outcome = OutcomeNoData
		return result, nil
	}
	result.Rows = make([]Row, 0, len(inRange))
	for i := range inRange {
		result.Rows = append(result.Rows, buildRow(&inRange[i]))
	}
	return result, nil
}

// buildSummary derives the single-row figures. A single-day range uses the
// end reading's absolute values; a multi-day range uses end-minus-start
// deltas, which are nil when the start reading is missing.
func buildSummary(end, start *telemetry.Reading, multiDay bool) Summary {
	summary := Summary{NominalPower: end.NominalPower}
	if multiDay {
		if start != nil {
			summary.DailyEnergy = performance.Delta(end.DailyEnergy, start.DailyEnergy)
			summary.TotalEnergy = performance.Delta(end.TotalEnergy, start.TotalEnergy)
			summary.ActivePower = performance.Delta(end.ActivePower, start.ActivePower)
			summary.SpecificYield = performance.Delta(end.SpecificYield, start.SpecificYield)
		}
	} else {
		summary.DailyEnergy = end.DailyEnergy
		summary.TotalEnergy = end.TotalEnergy
		summary.ActivePower = end.ActivePower
		summary.SpecificYield = end.SpecificYield
	}

	oap := deref(end.ActivePower)
	np := deref(end.NominalPower)
	summary.Irradiation = performance.Irradiation(oap, np)
	summary.Insolation = performance.Insolation(summary.Irradiation)
	summary.CUF = performance.CUF(deref(end.DailyEnergy), np)
	summary.PR = performance.PR(oap, np, summary.Irradiation)
	return summary
}

func buildRow(reading *telemetry.Reading) Row {
	oap := deref(reading.ActivePower)
	np := deref(reading.NominalPower)
	irradiation := performance.Irradiation(oap, np)
	return Row{
		At:            reading.CreatedAt,
		NominalPower:  reading.NominalPower,
		DailyEnergy:   reading.DailyEnergy,
		TotalEnergy:   reading.TotalEnergy,
		ActivePower:   reading.ActivePower,
		SpecificYield: reading.SpecificYield,
		Irradiation:   irradiation,
		Insolation:    performance.Insolation(irradiation),
		CUF:           performance.CUF(deref(reading.DailyEnergy), np),
		PR:            performance.PR(oap, np, irradiation),
	}
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func deref(value *float64) float64 {
	if value == nil {
		return 0
	}
	return *value
}
