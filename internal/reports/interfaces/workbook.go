// Package interfaces renders report artifacts.
package interfaces

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/xuri/excelize/v2"

	"solarpark-cloud/internal/observability/metrics"
	"solarpark-cloud/internal/reports/application"
)

const (
	summarySheet  = "Plant Summary"
	analysisSheet = "Plant Analysis"

	noDataText  = "No data for the selected range"
	placeholder = "--"
)

// WorkbookWriter renders build results to xlsx files under the storage
// root. Two locations sharing a display name within one report overwrite
// each other's file; callers accept that collision.
type WorkbookWriter struct {
	storageRoot string
}

// NewWorkbookWriter constructs a writer.
func NewWorkbookWriter(storageRoot string) (*WorkbookWriter, error) {
	if storageRoot == "" {
		return nil, errors.New("workbook writer: empty storage root")
	}
	return &WorkbookWriter{storageRoot: storageRoot}, nil
}

// WriteWorkbook renders one location's workbook and returns its path.
func (w *WorkbookWriter) WriteWorkbook(ctx context.Context, reportID string, result *application.BuildResult) (string, error) {
	if result == nil {
		return "", errors.New("workbook writer: nil result")
	}
	started := time.Now()

	dir := filepath.Join(w.storageRoot, reportID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		metrics.ObserveWorkbookExport("xlsx", metrics.ResultError, time.Since(started))
		return "", err
	}
	path := filepath.Join(dir, result.Location.Name+".xlsx")

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", summarySheet)
	writeSummarySheet(f, result)
	if _, err := f.NewSheet(analysisSheet); err != nil {
		metrics.ObserveWorkbookExport("xlsx", metrics.ResultError, time.Since(started))
		return "", err
	}
	writeAnalysisSheet(f, result)

	if err := f.SaveAs(path); err != nil {
		metrics.ObserveWorkbookExport("xlsx", metrics.ResultError, time.Since(started))
		return "", err
	}
	metrics.ObserveWorkbookExport("xlsx", metrics.ResultSuccess, time.Since(started))
	return path, nil
}

func writeSummarySheet(f *excelize.File, result *application.BuildResult) {
	location := result.Location
	_ = f.SetCellValue(summarySheet, "A1", "Plant Report")
	_ = f.SetCellValue(summarySheet, "A3", "Plant Name")
	_ = f.SetCellValue(summarySheet, "B3", location.Name)
	_ = f.SetCellValue(summarySheet, "A4", "Address")
	_ = f.SetCellValue(summarySheet, "B4", location.Address)
	_ = f.SetCellValue(summarySheet, "A5", "Capacity (kWp)")
	_ = f.SetCellValue(summarySheet, "B5", location.CapacityKWp)
	_ = f.SetCellValue(summarySheet, "A6", "Inverter Vendor")
	_ = f.SetCellValue(summarySheet, "B6", string(location.Vendor))
	_ = f.SetCellValue(summarySheet, "A7", "Plant Manager")
	_ = f.SetCellValue(summarySheet, "B7", placeholder)
	_ = f.SetCellValue(summarySheet, "A8", "Manager Contact")
	_ = f.SetCellValue(summarySheet, "B8", placeholder)
	_ = f.SetCellValue(summarySheet, "A9", "Period")
	_ = f.SetCellValue(summarySheet, "B9", fmt.Sprintf("%s to %s",
		result.FromDate.Format("2006-01-02"), result.ToDate.Format("2006-01-02")))

	headers := []string{
		"Daily Energy (kWh)",
		"Total Energy (kWh)",
		"Active Power (kW)",
		"Specific Yield",
		"CUF (%)",
		"PR (%)",
		"Irradiation",
		"Insolation",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 11)
		_ = f.SetCellValue(summarySheet, cell, header)
	}

	values := summaryValues(result)
	for i, value := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, 12)
		_ = f.SetCellValue(summarySheet, cell, value)
	}
}

func summaryValues(result *application.BuildResult) []any {
	if result.Outcome == application.OutcomeNoData {
		return []any{placeholder, placeholder, placeholder, placeholder, placeholder, placeholder, placeholder, placeholder}
	}
	summary := result.Summary
	return []any{
		cellValue(summary.DailyEnergy),
		cellValue(summary.TotalEnergy),
		cellValue(summary.ActivePower),
		cellValue(summary.SpecificYield),
		summary.CUF,
		summary.PR,
		summary.Irradiation,
		summary.Insolation,
	}
}

func writeAnalysisSheet(f *excelize.File, result *application.BuildResult) {
	headers := []string{
		"Timestamp",
		"Daily Energy (kWh)",
		"Total Energy (kWh)",
		"Active Power (kW)",
		"Specific Yield",
		"CUF (%)",
		"PR (%)",
		"Irradiation",
		"Insolation",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(analysisSheet, cell, header)
	}

	if result.Outcome == application.OutcomeNoData || len(result.Rows) == 0 {
		_ = f.SetCellValue(analysisSheet, "A2", noDataText)
		return
	}

	for i, row := range result.Rows {
		values := []any{
			row.At.UTC().Format(time.RFC3339),
			cellValue(row.DailyEnergy),
			cellValue(row.TotalEnergy),
			cellValue(row.ActivePower),
			cellValue(row.SpecificYield),
			row.CUF,
			row.PR,
			row.Irradiation,
			row.Insolation,
		}
		for j, value := range values {
			cell, _ := excelize.CoordinatesToCellName(j+1, i+2)
			_ = f.SetCellValue(analysisSheet, cell, value)
		}
	}
}

func cellValue(value *float64) any {
	if value == nil {
		return placeholder
	}
	return *value
}
