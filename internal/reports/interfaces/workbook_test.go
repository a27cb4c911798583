package interfaces

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	masterdata "solarpark-cloud/internal/masterdata/domain"
	"solarpark-cloud/internal/reports/application"
)

func fp(v float64) *float64 { return &v }

func TestWriteWorkbookNoData(t *testing.T) {
	root := t.TempDir()
	writer, err := NewWorkbookWriter(root)
	if err != nil {
		t.Fatalf("NewWorkbookWriter: %v", err)
	}

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	result := &application.BuildResult{
		Outcome:  application.OutcomeNoData,
		Location: masterdata.Location{ID: "loc-1", Name: "North Ridge", CapacityKWp: 100, Vendor: masterdata.VendorSungrow},
		FromDate: day,
		ToDate:   day,
	}

	path, err := writer.WriteWorkbook(context.Background(), "rep-1", result)
	if err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}
	want := filepath.Join(root, "rep-1", "North Ridge.xlsx")
	if path != want {
		t.Fatalf("expected path %s, got %s", want, path)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	value, err := f.GetCellValue(summarySheet, "A12")
	if err != nil {
		t.Fatalf("read summary cell: %v", err)
	}
	if value != placeholder {
		t.Fatalf("expected %q placeholder, got %q", placeholder, value)
	}
	value, err = f.GetCellValue(analysisSheet, "A2")
	if err != nil {
		t.Fatalf("read analysis cell: %v", err)
	}
	if value != noDataText {
		t.Fatalf("expected no-data row, got %q", value)
	}
}

func TestWriteWorkbookWithRows(t *testing.T) {
	root := t.TempDir()
	writer, err := NewWorkbookWriter(root)
	if err != nil {
		t.Fatalf("NewWorkbookWriter: %v", err)
	}

	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	result := &application.BuildResult{
		Outcome:  application.OutcomeData,
		Location: masterdata.Location{ID: "loc-1", Name: "North Ridge", CapacityKWp: 100, Vendor: masterdata.VendorSungrow},
		FromDate: day,
		ToDate:   day,
		Summary: application.Summary{
			NominalPower: fp(100),
			DailyEnergy:  fp(120),
			TotalEnergy:  fp(5000),
			ActivePower:  fp(80),
			CUF:          5,
			PR:           80,
		},
		Rows: []application.Row{
			{
				At:          day.Add(12 * time.Hour),
				DailyEnergy: fp(120),
				TotalEnergy: fp(5000),
				ActivePower: fp(80),
				CUF:         5,
				PR:          80,
			},
		},
	}

	path, err := writer.WriteWorkbook(context.Background(), "rep-1", result)
	if err != nil {
		t.Fatalf("WriteWorkbook: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	value, err := f.GetCellValue(summarySheet, "A12")
	if err != nil {
		t.Fatalf("read summary cell: %v", err)
	}
	if value != "120" {
		t.Fatalf("expected daily energy 120, got %q", value)
	}
	value, err = f.GetCellValue(analysisSheet, "A2")
	if err != nil {
		t.Fatalf("read analysis cell: %v", err)
	}
	if value != day.Add(12*time.Hour).Format(time.RFC3339) {
		t.Fatalf("expected row timestamp, got %q", value)
	}
}
