package interfaces

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	reports "solarpark-cloud/internal/reports/domain"
)

// BuildReportPDF renders a one-page job summary for a report.
func BuildReportPDF(report *reports.Report) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Plant Report Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Report: %s (%s)", report.Name, report.ID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Owner: %s", report.OwnerID))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s",
		report.FromDate.Format("2006-01-02"), report.ToDate.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Status: %s", report.Status))
	pdf.Ln(5)
	if report.Message != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Message: %s", report.Message))
		pdf.Ln(5)
	}
	if report.FinishedAt != nil {
		pdf.Cell(0, 6, fmt.Sprintf("Finished: %s", report.FinishedAt.Format(time.RFC3339)))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(90, 6, "Location", "1", 0, "C", false, 0, "")
	pdf.CellFormat(50, 6, "Workbook", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, name := range report.GeneratedLocations {
		pdf.CellFormat(90, 6, name, "1", 0, "L", false, 0, "")
		pdf.CellFormat(50, 6, "generated", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}
	if len(report.GeneratedLocations) == 0 {
		pdf.CellFormat(140, 6, "no artifacts generated", "1", 0, "C", false, 0, "")
		pdf.Ln(-1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
