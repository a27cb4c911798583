package application

import (
	"archive/zip"
	"errors"
	"os"
	"path/filepath"
	"testing"

	reports "solarpark-cloud/internal/reports/domain"
)

func TestWriteArchivePackagesWorkbooks(t *testing.T) {
	root := t.TempDir()
	reportDir := filepath.Join(root, "rep-1")
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"North Ridge.xlsx", "South Field.xlsx"} {
		if err := os.WriteFile(filepath.Join(reportDir, name), []byte("workbook"), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}

	path, err := writeArchive(root, "rep-1", "march-report.zip")
	if err != nil {
		t.Fatalf("writeArchive: %v", err)
	}
	if want := filepath.Join(root, "rep-1-zip", "march-report.zip"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}

	reader, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer reader.Close()
	if len(reader.File) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(reader.File))
	}
}

func TestWriteArchiveMissingDirNotReady(t *testing.T) {
	_, err := writeArchive(t.TempDir(), "rep-404", "report.zip")
	if !errors.Is(err, reports.ErrArtifactNotReady) {
		t.Fatalf("expected ErrArtifactNotReady, got %v", err)
	}
}

func TestWriteArchiveEmptyDirNotReady(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "rep-1"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	_, err := writeArchive(root, "rep-1", "report.zip")
	if !errors.Is(err, reports.ErrArtifactNotReady) {
		t.Fatalf("expected ErrArtifactNotReady, got %v", err)
	}
}

func TestArchiveFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"March Output", "March Output.zip"},
		{"q1/summary", "q1-summary.zip"},
		{"  ", "report.zip"},
	}
	for _, tc := range cases {
		if got := archiveFileName(tc.in); got != tc.want {
			t.Fatalf("archiveFileName(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}
