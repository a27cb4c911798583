package application

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	reports "solarpark-cloud/internal/reports/domain"
)

// archiveFileName derives a filesystem-safe zip name from the report
// name.
func archiveFileName(reportName string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '-'
		}
		return r
	}, strings.TrimSpace(reportName))
	if cleaned == "" {
		cleaned = "report"
	}
	return cleaned + ".zip"
}

// writeArchive zips every file in the report's directory into a sibling
// "<id>-zip" directory. Runs only when a download is requested, never
// during generation.
func writeArchive(storageRoot, reportID, archiveName string) (string, error) {
	sourceDir := filepath.Join(storageRoot, reportID)
	entries, err := os.ReadDir(sourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", reports.ErrArtifactNotReady, reportID)
		}
		return "", err
	}

	archiveDir := sourceDir + "-zip"
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", err
	}
	archivePath := filepath.Join(archiveDir, archiveName)
	file, err := os.Create(archivePath)
	if err != nil {
		return "", err
	}
	defer file.Close()

	zipWriter := zip.NewWriter(file)
	defer zipWriter.Close()

	written := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fw, err := zipWriter.Create(entry.Name())
		if err != nil {
			return "", err
		}
		data, err := os.ReadFile(filepath.Join(sourceDir, entry.Name()))
		if err != nil {
			return "", err
		}
		if _, err := fw.Write(data); err != nil {
			return "", err
		}
		written++
	}
	if written == 0 {
		return "", fmt.Errorf("%w: %s has no artifacts", reports.ErrArtifactNotReady, reportID)
	}
	// Close explicitly so a failed flush surfaces instead of handing the
	// caller a truncated archive. The defers only cover error paths.
	if err := zipWriter.Close(); err != nil {
		return "", err
	}
	if err := file.Close(); err != nil {
		return "", err
	}
	return archivePath, nil
}
