package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"portfolio_analyzer/internal/models"
)

// ReportFile is the default location of the last run's report.
const ReportFile = "portfolio_report.json"

// LoadReport reads a report written by SaveReport.
func LoadReport(path string) (models.Report, error) {
	var r models.Report
	if err := LoadJSON(path, &r); err != nil {
		return r, err
	}
	return r, nil
}

// SaveReport persists a report atomically.
func SaveReport(path string, r models.Report) error {
	return SaveJSON(path, r)
}

// LoadJSON decodes the file at path into v.
func LoadJSON(path string, v any) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// SaveJSON writes v as indented JSON using an atomic write pattern.
// 1. Write to a temporary file next to the destination.
// 2. Sync to ensure data is on disk.
// 3. Rename temporary file to destination (atomic operation).
func SaveJSON(path string, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", path, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
	}

	// Same directory so the rename never crosses filesystems
	tmpFile := path + ".tmp"
	f, err := os.Create(tmpFile)
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := f.Write(b); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	// Force sync to disk to prevent data loss on power failure before rename
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpFile)
		return fmt.Errorf("failed to sync temp file: %w", err)
	}

	// Close explicitly before renaming (essential on Windows)
	if err := f.Close(); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to replace %s (atomic rename): %w", path, err)
	}
	return nil
}
