package codec

import (
	"fmt"
	"os"
	"path/filepath"

	"switchscan/internal/domain"
)

// WriteFile exports records to path through a temporary file in the same
// directory, renamed into place only after a complete write.
func WriteFile(path string, exporter Exporter, records []domain.DeviceRecord) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}

	if err := exporter.Export(records, tmp); err != nil {
		cleanup()
		return fmt.Errorf("export %s: %w", exporter.Format(), err)
	}

	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("sync report: %w", err)
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close report: %w", err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("chmod report: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("rename report: %w", err)
	}

	return nil
}

// ReadFile parses a report previously written by WriteFile
func ReadFile(path string, importer Importer) ([]domain.DeviceRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return importer.Parse(f)
}
