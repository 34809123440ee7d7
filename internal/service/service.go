package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"switchscan/internal/codec"
	"switchscan/internal/domain"
	"switchscan/internal/logger"
	"switchscan/internal/repository"
	"switchscan/internal/repository/sqlite"
)

// FormatSQLite writes the report into a SQLite database
const FormatSQLite = "sqlite"

var (
	// ErrEmptyReport is returned when asked to save a report without devices
	ErrEmptyReport = errors.New("no devices to save")
	// ErrIncompleteReport is returned when asked to save an interrupted scan
	ErrIncompleteReport = errors.New("scan was interrupted, report not saved")
)

// ReportService saves scan reports through the codecs or the report database
type ReportService struct {
	logger    logger.Logger
	openStore func(path string) (repository.ReportStore, error)
}

// NewReportService creates a new report service
func NewReportService(log logger.Logger) *ReportService {
	return &ReportService{
		logger: log.WithComponent("report"),
		openStore: func(path string) (repository.ReportStore, error) {
			return sqlite.New(path)
		},
	}
}

// Save writes report to path and returns the path actually written. An
// empty format is inferred from the extension, defaulting to xlsx; a path
// without extension gets the format's default one.
func (s *ReportService) Save(ctx context.Context, report *ScanReport, path, format string) (string, error) {
	if !report.Complete {
		return "", ErrIncompleteReport
	}
	if report.Empty() {
		return "", ErrEmptyReport
	}

	path, format, err := ResolveOutput(path, format)
	if err != nil {
		return "", err
	}

	if format == FormatSQLite {
		if err := s.saveSQLite(ctx, report, path); err != nil {
			return "", err
		}
	} else {
		exporter, err := codec.ForFormat(format)
		if err != nil {
			return "", err
		}
		if err := codec.WriteFile(path, exporter, report.Records); err != nil {
			return "", err
		}
	}

	s.logger.Info().
		Str("path", path).
		Str("format", format).
		Int("records", len(report.Records)).
		Msg("report saved")

	return path, nil
}

// saveSQLite builds the database next to path and renames it into place, so
// a failed save never leaves a partial database behind.
func (s *ReportService) saveSQLite(ctx context.Context, report *ScanReport, path string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp database: %w", err)
	}
	tmpName := tmp.Name()
	tmp.Close()

	cleanup := func() {
		for _, suffix := range []string{"", "-wal", "-shm", "-journal"} {
			os.Remove(tmpName + suffix)
		}
	}

	store, err := s.openStore(tmpName)
	if err != nil {
		cleanup()
		return fmt.Errorf("open report database: %w", err)
	}

	if err := store.SaveReport(ctx, report.Run(), report.Summaries(), report.Records); err != nil {
		store.Close()
		cleanup()
		return err
	}

	if err := store.Close(); err != nil {
		cleanup()
		return fmt.Errorf("close report database: %w", err)
	}

	if err := os.Chmod(tmpName, 0644); err != nil {
		cleanup()
		return fmt.Errorf("chmod report database: %w", err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("rename report database: %w", err)
	}

	return nil
}

// Load reads the devices of a saved report
func (s *ReportService) Load(ctx context.Context, path, format string) ([]domain.DeviceRecord, error) {
	if format == "" {
		format = FormatFromPath(path)
	}

	if format == FormatSQLite {
		store, err := s.openStore(path)
		if err != nil {
			return nil, fmt.Errorf("open report database: %w", err)
		}
		defer store.Close()
		return store.Devices(ctx)
	}

	importer, err := codec.ImporterFor(format)
	if err != nil {
		return nil, err
	}

	return codec.ReadFile(path, importer)
}

// ResolveOutput settles the output format and file name
func ResolveOutput(path, format string) (string, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = FormatFromPath(path)
	}
	if format == "" {
		format = codec.FormatXLSX
	}

	if format != FormatSQLite {
		exporter, err := codec.ForFormat(format)
		if err != nil {
			return "", "", err
		}
		format = exporter.Format()
	}

	if filepath.Ext(path) == "" {
		path += extension(format)
	}

	return path, format, nil
}

// SuggestedFileName builds switches_<A-B>-<octets>_<YYYYMMDD-HHMM><ext>
func SuggestedFileName(prefix domain.Prefix, octets domain.OctetRange, now time.Time, format string) string {
	if format == "" {
		format = codec.FormatXLSX
	}
	return fmt.Sprintf("switches_%s-%s_%s%s", prefix.Slug(), octets, now.Format("20060102-1504"), extension(format))
}

// FormatFromPath infers the output format from path, including the SQLite extensions
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return FormatSQLite
	default:
		return codec.FormatFromPath(path)
	}
}

func extension(format string) string {
	if format == FormatSQLite {
		return ".db"
	}
	return codec.Extension(format)
}
