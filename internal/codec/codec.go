package codec

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"switchscan/internal/domain"
)

// Importer reads a previously exported device report
type Importer interface {
	Parse(r io.Reader) ([]domain.DeviceRecord, error)
	Format() string
}

// Exporter writes a device report in one file format
type Exporter interface {
	Export(records []domain.DeviceRecord, w io.Writer) error
	Format() string
}

// Format identifiers
const (
	FormatXLSX    = "xlsx"
	FormatCSV     = "csv"
	FormatJSON    = "json"
	FormatYAML    = "yaml"
	FormatAnsible = "ansible-inventory"
)

// ErrUnknownFormat is returned for an unsupported format name
var ErrUnknownFormat = errors.New("unknown report format")

// Formats lists every export format
var Formats = []string{FormatXLSX, FormatCSV, FormatJSON, FormatYAML, FormatAnsible}

// ForFormat returns the exporter for name
func ForFormat(name string) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatXLSX, "excel":
		return NewXLSXCodec(), nil
	case FormatCSV:
		return NewCSVCodec(), nil
	case FormatJSON:
		return NewJSONCodec(), nil
	case FormatYAML, "yml":
		return NewYAMLCodec(), nil
	case FormatAnsible, "ansible":
		return NewAnsibleCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// ImporterFor returns the importer for name. Only the text formats can be
// read back.
func ImporterFor(name string) (Importer, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case FormatCSV:
		return NewCSVCodec(), nil
	case FormatJSON:
		return NewJSONCodec(), nil
	case FormatYAML, "yml":
		return NewYAMLCodec(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, name)
	}
}

// FormatFromPath infers the format from a file extension, or "" if unknown
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx":
		return FormatXLSX
	case ".csv":
		return FormatCSV
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		if strings.Contains(strings.ToLower(filepath.Base(path)), "inventory") {
			return FormatAnsible
		}
		return FormatYAML
	default:
		return ""
	}
}

// Extension returns the default file extension for format, including the dot
func Extension(format string) string {
	switch format {
	case FormatAnsible, FormatYAML:
		return ".yaml"
	case "":
		return ".xlsx"
	default:
		return "." + format
	}
}
