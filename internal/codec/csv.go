package codec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"

	"switchscan/internal/domain"
)

// CSVCodec writes the six report columns as comma-separated values
type CSVCodec struct{}

// NewCSVCodec creates a new CSV codec
func NewCSVCodec() *CSVCodec {
	return &CSVCodec{}
}

// Format returns the codec format identifier
func (c *CSVCodec) Format() string {
	return FormatCSV
}

// ErrBadHeader is returned when a CSV report does not start with the report columns
var ErrBadHeader = errors.New("unexpected CSV header")

// Parse reads devices from a CSV report
func (c *CSVCodec) Parse(r io.Reader) ([]domain.DeviceRecord, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(domain.ReportColumns)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if !slices.Equal(header, domain.ReportColumns) {
		return nil, fmt.Errorf("%w: %v", ErrBadHeader, header)
	}

	var records []domain.DeviceRecord
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse CSV: %w", err)
		}

		records = append(records, domain.DeviceRecord{
			IP:        row[0],
			MAC:       row[1],
			Vendor:    row[2],
			OpenPorts: row[3],
			SNMPModel: row[4],
			Type:      domain.DeviceType(row[5]),
		})
	}

	return records, nil
}

// Export writes a header row and one row per device
func (c *CSVCodec) Export(records []domain.DeviceRecord, w io.Writer) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(domain.ReportColumns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, r := range records {
		if err := writer.Write(r.Row()); err != nil {
			return fmt.Errorf("failed to write CSV row %s: %w", r.IP, err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV: %w", err)
	}

	return nil
}
