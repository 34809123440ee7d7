package codec

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"switchscan/internal/domain"
)

const (
	// SheetName is the worksheet holding the device table
	SheetName = "Switches Detectados"

	maxColumnWidth = 60
	columnPadding  = 2
)

// XLSXCodec writes the device table as an Excel workbook
type XLSXCodec struct{}

// NewXLSXCodec creates a new spreadsheet codec
func NewXLSXCodec() *XLSXCodec {
	return &XLSXCodec{}
}

// Format returns the codec format identifier
func (c *XLSXCodec) Format() string {
	return FormatXLSX
}

// Export writes one header row and one row per device. Columns are sized to
// their longest cell plus padding, capped at 60 characters.
func (c *XLSXCodec) Export(records []domain.DeviceRecord, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}

	widths := make([]int, len(domain.ReportColumns))

	writeRow := func(row int, cells []string) error {
		values := make([]interface{}, len(cells))
		for i, v := range cells {
			values[i] = v
			widths[i] = max(widths[i], utf8.RuneCountInString(v))
		}

		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(SheetName, cell, &values)
	}

	if err := writeRow(1, domain.ReportColumns); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(SheetName, 1, 1, header); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}

	for i, r := range records {
		if err := writeRow(i+2, r.Row()); err != nil {
			return fmt.Errorf("failed to write row %s: %w", r.IP, err)
		}
	}

	for i, width := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(SheetName, col, col, float64(min(width+columnPadding, maxColumnWidth))); err != nil {
			return fmt.Errorf("failed to size column %s: %w", col, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}

	return nil
}
