package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"switchscan/internal/domain"
)

// ErrMissingIP is returned when an imported device has no address
var ErrMissingIP = errors.New("device without ip")

// JSONCodec reads and writes {"count": n, "devices": [...]} documents
type JSONCodec struct{}

func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

func (c *JSONCodec) Format() string {
	return FormatJSON
}

type jsonReport struct {
	Count   int                   `json:"count"`
	Devices []domain.DeviceRecord `json:"devices"`
}

// Parse reads the devices of a JSON report; count is informational only
func (c *JSONCodec) Parse(r io.Reader) ([]domain.DeviceRecord, error) {
	var doc jsonReport
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode json report: %w", err)
	}

	for i, d := range doc.Devices {
		if d.IP == "" {
			return nil, fmt.Errorf("device %d: %w", i, ErrMissingIP)
		}
	}

	return doc.Devices, nil
}

// Export writes records as indented JSON; an empty set is written as an
// empty list, never null.
func (c *JSONCodec) Export(records []domain.DeviceRecord, w io.Writer) error {
	doc := jsonReport{Count: len(records), Devices: records}
	if doc.Devices == nil {
		doc.Devices = make([]domain.DeviceRecord, 0)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode json report: %w", err)
	}

	if _, err := w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write json report: %w", err)
	}
	return nil
}
