package codec

import (
	"errors"
	"fmt"
	"io"

	"switchscan/internal/domain"

	"gopkg.in/yaml.v3"
)

// YAMLCodec handles generic YAML import/export
type YAMLCodec struct{}

// NewYAMLCodec creates a new YAML codec
func NewYAMLCodec() *YAMLCodec {
	return &YAMLCodec{}
}

// Format returns the codec format identifier
func (c *YAMLCodec) Format() string {
	return FormatYAML
}

// yamlReport represents the YAML structure for a device report
type yamlReport struct {
	Columns []string     `yaml:"columns"`
	Devices []yamlDevice `yaml:"devices"`
}

type yamlDevice struct {
	IP         string `yaml:"ip"`
	MAC        string `yaml:"mac"`
	Vendor     string `yaml:"vendor"`
	OpenPorts  []int  `yaml:"open_ports,flow"`
	SNMPModel  string `yaml:"snmp_model"`
	Type       string `yaml:"type"`
	Subnet     string `yaml:"subnet,omitempty"`
	SSHHostKey string `yaml:"ssh_host_key,omitempty"`
}

// Parse reads devices from a YAML report
func (c *YAMLCodec) Parse(r io.Reader) ([]domain.DeviceRecord, error) {
	var report yamlReport
	decoder := yaml.NewDecoder(r)
	if err := decoder.Decode(&report); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	records := make([]domain.DeviceRecord, 0, len(report.Devices))
	for _, d := range report.Devices {
		records = append(records, domain.DeviceRecord{
			IP:         d.IP,
			MAC:        d.MAC,
			Vendor:     d.Vendor,
			OpenPorts:  domain.FormatPorts(d.OpenPorts),
			SNMPModel:  d.SNMPModel,
			Type:       domain.DeviceType(d.Type),
			Subnet:     d.Subnet,
			SSHHostKey: d.SSHHostKey,
		})
	}

	return records, nil
}

// Export writes devices as YAML, open ports as a number list
func (c *YAMLCodec) Export(records []domain.DeviceRecord, w io.Writer) error {
	report := yamlReport{
		Columns: domain.ReportColumns,
		Devices: make([]yamlDevice, 0, len(records)),
	}

	for _, r := range records {
		report.Devices = append(report.Devices, yamlDevice{
			IP:         r.IP,
			MAC:        r.MAC,
			Vendor:     r.Vendor,
			OpenPorts:  r.Ports(),
			SNMPModel:  r.SNMPModel,
			Type:       string(r.Type),
			Subnet:     r.Subnet,
			SSHHostKey: r.SSHHostKey,
		})
	}

	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	if err := encoder.Encode(&report); err != nil {
		return fmt.Errorf("failed to encode YAML: %w", err)
	}

	return nil
}
