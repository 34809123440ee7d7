package domain

import (
	"strconv"
	"strings"
)

// DeviceType tags how a reported device was identified
type DeviceType string

const (
	// DeviceTypePorts means SSH, Telnet or SNMP/TCP is open
	DeviceTypePorts DeviceType = "ports-based"
	// DeviceTypeSNMP means no management port is open but the host answered SNMP
	DeviceTypeSNMP DeviceType = "SNMP-based"
	// DeviceTypeUnconfirmed means neither signal was seen
	DeviceTypeUnconfirmed DeviceType = "unconfirmed"
)

// Display sentinels
const (
	NoPorts       = "-"
	NotResponding = "not responding"
)

// Report column names, in output order
const (
	ColumnIP        = "IP"
	ColumnMAC       = "MAC"
	ColumnVendor    = "Fabricante"
	ColumnOpenPorts = "Portas Abertas"
	ColumnSNMPModel = "Modelo SNMP"
	ColumnType      = "Tipo"
)

// ReportColumns is the stable header of every tabular report
var ReportColumns = []string{ColumnIP, ColumnMAC, ColumnVendor, ColumnOpenPorts, ColumnSNMPModel, ColumnType}

// DeviceRecord is one reported device. Values are display-ready.
type DeviceRecord struct {
	IP         string     `json:"ip" yaml:"ip"`
	MAC        string     `json:"mac" yaml:"mac"`
	Vendor     string     `json:"vendor" yaml:"vendor"`
	OpenPorts  string     `json:"open_ports" yaml:"open_ports"`
	SNMPModel  string     `json:"snmp_model" yaml:"snmp_model"`
	Type       DeviceType `json:"type" yaml:"type"`
	Subnet     string     `json:"subnet" yaml:"subnet"`
	SSHHostKey string     `json:"ssh_host_key,omitempty" yaml:"ssh_host_key,omitempty"`
}

// NewDeviceRecord renders a classified host as a record
func NewDeviceRecord(host HostProbeResult, identity SNMPIdentity, deviceType DeviceType, subnet string) DeviceRecord {
	return DeviceRecord{
		IP:        host.IP,
		MAC:       host.MAC,
		Vendor:    host.Vendor,
		OpenPorts: FormatPorts(host.OpenPorts),
		SNMPModel: identity.String(),
		Type:      deviceType,
		Subnet:    subnet,
	}
}

// WithSSHHostKey returns a copy of r carrying the host key fingerprint
func (r DeviceRecord) WithSSHHostKey(key string) DeviceRecord {
	r.SSHHostKey = key
	return r
}

// Row returns the record cells in ReportColumns order
func (r DeviceRecord) Row() []string {
	return []string{r.IP, r.MAC, r.Vendor, r.OpenPorts, r.SNMPModel, string(r.Type)}
}

// Ports parses the display port list back into numbers
func (r DeviceRecord) Ports() []int {
	if r.OpenPorts == NoPorts || r.OpenPorts == "" {
		return nil
	}
	var ports []int
	for _, p := range strings.Split(r.OpenPorts, ",") {
		if n, err := strconv.Atoi(strings.TrimSpace(p)); err == nil {
			ports = append(ports, n)
		}
	}
	return ports
}

// FormatPorts joins ports as "22, 80" or returns NoPorts when empty
func FormatPorts(ports []int) string {
	if len(ports) == 0 {
		return NoPorts
	}
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ", ")
}
