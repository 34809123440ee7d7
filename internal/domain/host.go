package domain

import (
	"slices"
	"strings"
)

// Unknown is the sentinel for a MAC or vendor that could not be determined
const Unknown = "unknown"

// Well-known interest ports
const (
	PortSSH    = 22
	PortTelnet = 23
	PortSNMP   = 161
	PortHTTP   = 80
	PortHTTPS  = 443
)

// DefaultInterestPorts are the TCP ports probed on every host
var DefaultInterestPorts = []int{PortSSH, PortTelnet, PortSNMP, PortHTTP, PortHTTPS}

// ManagementPorts indicate management-plane access (SSH, Telnet, SNMP)
var ManagementPorts = []int{PortSSH, PortTelnet, PortSNMP}

// HostProbeResult is one live host found by discovery
type HostProbeResult struct {
	IP        string `json:"ip" yaml:"ip"`
	MAC       string `json:"mac" yaml:"mac"`
	Vendor    string `json:"vendor" yaml:"vendor"`
	OpenPorts []int  `json:"open_ports" yaml:"open_ports"`
}

// NewHostProbeResult normalizes a discovered host: empty MAC/vendor become
// Unknown, MACs are upper-cased and open ports are filtered to interest and
// sorted ascending without duplicates.
func NewHostProbeResult(ip, mac, vendor string, openPorts, interest []int) HostProbeResult {
	mac = strings.ToUpper(strings.TrimSpace(mac))
	if mac == "" {
		mac = Unknown
	}
	vendor = strings.TrimSpace(vendor)
	if vendor == "" || mac == Unknown {
		vendor = Unknown
	}

	ports := make([]int, 0, len(openPorts))
	for _, p := range openPorts {
		if slices.Contains(interest, p) && !slices.Contains(ports, p) {
			ports = append(ports, p)
		}
	}
	slices.Sort(ports)

	return HostProbeResult{IP: ip, MAC: mac, Vendor: vendor, OpenPorts: ports}
}

// HasOpenPort reports whether port is open on the host
func (h HostProbeResult) HasOpenPort(port int) bool {
	return slices.Contains(h.OpenPorts, port)
}

// HasManagementPort reports whether any of SSH, Telnet or SNMP is open
func (h HostProbeResult) HasManagementPort() bool {
	for _, p := range ManagementPorts {
		if h.HasOpenPort(p) {
			return true
		}
	}
	return false
}

// SNMPIdentity is the optional system-description string of a host
type SNMPIdentity struct {
	value string
	ok    bool
}

// NoIdentity is the absent identity
var NoIdentity = SNMPIdentity{}

// NewSNMPIdentity keeps the first non-empty line of a sysDescr response.
// A blank response is treated as absent.
func NewSNMPIdentity(raw string) SNMPIdentity {
	line := FirstLine(raw)
	if line == "" {
		return NoIdentity
	}
	return SNMPIdentity{value: line, ok: true}
}

// Present reports whether an identity was obtained
func (i SNMPIdentity) Present() bool {
	return i.ok
}

// Value returns the identity string, empty when absent
func (i SNMPIdentity) Value() string {
	return i.value
}

// String implements fmt.Stringer
func (i SNMPIdentity) String() string {
	if !i.ok {
		return NotResponding
	}
	return i.value
}

// FirstLine returns the first non-blank line of s, trimmed
func FirstLine(s string) string {
	for _, line := range strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
