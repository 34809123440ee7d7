package config

import (
	"time"

	"switchscan/internal/logger"
)

// Config is the root configuration structure
type Config struct {
	Version  int               `yaml:"version"`
	Posture  Posture           `yaml:"posture"`
	Behavior *BehaviorOverride `yaml:"behavior,omitempty"`
	Network  NetworkConfig     `yaml:"network"`
	Scan     ScanConfig        `yaml:"scan"`
	SNMP     SNMPConfig        `yaml:"snmp"`
	Classify ClassifyConfig    `yaml:"classify"`
	Enrich   EnrichConfig      `yaml:"enrich"`
	Report   ReportConfig      `yaml:"report"`
	Log      logger.Config     `yaml:"log"`
}

// NetworkConfig holds the default scan range; flags override it
type NetworkConfig struct {
	Prefix string `yaml:"prefix,omitempty"` // "A.B"
	Start  *int   `yaml:"start,omitempty"`
	End    *int   `yaml:"end,omitempty"`
}

// ScanConfig selects how host/port discovery runs
type ScanConfig struct {
	Prober         Prober   `yaml:"prober"`    // nmap, connect
	ScanType       ScanType `yaml:"scan_type"` // connect, syn, auto
	Ports          []int    `yaml:"ports"`
	NmapPath       string   `yaml:"nmap_path,omitempty"`
	ConnectTimeout Duration `yaml:"connect_timeout"`
}

// SNMPConfig controls the identity query
type SNMPConfig struct {
	Backend   SNMPBackend `yaml:"backend"` // native, command
	Community string      `yaml:"community"`
	Port      uint16      `yaml:"port"`
	Command   string      `yaml:"command,omitempty"` // snmpget binary for the command backend
}

// ClassifyConfig is the reporting policy
type ClassifyConfig struct {
	Exclusions         []string `yaml:"exclusions"`
	IncludeSNMPOnly    bool     `yaml:"include_snmp_only"`
	IncludeUnconfirmed bool     `yaml:"include_unconfirmed"`
	ProbeClosedHosts   bool     `yaml:"probe_closed_hosts"`
}

// EnrichConfig holds optional per-host enrichments beyond SNMP
type EnrichConfig struct {
	SSHHostKey bool     `yaml:"ssh_host_key"`
	SSHTimeout Duration `yaml:"ssh_timeout"`
}

// ReportConfig controls the export step
type ReportConfig struct {
	Format string `yaml:"format"` // xlsx, csv, json, yaml, ansible-inventory, sqlite
	Dir    string `yaml:"dir"`
}

// BehaviorOverride allows overriding posture defaults
type BehaviorOverride struct {
	TimingTemplate *int      `yaml:"timing_template,omitempty"`
	HostTimeout    *Duration `yaml:"host_timeout,omitempty"`
	MaxRetries     *int      `yaml:"max_retries,omitempty"`
	SNMPTimeout    *Duration `yaml:"snmp_timeout,omitempty"`
	SNMPRetries    *int      `yaml:"snmp_retries,omitempty"`
	Workers        *int      `yaml:"workers,omitempty"`
}

// Prober selects the host discovery implementation
type Prober string

const (
	ProberNmap    Prober = "nmap"
	ProberConnect Prober = "connect"
)

// ScanType selects the nmap TCP scan technique
type ScanType string

const (
	ScanTypeConnect ScanType = "connect"
	ScanTypeSYN     ScanType = "syn"
	ScanTypeAuto    ScanType = "auto"
)

// SNMPBackend selects the identity query implementation
type SNMPBackend string

const (
	SNMPBackendNative  SNMPBackend = "native"
	SNMPBackendCommand SNMPBackend = "command"
)

// Duration wraps time.Duration for YAML unmarshaling
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler
func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler
func (d Duration) MarshalYAML() (interface{}, error) {
	return time.Duration(d).String(), nil
}

// Duration returns the underlying time.Duration
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// DurationPtr is a helper for building overrides in code
func DurationPtr(d time.Duration) *Duration {
	v := Duration(d)
	return &v
}

// IntPtr is a helper for building overrides in code
func IntPtr(i int) *int {
	return &i
}
