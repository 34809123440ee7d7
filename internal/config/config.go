// Package config provides configuration management for switchscan.
//
// Config file locations (priority order):
//  1. $SWITCHSCAN_CONFIG
//  2. ./switchscan.yaml
//  3. $XDG_CONFIG_HOME/switchscan/config.yaml
//  4. ~/.config/switchscan/config.yaml
//  5. /etc/switchscan/config.yaml
//
// Values missing from the file keep their defaults. Timing and concurrency
// come from the posture unless overridden in the behavior block.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"switchscan/internal/classify"
	"switchscan/internal/domain"
	"switchscan/internal/logger"
)

const (
	maxWorkers     = 64
	maxSNMPRetries = 1
	maxTiming      = 5
)

var (
	ErrUnknownPosture     = errors.New("unknown posture")
	ErrUnknownProber      = errors.New("unknown prober")
	ErrUnknownScanType    = errors.New("unknown scan type")
	ErrUnknownSNMPBackend = errors.New("unknown snmp backend")
	ErrNoPorts            = errors.New("at least one port is required")
	ErrInvalidPort        = errors.New("invalid port")
	ErrEmptyCommunity     = errors.New("snmp community cannot be empty")
)

// Load finds and loads the config file, or returns defaults if none found
func Load() (*Config, string, error) {
	path := FindConfigPath()

	if path == "" {
		// No config found - return defaults
		return DefaultConfig(), "", nil
	}

	return LoadFromPath(path)
}

// LoadFromPath loads config from a specific path
func LoadFromPath(path string) (*Config, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, path, fmt.Errorf("read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, path, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, path, nil
}

// Save writes config to the specified path
func (c *Config) Save(path string) error {
	if err := EnsureConfigDir(path); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the settings of the reference scanner: nmap connect
// scan of {22,23,161,80,443}, SNMP v2c "public", camera vendors excluded.
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Posture: PostureBalanced,
		Scan: ScanConfig{
			Prober:         ProberNmap,
			ScanType:       ScanTypeConnect,
			Ports:          append([]int(nil), domain.DefaultInterestPorts...),
			ConnectTimeout: Duration(time.Second),
		},
		SNMP: SNMPConfig{
			Backend:   SNMPBackendNative,
			Community: "public",
			Port:      161,
			Command:   "snmpget",
		},
		Classify: ClassifyConfig{
			Exclusions:       append([]string(nil), classify.DefaultExclusions...),
			IncludeSNMPOnly:  true,
			ProbeClosedHosts: true,
		},
		Enrich: EnrichConfig{
			SSHTimeout: Duration(3 * time.Second),
		},
		Report: ReportConfig{
			Format: "xlsx",
			Dir:    ".",
		},
		Log: logger.DefaultConfig(),
	}
}

// applyDefaults fills in values a config file blanked out
func (c *Config) applyDefaults() {
	if c.Version == 0 {
		c.Version = 1
	}
	if c.Posture == "" {
		c.Posture = PostureBalanced
	}
	c.Posture = Posture(strings.ToLower(strings.TrimSpace(string(c.Posture))))
	if c.Scan.Prober == "" {
		c.Scan.Prober = ProberNmap
	}
	if c.Scan.ScanType == "" {
		c.Scan.ScanType = ScanTypeConnect
	}
	if c.Scan.ConnectTimeout <= 0 {
		c.Scan.ConnectTimeout = Duration(time.Second)
	}
	if c.SNMP.Backend == "" {
		c.SNMP.Backend = SNMPBackendNative
	}
	if c.SNMP.Port == 0 {
		c.SNMP.Port = 161
	}
	if c.SNMP.Command == "" {
		c.SNMP.Command = "snmpget"
	}
	if c.Enrich.SSHTimeout <= 0 {
		c.Enrich.SSHTimeout = Duration(3 * time.Second)
	}
	if c.Report.Format == "" {
		c.Report.Format = "xlsx"
	}
	if c.Report.Dir == "" {
		c.Report.Dir = "."
	}

	for i, v := range c.Classify.Exclusions {
		c.Classify.Exclusions[i] = strings.ToLower(strings.TrimSpace(v))
	}
}

// Validate checks the values that cannot be defaulted
func (c *Config) Validate() error {
	if !c.Posture.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownPosture, c.Posture)
	}

	switch c.Scan.Prober {
	case ProberNmap, ProberConnect:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownProber, c.Scan.Prober)
	}

	switch c.Scan.ScanType {
	case ScanTypeConnect, ScanTypeSYN, ScanTypeAuto:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownScanType, c.Scan.ScanType)
	}

	switch c.SNMP.Backend {
	case SNMPBackendNative, SNMPBackendCommand:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSNMPBackend, c.SNMP.Backend)
	}

	if len(c.Scan.Ports) == 0 {
		return ErrNoPorts
	}
	for _, p := range c.Scan.Ports {
		if p < 1 || p > 65535 {
			return fmt.Errorf("%w: %d", ErrInvalidPort, p)
		}
	}

	if strings.TrimSpace(c.SNMP.Community) == "" {
		return ErrEmptyCommunity
	}

	if c.Network.Prefix != "" {
		if _, err := domain.ParsePrefix(c.Network.Prefix); err != nil {
			return err
		}
	}

	return nil
}

// EffectiveProfile returns the posture profile with overrides applied and
// clamped to safe bounds
func (c *Config) EffectiveProfile() ScanProfile {
	base := c.Posture.GetProfile()

	if b := c.Behavior; b != nil {
		if b.TimingTemplate != nil {
			base.TimingTemplate = *b.TimingTemplate
		}
		if b.HostTimeout != nil {
			base.HostTimeout = b.HostTimeout.Duration()
		}
		if b.MaxRetries != nil {
			base.MaxRetries = *b.MaxRetries
		}
		if b.SNMPTimeout != nil {
			base.SNMPTimeout = b.SNMPTimeout.Duration()
		}
		if b.SNMPRetries != nil {
			base.SNMPRetries = *b.SNMPRetries
		}
		if b.Workers != nil {
			base.Workers = *b.Workers
		}
	}

	base.TimingTemplate = clamp(base.TimingTemplate, 0, maxTiming)
	base.MaxRetries = clamp(base.MaxRetries, 0, 10)
	base.SNMPRetries = clamp(base.SNMPRetries, 0, maxSNMPRetries)
	base.Workers = clamp(base.Workers, 1, maxWorkers)
	if base.SNMPTimeout <= 0 {
		base.SNMPTimeout = PostureProfiles[PostureBalanced].SNMPTimeout
	}
	if base.HostTimeout <= 0 {
		base.HostTimeout = PostureProfiles[PostureBalanced].HostTimeout
	}

	return base
}

// Policy builds the classification policy from the classify block
func (c *Config) Policy() classify.Policy {
	return classify.Policy{
		Exclusions:         append([]string(nil), c.Classify.Exclusions...),
		IncludeSNMPOnly:    c.Classify.IncludeSNMPOnly,
		IncludeUnconfirmed: c.Classify.IncludeUnconfirmed,
		ProbeClosedHosts:   c.Classify.ProbeClosedHosts,
	}
}

// Override returns the behavior override block, creating it if needed
func (c *Config) Override() *BehaviorOverride {
	if c.Behavior == nil {
		c.Behavior = &BehaviorOverride{}
	}
	return c.Behavior
}

// Summary returns a human-readable config summary
func (c *Config) Summary() string {
	p := c.EffectiveProfile()

	summary := fmt.Sprintf("Posture: %s, Prober: %s (%s), SNMP: %s\n",
		c.Posture, c.Scan.Prober, c.Scan.ScanType, c.SNMP.Backend)
	summary += fmt.Sprintf("Timing: T%d, Host timeout: %s, Retries: %d, SNMP timeout: %s, Workers: %d\n",
		p.TimingTemplate, p.HostTimeout, p.MaxRetries, p.SNMPTimeout, p.Workers)
	summary += fmt.Sprintf("Include SNMP-only: %v, Include unconfirmed: %v, Probe closed hosts: %v",
		c.Classify.IncludeSNMPOnly, c.Classify.IncludeUnconfirmed, c.Classify.ProbeClosedHosts)

	return summary
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
