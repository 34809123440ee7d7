package config

import "time"

// Posture defines how hard the scanner pushes on the network
type Posture string

const (
	PostureStealth    Posture = "stealth"    // Minimal footprint, slow
	PostureCautious   Posture = "cautious"   // Conservative, respect rate limits
	PostureBalanced   Posture = "balanced"   // Default behavior
	PostureAggressive Posture = "aggressive" // Fast, thorough
)

// ParsePosture converts a string to Posture, defaulting to PostureBalanced
func ParsePosture(s string) Posture {
	switch s {
	case "stealth":
		return PostureStealth
	case "cautious":
		return PostureCautious
	case "balanced":
		return PostureBalanced
	case "aggressive":
		return PostureAggressive
	default:
		return PostureBalanced
	}
}

// ScanProfile defines timing, retry and concurrency settings
type ScanProfile struct {
	TimingTemplate int           `yaml:"timing_template"` // nmap -T0..-T5
	HostTimeout    time.Duration `yaml:"host_timeout"`
	MaxRetries     int           `yaml:"max_retries"`
	SNMPTimeout    time.Duration `yaml:"snmp_timeout"`
	SNMPRetries    int           `yaml:"snmp_retries"`
	Workers        int           `yaml:"workers"`
}

// Valid reports whether p is one of the known postures
func (p Posture) Valid() bool {
	_, ok := PostureProfiles[p]
	return ok
}

// PostureProfiles maps postures to their default scan profiles
var PostureProfiles = map[Posture]ScanProfile{
	PostureStealth: {
		TimingTemplate: 1,
		HostTimeout:    60 * time.Second,
		MaxRetries:     1,
		SNMPTimeout:    5 * time.Second,
		SNMPRetries:    0,
		Workers:        4,
	},
	PostureCautious: {
		TimingTemplate: 2,
		HostTimeout:    30 * time.Second,
		MaxRetries:     2,
		SNMPTimeout:    3 * time.Second,
		SNMPRetries:    1,
		Workers:        8,
	},
	PostureBalanced: {
		TimingTemplate: 3,
		HostTimeout:    20 * time.Second,
		MaxRetries:     3,
		SNMPTimeout:    2 * time.Second,
		SNMPRetries:    1,
		Workers:        16,
	},
	PostureAggressive: {
		TimingTemplate: 4,
		HostTimeout:    10 * time.Second,
		MaxRetries:     3,
		SNMPTimeout:    1 * time.Second,
		SNMPRetries:    1,
		Workers:        32,
	},
}

// GetProfile returns the scan profile for a posture
func (p Posture) GetProfile() ScanProfile {
	if profile, ok := PostureProfiles[p]; ok {
		return profile
	}
	return PostureProfiles[PostureBalanced]
}
