package config

import (
	"context"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"
)

// Capabilities describes what the current process can do on this host
type Capabilities struct {
	EffectiveUID int    `yaml:"effective_uid"`
	IsRoot       bool   `yaml:"is_root"`
	CanRawSocket bool   `yaml:"can_raw_socket"`
	NmapPath     string `yaml:"nmap_path,omitempty"`
	NmapVersion  string `yaml:"nmap_version,omitempty"`
	SNMPGetPath  string `yaml:"snmpget_path,omitempty"`
}

// HasNmap reports whether a working nmap binary was found
func (c Capabilities) HasNmap() bool {
	return c.NmapPath != ""
}

// HasSNMPGet reports whether the snmpget binary was found
func (c Capabilities) HasSNMPGet() bool {
	return c.SNMPGetPath != ""
}

// DetectCapabilities probes privileges and tool availability.
// nmapPath and snmpCommand may be empty to use the PATH defaults.
func DetectCapabilities(nmapPath, snmpCommand string) Capabilities {
	euid := os.Geteuid()
	caps := Capabilities{
		EffectiveUID: euid,
		IsRoot:       euid == 0,
		CanRawSocket: probeRawSocket(),
	}

	caps.NmapPath, caps.NmapVersion = probeNmap(nmapPath)

	if snmpCommand == "" {
		snmpCommand = "snmpget"
	}
	if path, err := exec.LookPath(snmpCommand); err == nil {
		caps.SNMPGetPath = path
	}

	return caps
}

// ResolveScanType turns ScanTypeAuto into a concrete scan type: SYN scans
// need raw sockets, everything else falls back to connect scans.
func ResolveScanType(requested ScanType, caps Capabilities) ScanType {
	switch requested {
	case ScanTypeAuto:
		if caps.IsRoot || caps.CanRawSocket {
			return ScanTypeSYN
		}
		return ScanTypeConnect
	case ScanTypeSYN:
		if !caps.IsRoot && !caps.CanRawSocket {
			return ScanTypeConnect
		}
		return ScanTypeSYN
	default:
		return ScanTypeConnect
	}
}

// ResolveProber falls back to the pure Go connect prober when nmap is missing
func ResolveProber(requested Prober, caps Capabilities) Prober {
	if requested == ProberNmap && !caps.HasNmap() {
		return ProberConnect
	}
	return requested
}

// ResolveSNMPBackend falls back to the native client when snmpget is missing
func ResolveSNMPBackend(requested SNMPBackend, caps Capabilities) SNMPBackend {
	if requested == SNMPBackendCommand && !caps.HasSNMPGet() {
		return SNMPBackendNative
	}
	return requested
}

func probeRawSocket() bool {
	// A raw TCP socket is what nmap needs for -sS (CAP_NET_RAW or root)
	fd, err := syscall.Socket(syscall.AF_INET, syscall.SOCK_RAW, syscall.IPPROTO_TCP)
	if err != nil {
		return false
	}
	syscall.Close(fd)
	return true
}

func probeNmap(binary string) (string, string) {
	if binary == "" {
		binary = "nmap"
	}
	path, err := exec.LookPath(binary)
	if err != nil {
		return "", ""
	}

	// Check version to confirm it works
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	output, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return "", ""
	}

	return path, strings.TrimSpace(strings.Split(string(output), "\n")[0])
}
