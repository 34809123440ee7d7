package adapter

import (
	"time"

	"switchscan/internal/domain"
)

// NmapOption is a functional option for configuring NmapProber
type NmapOption func(*NmapProber)

// WithPorts sets the TCP interest ports
func WithPorts(ports []int) NmapOption {
	return func(n *NmapProber) {
		if len(ports) > 0 {
			n.ports = append([]int(nil), ports...)
		}
	}
}

// WithSYNScan switches from a connect scan (-sT) to a SYN scan (-sS).
// Note: SYN scans require root or CAP_NET_RAW
func WithSYNScan(enabled bool) NmapOption {
	return func(n *NmapProber) {
		n.synScan = enabled
	}
}

// WithTiming sets the nmap timing template (0-5, -T0..-T5)
func WithTiming(template int) NmapOption {
	return func(n *NmapProber) {
		if template >= 0 && template <= 5 {
			n.timing = template
		}
	}
}

// WithHostTimeout sets --host-timeout
func WithHostTimeout(d time.Duration) NmapOption {
	return func(n *NmapProber) {
		n.hostTimeout = d
	}
}

// WithMaxRetries sets --max-retries
func WithMaxRetries(retries int) NmapOption {
	return func(n *NmapProber) {
		if retries >= 0 {
			n.maxRetries = retries
		}
	}
}

// WithBinaryPath points at a specific nmap binary
func WithBinaryPath(path string) NmapOption {
	return func(n *NmapProber) {
		n.binaryPath = path
	}
}

// WithSkipHostDiscovery sets whether to skip ping and treat all hosts as online (-Pn)
// Useful for networks that block ICMP
func WithSkipHostDiscovery(skip bool) NmapOption {
	return func(n *NmapProber) {
		n.skipHostDiscovery = skip
	}
}

// WithManagementPortsOnly restricts the scan to SSH, Telnet and SNMP
func WithManagementPortsOnly() NmapOption {
	return func(n *NmapProber) {
		n.ports = append([]int(nil), domain.ManagementPorts...)
	}
}

// WithNeighborSources sets the ARP table and MAC prefix databases used when
// nmap reports no MAC for a host. An empty arpTable disables the lookup.
func WithNeighborSources(arpTable string, ouiFiles ...string) NmapOption {
	return func(n *NmapProber) {
		n.arpTable = arpTable
		n.ouiFiles = ouiFiles
	}
}

func withScanFunc(fn nmapScanFunc) NmapOption {
	return func(n *NmapProber) {
		n.scan = fn
	}
}
