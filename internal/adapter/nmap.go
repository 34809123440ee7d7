package adapter

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	nmap "github.com/Ullaakut/nmap/v3"

	"switchscan/internal/domain"
	"switchscan/internal/logger"
)

// nmapScanFunc runs one nmap invocation. Replaced in tests.
type nmapScanFunc func(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error)

// NmapProber discovers hosts with the nmap binary
type NmapProber struct {
	ports             []int
	synScan           bool
	timing            int
	hostTimeout       time.Duration
	maxRetries        int
	binaryPath        string
	skipHostDiscovery bool
	arpTable          string
	ouiFiles          []string
	logger            logger.Logger
	scan              nmapScanFunc

	neighbors *neighborTable
}

// NewNmapProber creates a prober with the reference policy: connect scan of
// the interest ports, -Pn, -T3, 20s host timeout, 3 retries.
func NewNmapProber(log logger.Logger, opts ...NmapOption) *NmapProber {
	p := &NmapProber{
		ports:             append([]int(nil), domain.DefaultInterestPorts...),
		timing:            3,
		hostTimeout:       20 * time.Second,
		maxRetries:        3,
		skipHostDiscovery: true,
		arpTable:          DefaultARPTable,
		ouiFiles:          DefaultOUIDatabases,
		logger:            log.WithComponent("nmap"),
		scan:              runNmap,
	}

	for _, opt := range opts {
		opt(p)
	}
	p.neighbors = newNeighborTable(p.logger, p.arpTable, p.ouiFiles)

	return p
}

// Probe runs one nmap scan over the target /24
func (n *NmapProber) Probe(ctx context.Context, target domain.ScanTarget) ([]domain.HostProbeResult, error) {
	opts := n.options(target)

	n.logger.Debug().
		Str("target", target.CIDR()).
		Str("ports", joinPorts(n.ports)).
		Bool("syn", n.synScan).
		Int("timing", n.timing).
		Dur("host_timeout", n.hostTimeout).
		Int("max_retries", n.maxRetries).
		Msg("starting nmap scan")

	start := time.Now()
	result, warnings, err := n.scan(ctx, opts...)
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, domain.NewScanFailure(target, err)
	}

	if len(warnings) > 0 {
		n.logger.Warn().Str("target", target.CIDR()).Strs("warnings", warnings).Msg("nmap reported warnings")
	}

	hosts, err := n.processResults(target, result)
	if err != nil {
		return nil, domain.NewScanFailure(target, err)
	}

	n.logger.Debug().
		Str("target", target.CIDR()).
		Int("hosts", len(hosts)).
		Dur("elapsed", time.Since(start)).
		Msg("nmap scan complete")

	return hosts, nil
}

// options builds the nmap arguments for target
func (n *NmapProber) options(target domain.ScanTarget) []nmap.Option {
	opts := []nmap.Option{
		nmap.WithTargets(target.CIDR()),
		nmap.WithPorts(joinPorts(n.ports)),
		nmap.WithTimingTemplate(nmap.Timing(n.timing)),
		nmap.WithMaxRetries(n.maxRetries),
	}

	if n.hostTimeout > 0 {
		opts = append(opts, nmap.WithHostTimeout(n.hostTimeout))
	}

	// -sS needs raw sockets; -sT works unprivileged
	if n.synScan {
		opts = append(opts, nmap.WithSYNScan())
	} else {
		opts = append(opts, nmap.WithConnectScan())
	}

	// Switches often drop ICMP, so treat every address as up (-Pn)
	if n.skipHostDiscovery {
		opts = append(opts, nmap.WithSkipHostDiscovery())
	}

	if n.binaryPath != "" {
		opts = append(opts, nmap.WithBinaryPath(n.binaryPath))
	}

	return opts
}

// processResults converts nmap hosts into probe results. With -Pn nmap lists
// every address of the range, so only hosts that actually answered are kept.
// nmap only reports MACs when it saw the ARP reply itself (raw scans); for
// connect scans MAC and vendor come from the kernel ARP cache instead.
func (n *NmapProber) processResults(target domain.ScanTarget, result *nmap.Run) ([]domain.HostProbeResult, error) {
	if result == nil {
		return nil, errors.New("nil scan result")
	}

	hosts := make([]domain.HostProbeResult, 0, len(result.Hosts))
	var arp map[string]string

	for _, host := range result.Hosts {
		if host.Status.State != "up" || len(host.Addresses) == 0 {
			continue
		}

		var ip, mac, vendor string
		for _, addr := range host.Addresses {
			switch addr.AddrType {
			case "ipv4":
				if ip == "" {
					ip = addr.Addr
				}
			case "mac":
				mac = addr.Addr
				vendor = addr.Vendor
			}
		}

		if ip == "" || !target.Contains(ip) {
			continue
		}

		if !responded(host, mac) {
			continue
		}

		if mac == "" {
			if arp == nil {
				arp = n.neighbors.lookupARP()
			}
			mac = arp[ip]
		}
		if vendor == "" {
			vendor = n.neighbors.vendor(mac)
		}

		probe := domain.NewHostProbeResult(ip, mac, vendor, openPorts(host.Ports), n.ports)

		n.logger.Trace().
			Str("ip", probe.IP).
			Str("mac", probe.MAC).
			Str("vendor", probe.Vendor).
			Ints("open_ports", probe.OpenPorts).
			Msg("host discovered")

		hosts = append(hosts, probe)
	}

	return hosts, nil
}

// responded reports whether nmap saw any sign of life from host: an ARP/MAC
// answer, a real discovery reason, or a port that answered open or closed.
func responded(host nmap.Host, mac string) bool {
	if mac != "" {
		return true
	}
	if host.Status.Reason != "" && host.Status.Reason != "user-set" {
		return true
	}
	for _, port := range host.Ports {
		switch port.State.State {
		case "open", "closed", "unfiltered":
			return true
		}
	}
	return false
}

// openPorts extracts list of open TCP port numbers
func openPorts(ports []nmap.Port) []int {
	var open []int
	for _, port := range ports {
		if port.State.State == "open" && (port.Protocol == "" || port.Protocol == "tcp") {
			open = append(open, int(port.ID))
		}
	}
	return open
}

func joinPorts(ports []int) string {
	parts := make([]string, len(ports))
	for i, p := range ports {
		parts[i] = strconv.Itoa(p)
	}
	return strings.Join(parts, ",")
}

func runNmap(ctx context.Context, opts ...nmap.Option) (*nmap.Run, []string, error) {
	scanner, err := nmap.NewScanner(ctx, opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create scanner: %w", err)
	}

	result, warnings, err := scanner.Run()
	var w []string
	if warnings != nil {
		w = *warnings
	}
	if err != nil {
		return nil, w, fmt.Errorf("scan failed: %w", err)
	}

	return result, w, nil
}
