package adapter

import (
	"context"
	"errors"
	"net"
	"strconv"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"switchscan/internal/domain"
	"switchscan/internal/logger"
)

const (
	defaultConnectTimeout = time.Second
	defaultSweepWorkers   = 64
)

// dialFunc matches net.Dialer.DialContext
type dialFunc func(ctx context.Context, network, address string) (net.Conn, error)

// ConnectProber discovers hosts with plain TCP connects. It needs neither
// root nor the nmap binary.
type ConnectProber struct {
	ports    []int
	timeout  time.Duration
	workers  int
	arpTable string
	ouiFiles []string
	logger   logger.Logger
	dial     dialFunc

	neighbors *neighborTable
}

// ConnectOption configures a ConnectProber
type ConnectOption func(*ConnectProber)

// WithConnectPorts sets the TCP ports to connect to
func WithConnectPorts(ports []int) ConnectOption {
	return func(c *ConnectProber) {
		if len(ports) > 0 {
			c.ports = append([]int(nil), ports...)
		}
	}
}

// WithConnectTimeout sets the per-connection timeout
func WithConnectTimeout(d time.Duration) ConnectOption {
	return func(c *ConnectProber) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSweepWorkers limits how many hosts are probed at once
func WithSweepWorkers(n int) ConnectOption {
	return func(c *ConnectProber) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithARPTable overrides the kernel ARP table path
func WithARPTable(path string) ConnectOption {
	return func(c *ConnectProber) {
		c.arpTable = path
	}
}

// WithOUIDatabases overrides the MAC prefix files
func WithOUIDatabases(paths ...string) ConnectOption {
	return func(c *ConnectProber) {
		c.ouiFiles = paths
	}
}

func withDialer(fn dialFunc) ConnectOption {
	return func(c *ConnectProber) {
		c.dial = fn
	}
}

// NewConnectProber creates a connect-scan prober
func NewConnectProber(log logger.Logger, opts ...ConnectOption) *ConnectProber {
	c := &ConnectProber{
		ports:    append([]int(nil), domain.DefaultInterestPorts...),
		timeout:  defaultConnectTimeout,
		workers:  defaultSweepWorkers,
		arpTable: DefaultARPTable,
		ouiFiles: DefaultOUIDatabases,
		logger:   log.WithComponent("connect"),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.dial == nil {
		d := &net.Dialer{Timeout: c.timeout}
		c.dial = d.DialContext
	}
	c.neighbors = newNeighborTable(c.logger, c.arpTable, c.ouiFiles)

	return c
}

type sweepResult struct {
	alive bool
	open  []int
	// unreachable holds the dial error when every port failed because the
	// address could not be routed to at all
	unreachable error
}

// Probe connects to every interest port of the 254 addresses in target
func (c *ConnectProber) Probe(ctx context.Context, target domain.ScanTarget) ([]domain.HostProbeResult, error) {
	ips := target.HostAddresses()
	results := make([]sweepResult, len(ips))

	c.logger.Debug().
		Str("target", target.CIDR()).
		Ints("ports", c.ports).
		Int("workers", c.workers).
		Msg("starting connect sweep")

	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.workers)

	for i, ip := range ips {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// each goroutine owns results[i]
			results[i] = c.probeHost(gctx, ip)
			return nil
		})
	}

	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := sweepFailure(results); err != nil {
		c.logger.Warn().Err(err).Str("target", target.CIDR()).Msg("target network unreachable")
		return nil, domain.NewScanFailure(target, err)
	}

	arp := c.neighbors.lookupARP()

	hosts := make([]domain.HostProbeResult, 0)
	for i, r := range results {
		if !r.alive {
			continue
		}
		mac := arp[ips[i]]
		hosts = append(hosts, domain.NewHostProbeResult(ips[i], mac, c.neighbors.vendor(mac), r.open, c.ports))
	}

	c.logger.Debug().
		Str("target", target.CIDR()).
		Int("hosts", len(hosts)).
		Dur("elapsed", time.Since(start)).
		Msg("connect sweep complete")

	return hosts, nil
}

// sweepFailure returns a routing error when every address of the sweep was
// unreachable on every port.
func sweepFailure(results []sweepResult) error {
	if len(results) == 0 {
		return nil
	}
	for _, r := range results {
		if r.alive || r.unreachable == nil {
			return nil
		}
	}
	return results[0].unreachable
}

// probeHost dials each port. A refused connection proves the host is up.
func (c *ConnectProber) probeHost(ctx context.Context, ip string) sweepResult {
	var r sweepResult
	var lastUnreachable error
	unreachable := 0

	for _, port := range c.ports {
		if ctx.Err() != nil {
			return r
		}

		open, alive, err := c.probePort(ctx, ip, port)
		if open {
			r.open = append(r.open, port)
		}
		r.alive = r.alive || alive
		if isUnreachable(err) {
			unreachable++
			lastUnreachable = err
		}
	}

	if !r.alive && unreachable == len(c.ports) {
		r.unreachable = lastUnreachable
	}

	return r
}

// probePort returns the dial error alongside the verdict so callers can tell
// a silent host from an unroutable one.
func (c *ConnectProber) probePort(ctx context.Context, ip string, port int) (open, alive bool, err error) {
	dctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	conn, err := c.dial(dctx, "tcp", net.JoinHostPort(ip, strconv.Itoa(port)))
	if err == nil {
		conn.Close()
		return true, true, nil
	}

	if errors.Is(err, syscall.ECONNREFUSED) {
		return false, true, err
	}

	return false, false, err
}

// isUnreachable reports dial errors meaning this host has no route or no
// local address for the destination.
func isUnreachable(err error) bool {
	return errors.Is(err, syscall.ENETUNREACH) ||
		errors.Is(err, syscall.EHOSTUNREACH) ||
		errors.Is(err, syscall.EADDRNOTAVAIL)
}
