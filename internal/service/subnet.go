package service

import (
	"context"
	"net/netip"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"switchscan/internal/adapter"
	"switchscan/internal/classify"
	"switchscan/internal/domain"
	"switchscan/internal/logger"
)

const (
	DefaultWorkers = 16
	MaxWorkers     = 64
)

// Phase is a step of one subnet scan. Phases only move forward.
type Phase int

const (
	PhaseStart Phase = iota
	PhaseProbing
	PhaseEnriching
	PhaseClassifying
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseStart:
		return "start"
	case PhaseProbing:
		return "probing"
	case PhaseEnriching:
		return "enriching"
	case PhaseClassifying:
		return "classifying"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// SubnetResult is the outcome of scanning one /24
type SubnetResult struct {
	Target      domain.ScanTarget
	Records     []domain.DeviceRecord
	Discovered  int
	Excluded    int
	Dropped     int
	Duration    time.Duration
	Err         error
	Interrupted bool
}

// Reported returns the number of records
func (r SubnetResult) Reported() int {
	return len(r.Records)
}

// Summary drops the records and flattens the error to text
func (r SubnetResult) Summary() domain.SubnetSummary {
	s := domain.SubnetSummary{
		Subnet:      r.Target.CIDR(),
		Octet:       r.Target.Octet(),
		Discovered:  r.Discovered,
		Excluded:    r.Excluded,
		Dropped:     r.Dropped,
		Reported:    r.Reported(),
		Duration:    r.Duration,
		Interrupted: r.Interrupted,
	}
	if r.Err != nil {
		s.Error = r.Err.Error()
	}
	return s
}

// SubnetScanner runs discovery and classification for one /24 at a time
type SubnetScanner struct {
	prober     adapter.HostProber
	classifier *classify.Classifier
	hostKeys   adapter.HostKeyProber
	workers    int
	events     *EventBus
	logger     logger.Logger
	onPhase    func(domain.ScanTarget, Phase)
}

// SubnetOption configures a SubnetScanner
type SubnetOption func(*SubnetScanner)

// WithWorkers sets the per-host pool size, clamped to 1..64
func WithWorkers(n int) SubnetOption {
	return func(s *SubnetScanner) {
		s.workers = min(max(n, 1), MaxWorkers)
	}
}

// WithHostKeyProber records SSH host keys for devices with port 22 open
func WithHostKeyProber(p adapter.HostKeyProber) SubnetOption {
	return func(s *SubnetScanner) {
		s.hostKeys = p
	}
}

// WithEventBus publishes progress events to bus
func WithEventBus(bus *EventBus) SubnetOption {
	return func(s *SubnetScanner) {
		s.events = bus
	}
}

// WithPhaseHook calls fn on every phase transition
func WithPhaseHook(fn func(domain.ScanTarget, Phase)) SubnetOption {
	return func(s *SubnetScanner) {
		s.onPhase = fn
	}
}

// NewSubnetScanner creates a scanner from a host prober and a classifier
func NewSubnetScanner(prober adapter.HostProber, classifier *classify.Classifier, log logger.Logger, opts ...SubnetOption) *SubnetScanner {
	s := &SubnetScanner{
		prober:     prober,
		classifier: classifier,
		workers:    DefaultWorkers,
		logger:     log.WithComponent("subnet"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// workerResult is owned by exactly one worker until the pool finishes
type workerResult struct {
	records  []domain.DeviceRecord
	excluded int
	dropped  int
}

// Scan probes target once, then enriches and classifies every discovered
// host on the worker pool. A discovery failure yields an empty result with
// Err set; it is never returned as an error.
func (s *SubnetScanner) Scan(ctx context.Context, target domain.ScanTarget) SubnetResult {
	start := time.Now()
	result := SubnetResult{Target: target}
	subnet := target.CIDR()

	finish := func() SubnetResult {
		result.Duration = time.Since(start)
		s.phase(target, PhaseDone)
		return result
	}

	s.phase(target, PhaseStart)
	s.events.Publish(Event{Type: EventSubnetStarted, Payload: SubnetEvent{Subnet: subnet}})

	s.phase(target, PhaseProbing)
	hosts, err := s.prober.Probe(ctx, target)
	if err != nil {
		if ctx.Err() != nil {
			result.Interrupted = true
			return finish()
		}

		result.Err = err
		s.logger.Warn().Err(err).Str("subnet", subnet).Msg("subnet discovery failed, skipping")
		s.events.Publish(Event{Type: EventSubnetFailed, Payload: SubnetEvent{Subnet: subnet, Error: err.Error()}})
		return finish()
	}

	result.Discovered = len(hosts)
	s.logger.Info().Str("subnet", subnet).Int("hosts", len(hosts)).Msg("discovery complete")
	s.events.Publish(Event{Type: EventSubnetProbed, Payload: SubnetEvent{Subnet: subnet, Discovered: len(hosts)}})

	s.phase(target, PhaseEnriching)
	locals := s.classifyAll(ctx, subnet, hosts)
	s.phase(target, PhaseClassifying)

	for _, local := range locals {
		result.Records = append(result.Records, local.records...)
		result.Excluded += local.excluded
		result.Dropped += local.dropped
	}
	sortByIP(result.Records)

	if ctx.Err() != nil {
		result.Interrupted = true
		return finish()
	}

	s.logger.Info().
		Str("subnet", subnet).
		Int("discovered", result.Discovered).
		Int("excluded", result.Excluded).
		Int("dropped", result.Dropped).
		Int("reported", result.Reported()).
		Msg("subnet complete")
	s.events.Publish(Event{Type: EventSubnetComplete, Payload: SubnetEvent{
		Subnet:     subnet,
		Discovered: result.Discovered,
		Reported:   result.Reported(),
	}})

	return finish()
}

// classifyAll runs a fixed pool of workers over hosts. Each worker appends
// only to its own workerResult.
func (s *SubnetScanner) classifyAll(ctx context.Context, subnet string, hosts []domain.HostProbeResult) []workerResult {
	if len(hosts) == 0 {
		return nil
	}

	workers := min(s.workers, len(hosts))
	jobs := make(chan domain.HostProbeResult)
	locals := make([]workerResult, workers)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(jobs)
		for _, h := range hosts {
			select {
			case jobs <- h:
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	for w := range workers {
		local := &locals[w]
		g.Go(func() error {
			for h := range jobs {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.classifyHost(gctx, subnet, h, local)
			}
			return nil
		})
	}

	_ = g.Wait()

	return locals
}

func (s *SubnetScanner) classifyHost(ctx context.Context, subnet string, host domain.HostProbeResult, local *workerResult) {
	record, decision := s.classifier.Classify(ctx, host, subnet)

	switch decision {
	case classify.DecisionExcluded:
		local.excluded++
	case classify.DecisionDropped:
		local.dropped++
	case classify.DecisionReported:
		if s.hostKeys != nil && host.HasOpenPort(domain.PortSSH) {
			if key, ok := s.hostKeys.HostKey(ctx, host.IP); ok {
				record = record.WithSSHHostKey(key)
			}
		}
		local.records = append(local.records, record)
	}

	s.logger.Debug().
		Str("ip", host.IP).
		Str("vendor", host.Vendor).
		Stringer("decision", decision).
		Str("type", string(record.Type)).
		Msg("host classified")

	s.events.Publish(Event{Type: EventHostClassified, Payload: HostEvent{
		Subnet:   subnet,
		IP:       host.IP,
		Vendor:   host.Vendor,
		Decision: decision.String(),
		Type:     string(record.Type),
	}})
}

func (s *SubnetScanner) phase(target domain.ScanTarget, p Phase) {
	s.logger.Trace().Str("subnet", target.CIDR()).Stringer("phase", p).Msg("phase")
	if s.onPhase != nil {
		s.onPhase(target, p)
	}
}

// sortByIP orders records by numeric address; unparsable IPs sort last
func sortByIP(records []domain.DeviceRecord) {
	slices.SortStableFunc(records, func(a, b domain.DeviceRecord) int {
		ia, errA := netip.ParseAddr(a.IP)
		ib, errB := netip.ParseAddr(b.IP)
		switch {
		case errA != nil && errB != nil:
			return 0
		case errA != nil:
			return 1
		case errB != nil:
			return -1
		default:
			return ia.Compare(ib)
		}
	})
}
