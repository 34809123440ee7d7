package main

import (
	"fmt"
	"io"
	"sync"

	"switchscan/internal/adapter"
	"switchscan/internal/classify"
	"switchscan/internal/config"
	"switchscan/internal/logger"
	"switchscan/internal/service"
)

// pipeline is the wired scan stack for one run
type pipeline struct {
	prober      config.Prober
	scanType    config.ScanType
	snmpBackend config.SNMPBackend

	hostProber     adapter.HostProber
	identityProber adapter.IdentityProber
	aggregator     *service.Aggregator
	events         *service.EventBus

	eventChan chan service.Event
	wg        sync.WaitGroup
}

// buildPipeline resolves the requested backends against caps and wires the
// probers, classifier, subnet scanner and aggregator.
func buildPipeline(cfg *config.Config, caps config.Capabilities, log logger.Logger) *pipeline {
	profile := cfg.EffectiveProfile()

	p := &pipeline{
		prober:      config.ResolveProber(cfg.Scan.Prober, caps),
		scanType:    config.ResolveScanType(cfg.Scan.ScanType, caps),
		snmpBackend: config.ResolveSNMPBackend(cfg.SNMP.Backend, caps),
		events:      service.NewEventBus(),
	}

	if p.prober != cfg.Scan.Prober {
		log.Warn().Str("requested", string(cfg.Scan.Prober)).Msg("nmap not found, using connect prober")
	}
	if cfg.Scan.ScanType == config.ScanTypeSYN && p.scanType != config.ScanTypeSYN {
		log.Warn().Msg("SYN scan needs root or CAP_NET_RAW, using connect scan")
	}
	if p.snmpBackend != cfg.SNMP.Backend {
		log.Warn().Str("command", cfg.SNMP.Command).Msg("snmpget not found, using native SNMP client")
	}

	switch p.prober {
	case config.ProberConnect:
		p.hostProber = adapter.NewConnectProber(log,
			adapter.WithConnectPorts(cfg.Scan.Ports),
			adapter.WithConnectTimeout(cfg.Scan.ConnectTimeout.Duration()),
		)
	default:
		nmapOpts := []adapter.NmapOption{
			adapter.WithPorts(cfg.Scan.Ports),
			adapter.WithSYNScan(p.scanType == config.ScanTypeSYN),
			adapter.WithTiming(profile.TimingTemplate),
			adapter.WithHostTimeout(profile.HostTimeout),
			adapter.WithMaxRetries(profile.MaxRetries),
		}
		if caps.NmapPath != "" {
			nmapOpts = append(nmapOpts, adapter.WithBinaryPath(caps.NmapPath))
		}
		p.hostProber = adapter.NewNmapProber(log, nmapOpts...)
	}

	switch p.snmpBackend {
	case config.SNMPBackendCommand:
		p.identityProber = adapter.NewCommandProber(log, caps.SNMPGetPath, cfg.SNMP.Community,
			profile.SNMPTimeout, profile.SNMPRetries)
	default:
		p.identityProber = adapter.NewSNMPProber(log,
			adapter.WithCommunity(cfg.SNMP.Community),
			adapter.WithSNMPPort(cfg.SNMP.Port),
			adapter.WithSNMPTimeout(profile.SNMPTimeout),
			adapter.WithSNMPRetries(profile.SNMPRetries),
		)
	}

	classifier := classify.New(cfg.Policy(), p.identityProber)

	scanOpts := []service.SubnetOption{
		service.WithWorkers(profile.Workers),
		service.WithEventBus(p.events),
	}
	if cfg.Enrich.SSHHostKey {
		scanOpts = append(scanOpts, service.WithHostKeyProber(
			adapter.NewSSHKeyProber(log, cfg.Enrich.SSHTimeout.Duration())))
	}

	scanner := service.NewSubnetScanner(p.hostProber, classifier, log, scanOpts...)
	p.aggregator = service.NewAggregator(scanner, log)

	log.Info().
		Str("prober", string(p.prober)).
		Str("scan_type", string(p.scanType)).
		Str("snmp", string(p.snmpBackend)).
		Int("workers", profile.Workers).
		Msg("scan pipeline ready")

	return p
}

// watch prints one progress line per finished subnet to w
func (p *pipeline) watch(w io.Writer, total int) {
	p.eventChan = make(chan service.Event, 256)
	p.events.Subscribe(p.eventChan, service.EventSubnetComplete, service.EventSubnetFailed)

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		done := 0
		for event := range p.eventChan {
			ev, ok := event.Payload.(service.SubnetEvent)
			if !ok {
				continue
			}
			switch event.Type {
			case service.EventSubnetComplete:
				done++
				fmt.Fprintf(w, "[%d/%d] %s: %d host(s), %d switch(es)\n", done, total, ev.Subnet, ev.Discovered, ev.Reported)
			case service.EventSubnetFailed:
				done++
				fmt.Fprintf(w, "[%d/%d] %s: failed: %s\n", done, total, ev.Subnet, ev.Error)
			}
		}
	}()
}

// close stops the progress watcher once no scan is publishing
func (p *pipeline) close() {
	if p.eventChan == nil {
		return
	}
	close(p.eventChan)
	p.wg.Wait()
	p.eventChan = nil
}
