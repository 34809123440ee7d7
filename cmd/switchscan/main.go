package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"switchscan/internal/config"
	"switchscan/internal/domain"
	"switchscan/internal/logger"
	"switchscan/internal/service"
)

const (
	exitOK          = 0
	exitError       = 1
	exitUsage       = 2
	exitInterrupted = 130
)

// options holds the raw command line; set records which flags were given
// so config file values are only overridden explicitly.
type options struct {
	configPath  string
	writeConfig string
	prefix      string
	octet       int
	start       int
	end         int
	out         string
	format      string
	convert     string
	community   string
	workers     int
	posture     string
	prober      string
	snmpBackend string

	includeSNMPOnly    bool
	includeUnconfirmed bool
	probeClosedHosts   bool
	sshHostKey         bool
	debug              bool

	set map[string]bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	opts := &options{set: make(map[string]bool)}

	fs := flag.NewFlagSet("switchscan", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.configPath, "config", "", "Config file path (default: search standard locations)")
	fs.StringVar(&opts.writeConfig, "write-config", "", "Write the effective config to this path and exit")
	fs.StringVar(&opts.prefix, "prefix", "", "First two octets of the network, e.g. 192.168")
	fs.IntVar(&opts.octet, "octet", -1, "Scan a single /24: third octet (0-254)")
	fs.IntVar(&opts.start, "start", -1, "First third octet of the range")
	fs.IntVar(&opts.end, "end", -1, "Last third octet of the range")
	fs.StringVar(&opts.out, "out", "", "Report path (default: suggested name in report.dir)")
	fs.StringVar(&opts.format, "format", "", "Report format: xlsx, csv, json, yaml, ansible-inventory, sqlite")
	fs.StringVar(&opts.convert, "convert", "", "Convert an existing csv/json/yaml/sqlite report instead of scanning")
	fs.StringVar(&opts.community, "community", "", "SNMP v2c community")
	fs.IntVar(&opts.workers, "workers", 0, "Concurrent SNMP workers per subnet")
	fs.StringVar(&opts.posture, "posture", "", "Scan posture: stealth, cautious, balanced, aggressive")
	fs.StringVar(&opts.prober, "prober", "", "Host discovery: nmap or connect")
	fs.StringVar(&opts.snmpBackend, "snmp-backend", "", "SNMP backend: native or command")
	fs.BoolVar(&opts.includeSNMPOnly, "include-snmp-only", true, "Report hosts identified only through SNMP")
	fs.BoolVar(&opts.includeUnconfirmed, "include-unconfirmed", false, "Report every non-excluded host")
	fs.BoolVar(&opts.probeClosedHosts, "probe-closed-hosts", true, "Query SNMP on hosts without open ports")
	fs.BoolVar(&opts.sshHostKey, "ssh-host-key", false, "Record SSH host key fingerprints")
	fs.BoolVar(&opts.debug, "debug", false, "Enable debug logging")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if fs.NArg() > 0 {
		return nil, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}

	fs.Visit(func(f *flag.Flag) {
		opts.set[f.Name] = true
	})

	return opts, nil
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	cfg, cfgPath, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "load config: %v\n", err)
		return exitError
	}
	if err := opts.apply(cfg); err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(stderr, "invalid config: %v\n", err)
		return exitUsage
	}

	if opts.writeConfig != "" {
		if err := cfg.Save(opts.writeConfig); err != nil {
			fmt.Fprintf(stderr, "write config: %v\n", err)
			return exitError
		}
		fmt.Fprintf(stdout, "Config written to %s\n", opts.writeConfig)
		return exitOK
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(stderr, "init logger: %v\n", err)
		return exitError
	}
	if cfgPath != "" {
		log.Info().Str("path", cfgPath).Msg("loaded config")
	}

	if opts.convert != "" {
		return convert(ctx, opts, cfg, log, stdout)
	}

	prefix, octets, err := scanRange(cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}

	caps := config.DetectCapabilities(cfg.Scan.NmapPath, cfg.SNMP.Command)
	p := buildPipeline(cfg, caps, log)
	defer p.close()
	p.watch(stderr, octets.Len())

	log.Debug().Msg(cfg.Summary())

	report, err := p.aggregator.Scan(ctx, prefix, octets)
	p.close()
	if report == nil {
		log.Error().Err(err).Msg("scan failed")
		return exitError
	}

	printTable(stdout, report.Records)
	printFailures(stdout, report.Failed())

	if err != nil {
		log.Warn().
			Int("subnets", len(report.Subnets)).
			Int("records", len(report.Records)).
			Msg("scan interrupted, no report written")
		return exitInterrupted
	}

	if report.Empty() {
		log.Warn().Msg("no switches found, no report written")
		return exitOK
	}

	path := opts.out
	if path == "" {
		path = filepath.Join(cfg.Report.Dir, service.SuggestedFileName(prefix, octets, time.Now(), cfg.Report.Format))
	}

	saved, err := service.NewReportService(log).Save(ctx, report, path, outputFormat(opts, cfg, path))
	if err != nil {
		log.Error().Err(err).Str("path", path).Msg("failed to write report")
		return exitError
	}

	fmt.Fprintf(stdout, "\n%d device(s) saved to %s\n", len(report.Records), saved)
	return exitOK
}

func loadConfig(path string) (*config.Config, string, error) {
	if path != "" {
		return config.LoadFromPath(path)
	}
	return config.Load()
}

// apply overlays explicitly given flags on cfg
func (o *options) apply(cfg *config.Config) error {
	if o.set["prefix"] {
		cfg.Network.Prefix = o.prefix
	}

	if o.set["octet"] {
		if o.set["start"] || o.set["end"] {
			return errors.New("-octet cannot be combined with -start/-end")
		}
		cfg.Network.Start = config.IntPtr(o.octet)
		cfg.Network.End = config.IntPtr(o.octet)
	}
	if o.set["start"] {
		cfg.Network.Start = config.IntPtr(o.start)
		if !o.set["end"] {
			cfg.Network.End = config.IntPtr(o.start)
		}
	}
	if o.set["end"] {
		cfg.Network.End = config.IntPtr(o.end)
		if !o.set["start"] {
			return errors.New("-end requires -start")
		}
	}

	if o.set["community"] {
		cfg.SNMP.Community = o.community
	}
	if o.set["workers"] {
		cfg.Override().Workers = config.IntPtr(o.workers)
	}
	if o.set["posture"] {
		cfg.Posture = config.Posture(strings.ToLower(strings.TrimSpace(o.posture)))
	}
	if o.set["prober"] {
		cfg.Scan.Prober = config.Prober(o.prober)
	}
	if o.set["snmp-backend"] {
		cfg.SNMP.Backend = config.SNMPBackend(o.snmpBackend)
	}
	if o.set["include-snmp-only"] {
		cfg.Classify.IncludeSNMPOnly = o.includeSNMPOnly
	}
	if o.set["include-unconfirmed"] {
		cfg.Classify.IncludeUnconfirmed = o.includeUnconfirmed
	}
	if o.set["probe-closed-hosts"] {
		cfg.Classify.ProbeClosedHosts = o.probeClosedHosts
	}
	if o.set["ssh-host-key"] {
		cfg.Enrich.SSHHostKey = o.sshHostKey
	}
	if o.set["format"] {
		cfg.Report.Format = o.format
	}
	if o.debug {
		cfg.Log.Debug = true
	}

	return nil
}

// scanRange validates the network block of cfg
func scanRange(cfg *config.Config) (domain.Prefix, domain.OctetRange, error) {
	if cfg.Network.Prefix == "" {
		return domain.Prefix{}, domain.OctetRange{}, errors.New("a network prefix is required (-prefix A.B)")
	}
	prefix, err := domain.ParsePrefix(cfg.Network.Prefix)
	if err != nil {
		return domain.Prefix{}, domain.OctetRange{}, err
	}

	if cfg.Network.Start == nil {
		return domain.Prefix{}, domain.OctetRange{}, errors.New("a third octet is required (-octet N or -start N -end M)")
	}
	end := *cfg.Network.Start
	if cfg.Network.End != nil {
		end = *cfg.Network.End
	}

	octets, err := domain.NewOctetRange(*cfg.Network.Start, end)
	if err != nil {
		return domain.Prefix{}, domain.OctetRange{}, err
	}
	return prefix, octets, nil
}

// outputFormat picks the report format: an explicit -format wins, then the
// extension of an explicit -out, then the configured default.
func outputFormat(opts *options, cfg *config.Config, path string) string {
	if opts.set["format"] {
		return opts.format
	}
	if opts.out != "" && service.FormatFromPath(path) != "" {
		return ""
	}
	return cfg.Report.Format
}

func convert(ctx context.Context, opts *options, cfg *config.Config, log logger.Logger, stdout io.Writer) int {
	svc := service.NewReportService(log)

	records, err := svc.Load(ctx, opts.convert, "")
	if err != nil {
		log.Error().Err(err).Str("path", opts.convert).Msg("failed to read report")
		return exitError
	}
	printTable(stdout, records)

	if opts.out == "" {
		return exitOK
	}

	now := time.Now()
	report := &service.ScanReport{
		Records:    records,
		StartedAt:  now,
		FinishedAt: now,
		Complete:   true,
	}
	saved, err := svc.Save(ctx, report, opts.out, outputFormat(opts, cfg, opts.out))
	if err != nil {
		log.Error().Err(err).Str("path", opts.out).Msg("failed to write report")
		return exitError
	}

	fmt.Fprintf(stdout, "\n%d device(s) converted to %s\n", len(records), saved)
	return exitOK
}
