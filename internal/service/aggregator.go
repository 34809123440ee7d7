package service

import (
	"context"
	"time"

	"switchscan/internal/domain"
	"switchscan/internal/logger"
)

// ScanReport is the aggregate of a multi-subnet scan
type ScanReport struct {
	Prefix     domain.Prefix
	Range      domain.OctetRange
	Subnets    []SubnetResult
	Records    []domain.DeviceRecord
	StartedAt  time.Time
	FinishedAt time.Time
	// Complete is false when the scan was interrupted
	Complete bool
}

// Empty reports whether no device was reported
func (r *ScanReport) Empty() bool {
	return len(r.Records) == 0
}

// Failed returns the subnets whose discovery could not run
func (r *ScanReport) Failed() []SubnetResult {
	var failed []SubnetResult
	for _, s := range r.Subnets {
		if s.Err != nil {
			failed = append(failed, s)
		}
	}
	return failed
}

// Run returns the report metadata
func (r *ScanReport) Run() domain.ScanRun {
	return domain.ScanRun{
		Prefix:     r.Prefix.String(),
		Range:      r.Range.String(),
		StartedAt:  r.StartedAt,
		FinishedAt: r.FinishedAt,
		Complete:   r.Complete,
	}
}

// Summaries returns the per-subnet summaries in scan order
func (r *ScanReport) Summaries() []domain.SubnetSummary {
	out := make([]domain.SubnetSummary, 0, len(r.Subnets))
	for _, s := range r.Subnets {
		out = append(out, s.Summary())
	}
	return out
}

// subnetScanner is what the Aggregator needs from SubnetScanner
type subnetScanner interface {
	Scan(ctx context.Context, target domain.ScanTarget) SubnetResult
}

// Aggregator scans an octet range one subnet at a time
type Aggregator struct {
	scanner subnetScanner
	logger  logger.Logger
}

// NewAggregator creates an aggregator over scanner
func NewAggregator(scanner *SubnetScanner, log logger.Logger) *Aggregator {
	return &Aggregator{
		scanner: scanner,
		logger:  log.WithComponent("aggregator"),
	}
}

// Scan runs every subnet of octets under prefix in ascending order and
// concatenates their records. A failed subnet never stops the next one.
// On cancellation the records of the subnets finished so far are returned
// together with ctx.Err().
func (a *Aggregator) Scan(ctx context.Context, prefix domain.Prefix, octets domain.OctetRange) (*ScanReport, error) {
	targets, err := octets.Targets(prefix)
	if err != nil {
		return nil, err
	}

	report := &ScanReport{
		Prefix:    prefix,
		Range:     octets,
		StartedAt: time.Now(),
	}

	a.logger.Info().
		Str("prefix", prefix.String()).
		Str("octets", octets.String()).
		Int("subnets", len(targets)).
		Msg("starting scan")

	for _, target := range targets {
		if ctx.Err() != nil {
			break
		}

		result := a.scanner.Scan(ctx, target)
		report.Subnets = append(report.Subnets, result)

		if result.Interrupted {
			break
		}

		report.Records = append(report.Records, result.Records...)
	}

	report.FinishedAt = time.Now()

	if err := ctx.Err(); err != nil {
		a.logger.Warn().
			Int("subnets_done", completed(report.Subnets)).
			Int("records", len(report.Records)).
			Msg("scan interrupted")
		return report, err
	}

	report.Complete = true

	a.logger.Info().
		Int("records", len(report.Records)).
		Int("failed_subnets", len(report.Failed())).
		Dur("elapsed", report.FinishedAt.Sub(report.StartedAt)).
		Msg("scan complete")

	return report, nil
}

func completed(results []SubnetResult) int {
	n := 0
	for _, r := range results {
		if !r.Interrupted {
			n++
		}
	}
	return n
}
