// Package service runs scans and saves their reports.
//
// SubnetScanner handles one /24: it calls the host prober once, then fans the
// discovered hosts out to a fixed pool of workers that classify them (running
// the SNMP identity query where the classifier asks for it). Each worker keeps
// its own result slice; the slices are merged and sorted by address when the
// pool is done.
//
// Aggregator drives the SubnetScanner over an octet range in ascending order.
// Discovery failures stay inside their subnet. Cancellation stops the run
// before the next subnet and keeps what was already complete.
//
// ReportService writes a finished report through the codec package or into
// the SQLite report database.
//
// # Event System
//
// Scanners publish progress on an EventBus: subnet-started, subnet-probed,
// host-classified, subnet-complete and subnet-failed.
package service
