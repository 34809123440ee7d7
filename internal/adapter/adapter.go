package adapter

import (
	"context"

	"switchscan/internal/domain"
)

// HostProber discovers live hosts and their open interest ports in a /24.
//
// Probe returns an empty slice and a nil error when nothing answers. It
// returns a *domain.ScanFailure when discovery cannot run at all, and the
// context error when ctx is cancelled.
type HostProber interface {
	Probe(ctx context.Context, target domain.ScanTarget) ([]domain.HostProbeResult, error)
}

// IdentityProber performs the single SNMP identity query for a host.
// Every failure collapses to domain.NoIdentity; it never returns an error.
type IdentityProber interface {
	Identify(ctx context.Context, ip string) domain.SNMPIdentity
}

// HostKeyProber fetches an SSH host key fingerprint without authenticating
type HostKeyProber interface {
	HostKey(ctx context.Context, ip string) (string, bool)
}

// IdentityProberFunc adapts a function to IdentityProber
type IdentityProberFunc func(ctx context.Context, ip string) domain.SNMPIdentity

// Identify implements IdentityProber
func (f IdentityProberFunc) Identify(ctx context.Context, ip string) domain.SNMPIdentity {
	return f(ctx, ip)
}
