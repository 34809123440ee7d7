// Package classify decides which discovered hosts are managed switches.
//
// A host is first checked against the vendor exclusion list (surveillance
// camera manufacturers by default). Hosts that survive are typed from their
// open management ports and, when needed, their SNMP identity, then kept or
// dropped according to the Policy.
package classify

import (
	"context"
	"strings"

	"switchscan/internal/adapter"
	"switchscan/internal/domain"
)

// Decision is the outcome of classifying one host
type Decision int

const (
	// DecisionReported means a record was produced
	DecisionReported Decision = iota
	// DecisionExcluded means the vendor matched an exclusion token
	DecisionExcluded
	// DecisionDropped means the host was typed but the policy does not report it
	DecisionDropped
)

func (d Decision) String() string {
	switch d {
	case DecisionReported:
		return "reported"
	case DecisionExcluded:
		return "excluded"
	case DecisionDropped:
		return "dropped"
	default:
		return "unknown"
	}
}

// DefaultExclusions are the camera vendors never reported as switches
var DefaultExclusions = []string{
	"hikvision",
	"intelbras",
	"dahua",
	"greatek",
	"multilaser",
	"provision",
	"uniview",
}

// Policy controls which typed hosts become records
type Policy struct {
	// Exclusions are case-insensitive vendor substrings
	Exclusions []string
	// IncludeSNMPOnly reports hosts identified only through SNMP
	IncludeSNMPOnly bool
	// IncludeUnconfirmed reports every non-excluded host
	IncludeUnconfirmed bool
	// ProbeClosedHosts queries SNMP on hosts without any open interest port
	ProbeClosedHosts bool
}

// DefaultPolicy reports port-based and SNMP-based devices
func DefaultPolicy() Policy {
	return Policy{
		Exclusions:       append([]string(nil), DefaultExclusions...),
		IncludeSNMPOnly:  true,
		ProbeClosedHosts: true,
	}
}

// Classifier applies a Policy using an SNMP identity prober
type Classifier struct {
	exclusions []string
	policy     Policy
	prober     adapter.IdentityProber
}

// New creates a Classifier. Exclusion tokens are normalized to lower case
// and blank tokens are ignored.
func New(policy Policy, prober adapter.IdentityProber) *Classifier {
	exclusions := make([]string, 0, len(policy.Exclusions))
	for _, token := range policy.Exclusions {
		if token = strings.ToLower(strings.TrimSpace(token)); token != "" {
			exclusions = append(exclusions, token)
		}
	}

	return &Classifier{
		exclusions: exclusions,
		policy:     policy,
		prober:     prober,
	}
}

// Excluded reports whether vendor matches any exclusion token
func (c *Classifier) Excluded(vendor string) bool {
	v := strings.ToLower(vendor)
	for _, token := range c.exclusions {
		if strings.Contains(v, token) {
			return true
		}
	}
	return false
}

// Classify types one host. The identity prober is called at most once and
// never for excluded hosts.
func (c *Classifier) Classify(ctx context.Context, host domain.HostProbeResult, subnet string) (domain.DeviceRecord, Decision) {
	if c.Excluded(host.Vendor) {
		return domain.DeviceRecord{}, DecisionExcluded
	}

	identity := domain.NoIdentity
	if c.shouldProbe(host) {
		identity = c.prober.Identify(ctx, host.IP)
	}

	deviceType := TypeOf(host, identity)
	if !c.reports(deviceType) {
		return domain.DeviceRecord{}, DecisionDropped
	}

	return domain.NewDeviceRecord(host, identity, deviceType, subnet), DecisionReported
}

func (c *Classifier) shouldProbe(host domain.HostProbeResult) bool {
	if c.prober == nil {
		return false
	}
	return len(host.OpenPorts) > 0 || c.policy.ProbeClosedHosts
}

func (c *Classifier) reports(t domain.DeviceType) bool {
	switch t {
	case domain.DeviceTypePorts:
		return true
	case domain.DeviceTypeSNMP:
		return c.policy.IncludeSNMPOnly || c.policy.IncludeUnconfirmed
	default:
		return c.policy.IncludeUnconfirmed
	}
}

// TypeOf derives the device type: management ports win over SNMP
func TypeOf(host domain.HostProbeResult, identity domain.SNMPIdentity) domain.DeviceType {
	switch {
	case host.HasManagementPort():
		return domain.DeviceTypePorts
	case identity.Present():
		return domain.DeviceTypeSNMP
	default:
		return domain.DeviceTypeUnconfirmed
	}
}
