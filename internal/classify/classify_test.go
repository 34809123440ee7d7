package classify

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"switchscan/internal/domain"
)

// fakeProber returns canned identities and counts calls per IP
type fakeProber struct {
	mu         sync.Mutex
	identities map[string]string
	calls      map[string]int
}

func newFakeProber(identities map[string]string) *fakeProber {
	return &fakeProber{identities: identities, calls: make(map[string]int)}
}

func (f *fakeProber) Identify(_ context.Context, ip string) domain.SNMPIdentity {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[ip]++
	if v, ok := f.identities[ip]; ok {
		return domain.NewSNMPIdentity(v)
	}
	return domain.NoIdentity
}

func (f *fakeProber) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func host(ip, vendor string, ports ...int) domain.HostProbeResult {
	mac := "00:11:22:33:44:55"
	if vendor == domain.Unknown {
		mac = ""
	}
	return domain.NewHostProbeResult(ip, mac, vendor, ports, domain.DefaultInterestPorts)
}

func TestClassify_ExcludedVendorsSkipSNMP(t *testing.T) {
	vendors := []string{
		"Hikvision",
		"HANGZHOU HIKVISION DIGITAL TECHNOLOGY",
		"Intelbras",
		"Zhejiang Dahua Technology",
		"GREATEK",
		"Multilaser Industrial",
		"Provision-ISR",
		"Zhejiang Uniview Technologies",
	}

	for _, vendor := range vendors {
		t.Run(vendor, func(t *testing.T) {
			prober := newFakeProber(map[string]string{"192.168.15.10": "IP Camera"})
			c := New(DefaultPolicy(), prober)

			record, decision := c.Classify(context.Background(), host("192.168.15.10", vendor, 22, 80, 161), "192.168.15.0/24")

			assert.Equal(t, DecisionExcluded, decision)
			assert.Equal(t, domain.DeviceRecord{}, record)
			assert.Zero(t, prober.total(), "SNMP must not be queried for excluded vendors")
		})
	}
}

func TestClassify_ManagementPortsAreAlwaysPortsBased(t *testing.T) {
	for _, port := range domain.ManagementPorts {
		for _, identity := range []string{"", "Cisco IOS Software"} {
			identities := map[string]string{}
			if identity != "" {
				identities["10.0.0.1"] = identity
			}
			c := New(DefaultPolicy(), newFakeProber(identities))

			record, decision := c.Classify(context.Background(), host("10.0.0.1", "Cisco Systems", port, 443), "10.0.0.0/24")

			require.Equal(t, DecisionReported, decision)
			assert.Equal(t, domain.DeviceTypePorts, record.Type, "port %d identity %q", port, identity)
		}
	}
}

func TestClassify_SNMPOnly(t *testing.T) {
	tests := []struct {
		name         string
		policy       Policy
		wantDecision Decision
	}{
		{
			name:         "included by default",
			policy:       DefaultPolicy(),
			wantDecision: DecisionReported,
		},
		{
			name: "dropped when SNMP-only disabled",
			policy: Policy{
				Exclusions:       DefaultExclusions,
				IncludeSNMPOnly:  false,
				ProbeClosedHosts: true,
			},
			wantDecision: DecisionDropped,
		},
		{
			name: "report everything overrides SNMP-only",
			policy: Policy{
				Exclusions:         DefaultExclusions,
				IncludeUnconfirmed: true,
				ProbeClosedHosts:   true,
			},
			wantDecision: DecisionReported,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			prober := newFakeProber(map[string]string{"10.0.0.2": "ProCurve J9773A 2530-24G-PoEP\nRevision YA.16"})
			c := New(tt.policy, prober)

			record, decision := c.Classify(context.Background(), host("10.0.0.2", "Hewlett Packard", 80, 443), "10.0.0.0/24")

			assert.Equal(t, tt.wantDecision, decision)
			assert.Equal(t, 1, prober.total())
			if decision == DecisionReported {
				assert.Equal(t, domain.DeviceTypeSNMP, record.Type)
				assert.Equal(t, "ProCurve J9773A 2530-24G-PoEP", record.SNMPModel)
				assert.Equal(t, "80, 443", record.OpenPorts)
			}
		})
	}
}

func TestClassify_Unconfirmed(t *testing.T) {
	h := host("10.0.0.3", "Some Vendor", 80)

	c := New(DefaultPolicy(), newFakeProber(nil))
	_, decision := c.Classify(context.Background(), h, "10.0.0.0/24")
	assert.Equal(t, DecisionDropped, decision)

	policy := DefaultPolicy()
	policy.IncludeUnconfirmed = true
	c = New(policy, newFakeProber(nil))

	record, decision := c.Classify(context.Background(), h, "10.0.0.0/24")
	require.Equal(t, DecisionReported, decision)
	assert.Equal(t, domain.DeviceTypeUnconfirmed, record.Type)
	assert.Equal(t, domain.NotResponding, record.SNMPModel)
}

func TestClassify_ProbeClosedHosts(t *testing.T) {
	closed := host("10.0.0.4", domain.Unknown)

	t.Run("enabled", func(t *testing.T) {
		prober := newFakeProber(map[string]string{"10.0.0.4": "Aruba Switch"})
		c := New(DefaultPolicy(), prober)

		record, decision := c.Classify(context.Background(), closed, "10.0.0.0/24")

		require.Equal(t, DecisionReported, decision)
		assert.Equal(t, domain.DeviceTypeSNMP, record.Type)
		assert.Equal(t, domain.NoPorts, record.OpenPorts)
		assert.Equal(t, 1, prober.total())
	})

	t.Run("disabled", func(t *testing.T) {
		prober := newFakeProber(map[string]string{"10.0.0.4": "Aruba Switch"})
		policy := DefaultPolicy()
		policy.ProbeClosedHosts = false
		c := New(policy, prober)

		_, decision := c.Classify(context.Background(), closed, "10.0.0.0/24")

		assert.Equal(t, DecisionDropped, decision)
		assert.Zero(t, prober.total(), "closed hosts must not be queried")
	})

	t.Run("disabled still probes hosts with open ports", func(t *testing.T) {
		prober := newFakeProber(map[string]string{"10.0.0.5": "Aruba Switch"})
		policy := DefaultPolicy()
		policy.ProbeClosedHosts = false
		c := New(policy, prober)

		record, decision := c.Classify(context.Background(), host("10.0.0.5", "Aruba", 443), "10.0.0.0/24")

		require.Equal(t, DecisionReported, decision)
		assert.Equal(t, domain.DeviceTypeSNMP, record.Type)
		assert.Equal(t, 1, prober.total())
	})
}

func TestClassify_Idempotent(t *testing.T) {
	prober := newFakeProber(map[string]string{"10.0.0.6": "Juniper EX2300"})
	c := New(DefaultPolicy(), prober)
	h := host("10.0.0.6", "Juniper Networks", 22, 161, 443)

	first, d1 := c.Classify(context.Background(), h, "10.0.0.0/24")
	second, d2 := c.Classify(context.Background(), h, "10.0.0.0/24")

	assert.Equal(t, d1, d2)
	assert.Equal(t, first, second)
	assert.Equal(t, strings.Join(first.Row(), "|"), strings.Join(second.Row(), "|"))
}

func TestClassify_SubnetScenario(t *testing.T) {
	hosts := []domain.HostProbeResult{
		host("192.168.15.10", "Hikvision", 80),
		host("192.168.15.11", "Cisco", 22, 80),
		host("192.168.15.12", domain.Unknown),
	}

	prober := newFakeProber(map[string]string{"192.168.15.12": "Aruba Switch"})
	c := New(DefaultPolicy(), prober)

	var records []domain.DeviceRecord
	for _, h := range hosts {
		if record, decision := c.Classify(context.Background(), h, "192.168.15.0/24"); decision == DecisionReported {
			records = append(records, record)
		}
	}

	require.Len(t, records, 2)

	assert.Equal(t, "192.168.15.11", records[0].IP)
	assert.Equal(t, domain.DeviceTypePorts, records[0].Type)
	assert.Equal(t, "22, 80", records[0].OpenPorts)

	assert.Equal(t, "192.168.15.12", records[1].IP)
	assert.Equal(t, domain.DeviceTypeSNMP, records[1].Type)
	assert.Equal(t, "Aruba Switch", records[1].SNMPModel)
	assert.Equal(t, domain.NoPorts, records[1].OpenPorts)

	assert.Zero(t, prober.calls["192.168.15.10"])
	assert.Equal(t, 1, prober.calls["192.168.15.11"])
	assert.Equal(t, 1, prober.calls["192.168.15.12"])

	for _, r := range records {
		for _, token := range DefaultExclusions {
			assert.NotContains(t, strings.ToLower(r.Vendor), token)
		}
	}
}

func TestNew_NormalizesExclusions(t *testing.T) {
	c := New(Policy{Exclusions: []string{"  ACME ", "", "Foo"}}, nil)

	assert.True(t, c.Excluded("Acme Cameras Ltd"))
	assert.True(t, c.Excluded("FOOBAR"))
	assert.False(t, c.Excluded(domain.Unknown))
}

func TestClassify_NilProber(t *testing.T) {
	c := New(DefaultPolicy(), nil)

	record, decision := c.Classify(context.Background(), host("10.0.0.7", "Cisco", 23), "10.0.0.0/24")

	require.Equal(t, DecisionReported, decision)
	assert.Equal(t, domain.NotResponding, record.SNMPModel)
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "reported", DecisionReported.String())
	assert.Equal(t, "excluded", DecisionExcluded.String())
	assert.Equal(t, "dropped", DecisionDropped.String())
	assert.Equal(t, "unknown", Decision(42).String())
}
