package adapter

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/gosnmp/gosnmp"

	"switchscan/internal/domain"
	"switchscan/internal/logger"
)

const (
	// OIDSysDescr is SNMPv2-MIB::sysDescr.0
	OIDSysDescr = ".1.3.6.1.2.1.1.1.0"

	DefaultCommunity   = "public"
	defaultSNMPPort    = 161
	defaultSNMPTimeout = 2 * time.Second
)

// SNMPProber reads sysDescr over SNMP v2c with gosnmp
type SNMPProber struct {
	community string
	port      uint16
	timeout   time.Duration
	retries   int
	logger    logger.Logger
}

// SNMPOption configures an SNMPProber
type SNMPOption func(*SNMPProber)

// WithCommunity sets the v2c community string
func WithCommunity(community string) SNMPOption {
	return func(s *SNMPProber) {
		if community != "" {
			s.community = community
		}
	}
}

// WithSNMPPort sets the UDP port of the agent
func WithSNMPPort(port uint16) SNMPOption {
	return func(s *SNMPProber) {
		if port != 0 {
			s.port = port
		}
	}
}

// WithSNMPTimeout sets the per-request timeout
func WithSNMPTimeout(d time.Duration) SNMPOption {
	return func(s *SNMPProber) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithSNMPRetries sets retransmissions, clamped to 0..1
func WithSNMPRetries(n int) SNMPOption {
	return func(s *SNMPProber) {
		s.retries = min(max(n, 0), 1)
	}
}

// NewSNMPProber creates a native SNMP identity prober
func NewSNMPProber(log logger.Logger, opts ...SNMPOption) *SNMPProber {
	s := &SNMPProber{
		community: DefaultCommunity,
		port:      defaultSNMPPort,
		timeout:   defaultSNMPTimeout,
		retries:   1,
		logger:    log.WithComponent("snmp"),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Identify performs one GET of sysDescr.0
func (s *SNMPProber) Identify(ctx context.Context, ip string) domain.SNMPIdentity {
	client := &gosnmp.GoSNMP{
		Context:   ctx,
		Target:    ip,
		Port:      s.port,
		Community: s.community,
		Version:   gosnmp.Version2c,
		Timeout:   s.timeout,
		Retries:   s.retries,
		MaxOids:   gosnmp.MaxOids,
	}

	if err := client.Connect(); err != nil {
		s.logFailure(ip, "transport", err)
		return domain.NoIdentity
	}
	defer client.Conn.Close()

	result, err := client.Get([]string{OIDSysDescr})
	if err != nil {
		s.logFailure(ip, failureKind(ctx, err), err)
		return domain.NoIdentity
	}

	identity, err := identityFromPacket(result)
	if err != nil {
		s.logFailure(ip, "snmp-error", err)
		return domain.NoIdentity
	}

	s.logger.Trace().Str("ip", ip).Str("sys_descr", identity.Value()).Msg("SNMP identity")

	return identity
}

func (s *SNMPProber) logFailure(ip, kind string, err error) {
	s.logger.Debug().Str("ip", ip).Str("kind", kind).Err(err).Msg("SNMP query failed")
}

var (
	errNoVariables = errors.New("empty SNMP response")
	errNoSuchValue = errors.New("sysDescr not available")
)

// identityFromPacket extracts sysDescr from a GET response
func identityFromPacket(pkt *gosnmp.SnmpPacket) (domain.SNMPIdentity, error) {
	if pkt == nil || len(pkt.Variables) == 0 {
		return domain.NoIdentity, errNoVariables
	}

	if pkt.Error != gosnmp.NoError {
		return domain.NoIdentity, fmt.Errorf("error status %s (index %d)", pkt.Error, pkt.ErrorIndex)
	}

	v := pkt.Variables[0]

	switch v.Type {
	case gosnmp.NoSuchObject, gosnmp.NoSuchInstance, gosnmp.EndOfMibView, gosnmp.Null:
		return domain.NoIdentity, fmt.Errorf("%w: %s", errNoSuchValue, v.Type)
	case gosnmp.OctetString:
		b, ok := v.Value.([]byte)
		if !ok {
			return domain.NoIdentity, fmt.Errorf("unexpected %T for OctetString", v.Value)
		}
		identity := domain.NewSNMPIdentity(string(b))
		if !identity.Present() {
			return domain.NoIdentity, errNoSuchValue
		}
		return identity, nil
	default:
		identity := domain.NewSNMPIdentity(fmt.Sprint(v.Value))
		if !identity.Present() {
			return domain.NoIdentity, errNoSuchValue
		}
		return identity, nil
	}
}

// failureKind maps a transport error to the logged failure kind
func failureKind(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return "cancelled"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return timeoutKind
	}

	// gosnmp reports exhausted retries as "request timeout (after N retries)"
	if strings.Contains(strings.ToLower(err.Error()), "timeout") {
		return timeoutKind
	}

	return "transport"
}

var timeoutKind = domain.ErrProbeTimeout.Error()
